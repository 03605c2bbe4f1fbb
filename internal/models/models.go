package models

import "slices"

// JSONValue is a generic type to represent any JSON value.
// Concrete kinds are nil (null), bool, JSONNumber, string, JSONArray and
// *JSONObject.
type JSONValue interface{}

// JSONNumber holds the literal text of a JSON number so that values are
// rendered back exactly as they were read.
type JSONNumber string

// JSONArray represents a JSON array, which is a slice of JSONValues.
// Arrays are opaque leaves for projection, alignment and walking.
type JSONArray []JSONValue

// JSONObject represents a JSON object. Keys are unique and remember their
// insertion order; the order is used for display only.
type JSONObject struct {
	keys   []string
	fields map[string]JSONValue
}

// NewObject creates an empty JSONObject.
func NewObject() *JSONObject {
	return &JSONObject{fields: make(map[string]JSONValue)}
}

// Len returns the number of keys.
func (o *JSONObject) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns the keys in insertion order. The returned slice is a copy.
func (o *JSONObject) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// Get returns the value stored under key and whether the key is present.
func (o *JSONObject) Get(key string) (JSONValue, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.fields[key]
	return v, ok
}

// Has reports whether key is present.
func (o *JSONObject) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Set stores value under key. A key that is already present keeps its
// position.
func (o *JSONObject) Set(key string, value JSONValue) {
	if o.fields == nil {
		o.fields = make(map[string]JSONValue)
	}
	if _, exists := o.fields[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.fields[key] = value
}

// AsObject returns v as a *JSONObject when it is a non-nil mapping.
func AsObject(v JSONValue) (*JSONObject, bool) {
	obj, ok := v.(*JSONObject)
	if !ok || obj == nil {
		return nil, false
	}
	return obj, true
}

// IsObject reports whether v is a mapping.
func IsObject(v JSONValue) bool {
	_, ok := AsObject(v)
	return ok
}

// DeepCopy returns a full structural copy of v. Scalars are immutable and
// are shared.
func DeepCopy(v JSONValue) JSONValue {
	switch val := v.(type) {
	case *JSONObject:
		if val == nil {
			return nil
		}
		out := &JSONObject{
			keys:   slices.Clone(val.keys),
			fields: make(map[string]JSONValue, len(val.fields)),
		}
		for k, child := range val.fields {
			out.fields[k] = DeepCopy(child)
		}
		return out
	case JSONArray:
		if val == nil {
			return JSONArray(nil)
		}
		out := make(JSONArray, len(val))
		for i, child := range val {
			out[i] = DeepCopy(child)
		}
		return out
	default:
		return val
	}
}

// Equal reports whether a and b hold the same JSON value. Object key order
// is ignored.
func Equal(a, b JSONValue) bool {
	switch av := a.(type) {
	case *JSONObject:
		bv, ok := b.(*JSONObject)
		if !ok {
			return false
		}
		if av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			x, _ := av.Get(k)
			y, found := bv.Get(k)
			if !found || !Equal(x, y) {
				return false
			}
		}
		return true
	case JSONArray:
		bv, ok := b.(JSONArray)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
