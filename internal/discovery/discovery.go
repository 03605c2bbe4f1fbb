// Package discovery finds request/before/after test-case triples in a
// directory.
package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/mcncl/jsonlens/internal/errors"
	"github.com/mcncl/jsonlens/internal/parser"
	"github.com/mcncl/jsonlens/internal/session"
)

const (
	resultPrefix = "Result for "
	afterSuffix  = " after.json"
)

// TestCase is one matched triple: <name>.json, "Result for <name>.json" and
// "Result for <name> after.json".
type TestCase struct {
	Name        string
	RequestFile string
	BeforeFile  string
	AfterFile   string
	Documents   session.Documents
}

// BeforeFileName returns the file name holding the before state of name.
func BeforeFileName(name string) string {
	return resultPrefix + name + ".json"
}

// AfterFileName returns the file name holding the after state of name.
func AfterFileName(name string) string {
	return resultPrefix + name + afterSuffix
}

// Find returns every complete test case in dir, sorted by name, with all
// three documents parsed. Requests without both result files are skipped.
func Find(dir string) ([]TestCase, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("failed to read test case directory '%s'", dir), err)
	}

	files := make(map[string]bool)
	var requests []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ".json") {
			continue
		}
		files[name] = true
		if !strings.HasPrefix(name, resultPrefix) && !strings.HasSuffix(name, afterSuffix) {
			requests = append(requests, name)
		}
	}
	slices.Sort(requests)

	var cases []TestCase
	for _, req := range requests {
		name := req[:len(req)-len(".json")]
		before, after := BeforeFileName(name), AfterFileName(name)
		if !files[before] || !files[after] {
			continue
		}

		tc := TestCase{
			Name:        name,
			RequestFile: filepath.Join(dir, req),
			BeforeFile:  filepath.Join(dir, before),
			AfterFile:   filepath.Join(dir, after),
		}
		if tc.Documents, err = load(tc); err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}

	if len(cases) == 0 {
		return nil, errors.NewInputError(fmt.Sprintf("no test cases in '%s'", dir), errors.ErrNoTestCases)
	}
	return cases, nil
}

func load(tc TestCase) (session.Documents, error) {
	var docs session.Documents
	var err error
	if docs.Request, err = parser.ParseFile(tc.RequestFile); err != nil {
		return docs, err
	}
	if docs.Before, err = parser.ParseFile(tc.BeforeFile); err != nil {
		return docs, err
	}
	if docs.After, err = parser.ParseFile(tc.AfterFile); err != nil {
		return docs, err
	}
	return docs, nil
}
