package formatter

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
)

var (
	minifier *minify.M
	once     sync.Once
)

// getMinifier returns the shared minifier for pages and their inline
// styles and scripts.
func getMinifier() *minify.M {
	once.Do(func() {
		minifier = minify.New()
		minifier.AddFunc("text/html", html.Minify)
		minifier.AddFunc("text/css", css.Minify)
		minifier.AddFuncRegexp(regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$"), js.Minify)
	})
	return minifier
}

// Formatter post-processes generated pages
type Formatter struct {
	minify bool
}

// NewFormatter creates a new Formatter. With minify disabled pages are
// returned unchanged.
func NewFormatter(minify bool) *Formatter {
	return &Formatter{minify: minify}
}

// Format returns the page ready to be written out.
func (f *Formatter) Format(page string) (string, error) {
	if strings.TrimSpace(page) == "" {
		return "", nil
	}
	if !f.minify {
		return page, nil
	}

	out, err := getMinifier().String("text/html", page)
	if err != nil {
		return "", fmt.Errorf("failed to minify page: %w", err)
	}
	return out, nil
}
