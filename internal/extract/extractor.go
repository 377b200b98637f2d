package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

// MaxBodySize limits response input to 10MB to prevent memory exhaustion.
const MaxBodySize = 10 * 1024 * 1024

// Extractor provides all response-scanning operations. Safe for concurrent
// use; the regex cache is shared across sessions.
type Extractor struct {
	regexCache sync.Map
	stripper   *bluemonday.Policy
}

// New creates an extractor with a strict text policy for surfaced messages.
func New() *Extractor {
	return &Extractor{
		stripper: bluemonday.StrictPolicy(),
	}
}

// cachedRegex returns a compiled, cached regex.
func (e *Extractor) cachedRegex(pattern string) (*regexp.Regexp, error) {
	if cached, ok := e.regexCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.regexCache.Store(pattern, re)
	return re, nil
}

// mustRegex is cachedRegex for package-internal literals.
func (e *Extractor) mustRegex(pattern string) *regexp.Regexp {
	re, err := e.cachedRegex(pattern)
	if err != nil {
		panic(fmt.Sprintf("extract: bad pattern %q: %v", pattern, err))
	}
	return re
}

// stripMarkup reduces a markup fragment to trimmed plain text.
func (e *Extractor) stripMarkup(fragment string) string {
	return strings.TrimSpace(html.UnescapeString(e.stripper.Sanitize(fragment)))
}

// validateBody checks body size.
func validateBody(body string) error {
	if len(body) == 0 {
		return fmt.Errorf("response body required")
	}
	if len(body) > MaxBodySize {
		return fmt.Errorf("response body exceeds maximum size of %d bytes", MaxBodySize)
	}
	return nil
}

// detectCharset detects the charset of raw response bytes, returned as a
// content-type value for the charset-aware reader.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "text/html; charset=utf-8"
	}
	return "text/html; charset=" + strings.ToLower(result.Charset)
}

// loadDocument parses a body with charset detection. Partial-response XML
// parses leniently through the same path.
func loadDocument(body string) (*goquery.Document, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	data := []byte(body)
	reader := bytes.NewReader(data)
	utf8Reader, err := charset.NewReader(reader, detectCharset(data))
	if err != nil {
		return goquery.NewDocumentFromReader(strings.NewReader(body))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}

// loadNode parses a body into an xpath-compatible node tree.
func loadNode(body string) (*html.Node, error) {
	if err := validateBody(body); err != nil {
		return nil, err
	}

	data := []byte(body)
	reader := bytes.NewReader(data)
	utf8Reader, err := charset.NewReader(reader, detectCharset(data))
	if err != nil {
		return htmlquery.Parse(strings.NewReader(body))
	}
	return htmlquery.Parse(utf8Reader)
}

// cdataSections returns the contents of all CDATA blocks in a body. Partial
// responses wrap rendered fragments this way.
func (e *Extractor) cdataSections(body string) []string {
	re := e.mustRegex(`(?s)<!\[CDATA\[(.*?)\]\]>`)
	matches := re.FindAllStringSubmatch(body, -1)
	sections := make([]string, 0, len(matches))
	for _, m := range matches {
		sections = append(sections, m[1])
	}
	return sections
}
