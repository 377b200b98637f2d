package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/civicgate/filingpilot/internal/types"
)

// MarkerKind classifies a recognized error signature.
type MarkerKind string

const (
	// MarkerErrorPage is the portal's generic error page. Fatal; presumed
	// bad input rather than a transient fault.
	MarkerErrorPage MarkerKind = "error_page"
	// MarkerFieldValidation is an inline per-field validation block.
	MarkerFieldValidation MarkerKind = "field_validation"
)

// Marker is a structured view of an error signature found in a response.
type Marker struct {
	Kind    MarkerKind
	Message string
	Fields  []types.FieldError
}

// Signatures of the generic error page as observed. Any single match counts.
var errorPageSignatures = []string{
	`id="errorPage"`,
	`id="generalError"`,
	"An unexpected error has occurred",
	"Es ist ein unerwarteter Fehler aufgetreten",
}

// ErrorMarkers scans a body for the generic error page and inline validation
// blocks. Returns nil when the body carries neither. Pure and idempotent:
// the same body always yields the same marker.
func (e *Extractor) ErrorMarkers(body string) *Marker {
	if body == "" {
		return nil
	}

	for _, sig := range errorPageSignatures {
		if strings.Contains(body, sig) {
			return &Marker{
				Kind:    MarkerErrorPage,
				Message: e.errorPageMessage(body),
			}
		}
	}

	// Partial responses wrap their markup in CDATA, which the HTML parser
	// skips, so those sections are scanned separately.
	fields := e.validationFields(body)
	for _, section := range e.cdataSections(body) {
		fields = append(fields, e.validationFields(section)...)
	}
	if len(fields) > 0 {
		return &Marker{
			Kind:    MarkerFieldValidation,
			Message: fields[0].Message,
			Fields:  dedupeFieldErrors(fields),
		}
	}
	return nil
}

func dedupeFieldErrors(fields []types.FieldError) []types.FieldError {
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		key := f.Field + "\x00" + f.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

// errorPageMessage pulls the human-readable text off the error page, falling
// back to a fixed description when the container is empty.
func (e *Extractor) errorPageMessage(body string) string {
	doc, err := loadDocument(body)
	if err == nil {
		for _, sel := range []string{"#errorPage", "#generalError", ".errorMessage"} {
			if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
				return normalizeWhitespace(text)
			}
		}
	}
	return "the portal rendered its generic error page"
}

// validationFields collects inline field-validation messages. The widget key
// is derived from the message element's own id, stripped of its message
// suffix, or from the nearest labelled ancestor.
func (e *Extractor) validationFields(body string) []types.FieldError {
	doc, err := loadDocument(body)
	if err != nil {
		return nil
	}

	var fields []types.FieldError
	seen := make(map[string]bool)

	doc.Find("span.ui-message-error-detail, div.ui-message-error, .validation-error").Each(func(i int, s *goquery.Selection) {
		message := e.stripMarkup(func() string {
			h, _ := s.Html()
			return h
		}())
		if message == "" {
			return
		}

		field := messageFieldKey(s)
		key := field + "\x00" + message
		if seen[key] {
			return
		}
		seen[key] = true

		fields = append(fields, types.FieldError{Field: field, Message: normalizeWhitespace(message)})
	})
	return fields
}

// messageFieldKey derives the offending widget's id from a message element.
func messageFieldKey(s *goquery.Selection) string {
	if id, ok := s.Attr("id"); ok && id != "" {
		for _, suffix := range []string{":msg", ":message", "_msg", "_message"} {
			if strings.HasSuffix(id, suffix) {
				return strings.TrimSuffix(id, suffix)
			}
		}
		return id
	}
	// Nearest labelled ancestor.
	parent := s.Closest("[id]")
	if parent.Length() > 0 {
		return parent.AttrOr("id", "")
	}
	return ""
}

// normalizeWhitespace collapses runs of whitespace into single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
