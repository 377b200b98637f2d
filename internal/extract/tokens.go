package extract

import (
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"github.com/civicgate/filingpilot/internal/session"
)

// Canonical wire names of the token bundle.
const (
	ViewStateParam    = "javax.faces.ViewState"
	ClientWindowParam = "javax.faces.ClientWindow"
	NonceParam        = "wizardForm:requestToken"
)

// TokenError reports that no recognized shape yielded one of the tokens.
type TokenError struct {
	Which string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("no recognized markup shape yielded token %q", e.Which)
}

// tokenSpec describes every shape one token is known to appear in.
type tokenSpec struct {
	which      string
	param      string   // canonical hidden input name
	idSuffix   string   // DOM id suffix fallback
	scriptKeys []string // inline script literal keys
}

var tokenSpecs = []tokenSpec{
	{
		which:      "viewState",
		param:      ViewStateParam,
		idSuffix:   "ViewState",
		scriptKeys: []string{"javax\\.faces\\.ViewState", "viewState"},
	},
	{
		which:      "clientWindow",
		param:      ClientWindowParam,
		idSuffix:   "ClientWindow",
		scriptKeys: []string{"javax\\.faces\\.ClientWindow", "clientWindow"},
	},
	{
		which:      "nonce",
		param:      NonceParam,
		idSuffix:   "requestToken",
		scriptKeys: []string{"requestToken"},
	},
}

// tokenStrategy is one recognized shape. Returns "" when the shape is absent;
// strategies never error, the caller decides when exhaustion is fatal.
type tokenStrategy func(e *Extractor, doc *goquery.Document, body string, spec tokenSpec) string

// tokenStrategies is the fixed priority list. Order matters only for which
// shape wins when several are present; all shapes of one token carry the same
// value, so the result is order-independent.
var tokenStrategies = []tokenStrategy{
	hiddenInputShape,
	updateBlockShape,
	idSuffixShape,
	scriptLiteralShape,
}

// hiddenInputShape: the canonical hidden form field.
func hiddenInputShape(e *Extractor, doc *goquery.Document, body string, spec tokenSpec) string {
	if doc == nil {
		return ""
	}
	var value string
	doc.Find("input[type='hidden']").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if name, ok := s.Attr("name"); ok && name == spec.param {
			value = s.AttrOr("value", "")
			return false
		}
		return true
	})
	return value
}

// updateBlockShape: a partial-response <update> element whose id names the
// token, with a CDATA-wrapped value.
func updateBlockShape(e *Extractor, doc *goquery.Document, body string, spec tokenSpec) string {
	re := e.mustRegex(`(?s)<update\s+id="[^"]*` + regexp.QuoteMeta(spec.idSuffix) + `[^"]*"\s*>\s*<!\[CDATA\[(.*?)\]\]>\s*</update>`)
	if m := re.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// idSuffixShape: any element whose DOM id ends in the token suffix and
// carries a value attribute, in either attribute order.
func idSuffixShape(e *Extractor, doc *goquery.Document, body string, spec tokenSpec) string {
	suffix := regexp.QuoteMeta(spec.idSuffix)
	patterns := []string{
		`id="[^"]*` + suffix + `"[^>]*\bvalue="([^"]*)"`,
		`\bvalue="([^"]*)"[^>]*id="[^"]*` + suffix + `"`,
	}
	for _, p := range patterns {
		if m := e.mustRegex(p).FindStringSubmatch(body); m != nil && m[1] != "" {
			return m[1]
		}
	}
	return ""
}

// scriptLiteralShape: an inline script assignment such as
// "javax.faces.ViewState":"..." or viewState = '...'.
func scriptLiteralShape(e *Extractor, doc *goquery.Document, body string, spec tokenSpec) string {
	for _, key := range spec.scriptKeys {
		patterns := []string{
			`"` + key + `"\s*:\s*"([^"]+)"`,
			key + `\s*=\s*['"]([^'"]+)['"]`,
		}
		for _, p := range patterns {
			if m := e.mustRegex(p).FindStringSubmatch(body); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// Tokens scans a body for whatever tokens it carries. Absent tokens come back
// empty; servers omit tokens they did not rotate, so the caller merges into
// the previous bundle.
func (e *Extractor) Tokens(body string) session.Tokens {
	doc, err := loadDocument(body)
	if err != nil {
		doc = nil
	}

	var out session.Tokens
	for _, spec := range tokenSpecs {
		value := ""
		for _, strategy := range tokenStrategies {
			if value = strategy(e, doc, body, spec); value != "" {
				break
			}
		}
		switch spec.which {
		case "viewState":
			out.ViewState = value
		case "clientWindow":
			out.ClientWindow = value
		case "nonce":
			out.Nonce = value
		}
	}
	return out
}

// RequireTokens scans a body and fails with a TokenError naming the first
// token no shape yielded. fallbackWindow, when non-empty, substitutes for an
// absent client window (some entry pages only carry it in the URL the server
// redirected to).
func (e *Extractor) RequireTokens(body, fallbackWindow string) (session.Tokens, error) {
	tokens := e.Tokens(body)
	if tokens.ClientWindow == "" {
		tokens.ClientWindow = fallbackWindow
	}

	switch {
	case tokens.ViewState == "":
		return session.Tokens{}, &TokenError{Which: "viewState"}
	case tokens.ClientWindow == "":
		return session.Tokens{}, &TokenError{Which: "clientWindow"}
	case tokens.Nonce == "":
		return session.Tokens{}, &TokenError{Which: "nonce"}
	}
	return tokens, nil
}
