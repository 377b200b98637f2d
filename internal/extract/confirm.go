package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/civicgate/filingpilot/internal/types"
)

// Confirmation-exchange scanning: the transaction id, the confirmation
// identifiers, the fee schedule, and payment instructions.

// TransactionIDFromLocation parses a transaction id out of a redirect
// Location header. The id arrives as a "tid" query parameter; as a fallback
// the last path segment is used when it looks like an identifier.
func (e *Extractor) TransactionIDFromLocation(location string) string {
	if location == "" {
		return ""
	}
	u, err := url.Parse(location)
	if err != nil {
		return ""
	}
	if tid := u.Query().Get("tid"); tid != "" {
		return tid
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) == 0 {
		return ""
	}
	last := segments[len(segments)-1]
	if e.mustRegex(`^[A-Z0-9][A-Za-z0-9-]{5,}$`).MatchString(last) {
		return last
	}
	return ""
}

// TransactionID scans a body for an embedded transaction id, the fallback
// path when the confirmation response is not a redirect. Empty when absent.
func (e *Extractor) TransactionID(body string) string {
	patterns := []string{
		`<input[^>]*\bname="transactionId"[^>]*\bvalue="([^"]+)"`,
		`<input[^>]*\bvalue="([^"]+)"[^>]*\bname="transactionId"`,
		`"transactionId"\s*:\s*"([^"]+)"`,
		`(?i)transaction\s*(?:id|number)\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{5,})`,
	}
	for _, p := range patterns {
		if m := e.mustRegex(p).FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

// ConfirmationID scans the confirmation page for the authority's durable
// confirmation identifier.
func (e *Extractor) ConfirmationID(body string) string {
	doc, err := loadDocument(body)
	if err == nil {
		for _, sel := range []string{"#confirmationNumber", "#confirmationId", ".confirmation-number"} {
			if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
				return normalizeWhitespace(text)
			}
		}
	}
	if m := e.mustRegex(`(?i)confirmation\s*(?:id|number)\s*[:#]?\s*([A-Z0-9][A-Z0-9/-]{3,})`).FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

// Fees extracts the fee schedule table from the confirmation page. Rows are
// expected as code/description/amount cells; two-cell rows drop the code.
func (e *Extractor) Fees(body string) []types.Fee {
	doc, err := loadDocument(body)
	if err != nil {
		return nil
	}

	var fees []types.Fee
	doc.Find("table#feeTable tr, table.fee-table tr, [id$='feeTable'] tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		switch cells.Length() {
		case 3:
			fees = append(fees, types.Fee{
				Code:        normalizeWhitespace(cells.Eq(0).Text()),
				Description: normalizeWhitespace(cells.Eq(1).Text()),
				Amount:      normalizeWhitespace(cells.Eq(2).Text()),
			})
		case 2:
			fees = append(fees, types.Fee{
				Description: normalizeWhitespace(cells.Eq(0).Text()),
				Amount:      normalizeWhitespace(cells.Eq(1).Text()),
			})
		}
	})
	return fees
}

// PaymentInstructions extracts the payment-instruction block as plain text.
// An xpath pass catches containers goquery's CSS engine cannot address.
func (e *Extractor) PaymentInstructions(body string) string {
	doc, err := loadDocument(body)
	if err == nil {
		for _, sel := range []string{"#paymentInstructions", ".payment-instructions"} {
			if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
				return normalizeWhitespace(text)
			}
		}
	}

	node, err := loadNode(body)
	if err != nil {
		return ""
	}
	found := htmlquery.FindOne(node, `//*[contains(@class,"payment") and contains(@class,"instruction")]`)
	if found == nil {
		return ""
	}
	return normalizeWhitespace(htmlquery.InnerText(found))
}
