package workflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/civicgate/filingpilot/internal/config"
	"github.com/civicgate/filingpilot/internal/documents"
	"github.com/civicgate/filingpilot/internal/logging"
	"github.com/civicgate/filingpilot/internal/monitoring"
	"github.com/civicgate/filingpilot/internal/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePortal emulates the wizard's wire behavior: token-carrying entry page,
// partial-ajax event responses, per-stage transition submissions, and the
// confirmation redirect.
type fakePortal struct {
	mu      sync.Mutex
	viewSeq int

	// failTransition makes that submission render the generic error page.
	failTransition string
	// tokenlessEntry serves an entry page carrying no tokens.
	tokenlessEntry bool

	entryGets   int
	events      []eventRecord
	submissions []string
	uploads     int
}

type eventRecord struct {
	source string
	value  string
}

func (p *fakePortal) nextViewState() string {
	p.viewSeq++
	return fmt.Sprintf("vs-%d", p.viewSeq)
}

func (p *fakePortal) fullPage(vs string) string {
	return fmt.Sprintf(`<html><body><form id="wizardForm" method="post">
<input type="hidden" name="javax.faces.ViewState" id="j_id1:javax.faces.ViewState:0" value="%s" autocomplete="off" />
<input type="hidden" name="javax.faces.ClientWindow" id="j_id1:javax.faces.ClientWindow:0" value="w1:0" />
<input type="hidden" name="wizardForm:requestToken" value="nonce-0" />
</form></body></html>`, vs)
}

func (p *fakePortal) partial(extra string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<partial-response><changes>%s
<update id="j_id1:javax.faces.ViewState:0"><![CDATA[%s]]></update>
</changes></partial-response>`, extra, p.nextViewState())
}

func (p *fakePortal) searchResults(term string) string {
	var items string
	switch term {
	case "Leather goods":
		items = `<li id="wizardForm:classTree:term:lg1" class="ui-tree-node">Leather goods</li>` +
			`<li id="wizardForm:classTree:term:lg2" class="ui-tree-node">Leather goods, imitation</li>`
	default:
		items = ""
	}
	return fmt.Sprintf(`
<update id="wizardForm:classTree"><![CDATA[<ul>%s</ul>]]></update>`, items)
}

const portalErrorPage = `<html><body><div id="errorPage">An unexpected error has occurred.</div></body></html>`

const confirmationPage = `<html><body>
<span id="confirmationNumber">2026/08/001234</span>
<table id="feeTable">
<tr><td>BASE</td><td>Base filing fee</td><td>290,00 EUR</td></tr>
<tr><td>CLS</td><td>Class fee</td><td>100,00 EUR</td></tr>
</table>
<div id="paymentInstructions">Transfer the total amount within 30 days quoting the transaction id.</div>
</body></html>`

func (p *fakePortal) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/wizard/start.xhtml":
		p.entryGets++
		if p.tokenlessEntry {
			fmt.Fprint(w, `<html><body><p>maintenance window</p></body></html>`)
			return
		}
		fmt.Fprint(w, p.fullPage(p.nextViewState()))

	case r.Method == http.MethodGet && r.URL.Path == "/wizard/confirmation.xhtml":
		fmt.Fprint(w, confirmationPage)

	case r.Method == http.MethodPost && r.URL.Path == "/wizard/application.xhtml":
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(4 << 20); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			p.uploads++
			fmt.Fprint(w, p.partial(""))
			return
		}

		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		form := r.PostForm

		if form.Get("javax.faces.partial.ajax") == "true" {
			source := form.Get("javax.faces.source")
			p.events = append(p.events, eventRecord{source: source, value: form.Get(source)})
			if source == "wizardForm:classTree:search" {
				fmt.Fprint(w, p.partial(p.searchResults(form.Get(source))))
				return
			}
			fmt.Fprint(w, p.partial(""))
			return
		}

		transition := form.Get("wizardForm:transition")
		p.submissions = append(p.submissions, transition)

		if transition == p.failTransition {
			fmt.Fprint(w, portalErrorPage)
			return
		}
		if transition == "submitFiling" {
			http.Redirect(w, r, "/wizard/confirmation.xhtml?tid=TX-123456", http.StatusFound)
			return
		}
		fmt.Fprint(w, p.fullPage(p.nextViewState()))

	default:
		http.NotFound(w, r)
	}
}

func (p *fakePortal) eventCount(source string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.source == source {
			n++
		}
	}
	return n
}

// fakeFinalizer stands in for the document service.
type fakeFinalizer struct {
	finalizeErr error
	fetchErr    error
	finalized   []string
}

func (f *fakeFinalizer) Finalize(ctx context.Context, transactionID string) (*documents.Receipt, error) {
	if f.finalizeErr != nil {
		return nil, f.finalizeErr
	}
	f.finalized = append(f.finalized, transactionID)
	return &documents.Receipt{
		Status:       "finalized",
		ReferenceID:  "REF-42",
		CreationTime: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeFinalizer) FetchDocuments(ctx context.Context, transactionID string) ([]types.Document, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return []types.Document{
		{Filename: "receipt.pdf", Bytes: []byte("%PDF-1.7"), MimeType: "application/pdf"},
	}, nil
}

func testApplication() *types.Application {
	return &types.Application{
		Reference: "ACME-2026-001",
		Applicant: types.Applicant{
			Kind:       types.ApplicantNaturalPerson,
			FirstName:  "Maxi",
			LastName:   "Muster",
			Street:     "Hauptstr. 1",
			PostalCode: "10115",
			City:       "Berlin",
			Country:    "DE",
			Email:      "maxi@example.org",
		},
		Subject: types.Subject{Kind: types.SubjectText, Text: "ACME"},
		Attachments: []types.Attachment{
			{Filename: "logo.png", Content: []byte("png-bytes"), MimeType: "image/png"},
		},
		Classifications: []types.Classification{
			{Category: "18", Terms: []string{"Leather goods"}},
		},
		Payment: types.Payment{
			Method:        types.PaymentBankTransfer,
			AccountHolder: "Maxi Muster",
			IBAN:          "DE02120300000000202051",
		},
	}
}

func newOrchestrator(t *testing.T, baseURL string, finalizer Finalizer) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	cfg.Portal.BaseURL = baseURL
	cfg.Portal.Timeout = 10 * time.Second
	cfg.Portal.RequestsPerSecond = 0
	metrics := monitoring.New(prometheus.NewRegistry())
	return New(cfg, logging.NewNop(), metrics, finalizer, nil)
}

func TestRunCompleteWorkflow(t *testing.T) {
	portal := &fakePortal{}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	finalizer := &fakeFinalizer{}
	o := newOrchestrator(t, srv.URL, finalizer)

	result := o.Run(context.Background(), testApplication())

	require.True(t, result.Success, "message: %s", result.Message)
	assert.Equal(t, "TX-123456", result.TransactionID)
	assert.Equal(t, "2026/08/001234", result.ConfirmationID)
	assert.Equal(t, "REF-42", result.ReferenceID)
	assert.Equal(t, 2026, result.SubmissionTime.Year())
	require.Len(t, result.Fees, 2)
	assert.Equal(t, "BASE", result.Fees[0].Code)
	assert.NotEmpty(t, result.PaymentInstructions)
	require.Len(t, result.Documents, 1)
	assert.Equal(t, "receipt.pdf", result.Documents[0].Filename)
	assert.Empty(t, result.Warnings)

	// All eight transitions, strictly in order.
	assert.Equal(t, []string{
		"next1", "next2", "next3", "next4", "next5", "next6", "next7", "submitFiling",
	}, portal.submissions)
	assert.Equal(t, 1, portal.uploads)
	assert.Equal(t, []string{"TX-123456"}, finalizer.finalized)

	// The attachment sub-protocol clicked open and apply exactly once each.
	assert.Equal(t, 1, portal.eventCount("wizardForm:attachments:openUpload"))
	assert.Equal(t, 1, portal.eventCount("wizardForm:attachments:apply"))
}

func TestRunTokenlessEntryFailsBeforeAnyStage(t *testing.T) {
	portal := &fakePortal{tokenlessEntry: true}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	o := newOrchestrator(t, srv.URL, &fakeFinalizer{})
	result := o.Run(context.Background(), testApplication())

	require.False(t, result.Success)
	assert.Equal(t, types.ErrSessionInit, result.ErrorCode)
	assert.Equal(t, 0, result.FailedStage)
	assert.Contains(t, result.Message, "viewState")

	// Not a single wizard request was issued.
	assert.Equal(t, 1, portal.entryGets)
	assert.Empty(t, portal.submissions)
	assert.Empty(t, portal.events)
}

func TestRunUnresolvedTermBecomesWarning(t *testing.T) {
	portal := &fakePortal{}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	app := testApplication()
	app.Classifications = []types.Classification{
		{Category: "18", Terms: []string{"Leather goods", "Unobtainium widgets"}},
	}

	o := newOrchestrator(t, srv.URL, &fakeFinalizer{})
	result := o.Run(context.Background(), app)

	require.True(t, result.Success, "message: %s", result.Message)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "18", result.Warnings[0].Category)
	assert.Equal(t, "Unobtainium widgets", result.Warnings[0].Term)
	assert.NotEmpty(t, result.Warnings[0].Reason)

	// One search per term, and the resolved entry selected exactly once.
	assert.Equal(t, 2, portal.eventCount("wizardForm:classTree:search"))
	assert.Equal(t, 1, portal.eventCount("wizardForm:classTree:term:lg1"))
	assert.Equal(t, 0, portal.eventCount("wizardForm:classTree:term:lg2"))
}

func TestRunStageErrorPageAbortsPipeline(t *testing.T) {
	portal := &fakePortal{failTransition: "next3"}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	o := newOrchestrator(t, srv.URL, &fakeFinalizer{})
	result := o.Run(context.Background(), testApplication())

	require.False(t, result.Success)
	assert.Equal(t, types.ErrServerErrorPage, result.ErrorCode)
	assert.Equal(t, 3, result.FailedStage)

	// The pipeline stopped dead: no stage past the failing one submitted.
	assert.Equal(t, []string{"next1", "next2", "next3"}, portal.submissions)
	assert.Equal(t, 0, portal.uploads)
}

func TestRunFinalizationFailureDowngradesResult(t *testing.T) {
	portal := &fakePortal{}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	finalizer := &fakeFinalizer{finalizeErr: errors.New("document service unavailable")}
	o := newOrchestrator(t, srv.URL, finalizer)
	result := o.Run(context.Background(), testApplication())

	require.False(t, result.Success)
	assert.Equal(t, types.ErrDocuments, result.ErrorCode)
	// The filing itself went through; the confirmation payload survives.
	assert.Equal(t, "TX-123456", result.TransactionID)
	assert.Equal(t, "2026/08/001234", result.ConfirmationID)
}

func TestRunNilFinalizer(t *testing.T) {
	portal := &fakePortal{}
	srv := httptest.NewServer(portal)
	defer srv.Close()

	o := newOrchestrator(t, srv.URL, nil)
	result := o.Run(context.Background(), testApplication())

	require.False(t, result.Success)
	assert.Equal(t, types.ErrDocuments, result.ErrorCode)
	assert.Equal(t, "TX-123456", result.TransactionID)
}
