package stage

import (
	"context"

	"github.com/civicgate/filingpilot/internal/events"
	"github.com/civicgate/filingpilot/internal/session"
	"github.com/civicgate/filingpilot/internal/transport"
	"github.com/civicgate/filingpilot/internal/types"
)

// mechanical is a stage whose execution is exactly: fire declared events in
// order, then submit the field set. Stages 1, 2, 3, 6 and 7 are mechanical
// field-fills.
type mechanical struct {
	base
	number int
	events func(*types.Application) []Event
	fields func(*types.Application) *transport.Form
}

func (m *mechanical) Number() int { return m.number }

func (m *mechanical) Events(app *types.Application) []Event {
	if m.events == nil {
		return nil
	}
	return m.events(app)
}

func (m *mechanical) Fields(app *types.Application) *transport.Form {
	return m.fields(app)
}

func (m *mechanical) Execute(ctx context.Context, app *types.Application, sess *session.Session) error {
	if err := m.fire(ctx, sess, m.number, m.Events(app)); err != nil {
		return err
	}
	return m.submit(ctx, sess, m.number, m.Fields(app))
}

// subjectKindCode maps the caller's subject kind to the portal's option code.
func subjectKindCode(kind types.SubjectKind) string {
	switch kind {
	case types.SubjectFigurative:
		return "FIGURATIVE"
	case types.SubjectCombined:
		return "COMBINED"
	default:
		return "TEXT"
	}
}

// applicantKindCode maps the applicant kind to the portal's option code.
func applicantKindCode(kind types.ApplicantKind) string {
	if kind == types.ApplicantLegalEntity {
		return "LEGAL_ENTITY"
	}
	return "NATURAL_PERSON"
}

// paymentMethodCode maps the payment method to the portal's option code.
func paymentMethodCode(method types.PaymentMethod) string {
	if method == types.PaymentDirectDebit {
		return "DIRECT_DEBIT"
	}
	return "BANK_TRANSFER"
}

// NewStage1 selects the filing mode. The filing-kind dropdown requires its
// change event before the server accepts the submitted value.
func NewStage1(deps *Deps) Handler {
	return &mechanical{
		base:   base{deps},
		number: 1,
		events: func(app *types.Application) []Event {
			return []Event{
				{Kind: events.Change, Target: "wizardForm:filingKind", Value: subjectKindCode(app.Subject.Kind)},
			}
		},
		fields: func(app *types.Application) *transport.Form {
			f := transport.NewForm()
			f.Set("wizardForm:filingKind", subjectKindCode(app.Subject.Kind))
			f.Set("wizardForm:reference", app.Reference)
			return f
		},
	}
}

// NewStage2 fills applicant identity. The applicant-kind event must precede
// the country event: the kind change re-renders the identity fieldset and the
// country change recomputes its dependent validation.
func NewStage2(deps *Deps) Handler {
	return &mechanical{
		base:   base{deps},
		number: 2,
		events: func(app *types.Application) []Event {
			return []Event{
				{Kind: events.Change, Target: "wizardForm:applicantKind", Value: applicantKindCode(app.Applicant.Kind)},
				{Kind: events.Change, Target: "wizardForm:address:country", Value: app.Applicant.Country},
			}
		},
		fields: func(app *types.Application) *transport.Form {
			a := app.Applicant
			f := transport.NewForm()
			f.Set("wizardForm:applicantKind", applicantKindCode(a.Kind))
			f.Set("wizardForm:firstName", a.FirstName)
			f.Set("wizardForm:lastName", a.LastName)
			f.Set("wizardForm:companyName", a.CompanyName)
			f.Set("wizardForm:legalForm", a.LegalForm)
			f.Set("wizardForm:address:street", a.Street)
			f.Set("wizardForm:address:postalCode", a.PostalCode)
			f.Set("wizardForm:address:city", a.City)
			f.Set("wizardForm:address:country", a.Country)
			f.Set("wizardForm:contact:email", a.Email)
			f.Set("wizardForm:contact:phone", a.Phone)
			return f
		},
	}
}

// NewStage3 fills the subject details.
func NewStage3(deps *Deps) Handler {
	return &mechanical{
		base:   base{deps},
		number: 3,
		events: func(app *types.Application) []Event {
			return []Event{
				{Kind: events.Change, Target: "wizardForm:subjectKind", Value: subjectKindCode(app.Subject.Kind)},
			}
		},
		fields: func(app *types.Application) *transport.Form {
			f := transport.NewForm()
			f.Set("wizardForm:subjectKind", subjectKindCode(app.Subject.Kind))
			f.Set("wizardForm:subjectText", app.Subject.Text)
			f.Set("wizardForm:subjectDescription", app.Subject.Description)
			return f
		},
	}
}

// NewStage6 fills priority claims and declarations. The truth-declaration
// checkbox needs its change event or the server rejects the final value.
func NewStage6(deps *Deps) Handler {
	return &mechanical{
		base:   base{deps},
		number: 6,
		events: func(app *types.Application) []Event {
			return []Event{
				{Kind: events.Change, Target: "wizardForm:truthDeclaration", Value: "true"},
			}
		},
		fields: func(app *types.Application) *transport.Form {
			f := transport.NewForm()
			if p := app.Priority; p != nil {
				f.Set("wizardForm:priority:present", "true")
				f.Set("wizardForm:priority:country", p.Country)
				f.Set("wizardForm:priority:filingNumber", p.FilingNumber)
				f.Set("wizardForm:priority:filingDate", p.FilingDate.Format("2006-01-02"))
			} else {
				f.Set("wizardForm:priority:present", "false")
				f.Set("wizardForm:priority:country", "")
				f.Set("wizardForm:priority:filingNumber", "")
				f.Set("wizardForm:priority:filingDate", "")
			}
			f.Set("wizardForm:truthDeclaration", "true")
			return f
		},
	}
}

// NewStage7 fills fees and payment instructions. The method dropdown's
// change event makes the server render the dependent bank fieldset; without
// it the submitted bank details land on stale state.
func NewStage7(deps *Deps) Handler {
	return &mechanical{
		base:   base{deps},
		number: 7,
		events: func(app *types.Application) []Event {
			return []Event{
				{Kind: events.Change, Target: "wizardForm:payment:method", Value: paymentMethodCode(app.Payment.Method)},
			}
		},
		fields: func(app *types.Application) *transport.Form {
			p := app.Payment
			f := transport.NewForm()
			f.Set("wizardForm:payment:method", paymentMethodCode(p.Method))
			f.Set("wizardForm:payment:accountHolder", p.AccountHolder)
			f.Set("wizardForm:payment:iban", p.IBAN)
			f.Set("wizardForm:payment:bic", p.BIC)
			f.Set("wizardForm:payment:reference", p.Reference)
			return f
		},
	}
}
