package types

import "time"

// ApplicantKind distinguishes the two applicant forms the portal accepts.
type ApplicantKind string

const (
	ApplicantNaturalPerson ApplicantKind = "natural_person"
	ApplicantLegalEntity   ApplicantKind = "legal_entity"
)

// Applicant identifies the filing party.
type Applicant struct {
	Kind ApplicantKind `json:"kind" yaml:"kind" binding:"required"`

	// Natural person
	FirstName string `json:"first_name,omitempty" yaml:"first_name"`
	LastName  string `json:"last_name,omitempty" yaml:"last_name"`

	// Legal entity
	CompanyName string `json:"company_name,omitempty" yaml:"company_name"`
	LegalForm   string `json:"legal_form,omitempty" yaml:"legal_form"`

	Street     string `json:"street" yaml:"street" binding:"required"`
	PostalCode string `json:"postal_code" yaml:"postal_code" binding:"required"`
	City       string `json:"city" yaml:"city" binding:"required"`
	Country    string `json:"country" yaml:"country" binding:"required"`

	Email string `json:"email,omitempty" yaml:"email"`
	Phone string `json:"phone,omitempty" yaml:"phone"`
}

// SubjectKind is the portal's subject-matter rendering form.
type SubjectKind string

const (
	SubjectText       SubjectKind = "text"
	SubjectFigurative SubjectKind = "figurative"
	SubjectCombined   SubjectKind = "combined"
)

// Subject is the classified subject matter of the application.
type Subject struct {
	Kind        SubjectKind `json:"kind" yaml:"kind" binding:"required"`
	Text        string      `json:"text,omitempty" yaml:"text"`
	Description string      `json:"description,omitempty" yaml:"description"`
}

// Attachment is a binary file uploaded during stage 4. MimeType is detected
// from content when empty.
type Attachment struct {
	Filename string `json:"filename" yaml:"filename"`
	Content  []byte `json:"content" yaml:"content"`
	MimeType string `json:"mime_type,omitempty" yaml:"mime_type"`
}

// Classification selects terms within one category of the portal's taxonomy.
// WholeCategory selects the category's entire heading instead of individual
// terms. Exactly one classification should be marked Primary; when none is,
// the first one in input order is used.
type Classification struct {
	Category      string   `json:"category" yaml:"category" binding:"required"`
	Terms         []string `json:"terms,omitempty" yaml:"terms"`
	WholeCategory bool     `json:"whole_category,omitempty" yaml:"whole_category"`
	Primary       bool     `json:"primary,omitempty" yaml:"primary"`
}

// PaymentMethod selects how fees are settled.
type PaymentMethod string

const (
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentDirectDebit  PaymentMethod = "direct_debit"
)

// Payment carries the caller's payment instructions for stage 7.
type Payment struct {
	Method        PaymentMethod `json:"method" yaml:"method" binding:"required"`
	AccountHolder string        `json:"account_holder,omitempty" yaml:"account_holder"`
	IBAN          string        `json:"iban,omitempty" yaml:"iban"`
	BIC           string        `json:"bic,omitempty" yaml:"bic"`
	Reference     string        `json:"reference,omitempty" yaml:"reference"`
}

// PriorityClaim declares an earlier foreign filing for stage 6.
type PriorityClaim struct {
	Country      string    `json:"country" yaml:"country"`
	FilingNumber string    `json:"filing_number" yaml:"filing_number"`
	FilingDate   time.Time `json:"filing_date" yaml:"filing_date"`
}

// Application is the complete caller-side description of one filing.
type Application struct {
	Reference       string           `json:"reference,omitempty" yaml:"reference"`
	Applicant       Applicant        `json:"applicant" yaml:"applicant" binding:"required"`
	Subject         Subject          `json:"subject" yaml:"subject" binding:"required"`
	Attachments     []Attachment     `json:"attachments,omitempty" yaml:"attachments"`
	Classifications []Classification `json:"classifications" yaml:"classifications" binding:"required,min=1"`
	Payment         Payment          `json:"payment" yaml:"payment" binding:"required"`
	Priority        *PriorityClaim   `json:"priority,omitempty" yaml:"priority"`
}

// PrimaryClassification returns the classification marked Primary, defaulting
// to the first one.
func (a *Application) PrimaryClassification() *Classification {
	if len(a.Classifications) == 0 {
		return nil
	}
	for i := range a.Classifications {
		if a.Classifications[i].Primary {
			return &a.Classifications[i]
		}
	}
	return &a.Classifications[0]
}
