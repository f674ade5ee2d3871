// submission.go -- Contact form fields and their validation schema.
package contact

import "github.com/MGallo-Code/vitrine/internal/validate"

// Form field names, shared by the JSON API and the HTML form.
const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldCompany = "company"
	FieldMessage = "message"
)

// Message length caps. Generous, only meant to stop abuse.
const (
	maxNameLen    = 200
	maxEmailLen   = 254
	maxCompanyLen = 200
	maxMessageLen = 5000
)

// Submission is a validated, trimmed contact request. Never persisted.
type Submission struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company,omitempty"`
	Message string `json:"message"`
}

// Vars exposes the submission as template variables.
func (s Submission) Vars() map[string]string {
	return map[string]string{
		FieldName:    s.Name,
		FieldEmail:   s.Email,
		FieldCompany: s.Company,
		FieldMessage: s.Message,
	}
}

// Schema validates raw contact input. Every rule runs, so one field can
// collect several messages.
var Schema = validate.Schema[Submission]{
	Fields: []validate.Field{
		{Name: FieldName, Rules: []validate.Rule{
			{Key: "contact.validation.name_invalid", Check: validate.NotEmpty},
			{Key: "contact.validation.name_invalid", Check: validate.MaxLength(maxNameLen)},
		}},
		{Name: FieldEmail, Rules: []validate.Rule{
			{Key: "contact.validation.email_invalid", Check: validate.Email},
			{Key: "contact.validation.email_invalid", Check: validate.MaxLength(maxEmailLen)},
		}},
		{Name: FieldCompany, Optional: true, Rules: []validate.Rule{
			{Key: "contact.validation.company_invalid", Check: validate.MaxLength(maxCompanyLen)},
		}},
		{Name: FieldMessage, Rules: []validate.Rule{
			{Key: "contact.validation.message_invalid", Check: validate.NotEmpty},
			{Key: "contact.validation.message_invalid", Check: validate.MaxLength(maxMessageLen)},
		}},
	},
	Build: func(v map[string]string) Submission {
		return Submission{
			Name:    v[FieldName],
			Email:   v[FieldEmail],
			Company: v[FieldCompany],
			Message: v[FieldMessage],
		}
	},
}
