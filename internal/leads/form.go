// Package leads captures enquiry forms and delivers them through an ordered
// chain of relays.
package leads

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	validator "github.com/go-playground/validator/v10"
)

// ErrUnknownForm is returned for form names other than scale or custom.
var ErrUnknownForm = errors.New("leads: unknown form")

// FormKind names one of the site's enquiry forms.
type FormKind string

const (
	// ScaleForm is the Scale promotion signup.
	ScaleForm FormKind = "scale"
	// CustomForm is the custom plan enquiry on the pricing page.
	CustomForm FormKind = "custom"
)

// ParseFormKind validates a form name taken from the URL.
func ParseFormKind(value string) (FormKind, error) {
	switch FormKind(strings.ToLower(strings.TrimSpace(value))) {
	case ScaleForm:
		return ScaleForm, nil
	case CustomForm:
		return CustomForm, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownForm, value)
}

// netlifyName is the form-name the static host expects.
func (k FormKind) netlifyName() string {
	if k == CustomForm {
		return "custom-inquiry"
	}
	return "scale-promotion"
}

// Submission is the decoded form body. Fields not used by a form are ignored.
type Submission struct {
	Name     string `json:"name" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Company  string `json:"company" validate:"max=200"`
	Phone    string `json:"phone" validate:"max=50"`
	Message  string `json:"message" validate:"max=5000"`
	Term     int    `json:"term" validate:"omitempty,oneof=3 6 12"`
	Currency string `json:"currency" validate:"omitempty,oneof=GBP USD EUR"`

	Requirements string `json:"requirements" validate:"max=5000"`
	Budget       string `json:"budget" validate:"max=100"`
	Timeline     string `json:"timeline" validate:"max=100"`
	Billing      string `json:"billing" validate:"omitempty,oneof=monthly annual"`
}

// FieldError describes one invalid field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError lists every invalid field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field+" ("+f.Rule+")")
	}
	return "leads: invalid submission: " + strings.Join(names, ", ")
}

var scriptBlock = regexp.MustCompile(`(?is)<script\b[^<]*(?:<[^<]*)*?</script>`)

// sanitize trims input and drops inline script blocks.
func sanitize(value string) string {
	return strings.TrimSpace(scriptBlock.ReplaceAllString(strings.TrimSpace(value), ""))
}

// Sanitize cleans every free-text field in place.
func (s *Submission) Sanitize() {
	for _, field := range []*string{
		&s.Name, &s.Email, &s.Company, &s.Phone, &s.Message,
		&s.Currency, &s.Requirements, &s.Budget, &s.Timeline, &s.Billing,
	} {
		*field = sanitize(*field)
	}
	s.Email = strings.ToLower(s.Email)
	s.Currency = strings.ToUpper(s.Currency)
	s.Billing = strings.ToLower(s.Billing)
}

// Validator checks submissions with go-playground/validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds a Validator that reports JSON field names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &Validator{v: v}
}

// Check validates the submission for the given form.
func (val *Validator) Check(kind FormKind, s Submission) error {
	var fields []FieldError
	if err := val.v.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	}
	switch kind {
	case ScaleForm:
		if s.Message == "" {
			fields = append(fields, FieldError{Field: "message", Rule: "required"})
		}
	case CustomForm:
		if s.Requirements == "" {
			fields = append(fields, FieldError{Field: "requirements", Rule: "required"})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Decode reads, sanitizes and validates a submission body.
func Decode(r io.Reader, kind FormKind, val *Validator) (Submission, error) {
	var s Submission
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Submission{}, fmt.Errorf("leads: decode: %w", err)
	}
	s.Sanitize()
	if err := val.Check(kind, s); err != nil {
		return Submission{}, err
	}
	return s, nil
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}
