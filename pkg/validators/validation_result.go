package validators

import (
	"github.com/plaenen/cmscore/pkg/domain"
)

// ValidationCode classifies a result so callers can react without parsing
// the message.
type ValidationCode string

const (
	ValidationCodeUnspecified ValidationCode = "unspecified"
	ValidationCodeSuccess     ValidationCode = "success"
	ValidationCodeRequired    ValidationCode = "required"
	ValidationCodeInvalid     ValidationCode = "invalid"
	ValidationCodeDuplicate   ValidationCode = "duplicate"
)

type ValidationOption func(*ValidationResult)

// ValidationResult is the outcome of one rule applied to one field.
type ValidationResult struct {
	IsValid         bool           `json:"is_valid"`
	FieldName       string         `json:"field_name"`
	Value           string         `json:"value"`
	Message         string         `json:"message"`
	SuggestedAction string         `json:"suggested_action"`
	ValidationCode  ValidationCode `json:"validation_code"`
}

// WithValue records the (possibly masked) value that was checked.
func WithValue(value string) ValidationOption {
	return func(vr *ValidationResult) {
		vr.Value = value
	}
}

func WithMessage(message string) ValidationOption {
	return func(vr *ValidationResult) {
		vr.Message = message
	}
}

func WithSuggestedAction(action string) ValidationOption {
	return func(vr *ValidationResult) {
		vr.SuggestedAction = action
	}
}

func WithValidationCode(code ValidationCode) ValidationOption {
	return func(vr *ValidationResult) {
		vr.ValidationCode = code
	}
}

func NewValidationResult(isValid bool, fieldName string, options ...ValidationOption) *ValidationResult {
	vr := &ValidationResult{
		IsValid:        isValid,
		FieldName:      fieldName,
		ValidationCode: ValidationCodeUnspecified,
	}
	for _, option := range options {
		option(vr)
	}
	return vr
}

// Valid returns a successful result for fieldName.
func Valid(fieldName string) *ValidationResult {
	return NewValidationResult(true, fieldName, WithValidationCode(ValidationCodeSuccess))
}

// Invalid returns a failed result for fieldName with the given message.
func Invalid(fieldName, message string, options ...ValidationOption) *ValidationResult {
	opts := append([]ValidationOption{WithMessage(message), WithValidationCode(ValidationCodeInvalid)}, options...)
	return NewValidationResult(false, fieldName, opts...)
}

// ToFailure converts an invalid result to a domain failure.
func (vr *ValidationResult) ToFailure() (domain.Failure, bool) {
	if vr.IsValid {
		return domain.Failure{}, false
	}
	return domain.Failure{Field: vr.FieldName, Message: vr.Message}, true
}

// ValidationBuilder collects validation results in the order they were added.
type ValidationBuilder struct {
	results []*ValidationResult
}

func NewValidationBuilder() *ValidationBuilder {
	return &ValidationBuilder{}
}

// Add appends result after applying options to it.
func (b *ValidationBuilder) Add(result *ValidationResult, options ...ValidationOption) *ValidationBuilder {
	for _, option := range options {
		option(result)
	}
	b.results = append(b.results, result)
	return b
}

// AddIf evaluates and adds result only when cond is true. Combine it with
// FieldValid for rules that need well-formed input, such as uniqueness lookups.
func (b *ValidationBuilder) AddIf(cond bool, result func() *ValidationResult) *ValidationBuilder {
	if cond {
		b.Add(result())
	}
	return b
}

// FieldValid reports whether no invalid result was recorded for fieldName.
func (b *ValidationBuilder) FieldValid(fieldName string) bool {
	for _, r := range b.results {
		if r.FieldName == fieldName && !r.IsValid {
			return false
		}
	}
	return true
}

// Build returns all validation results.
func (b *ValidationBuilder) Build() []*ValidationResult {
	out := make([]*ValidationResult, len(b.results))
	copy(out, b.results)
	return out
}

// Failures returns the invalid results as domain failures, in order.
func (b *ValidationBuilder) Failures() domain.Failures {
	var fs domain.Failures
	for _, r := range b.results {
		if f, ok := r.ToFailure(); ok {
			fs = append(fs, f)
		}
	}
	return fs
}
