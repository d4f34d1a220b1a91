package validators

import (
	"github.com/asaskevich/govalidator"
)

const emailHint = "Use an address such as 'name@example.com'."

// ValidateEmail checks that value is a syntactically valid email address.
func ValidateEmail(fieldName string, value string) *ValidationResult {
	label := ToUserFriendlyName(fieldName)
	switch {
	case value == "":
		return required(fieldName, label, WithSuggestedAction(emailHint))
	case !govalidator.IsEmail(value):
		return Invalid(fieldName, label+" is not a valid email address.",
			WithValue(value), WithSuggestedAction(emailHint))
	}
	return Valid(fieldName)
}

func required(fieldName, label string, options ...ValidationOption) *ValidationResult {
	opts := append([]ValidationOption{
		WithMessage(label + " is required."),
		WithValidationCode(ValidationCodeRequired),
	}, options...)
	return NewValidationResult(false, fieldName, opts...)
}
