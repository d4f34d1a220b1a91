package validators

import (
	"github.com/plaenen/cmscore/pkg/password"
)

// ValidatePassword checks password strength. The plain text never ends up
// in the result.
func ValidatePassword(fieldName string, value string) *ValidationResult {
	label := ToUserFriendlyName(fieldName)
	if value == "" {
		return required(fieldName, label)
	}
	if err := password.ValidateStrength(value); err != nil {
		return Invalid(fieldName, label+" is too weak.",
			WithValue(MaskPassword(value)), WithSuggestedAction(err.Error()))
	}
	return NewValidationResult(true, fieldName,
		WithValue(MaskPassword(value)), WithValidationCode(ValidationCodeSuccess))
}
