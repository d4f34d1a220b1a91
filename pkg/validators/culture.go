package validators

import (
	"fmt"

	"golang.org/x/text/language"
)

// ValidateCulture checks that value is a well-formed BCP 47 language tag
// such as "en", "en-GB" or "zh-Hant-TW".
func ValidateCulture(value string, fieldName string) *ValidationResult {
	userFriendlyName := ToUserFriendlyName(fieldName)

	if value == "" {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s is required.", userFriendlyName)),
			WithSuggestedAction("Please provide a culture name, e.g., 'en-GB'."),
			WithValidationCode(ValidationCodeRequired),
		)
	}

	if _, err := language.Parse(value); err != nil {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s is not a valid culture name.", userFriendlyName)),
			WithSuggestedAction("Please provide a culture name, e.g., 'en-GB'."),
			WithValidationCode(ValidationCodeInvalid),
		)
	}

	return NewValidationResult(true, fieldName, WithValue(value), WithValidationCode(ValidationCodeSuccess))
}

// CanonicalCulture returns the canonical form of a language tag, or value
// unchanged when it does not parse.
func CanonicalCulture(value string) string {
	tag, err := language.Parse(value)
	if err != nil {
		return value
	}
	return tag.String()
}
