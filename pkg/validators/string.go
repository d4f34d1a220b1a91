package validators

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ToUserFriendlyName converts snake_case or CamelCase field names to user-friendly names
// Examples: "first_name" -> "First name", "CultureName" -> "Culture name"
func ToUserFriendlyName(fieldName string) string {
	if fieldName == "" {
		return fieldName
	}

	var words []string
	for _, part := range strings.Split(fieldName, "_") {
		start := 0
		runes := []rune(part)
		for i := 1; i < len(runes); i++ {
			if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
				words = append(words, string(runes[start:i]))
				start = i
			}
		}
		if start < len(runes) {
			words = append(words, string(runes[start:]))
		}
	}

	for i, w := range words {
		w = strings.ToLower(w)
		if i == 0 {
			w = strings.ToUpper(w[:1]) + w[1:]
		}
		words[i] = w
	}
	return strings.Join(words, " ")
}

func ValidateStringEmpty(value string, fieldName string) *ValidationResult {
	if strings.TrimSpace(value) == "" {
		userFriendlyName := ToUserFriendlyName(fieldName)
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s is required.", userFriendlyName)),
			WithSuggestedAction(fmt.Sprintf("Please provide a valid %s.", strings.ToLower(userFriendlyName))),
			WithValidationCode(ValidationCodeRequired),
		)
	}
	return NewValidationResult(true, fieldName, WithValue(value), WithValidationCode(ValidationCodeSuccess))
}

// ValidateStringLength validates that a string meets minimum and maximum length
// requirements. Length is counted in runes.
func ValidateStringLength(value string, fieldName string, minLength, maxLength int) *ValidationResult {
	userFriendlyName := ToUserFriendlyName(fieldName)
	n := utf8.RuneCountInString(value)

	if n < minLength {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s must be at least %d characters long.", userFriendlyName, minLength)),
			WithSuggestedAction(fmt.Sprintf("Please provide a %s with at least %d characters.", strings.ToLower(userFriendlyName), minLength)),
			WithValidationCode(ValidationCodeInvalid),
		)
	}

	if n > maxLength {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s must be no more than %d characters long.", userFriendlyName, maxLength)),
			WithSuggestedAction(fmt.Sprintf("Please provide a %s with no more than %d characters.", strings.ToLower(userFriendlyName), maxLength)),
			WithValidationCode(ValidationCodeInvalid),
		)
	}

	return NewValidationResult(true, fieldName, WithValue(value), WithValidationCode(ValidationCodeSuccess))
}

// ValidateStringPattern validates that a string matches a regular expression pattern
func ValidateStringPattern(value string, fieldName string, pattern *regexp.Regexp, patternName string) *ValidationResult {
	userFriendlyName := ToUserFriendlyName(fieldName)

	if value == "" {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s is required.", userFriendlyName)),
			WithSuggestedAction(fmt.Sprintf("Please provide a valid %s.", strings.ToLower(userFriendlyName))),
			WithValidationCode(ValidationCodeRequired),
		)
	}

	if !pattern.MatchString(value) {
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s is not a valid %s.", userFriendlyName, patternName)),
			WithSuggestedAction(fmt.Sprintf("Please provide a %s that matches the %s format.", strings.ToLower(userFriendlyName), patternName)),
			WithValidationCode(ValidationCodeInvalid),
		)
	}

	return NewValidationResult(true, fieldName, WithValue(value), WithValidationCode(ValidationCodeSuccess))
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ValidateSlug checks a lowercase URL segment such as "en" or "en-gb".
func ValidateSlug(value string, fieldName string) *ValidationResult {
	return ValidateStringPattern(value, fieldName, slugPattern, "url slug")
}

// ValidateUnique reports a duplicate when taken is true.
func ValidateUnique(value string, fieldName string, taken bool) *ValidationResult {
	if taken {
		userFriendlyName := ToUserFriendlyName(fieldName)
		return NewValidationResult(false, fieldName,
			WithValue(value),
			WithMessage(fmt.Sprintf("%s '%s' is already in use.", userFriendlyName, value)),
			WithSuggestedAction(fmt.Sprintf("Please choose a different %s.", strings.ToLower(userFriendlyName))),
			WithValidationCode(ValidationCodeDuplicate),
		)
	}
	return NewValidationResult(true, fieldName, WithValue(value), WithValidationCode(ValidationCodeSuccess))
}
