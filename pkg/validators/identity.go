package validators

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateID fails when id is the nil UUID.
func ValidateID(id uuid.UUID, fieldName string) *ValidationResult {
	if id == uuid.Nil {
		return NewValidationResult(false, fieldName,
			WithValue(id.String()),
			WithMessage(fmt.Sprintf("%s is required.", ToUserFriendlyName(fieldName))),
			WithValidationCode(ValidationCodeRequired),
		)
	}
	return NewValidationResult(true, fieldName, WithValue(id.String()), WithValidationCode(ValidationCodeSuccess))
}
