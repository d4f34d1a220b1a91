package validators

import "strings"

const passwordMask = "********"

// MaskString hides all but the last four characters of value. Short values
// are hidden entirely.
func MaskString(value string) string {
	r := []rune(value)
	if len(r) <= 4 {
		return strings.Repeat("*", 8)
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}

// MaskPassword returns a fixed mask so the length is not leaked either.
func MaskPassword(string) string { return passwordMask }
