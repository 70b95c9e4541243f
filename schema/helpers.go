package schema

// Ptr returns a pointer to v. Collectors use it to mark optional signal
// fields as collected.
func Ptr[T any](v T) *T {
	return &v
}

// IntOrZero dereferences p, returning 0 when the signal was not collected.
func IntOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// StringOrEmpty dereferences p, returning "" when the signal was not collected.
func StringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// BoolOrFalse dereferences p, returning false when the signal was not collected.
func BoolOrFalse(p *bool) bool {
	if p == nil {
		return false
	}
	return *p
}
