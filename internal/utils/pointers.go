package utils

// GetOrDefault returns the value if the pointer is not nil, otherwise returns the default value
func GetOrDefault[T any](ptr *T, defaultVal T) T {
	if ptr == nil {
		return defaultVal
	}
	return *ptr
}

func StringPtr(s string) *string {
	return &s
}

// StringPtrNonEmpty returns nil for blank input.
func StringPtrNonEmpty(s string) *string {
	if IsBlank(s) {
		return nil
	}
	return &s
}
