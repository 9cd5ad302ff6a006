// Package ptr holds small generic pointer helpers used when building optional
// fields of platform payloads.
package ptr

// To creates a pointer to the given value.
func To[T any](v T) *T {
	return &v
}

// Deref returns the pointed-to value, or the zero value for a nil pointer.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// ValueOr returns the pointed-to value, or def for a nil pointer.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// String creates a pointer to the given string value.
func String(s string) *string {
	return &s
}

// Bool creates a pointer to the given bool value.
func Bool(b bool) *bool {
	return &b
}

// Int creates a pointer to the given int value.
func Int(i int) *int {
	return &i
}

// NonEmpty returns a pointer to s, or nil when s is empty.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
