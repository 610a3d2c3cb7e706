package testutil

// Ptr returns a pointer to v, for optional fields in table-driven tests.
func Ptr[T any](v T) *T { return &v }
