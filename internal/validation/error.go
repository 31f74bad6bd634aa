package validation

// Error is a user-facing validation failure. Handlers answer it with 400.
type Error string

func (e Error) Error() string {
	return string(e)
}
