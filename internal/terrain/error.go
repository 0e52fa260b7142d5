package terrain

type AssertionError struct {
	message string
}

func NewAssertionError(message string) AssertionError {
	return AssertionError{message}
}

// [AssertionError] implements [error]
func (e AssertionError) Error() string {
	return e.message
}
