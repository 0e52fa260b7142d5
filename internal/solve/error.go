package solve

import "fmt"

type LimitError struct {
	Field string
	Value int
	Max   int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s = %d exceeds the limit of %d", e.Field, e.Value, e.Max)
}
