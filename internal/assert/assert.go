package assert

import "fmt"

// NotNil panics when value is nil, name identifies the value in the message.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

// Positive panics when value is not greater than zero.
func Positive(value int, name string) {
	if value <= 0 {
		panic(fmt.Sprintf("expected %s to be positive, got %d", name, value))
	}
}
