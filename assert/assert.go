// Package assert contains test assertion helpers.
package assert

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Testing is an interface that includes the methods used from *testing.T.
type Testing interface {
	Helper()
	Error(args ...any)
	FailNow()
}

// Fail fails the test with a message and optional format arguments.
func Fail(t Testing, message string, msgAndArgs ...any) {
	t.Helper()
	if len(msgAndArgs) > 0 {
		var builder strings.Builder
		builder.WriteString(message)
		builder.WriteByte('\n')
		builder.WriteString(fmt.Sprintf(msgAndArgs[0].(string), msgAndArgs[1:]...))
		message = builder.String()
	}
	t.Error(message)
	t.FailNow()
}

// Equal asserts that two objects are equal.
func Equal(t Testing, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	if equal(expected, actual) {
		return
	}

	msg := fmt.Sprintf("Not equal: \nexpected: %v\nactual  : %v", expected, actual)
	Fail(t, msg, msgAndArgs...)
}

// NotEqual asserts that two objects are not equal.
func NotEqual(t Testing, expected, actual any, msgAndArgs ...any) {
	t.Helper()
	if !equal(expected, actual) {
		return
	}

	msg := fmt.Sprintf("Equal: \nexpected: %v\nactual  : %v", expected, actual)
	Fail(t, msg, msgAndArgs...)
}

// True asserts that the given value is true.
func True(t Testing, value bool, msgAndArgs ...any) {
	t.Helper()
	if value {
		return
	}
	Fail(t, "Expected value to be true", msgAndArgs...)
}

// False asserts that the given value is false.
func False(t Testing, value bool, msgAndArgs ...any) {
	t.Helper()
	if !value {
		return
	}
	Fail(t, "Expected value to be false", msgAndArgs...)
}

// NotNil asserts that the given value is not nil.
func NotNil(t Testing, value any, msgAndArgs ...any) {
	t.Helper()
	if !isNil(value) {
		return
	}
	Fail(t, "Expected value to not be nil", msgAndArgs...)
}

// Nil asserts that the given value is nil.
func Nil(t Testing, value any, msgAndArgs ...any) {
	t.Helper()
	if isNil(value) {
		return
	}
	Fail(t, fmt.Sprintf("Expected value to be nil, got: %v", value), msgAndArgs...)
}

// Len asserts that the given container has the expected length.
func Len(t Testing, expected int, container any, msgAndArgs ...any) {
	t.Helper()
	value := reflect.ValueOf(container)
	if value.Len() == expected {
		return
	}

	msg := fmt.Sprintf("Length not equal: \nexpected: %d\nactual  : %d", expected, value.Len())
	Fail(t, msg, msgAndArgs...)
}

// NoError asserts that a function returned no error.
func NoError(t Testing, err error, msgAndArgs ...any) {
	t.Helper()
	if err == nil {
		return
	}

	msg := fmt.Sprintf("Unexpected error:\n%+v", err)
	Fail(t, msg, msgAndArgs...)
}

// Error asserts that a function returned an error.
func Error(t Testing, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		return
	}
	Fail(t, "Expected an error", msgAndArgs...)
}

// ErrorIs asserts that a function returned an error that matches the
// specified error. Uses errors.Is for comparison, which supports error
// wrapping.
func ErrorIs(t Testing, err, expectedError error, msgAndArgs ...any) {
	t.Helper()
	if err == nil {
		msg := fmt.Sprintf("Error not returned: \nexpected: %v\nactual  : nil", expectedError)
		Fail(t, msg, msgAndArgs...)
		return
	}

	if errors.Is(err, expectedError) {
		return
	}

	msg := fmt.Sprintf("Error not equal: \nexpected: %v\nactual  : %v", expectedError, err)
	Fail(t, msg, msgAndArgs...)
}

// ErrorContains asserts that the error message contains the given substring.
func ErrorContains(t Testing, err error, contains string, msgAndArgs ...any) {
	t.Helper()
	if err == nil {
		Fail(t, "Expected an error", msgAndArgs...)
		return
	}
	if strings.Contains(err.Error(), contains) {
		return
	}

	msg := fmt.Sprintf("Error does not contain: \nexpected: %s\nactual  : %v", contains, err)
	Fail(t, msg, msgAndArgs...)
}

// equal compares two values, treating numeric values of different types as
// equal when they represent the same number.
func equal(expected, actual any) bool {
	if expected == nil || actual == nil {
		return expected == actual
	}
	if reflect.DeepEqual(expected, actual) {
		return true
	}

	ev := reflect.ValueOf(expected)
	av := reflect.ValueOf(actual)
	if isNumeric(ev) && isNumeric(av) {
		return numericValue(ev) == numericValue(av)
	}
	return false
}

func isNumeric(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map,
		reflect.Pointer, reflect.Slice:
		return v.IsNil()
	default:
		return false
	}
}
