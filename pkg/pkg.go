// Package pkg contains standalone utility functions that do not depend on
// anything except themselves.
package pkg

import (
	"fmt"
)

// Panicf panics with a formatted message. It is used for contract violations
// that a caller cannot recover from through an error value, such as
// dereferencing the end of a list or freeing a block twice.
func Panicf(msg string, args ...interface{}) {
	panic(fmt.Sprintf(msg, args...))
}
