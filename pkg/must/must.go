// Package must turns error returns into panics, for call sites where an error
// means the program or test is already broken.
package must

import (
	"hop.computer/relist/pkg"
)

// Do takes any value and error pair, and panics if the error is non-nil. Use it
// wrapping another function call that returns two values, to get a single
// statement that only returns one value.
//
// Example:
//
//	r := must.Do(region.New(4096))
func Do[T any](v T, err error) T {
	if err != nil {
		pkg.Panicf("expected nil-error, got %s", err)
	}
	return v
}

// Succeed panics if err is non-nil.
func Succeed(err error) {
	if err != nil {
		pkg.Panicf("expected nil-error, got %s", err)
	}
}
