// Package thunks contains pointers to functions that might be replaced in
// tests.
package thunks

import (
	"os"
)

// UserHomeDir is an alias for os.UserHomeDir
var UserHomeDir func() (string, error) = os.UserHomeDir

// Getenv is an alias for os.Getenv
var Getenv func(string) string = os.Getenv

// SetUpTest replaces thunks with stable test versions. The returned function
// restores the originals.
func SetUpTest(env map[string]string) func() {
	home, getenv := UserHomeDir, Getenv
	UserHomeDir = func() (string, error) {
		return "/home/test", nil
	}
	Getenv = func(key string) string {
		return env[key]
	}
	return func() {
		UserHomeDir, Getenv = home, getenv
	}
}
