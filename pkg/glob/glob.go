// Package glob matches shell-style globs against input. Only '*' is special:
// it matches any run of bytes, including the empty one.
package glob

import "strings"

type glob struct {
	eq func(a, b byte) bool
}

// An Option modifies the behavior of a call to Glob.
type Option func(*glob)

// CaseInsensitive matches ASCII letters regardless of case.
var CaseInsensitive Option = func(g *glob) {
	g.eq = func(a, b byte) bool {
		return a == b || strings.EqualFold(string(a), string(b))
	}
}

// Glob matches input against pattern. It returns true if there is a match.
// Options change comparison behavior.
func Glob(pattern, input string, opts ...Option) bool {
	g := glob{
		eq: func(a, b byte) bool { return a == b },
	}
	for _, o := range opts {
		o(&g)
	}

	// On a mismatch, retry from the last star, letting it swallow one more
	// byte of input.
	i, j := 0, 0
	star, resume := -1, 0
	for j < len(input) {
		switch {
		case i < len(pattern) && pattern[i] == '*':
			star, resume = i, j
			i++
		case i < len(pattern) && g.eq(pattern[i], input[j]):
			i++
			j++
		case star >= 0:
			resume++
			i, j = star+1, resume
		default:
			return false
		}
	}
	for i < len(pattern) && pattern[i] == '*' {
		i++
	}
	return i == len(pattern)
}
