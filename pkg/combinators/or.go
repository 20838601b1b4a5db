// Package combinators defines combinator functions such as Or.
package combinators

// Or returns v if it is not the zero value of its type. Otherwise, it returns
// the provided default.
func Or[T comparable](v, orDefault T) T {
	var zero T
	if v == zero {
		return orDefault
	}
	return v
}

// First returns the first of vs that is not the zero value, or the zero value
// if there is none.
func First[T comparable](vs ...T) T {
	var zero T
	for _, v := range vs {
		if v != zero {
			return v
		}
	}
	return zero
}
