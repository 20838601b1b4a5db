package list

// linkBefore splices the unlinked node n into the chain right before next.
func linkBefore[T any, L comparable](p Policy[T, L], n, next L) {
	prev := p.Prev(next)
	p.SetNext(n, next)
	p.SetPrev(n, prev)
	p.SetNext(prev, n)
	p.SetPrev(next, n)
}

// unlink removes n from the chain. n's own links are left untouched.
func unlink[T any, L comparable](p Policy[T, L], n L) {
	next, prev := p.Next(n), p.Prev(n)
	p.SetPrev(next, prev)
	p.SetNext(prev, next)
}

// selfLink resets the sentinel to the empty chain.
func selfLink[T any, L comparable](p Policy[T, L]) {
	s := p.Sentinel()
	p.SetNext(s, s)
	p.SetPrev(s, s)
}
