package combinators

import (
	"testing"

	"gotest.tools/assert"
)

func TestOr(t *testing.T) {
	assert.Equal(t, "set", Or("set", "default"))
	assert.Equal(t, "default", Or("", "default"))
	assert.Equal(t, 4096, Or(0, 4096))
	assert.Equal(t, -1, Or(-1, 4096))
	assert.Equal(t, false, Or(false, false))
}

func TestFirst(t *testing.T) {
	assert.Equal(t, "", First[string]())
	assert.Equal(t, "", First("", ""))
	assert.Equal(t, "flag", First("", "flag", "config"))
	assert.Equal(t, 3, First(0, 0, 3))
}
