package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorChain(t *testing.T) {
	e1 := New("cause1")
	e2 := New("cause2").Wrap(e1)
	e := New("dummy").Wrap(e2)
	e3 := e.Unwrap()
	assert.True(t, Is(e, e1))
	assert.True(t, Is(e, e2))
	assert.True(t, e3 == e2)
}

func TestSentinelSurvivesWrap(t *testing.T) {
	sentinel := New("not found")
	cause := New("disk on fire")

	wrapped := sentinel.Wrap(cause)
	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(wrapped, cause))
	// the sentinel itself is untouched
	assert.Nil(t, sentinel.Unwrap())
}

func TestWrapMessage(t *testing.T) {
	sentinel := New("not found")
	enriched := sentinel.WrapMessage("bundle %q at version %d", "example", 3)
	assert.True(t, Is(enriched, sentinel))
	assert.Equal(t, `not found: bundle "example" at version 3`, enriched.Error())
}

func TestErrorMessageIncludesCause(t *testing.T) {
	e := New("outer").Wrap(New("inner"))
	assert.Equal(t, "outer: inner", e.Error())
}
