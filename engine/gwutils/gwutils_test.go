package gwutils

import (
	"fmt"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

func TestRunPanicless(t *testing.T) {
	assert.T(t, RunPanicless(func() {
		panic(1)
	}))
	assert.T(t, RunPanicless(func() {
		panic(fmt.Errorf("bad"))
	}))
	assert.T(t, !RunPanicless(func() {}))
}

func TestCatchPanic(t *testing.T) {
	bad := errors.New("bad")
	assert.Equal(t, bad, errors.Cause(CatchPanic(func() { panic(bad) })))
	assert.T(t, CatchPanic(func() { panic("oops") }) != nil)
	assert.Equal(t, nil, CatchPanic(func() {}))
}
