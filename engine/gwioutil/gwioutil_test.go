package gwioutil

import (
	"bytes"
	"io"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "timeout" }
func (timeoutErr) Timeout() bool { return true }

// choppyIO moves at most 3 bytes per call and times out every other call
type choppyIO struct {
	buf   bytes.Buffer
	calls int
}

func (c *choppyIO) Write(p []byte) (int, error) {
	c.calls++
	if c.calls%2 == 0 {
		return 0, timeoutErr{}
	}
	if len(p) > 3 {
		p = p[:3]
	}
	return c.buf.Write(p)
}

func (c *choppyIO) Read(p []byte) (int, error) {
	c.calls++
	if c.calls%2 == 0 {
		return 0, timeoutErr{}
	}
	if len(p) > 3 {
		p = p[:3]
	}
	return c.buf.Read(p)
}

func TestWriteReadAll(t *testing.T) {
	c := &choppyIO{}
	data := []byte("hello world sync")
	assert.Equal(t, nil, WriteAll(c, data))
	assert.Equal(t, data, c.buf.Bytes())

	got := make([]byte, len(data))
	assert.Equal(t, nil, ReadAll(c, got))
	assert.Equal(t, data, got)

	assert.Equal(t, io.EOF, ReadAll(c, make([]byte, 1)))
}

func TestReadAllEndsInFrame(t *testing.T) {
	c := &choppyIO{}
	c.buf.WriteString("half")
	err := ReadAll(c, make([]byte, 8))
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))
}

type brokenWriter struct{}

func (brokenWriter) Write(p []byte) (int, error) {
	return 2, io.ErrClosedPipe
}

func TestWriteAllFails(t *testing.T) {
	err := WriteAll(brokenWriter{}, make([]byte, 5))
	assert.Equal(t, io.ErrClosedPipe, errors.Cause(err))
	assert.T(t, IsTimeoutError(errors.Wrap(timeoutErr{}, "wrapped")))
}

func TestIsTimeoutError(t *testing.T) {
	assert.T(t, IsTimeoutError(timeoutErr{}))
	assert.T(t, !IsTimeoutError(io.EOF))
	assert.T(t, !IsTimeoutError(nil))
}
