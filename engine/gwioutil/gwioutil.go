// Package gwioutil moves whole frames over stream connections which may time out
package gwioutil

import (
	"io"

	"github.com/pkg/errors"
)

type timeoutError interface {
	Timeout() bool
}

// IsTimeoutError checks if the error is a timeout error
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}

	ne, ok := errors.Cause(err).(timeoutError)
	return ok && ne.Timeout()
}

// WriteAll writes every byte of data, retrying writes which time out
//
// Other errors are returned with the number of bytes written before them.
func WriteAll(conn io.Writer, data []byte) error {
	total := len(data)
	for written := 0; written < total; {
		n, err := conn.Write(data[written:])
		written += n
		if err != nil && !IsTimeoutError(err) {
			return errors.Wrapf(err, "wrote %d of %d bytes", written, total)
		}
	}
	return nil
}

// ReadAll fills data from the reader, retrying reads which time out
//
// io.EOF is returned as is when the reader ends before the first byte.
// Ending in the middle of data returns io.ErrUnexpectedEOF.
func ReadAll(conn io.Reader, data []byte) error {
	total := len(data)
	for read := 0; read < total; {
		n, err := conn.Read(data[read:])
		read += n
		if read == total {
			return nil
		}
		if err == nil || IsTimeoutError(err) {
			continue
		}
		if err == io.EOF {
			if read == 0 {
				return io.EOF
			}
			err = io.ErrUnexpectedEOF
		}
		return errors.Wrapf(err, "read %d of %d bytes", read, total)
	}
	return nil
}
