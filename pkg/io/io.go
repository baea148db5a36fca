package io

import (
	"bytes"
	"io"
)

// ReadAllWithEstimate is preferred over io.ReadAll. This method uses the expected
// size of the payload to allocate a buffer up front and then reads directly into it.
func ReadAllWithEstimate(r io.Reader, estimatedBytes int64) ([]byte, error) {
	if estimatedBytes < 0 {
		estimatedBytes = 0
	}

	buf := bytes.NewBuffer(make([]byte, 0, estimatedBytes+1)) // +1 prevents a final grow-and-copy in ReadFrom
	_, err := buf.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadAllWithBuffer reads all from the reader into the provided buffer, growing it
// if required. estimatedBytes is used to size the buffer when it has to be replaced.
// The returned slice aliases the (possibly replaced) buffer.
func ReadAllWithBuffer(r io.Reader, estimatedBytes int, buffer []byte) ([]byte, error) {
	if cap(buffer) < estimatedBytes {
		buffer = make([]byte, 0, estimatedBytes)
	}
	buffer = buffer[:0]

	for {
		if len(buffer) == cap(buffer) {
			// grow. append one byte and cut it back off to force the runtime's growth heuristic
			buffer = append(buffer, 0)[:len(buffer)]
		}
		n, err := r.Read(buffer[len(buffer):cap(buffer)])
		buffer = buffer[:len(buffer)+n]
		if err == io.EOF {
			return buffer, nil
		}
		if err != nil {
			return buffer, err
		}
	}
}
