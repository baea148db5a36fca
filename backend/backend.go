package backend

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoesNotExist  = errors.New("does not exist")
	ErrEmptyFileID   = errors.New("empty file id")
	ErrSizeExceeded  = errors.New("read exceeds file size")
	ErrNilReadBuffer = errors.New("nil read buffer")
)

// Reader is the byte-range read contract the decode core consumes. Files are
// keyed by uuid. Implementations must satisfy arbitrary-length reads at
// arbitrary offsets.
type Reader interface {
	// ReadRange reads len(buffer) bytes at offset into buffer.
	ReadRange(ctx context.Context, fileID uuid.UUID, offset uint64, buffer []byte) error

	// Size returns the total length of the file in bytes.
	Size(ctx context.Context, fileID uuid.UUID) (uint64, error)

	Shutdown()
}

// Writer is the minimal write surface, used by tooling and tests to place
// files where a Reader can see them.
type Writer interface {
	Write(ctx context.Context, fileID uuid.UUID, data []byte) error
}
