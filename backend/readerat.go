package backend

import (
	"context"

	"github.com/google/uuid"
)

// ReaderAt is a shim that allows a backend.Reader to be used as an io.ReaderAt
type ReaderAt struct {
	fileID uuid.UUID
	r      Reader
}

// NewReaderAt creates a ReaderAt for the given file
func NewReaderAt(fileID uuid.UUID, r Reader) *ReaderAt {
	return &ReaderAt{
		fileID: fileID,
		r:      r,
	}
}

// ReadAt implements io.ReaderAt
func (b *ReaderAt) ReadAt(p []byte, off int64) (int, error) {
	err := b.r.ReadRange(context.Background(), b.fileID, uint64(off), p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}
