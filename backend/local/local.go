package local

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/orcdb/orcdb/backend"
)

type localBackend struct {
	cfg *Config
}

var (
	_ backend.Reader = (*localBackend)(nil)
	_ backend.Writer = (*localBackend)(nil)
)

// New creates a local filesystem backend rooted at cfg.Path. Files are laid
// out flat as <path>/<uuid>.orc.
func New(cfg *Config) (backend.Reader, backend.Writer, error) {
	err := os.MkdirAll(cfg.Path, os.ModePerm)
	if err != nil {
		return nil, nil, err
	}

	l := &localBackend{
		cfg: cfg,
	}
	return l, l, nil
}

// Write implements backend.Writer
func (l *localBackend) Write(_ context.Context, fileID uuid.UUID, data []byte) error {
	if fileID == uuid.Nil {
		return backend.ErrEmptyFileID
	}
	return os.WriteFile(l.filename(fileID), data, 0o644)
}

// ReadRange implements backend.Reader
func (l *localBackend) ReadRange(_ context.Context, fileID uuid.UUID, offset uint64, buffer []byte) error {
	if buffer == nil {
		return backend.ErrNilReadBuffer
	}

	f, err := os.OpenFile(l.filename(fileID), os.O_RDONLY, 0o644)
	if err != nil {
		if os.IsNotExist(err) {
			return backend.ErrDoesNotExist
		}
		return err
	}
	defer f.Close()

	_, err = f.ReadAt(buffer, int64(offset))
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return backend.ErrSizeExceeded
		}
		return errors.Wrapf(err, "error reading file %v", fileID)
	}
	return nil
}

// Size implements backend.Reader
func (l *localBackend) Size(_ context.Context, fileID uuid.UUID) (uint64, error) {
	info, err := os.Stat(l.filename(fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, backend.ErrDoesNotExist
		}
		return 0, err
	}
	return uint64(info.Size()), nil
}

// Shutdown implements backend.Reader
func (l *localBackend) Shutdown() {}

func (l *localBackend) filename(fileID uuid.UUID) string {
	return filepath.Join(l.cfg.Path, fileID.String()+".orc")
}
