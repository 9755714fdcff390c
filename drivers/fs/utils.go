package fs

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// AtomicPrefix is a file prefix for temporary files that are created during
// AtomicWrite.  Such files are never listed as items.
const AtomicPrefix = ".blobbind.atomic."

// ManagedWrite encapsulates an io.WriteCloser such that the write can be
// rolled back upon error.
type ManagedWrite struct {
	io.WriteCloser
	closeFunc    func() error
	rollbackFunc func() error
	closed       bool
}

// Close frees up any resources and performs the necessary actions to
// commit the write.
func (w *ManagedWrite) Close() error {
	return w.closeWith(w.closeFunc)
}

// Rollback attempts to undo any tangible effects of an incomplete/errored write.
func (w *ManagedWrite) Rollback() error {
	return w.closeWith(w.rollbackFunc)
}

func (w *ManagedWrite) closeWith(f func() error) error {
	if w.closed {
		return nil
	}
	err := w.WriteCloser.Close()
	if err != nil {
		return err
	}
	w.closed = true

	if f != nil {
		return f()
	}

	return nil
}

// AtomicWrite creates a uniquely named temporary file which is opened for
// write (only), in the same directory as the specified path.  Once written
// and closed, it atomically renames the temp file to match the given path.
//
// Note, Close() may fail.  If it does, it is up to the caller to determine the
// appropriate response (e.g. Rollback(), or log it and manually inspect)
func AtomicWrite(path string) (*ManagedWrite, error) {
	tname := filepath.Join(filepath.Dir(path), AtomicPrefix+uuid.New().String()+"."+filepath.Base(path))

	tfile, err := os.OpenFile(tname, os.O_WRONLY|os.O_EXCL|os.O_CREATE, 0664)
	if err != nil {
		return nil, errors.Wrapf(err, "could not create temporary file %s", tname)
	}

	return &ManagedWrite{
		WriteCloser: tfile,
		closeFunc: func() error {
			if err := os.Rename(tname, path); err != nil {
				_ = os.Remove(tname)
				return errors.Wrapf(err, "could not rename %s to %s", tname, path)
			}
			return nil
		},
		rollbackFunc: func() error {
			return os.Remove(tname)
		},
	}, nil
}

// AppendWrite opens a file for appending, creating it if necessary.  Appends
// are not atomic.
func AppendWrite(path string) (*ManagedWrite, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0664)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open %s for append", path)
	}
	return &ManagedWrite{WriteCloser: file}, nil
}

func isTemporary(name string) bool {
	return strings.HasPrefix(filepath.Base(name), AtomicPrefix)
}
