package fs

import (
	"os"
	"path/filepath"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"
)

// file is a regular file found under a container directory
type file struct {
	rel  string
	size int64
}

// prune is returned from a visit to stop descending into a directory
type prune struct{}

func (prune) Error() string {
	return "directory pruned"
}

// visitor sees every entry below the walk root.  Returning prune{} from a
// directory skips its contents; any other error halts the walk.
type visitor func(ospath string, e *godirwalk.Dirent) error

func walk(root string, visit visitor) error {
	if _, err := os.Stat(root); err != nil {
		return errors.Wrapf(err, "cannot walk %s", root)
	}

	return godirwalk.Walk(root, &godirwalk.Options{
		Callback: func(ospath string, e *godirwalk.Dirent) error {
			if ospath == root {
				return nil
			}
			return visit(ospath, e)
		},
		ErrorCallback: func(ospath string, err error) godirwalk.ErrorAction {
			if _, ok := errors.Cause(err).(prune); ok {
				return godirwalk.SkipNode
			}
			return godirwalk.Halt
		},
		Unsorted:            true,
		FollowSymbolicLinks: true,
	})
}

// files returns every regular file under a container directory.  Files left
// behind by unfinished atomic writes are not items, and are left out.
func files(root string) ([]file, error) {
	var found []file

	err := walk(root, func(ospath string, e *godirwalk.Dirent) error {
		if e.IsDir() {
			if isTemporary(ospath) {
				return prune{}
			}
			return nil
		}

		if isTemporary(ospath) {
			return nil
		}

		info, err := os.Stat(ospath)
		if err != nil {
			return errors.Wrapf(err, "could not stat %s", ospath)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, ospath)
		if err != nil {
			return errors.Wrapf(err, "%s is not under %s", ospath, root)
		}

		found = append(found, file{rel: rel, size: info.Size()})
		return nil
	})

	return found, err
}
