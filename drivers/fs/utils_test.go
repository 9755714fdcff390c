package fs_test

import (
	"fmt"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/birkland/blobbind/drivers/fs"
)

func TestAtomicWriteCommit(t *testing.T) {
	runInTempDir(t, func(tempDir string) {
		fileName := filepath.Join(tempDir, "atomicCommit")

		content := "(╯°□°）╯︵ ┻━┻"
		_ = ioutil.WriteFile(fileName, []byte("previous content"), 0664)

		writer, _ := fs.AtomicWrite(fileName)
		defer func() {
			err := writer.Close()
			if err != nil {
				t.Errorf("deferred close failed! %s", err)
			}
		}()

		_, _ = io.WriteString(writer, content)

		if err := writer.Close(); err != nil {
			t.Errorf("writer failed close! %s", err)
		}

		readBytes, _ := ioutil.ReadFile(fileName)

		if string(readBytes) != content {
			t.Errorf("did not read the expected content from atomic write")
		}

	})

}
func TestAtomicWriteRollback(t *testing.T) {
	runInTempDir(t, func(tempDir string) {
		fileName := filepath.Join(tempDir, "rollback")
		writer, _ := fs.AtomicWrite(fileName)
		defer func() {
			err := writer.Rollback()
			if err != nil {
				t.Errorf("deferred rollback failed! %s", err)
			}
		}()

		_, _ = io.WriteString(writer, "something")
		err := writer.Rollback()
		if err != nil {
			t.Errorf("error rolling back! %s", err)
		}

		files, err := ioutil.ReadDir(tempDir)
		if err != nil || len(files) > 0 {
			t.Errorf("rollback did not clean up temp files!")
		}
	})
}

func TestAtomicWriteNoDirectory(t *testing.T) {
	runInTempDir(t, func(tempDir string) {
		writer, err := fs.AtomicWrite(filepath.Join(tempDir, "missing", "err"))
		if err == nil {
			writer.Close()
			t.Errorf("should have thrown an error")
		}
	})
}

func TestAtomicWriteUniqueTemp(t *testing.T) {
	runInTempDir(t, func(tempDir string) {
		fileName := filepath.Join(tempDir, "twice")

		a, err := fs.AtomicWrite(fileName)
		if err != nil {
			t.Fatalf("could not open first writer: %s", err)
		}
		b, err := fs.AtomicWrite(fileName)
		if err != nil {
			t.Fatalf("concurrent writers to the same path should not conflict: %s", err)
		}

		_, _ = io.WriteString(a, "a")
		_, _ = io.WriteString(b, "b")
		_ = a.Close()
		_ = b.Close()

		readBytes, _ := ioutil.ReadFile(fileName)
		if string(readBytes) != "b" {
			t.Errorf("expected the last committed write to win, got %q", readBytes)
		}

		files, _ := ioutil.ReadDir(tempDir)
		if len(files) != 1 {
			t.Errorf("temporary files were left behind")
		}
	})
}

func TestAppendWrite(t *testing.T) {
	runInTempDir(t, func(tempDir string) {
		fileName := filepath.Join(tempDir, "log")

		for _, s := range []string{"one ", "two"} {
			w, err := fs.AppendWrite(fileName)
			if err != nil {
				t.Fatalf("could not open for append: %s", err)
			}
			_, _ = io.WriteString(w, s)
			_ = w.Close()
		}

		readBytes, _ := ioutil.ReadFile(fileName)
		if string(readBytes) != "one two" {
			t.Errorf("unexpected appended content %q", readBytes)
		}
	})
}

func TestManagedWriteCloseError(t *testing.T) {
	badCloser := &fs.ManagedWrite{WriteCloser: &errcloser{}}
	if badCloser.Close() == nil {
		t.Errorf("should have thrown an error")
	}
}

type errcloser struct{}

func (*errcloser) Close() error {
	return fmt.Errorf("an error")
}
func (*errcloser) Write([]byte) (int, error) {
	return 0, nil
}
func runInTempDir(t *testing.T, f func(string)) {
	tempDir, err := ioutil.TempDir("", "blobbind_test")
	if err != nil {
		t.Fatal("Could not create testing temp dir")
	}
	defer os.RemoveAll(tempDir)
	f(tempDir)
}
