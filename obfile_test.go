package obfile

import (
	"io"
	"testing"

	"github.com/absfs/absfs"
	"github.com/absfs/memfs"
)

// testParams returns cheap scrypt parameters so tests run quickly. The
// production defaults are exercised only for validity, never derived with.
func testParams() ScryptParams {
	return ScryptParams{N: 1 << 10, R: 8, P: 1, KeyLen: KeySize}
}

func testEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(testParams())
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func newTestFS(t *testing.T) absfs.FileSystem {
	t.Helper()
	fsys, err := memfs.NewFS()
	if err != nil {
		t.Fatalf("failed to create memfs: %v", err)
	}
	return fsys
}

func newTestProcessor(t *testing.T, fsys absfs.FileSystem, removeOriginals bool) *Processor {
	t.Helper()
	proc, err := NewProcessor(&ProcessorConfig{
		FS:              fsys,
		Params:          testParams(),
		RemoveOriginals: removeOriginals,
	})
	if err != nil {
		t.Fatalf("NewProcessor failed: %v", err)
	}
	return proc
}

func writeTestFile(t *testing.T, fsys absfs.FileSystem, name string, content []byte) {
	t.Helper()
	f, err := fsys.Create(name)
	if err != nil {
		t.Fatalf("Create(%q) failed: %v", name, err)
	}
	if _, err := f.Write(content); err != nil {
		f.Close()
		t.Fatalf("Write to %q failed: %v", name, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("Close(%q) failed: %v", name, err)
	}
}

func readTestFile(t *testing.T, fsys absfs.FileSystem, name string) []byte {
	t.Helper()
	f, err := fsys.Open(name)
	if err != nil {
		t.Fatalf("Open(%q) failed: %v", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		t.Fatalf("ReadAll(%q) failed: %v", name, err)
	}
	return data
}

func fileExists(t *testing.T, fsys absfs.FileSystem, name string) bool {
	t.Helper()
	_, err := fsys.Stat(name)
	return err == nil
}
