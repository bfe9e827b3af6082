package obfile

import (
	"fmt"
	"io"
	"os"
	"path"
	"sort"

	"github.com/absfs/absfs"
	"github.com/google/uuid"
)

// readFile reads the entire content of name from fsys.
func readFile(fsys absfs.FileSystem, name string) ([]byte, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeFileAtomic writes data to a uniquely named temporary file and renames
// it into place, so a killed process never leaves a half-written file under
// the final name.
func writeFileAtomic(fsys absfs.FileSystem, name string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.%s.tmp", name, uuid.NewString())

	f, err := fsys.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		fsys.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		fsys.Remove(tmp)
		return err
	}
	if err := fsys.Rename(tmp, name); err != nil {
		fsys.Remove(tmp)
		return err
	}
	return nil
}

// walkFS visits every entry under dir in pre-order, calling fn with the full
// path, the path relative to the walk root, and the entry's FileInfo.
// Entries are visited in name order within each directory.
func walkFS(fsys absfs.FileSystem, dir string, fn func(full, rel string, info os.FileInfo) error) error {
	return walkDir(fsys, dir, "", fn)
}

func walkDir(fsys absfs.FileSystem, dir, rel string, fn func(full, rel string, info os.FileInfo) error) error {
	f, err := fsys.Open(dir)
	if err != nil {
		return err
	}
	infos, err := f.Readdir(-1)
	f.Close()
	if err != nil {
		return err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	for _, info := range infos {
		childFull := path.Join(dir, info.Name())
		childRel := path.Join(rel, info.Name())
		if err := fn(childFull, childRel, info); err != nil {
			return err
		}
		if info.IsDir() {
			if err := walkDir(fsys, childFull, childRel, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
