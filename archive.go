package obfile

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/absfs/absfs"
)

// Archive suffixes. Uncompressed directories pack to tar, compressed ones
// to zip.
const (
	TarSuffix = ".tar"
	ZipSuffix = ".zip"
)

// Pack archives the directory tree rooted at dir into a single blob written
// next to the directory: <dir>.tar, or <dir>.zip when compress is set. It
// returns the blob path.
//
// Only directories and regular files are archived; other entry types are
// skipped. Relative paths and file modes are preserved.
func Pack(fsys absfs.FileSystem, dir string, compress bool) (string, error) {
	dir = strings.TrimSuffix(dir, "/")

	info, err := fsys.Stat(dir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", dir)
	}

	var buf bytes.Buffer
	var out string
	if compress {
		out = dir + ZipSuffix
		err = packZip(fsys, dir, &buf)
	} else {
		out = dir + TarSuffix
		err = packTar(fsys, dir, &buf)
	}
	if err != nil {
		return "", err
	}

	if err := writeFileAtomic(fsys, out, buf.Bytes(), 0644); err != nil {
		return "", err
	}
	return out, nil
}

// Unpack extracts an archive blob produced by Pack into a directory named
// after the blob minus its suffix, and returns the directory path. The blob
// itself is left untouched so a failed extraction can be retried.
func Unpack(fsys absfs.FileSystem, archivePath string) (string, error) {
	var dest string
	switch {
	case strings.HasSuffix(archivePath, TarSuffix):
		dest = strings.TrimSuffix(archivePath, TarSuffix)
	case strings.HasSuffix(archivePath, ZipSuffix):
		dest = strings.TrimSuffix(archivePath, ZipSuffix)
	default:
		return "", fmt.Errorf("unrecognized archive %q: expected %s or %s", archivePath, TarSuffix, ZipSuffix)
	}

	raw, err := readFile(fsys, archivePath)
	if err != nil {
		return "", err
	}

	if err := fsys.MkdirAll(dest, 0755); err != nil {
		return "", err
	}

	if strings.HasSuffix(archivePath, ZipSuffix) {
		err = unpackZip(fsys, dest, raw)
	} else {
		err = unpackTar(fsys, dest, raw)
	}
	if err != nil {
		return "", err
	}
	return dest, nil
}

func packTar(fsys absfs.FileSystem, dir string, buf *bytes.Buffer) error {
	tw := tar.NewWriter(buf)

	err := walkFS(fsys, dir, func(full, rel string, info os.FileInfo) error {
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		if info.Mode().IsRegular() {
			data, err := readFile(fsys, full)
			if err != nil {
				return err
			}
			if _, err := tw.Write(data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		tw.Close()
		return err
	}
	return tw.Close()
}

func packZip(fsys absfs.FileSystem, dir string, buf *bytes.Buffer) error {
	zw := zip.NewWriter(buf)

	err := walkFS(fsys, dir, func(full, rel string, info os.FileInfo) error {
		if !info.IsDir() && !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = rel
		if info.IsDir() {
			hdr.Name += "/"
		} else {
			hdr.Method = zip.Deflate
		}

		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			data, err := readFile(fsys, full)
			if err != nil {
				return err
			}
			if _, err := w.Write(data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

func unpackTar(fsys absfs.FileSystem, dest string, raw []byte) error {
	tr := tar.NewReader(bytes.NewReader(raw))

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("corrupt tar archive: %w", err)
		}
		if !validArchivePath(hdr.Name) {
			return fmt.Errorf("archive entry %q escapes extraction directory", hdr.Name)
		}

		target := path.Join(dest, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := fsys.MkdirAll(target, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := fsys.MkdirAll(path.Dir(target), 0755); err != nil {
				return err
			}
			data, err := io.ReadAll(tr)
			if err != nil {
				return fmt.Errorf("corrupt tar archive: %w", err)
			}
			if err := writeFileAtomic(fsys, target, data, os.FileMode(hdr.Mode).Perm()); err != nil {
				return err
			}
		}
	}
}

func unpackZip(fsys absfs.FileSystem, dest string, raw []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return fmt.Errorf("corrupt zip archive: %w", err)
	}

	for _, f := range zr.File {
		name := strings.TrimSuffix(f.Name, "/")
		if !validArchivePath(name) {
			return fmt.Errorf("archive entry %q escapes extraction directory", f.Name)
		}

		target := path.Join(dest, name)
		if f.FileInfo().IsDir() {
			if err := fsys.MkdirAll(target, f.Mode().Perm()); err != nil {
				return err
			}
			continue
		}

		if err := fsys.MkdirAll(path.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("corrupt zip archive: %w", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return fmt.Errorf("corrupt zip archive: %w", err)
		}
		if err := writeFileAtomic(fsys, target, data, f.Mode().Perm()); err != nil {
			return err
		}
	}
	return nil
}

// validArchivePath rejects absolute entries and parent-directory traversal.
func validArchivePath(name string) bool {
	if name == "" || path.IsAbs(name) {
		return false
	}
	for _, part := range strings.Split(path.Clean(name), "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
