package store

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// PackCBZ zips files (sorted by name) into output, replacing it if present.
func PackCBZ(files []string, output string) (err error) {
	if len(files) == 0 {
		return fmt.Errorf("cbz: no pages to pack")
	}

	tmp := output + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	z := zip.NewWriter(out)

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)

	for _, file := range sorted {
		if err = addFileToZip(z, file); err != nil {
			_ = z.Close()
			_ = out.Close()
			return fmt.Errorf("cbz: %s: %w", file, err)
		}
	}

	if err = z.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("cbz: %w", err)
	}
	if err = out.Close(); err != nil {
		return fmt.Errorf("cbz: %w", err)
	}

	return os.Rename(tmp, output)
}

func addFileToZip(z *zip.Writer, file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}

	header.Name = filepath.Base(file)
	// Images are already compressed.
	header.Method = zip.Store

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)
	return err
}
