package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// extract unpacks the archive at src into dst. Entries that would land
// outside dst, and symlinks, are rejected or skipped.
func extract(ctx context.Context, src, dst string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dst, 0o700); err != nil {
		return err
	}
	root := filepath.Clean(dst) + string(os.PathSeparator)

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := strings.ReplaceAll(f.Name, "\\", "/")
		target := filepath.Join(dst, filepath.FromSlash(name))
		if !strings.HasPrefix(target+string(os.PathSeparator), root) || filepath.IsAbs(filepath.FromSlash(name)) {
			return fmt.Errorf("%w: entry %q escapes the destination", ErrInvalidArchive, f.Name)
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o700); err != nil {
				return err
			}
			continue
		case mode&os.ModeSymlink != 0, !mode.IsRegular():
			continue
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o700); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		if errors.Is(err, zip.ErrChecksum) || errors.Is(err, zip.ErrFormat) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %v", ErrInvalidArchive, err)
		}
		return err
	}
	return out.Close()
}
