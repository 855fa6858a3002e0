// Package loader reads the airport and city data files.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/exp/mmap"
)

type Options struct {
	Logger *slog.Logger
	// Progress renders a progress bar on stderr while the file is read.
	Progress bool
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Stats describes a finished load.
type Stats struct {
	Lines   int
	Records int
	Skipped int
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("lines", s.Lines),
		slog.Int("records", s.Records),
		slog.Int("skipped", s.Skipped),
	)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

type fileReader struct {
	io.Reader
	closers []io.Closer
}

func (r *fileReader) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open memory maps the file at path. Files with a .zst suffix are decompressed on the fly.
func Open(path string, progress bool) (io.ReadCloser, error) {
	file, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("can't open file: %w", err)
	}

	r := &fileReader{
		Reader:  io.NewSectionReader(file, 0, int64(file.Len())),
		closers: []io.Closer{file},
	}

	if progress {
		bar := pb.Full.Start64(int64(file.Len()))
		bar.Set("prefix", filepath.Base(path))
		bar.Set(pb.Bytes, true)
		r.Reader = bar.NewProxyReader(r.Reader)
		r.closers = append(r.closers, closerFunc(func() error {
			bar.Finish()
			return nil
		}))
	}

	if strings.HasSuffix(path, ".zst") {
		dec, err := zstd.NewReader(r.Reader)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("can't create zstd reader: %w", err)
		}
		r.Reader = dec
		r.closers = append(r.closers, closerFunc(func() error {
			dec.Close()
			return nil
		}))
	}

	return r, nil
}

func trimCR(line string) string {
	return strings.TrimSuffix(line, "\r")
}
