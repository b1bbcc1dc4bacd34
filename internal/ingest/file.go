package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"sensorguard/internal/model"
)

type FileSource struct {
	path   string
	logger *slog.Logger
}

func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

func (s *FileSource) Name() string {
	return s.path
}

func (s *FileSource) Load(_ context.Context) (model.Dataset, error) {
	return LoadFile(s.path, s.logger)
}

// LoadFile reads one reading per line from path. A missing file yields an
// error wrapping ErrMissingSource; an empty file yields an empty dataset.
func LoadFile(path string, logger *slog.Logger) (model.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Dataset{Source: path}, fmt.Errorf("%w: %s", ErrMissingSource, path)
		}
		return model.Dataset{Source: path}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadDataset(path, f, logger)
}

// ReadDataset reads one reading per line from r. Lines longer than
// maxLineBytes are skipped like any other unparsable line.
func ReadDataset(source string, r io.Reader, logger *slog.Logger) (model.Dataset, error) {
	c := newCollector(source, logger)
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, tooLong, err := readLine(br, maxLineBytes)
		switch {
		case tooLong:
			c.skip(line, ErrLineTooLong)
		case err == nil || line != "":
			c.add(line)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return c.dataset, fmt.Errorf("read %s: %w", source, err)
		}
	}
	return c.finish(), nil
}

const maxLineBytes = 1024 * 1024

// ErrLineTooLong marks an input line longer than the per-line limit.
var ErrLineTooLong = errors.New("line too long")

// readLine returns the next line without its terminator. An over-long line
// is drained from br and only a short prefix of it is returned.
func readLine(br *bufio.Reader, limit int) (string, bool, error) {
	var buf []byte
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if !tooLong {
			buf = append(buf, chunk...)
			if len(buf) > limit+2 {
				tooLong = true
				buf = buf[:rawPreviewBytes]
			}
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		line := strings.TrimSuffix(string(buf), "\n")
		line = strings.TrimSuffix(line, "\r")
		if len(line) > limit {
			tooLong = true
			line = line[:rawPreviewBytes]
		}
		return line, tooLong, err
	}
}
