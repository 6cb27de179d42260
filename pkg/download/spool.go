package download

import (
	"bytes"
	"io"
	"os"
)

// spoolThreshold mirrors the 64 MiB memory-resident threshold before a
// spooled buffer spills to a temporary file.
const spoolThreshold = 64 * 1024 * 1024

// spoolBuffer is an io.Writer that stays in memory up to spoolThreshold
// bytes, then transparently continues as a temp file; its contents are read
// back through Reader(). Go has
// no standard spooled-buffer type; this is the narrow stdlib equivalent of
// Python's tempfile.SpooledTemporaryFile used for the same purpose.
type spoolBuffer struct {
	mem      []byte
	file     *os.File
	spilled  bool
	writePos int64
}

func newSpoolBuffer() *spoolBuffer {
	return &spoolBuffer{mem: make([]byte, 0, 4096)}
}

func (s *spoolBuffer) Write(p []byte) (int, error) {
	if !s.spilled && int64(len(s.mem))+int64(len(p)) > spoolThreshold {
		if err := s.spill(); err != nil {
			return 0, err
		}
	}
	if s.spilled {
		n, err := s.file.Write(p)
		s.writePos += int64(n)
		return n, err
	}
	s.mem = append(s.mem, p...)
	s.writePos += int64(len(p))
	return len(p), nil
}

func (s *spoolBuffer) spill() error {
	f, err := os.CreateTemp("", "sandbox-download-*")
	if err != nil {
		return err
	}
	if _, err := f.Write(s.mem); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	s.file = f
	s.spilled = true
	s.mem = nil
	return nil
}

// Reader returns a reader positioned at the start of the accumulated
// content. Ownership of any backing temp file transfers to the caller,
// which must call Close when done.
func (s *spoolBuffer) Reader() (io.ReadCloser, error) {
	if !s.spilled {
		return io.NopCloser(bytes.NewReader(s.mem)), nil
	}
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return &tempFileReader{file: s.file}, nil
}

// tempFileReader deletes the backing temp file once the caller closes it.
type tempFileReader struct {
	file *os.File
}

func (r *tempFileReader) Read(p []byte) (int, error) { return r.file.Read(p) }

func (r *tempFileReader) Close() error {
	name := r.file.Name()
	err := r.file.Close()
	os.Remove(name)
	return err
}
