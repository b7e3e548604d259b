package collector

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/JoaoHenriqueOliveira/gobayesmix/schema"
)

// File is a Collector backed by length-prefixed framed records on disk: each
// record is a uint64 byte-length followed by that many Codec-encoded bytes.
// It supports a single forward read pass unless BeginReading is called
// again, which reopens the file and rewinds (spec.md §4.E).
type File struct {
	path  string
	codec schema.Codec

	w   *os.File
	buf *bufio.Writer

	r *os.File
	br *bufio.Reader
}

// NewFile returns a File collector that will read/write path using codec.
func NewFile(path string, codec schema.Codec) *File {
	return &File{path: path, codec: codec}
}

// Start opens path for writing, truncating any existing content. The file
// handle is released by Finish on every exit path, including a fatal error
// (spec.md §5's resource-acquisition rule).
func (f *File) Start() error {
	w, err := os.Create(f.path)
	if err != nil {
		return fmt.Errorf("collector: open %q for writing: %w", f.path, err)
	}
	f.w = w
	f.buf = bufio.NewWriter(w)
	return nil
}

// Append encodes state and writes it as one length-prefixed frame. A write
// failure here must abort the run per spec.md §7.
func (f *File) Append(state *schema.MarginalState) error {
	if f.w == nil {
		return fmt.Errorf("collector: append before start")
	}
	var body bytes.Buffer
	if err := f.codec.Encode(&body, state); err != nil {
		return fmt.Errorf("collector: encode iteration %d: %w", state.Iteration, err)
	}
	var lenPrefix [8]byte
	binary.BigEndian.PutUint64(lenPrefix[:], uint64(body.Len()))
	if _, err := f.buf.Write(lenPrefix[:]); err != nil {
		return fmt.Errorf("collector: write frame length: %w", err)
	}
	if _, err := f.buf.Write(body.Bytes()); err != nil {
		return fmt.Errorf("collector: write frame body: %w", err)
	}
	return nil
}

// Finish flushes and closes the write handle. It is safe to call even if
// Start was never called or Append failed partway through.
func (f *File) Finish() error {
	var err error
	if f.buf != nil {
		err = f.buf.Flush()
	}
	if f.w != nil {
		if cerr := f.w.Close(); err == nil {
			err = cerr
		}
		f.w = nil
		f.buf = nil
	}
	if f.r != nil {
		f.r.Close()
		f.r = nil
		f.br = nil
	}
	return err
}

// BeginReading (re)opens the file from the beginning for a forward replay
// pass.
func (f *File) BeginReading() error {
	if f.r != nil {
		f.r.Close()
	}
	r, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("collector: open %q for reading: %w", f.path, err)
	}
	f.r = r
	f.br = bufio.NewReader(r)
	return nil
}

// Next reads the next framed record, decoding it with the configured Codec.
func (f *File) Next() (*schema.MarginalState, bool, error) {
	if f.br == nil {
		return nil, false, fmt.Errorf("collector: next before BeginReading")
	}
	var lenPrefix [8]byte
	_, err := io.ReadFull(f.br, lenPrefix[:])
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("collector: read frame length: %w", err)
	}
	n := binary.BigEndian.Uint64(lenPrefix[:])
	body := make([]byte, n)
	if _, err := io.ReadFull(f.br, body); err != nil {
		return nil, false, fmt.Errorf("collector: read frame body: %w", err)
	}
	state, err := f.codec.Decode(bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("collector: decode frame: %w", err)
	}
	return state, true, nil
}
