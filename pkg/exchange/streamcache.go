package exchange

import (
	"bytes"
	"io"
	"os"
	"strings"
)

// StreamCache is a stream backed body that buffers its content so it can be
// read more than once. Reset rewinds the cache to the start and is idempotent;
// any component that reads a StreamCache body must call Reset before handing
// the message on, so later consumers see the full content again.
type StreamCache interface {
	io.Reader
	Reset()
}

// MemoryStreamCache is a StreamCache over an in-memory byte slice.
type MemoryStreamCache struct {
	data []byte
	r    *bytes.Reader
}

// NewMemoryStreamCache creates a stream cache over data. The slice is not copied.
func NewMemoryStreamCache(data []byte) *MemoryStreamCache {
	return &MemoryStreamCache{data: data, r: bytes.NewReader(data)}
}

func (c *MemoryStreamCache) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// Reset rewinds the cache to the start of the buffered content.
func (c *MemoryStreamCache) Reset() {
	_, _ = c.r.Seek(0, io.SeekStart)
}

// Len returns the total length of the buffered content.
func (c *MemoryStreamCache) Len() int {
	return len(c.data)
}

// FileStreamCache is a StreamCache backed by a spooled temporary file, used
// when a streamed body is too large to hold in memory.
type FileStreamCache struct {
	f *os.File
}

// NewFileStreamCache creates a stream cache over an open file. The caller
// keeps ownership of the file handle.
func NewFileStreamCache(f *os.File) *FileStreamCache {
	return &FileStreamCache{f: f}
}

func (c *FileStreamCache) Read(p []byte) (int, error) {
	return c.f.Read(p)
}

// Reset seeks the underlying file back to the start.
func (c *FileStreamCache) Reset() {
	_, _ = c.f.Seek(0, io.SeekStart)
}

// Source is a structured message body exposing its content as a reader.
// Implementations other than StringSource and BytesSource are assumed to be
// stream backed and are treated like streams when deciding whether a body is
// safe to materialize.
type Source interface {
	Reader() io.Reader
}

// StringSource is a memory backed Source holding its content as a string.
type StringSource struct {
	Data string
}

func (s *StringSource) Reader() io.Reader { return strings.NewReader(s.Data) }

func (s *StringSource) String() string { return s.Data }

// BytesSource is a memory backed Source holding its content as bytes.
type BytesSource struct {
	Data []byte
}

func (s *BytesSource) Reader() io.Reader { return bytes.NewReader(s.Data) }

func (s *BytesSource) String() string { return string(s.Data) }

// WrappedFile marks a body that wraps a file on disk without holding it in
// memory, such as a consumed file endpoint payload.
type WrappedFile interface {
	// Path returns the location of the wrapped file.
	Path() string
}
