package diagnostics

import (
	"io"
	"os"
	"reflect"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// BodyKind classifies the runtime shape of a message body for the purpose of
// deciding whether it is safe to materialize as text. The classification is
// transient: it is recomputed on every call and never stored on the message.
type BodyKind int

const (
	// KindNull is an absent body.
	KindNull BodyKind = iota
	// KindResettableStream is a stream cache that supports Reset.
	KindResettableStream
	// KindRawInputStream is a plain reader with no re-read capability.
	KindRawInputStream
	// KindRawOutputStream is a writer; it has no readable content at all.
	KindRawOutputStream
	// KindReader is a rune oriented reader without a byte reader interface.
	KindReader
	// KindWriter is a string oriented writer without a byte writer interface.
	KindWriter
	// KindFileBacked is a body backed by a file on disk.
	KindFileBacked
	// KindMemorySource is a structured source held fully in memory.
	KindMemorySource
	// KindOpaqueObject is any other value.
	KindOpaqueObject
)

func (k BodyKind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindResettableStream:
		return "ResettableStream"
	case KindRawInputStream:
		return "RawInputStream"
	case KindRawOutputStream:
		return "RawOutputStream"
	case KindReader:
		return "Reader"
	case KindWriter:
		return "Writer"
	case KindFileBacked:
		return "FileBacked"
	case KindMemorySource:
		return "MemoryStructuredSource"
	case KindOpaqueObject:
		return "OpaqueObject"
	}
	return "Unknown"
}

// ClassifyBody derives the BodyKind of a body value. It is a pure function
// with no side effects; in particular it never reads from the body.
//
// File backed bodies are classified as such even though *os.File also
// satisfies io.Reader: the file check runs before the stream checks so that
// file gating stays independent of stream gating.
func ClassifyBody(body any) BodyKind {
	if body == nil {
		return KindNull
	}
	switch body.(type) {
	case exchange.StreamCache:
		return KindResettableStream
	case *exchange.StringSource, *exchange.BytesSource:
		// Memory backed sources are safe to materialize and are exempt from
		// stream gating.
		return KindMemorySource
	case *os.File, exchange.WrappedFile:
		return KindFileBacked
	case exchange.Source:
		// Any other source is assumed to wrap a live stream.
		return KindRawInputStream
	case io.Reader:
		return KindRawInputStream
	case io.Writer:
		return KindRawOutputStream
	case io.RuneReader:
		return KindReader
	case io.StringWriter:
		return KindWriter
	}
	return KindOpaqueObject
}

// TypeName returns the type name of v with pointer markers stripped, for use
// as the type attribute of dumped headers and bodies. Returns "" when the
// type cannot be resolved.
func TypeName(v any) string {
	if v == nil {
		return ""
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.String()
}
