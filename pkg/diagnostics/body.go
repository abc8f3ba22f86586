package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// DefaultBodyMaxChars is the clip limit applied when the pipeline context does
// not configure one.
const DefaultBodyMaxChars = 1000

const defaultLogPrepend = "Message: "

// ExtractBodyAsString returns the body of the message as a string, leaving a
// stream cache body re-readable. Returns "" for a nil message or body.
func (i *Inspector) ExtractBodyAsString(msg *exchange.Message) string {
	if msg == nil || msg.Body() == nil {
		return ""
	}
	text, _ := i.materializeBody(msg.Body())
	return text
}

// ExtractBodyForLogging extracts the body prefixed with "Message: ", deriving
// the stream allowance and clip limit from the pipeline context properties
// PropLogBodyStreams (default false) and PropLogBodyMaxChars (default 1000).
func (i *Inspector) ExtractBodyForLogging(msg *exchange.Message) string {
	allowStreams := false
	maxChars := DefaultBodyMaxChars

	if msg == nil {
		return defaultLogPrepend + "[Body is null]"
	}
	if ex := msg.Exchange(); ex != nil && ex.Context() != nil {
		if p, ok := ex.Context().Property(exchange.PropLogBodyStreams); ok {
			if b, err := i.converter.ToBool(p); err == nil {
				allowStreams = b
			}
		}
		if p, ok := ex.Context().Property(exchange.PropLogBodyMaxChars); ok {
			if n, err := i.converter.ToInt(p); err == nil {
				maxChars = n
			}
		}
	}

	return i.ExtractBodyForLoggingWith(msg, defaultLogPrepend, allowStreams, false, maxChars)
}

// ExtractBodyForLoggingWith extracts the body as a clipped string for logging.
//
// maxChars caps the number of characters: 0 means unlimited and a negative
// value disables body logging entirely, in which case the body is never
// inspected. allowStreams and allowFiles gate whether stream-like or file
// backed bodies may be materialized at all; a disallowed body yields a fixed
// placeholder without being touched. A stream cache body that was read is
// always reset afterwards and a file body's offset is restored, so both stay
// re-readable.
func (i *Inspector) ExtractBodyForLoggingWith(msg *exchange.Message, prepend string, allowStreams, allowFiles bool, maxChars int) string {
	if maxChars < 0 {
		return prepend + "[Body is not logged]"
	}

	if msg == nil {
		return prepend + "[Body is null]"
	}

	body := msg.Body()
	if body == nil {
		return prepend + "[Body is null]"
	}

	switch kind := ClassifyBody(body); kind {
	case KindFileBacked:
		if !allowStreams || !allowFiles {
			return prepend + "[Body is file based: " + fileDescription(body) + "]"
		}
	case KindResettableStream, KindRawInputStream, KindRawOutputStream, KindReader, KindWriter:
		if !allowStreams {
			return prepend + "[Body is instance of " + kind.String() + "]"
		}
	}

	text, err := i.materializeBody(body)
	if err != nil && text == "" {
		return prepend + "[Body is null]"
	}

	if maxChars > 0 {
		runes := []rune(text)
		if len(runes) > maxChars {
			text = string(runes[:maxChars]) +
				fmt.Sprintf("... [Body clipped after %d chars, total length is %d]", maxChars, len(runes))
		}
	}

	return prepend + text
}

// materializeBody turns a non-nil body into text. A stream cache body is
// reset and a file body is seeked back to its prior offset once touched,
// regardless of whether conversion succeeded. On conversion failure it falls
// back to the value's default textual form and reports the failure alongside.
func (i *Inspector) materializeBody(body any) (string, error) {
	isCache := false
	switch b := body.(type) {
	case exchange.StreamCache:
		isCache = true
		defer b.Reset()
	case *os.File:
		if offset, seekErr := b.Seek(0, io.SeekCurrent); seekErr == nil {
			defer func() { _, _ = b.Seek(offset, io.SeekStart) }()
		}
	}

	var text string
	var err error
	if src, ok := body.(exchange.Source); ok && !isCache {
		text, err = i.converter.ToString(src.Reader())
	} else {
		text, err = i.converter.ToString(body)
	}
	if err != nil {
		text = fmt.Sprint(body)
	}
	return text, err
}

// fileDescription names a file backed body without reading it.
func fileDescription(body any) string {
	switch f := body.(type) {
	case *os.File:
		return f.Name()
	case exchange.WrappedFile:
		return f.Path()
	}
	return fmt.Sprint(body)
}
