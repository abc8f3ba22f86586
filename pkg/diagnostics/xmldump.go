package diagnostics

import (
	"strings"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// DumpConfig controls how a message is dumped as XML.
type DumpConfig struct {
	// IncludeBody emits the <body> element.
	IncludeBody bool
	// Indent prepends this many spaces to every emitted line.
	Indent int
	// AllowStreams permits materializing stream based bodies.
	AllowStreams bool
	// AllowFiles permits materializing file backed bodies.
	AllowFiles bool
	// MaxChars clips the body text; 0 disables clipping and a negative value
	// suppresses the body text entirely.
	MaxChars int
}

// DefaultDumpConfig returns the standard dump settings: body included, no
// indent, streams excluded, files included, body clipped at 128K chars.
func DefaultDumpConfig() DumpConfig {
	return DumpConfig{
		IncludeBody: true,
		AllowFiles:  true,
		MaxChars:    128 * 1024,
	}
}

// DumpAsXML dumps the message as a generic XML structure using the default
// dump settings.
func (i *Inspector) DumpAsXML(msg *exchange.Message) string {
	return i.DumpAsXMLWith(msg, DefaultDumpConfig())
}

// DumpAsXMLWith dumps the message headers, and optionally its body, as one
// fixed XML structure:
//
//	<message exchangeId="...">
//	  <headers>
//	    <header key="K" type="T">value</header>
//	  </headers>
//	  <body type="T">value</body>
//	</message>
//
// Headers are emitted in ascending key order so the output is deterministic.
// Values that cannot be converted to text are emitted empty; all text content
// is XML escaped. The body reuses ExtractBodyForLoggingWith, so stream cache
// bodies are left re-readable.
func (i *Inspector) DumpAsXMLWith(msg *exchange.Message, cfg DumpConfig) string {
	if msg == nil {
		return ""
	}

	var sb strings.Builder

	prefix := strings.Repeat(" ", cfg.Indent)

	exchangeID := ""
	if ex := msg.Exchange(); ex != nil {
		exchangeID = ex.ID()
	}
	sb.WriteString(prefix)
	sb.WriteString(`<message exchangeId="`)
	sb.WriteString(i.escape(exchangeID))
	sb.WriteString("\">\n")

	if msg.HasHeaders() {
		sb.WriteString(prefix)
		sb.WriteString("  <headers>\n")

		headers := msg.Headers()
		for _, key := range SortedHeaderKeys(msg) {
			value := headers[key]
			sb.WriteString(prefix)
			sb.WriteString(`    <header key="`)
			sb.WriteString(i.escape(key))
			sb.WriteString(`"`)
			if typeName := TypeName(value); typeName != "" {
				sb.WriteString(` type="`)
				sb.WriteString(i.escape(typeName))
				sb.WriteString(`"`)
			}
			sb.WriteString(">")

			if value != nil {
				// A failed conversion silently drops the value to empty text.
				if text, err := i.converter.ToString(value); err == nil {
					sb.WriteString(i.escape(text))
				}
			}

			sb.WriteString("</header>\n")
		}

		sb.WriteString(prefix)
		sb.WriteString("  </headers>\n")
	}

	if cfg.IncludeBody {
		sb.WriteString(prefix)
		sb.WriteString("  <body")
		if typeName := TypeName(msg.Body()); typeName != "" {
			sb.WriteString(` type="`)
			sb.WriteString(i.escape(typeName))
			sb.WriteString(`"`)
		}
		sb.WriteString(">")

		text := i.ExtractBodyForLoggingWith(msg, "", cfg.AllowStreams, cfg.AllowFiles, cfg.MaxChars)
		sb.WriteString(i.escape(text))

		sb.WriteString("</body>\n")
	}

	sb.WriteString(prefix)
	sb.WriteString("</message>")
	return sb.String()
}
