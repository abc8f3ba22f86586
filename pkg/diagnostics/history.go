package diagnostics

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// ExchangeFormatter renders a summary of an exchange for inclusion in a
// message history dump.
type ExchangeFormatter func(ex *exchange.Exchange) (string, error)

const (
	historyHeaderFormat = "%-20s %-20s %-80s %-12s"
	historyRowFormat    = "[%-18.18s] [%-18.18s] [%-78.78s] [%10.10s]"
)

var historySeparator = strings.Repeat("-", 139)

// DumpMessageHistory renders the traversal history of the exchange as a
// fixed-width table, one row per visited node plus a synthetic origin row.
// If formatter is non-nil its output is appended under an "Exchange" banner,
// and includeStacktraceHeader appends a banner for a stacktrace the caller
// will add itself.
//
// The second return value is false when the exchange carries no history at
// all. This operation is called from failure-reporting paths, so it must
// never fail itself: any internal error yields an empty string instead.
func (i *Inspector) DumpMessageHistory(ex *exchange.Exchange, formatter ExchangeFormatter, includeStacktraceHeader bool) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Debug().Interface("panic", r).Msg("Recovered while dumping message history.")
			out, ok = "", true
		}
	}()

	dump, ok, err := i.dumpMessageHistory(ex, formatter, includeStacktraceHeader)
	if err != nil {
		i.logger.Debug().Err(err).Msg("Failed to dump message history.")
		return "", true
	}
	return dump, ok
}

func (i *Inspector) dumpMessageHistory(ex *exchange.Exchange, formatter ExchangeFormatter, includeStacktraceHeader bool) (string, bool, error) {
	if ex == nil {
		return "", false, nil
	}
	history := ex.History()
	if len(history) == 0 {
		return "", false, nil
	}

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString("Message History\n")
	sb.WriteString(historySeparator)
	sb.WriteString("\n")
	fmt.Fprintf(&sb, historyHeaderFormat, "RouteId", "ProcessorId", "Processor", "Elapsed (ms)")
	sb.WriteString("\n")

	// Synthetic origin row: where the exchange entered the pipeline.
	label := ""
	if ex.FromEndpointURI != "" {
		label = i.sanitizeURI(ex.FromEndpointURI)
	}
	var elapsed int64
	if v, found := ex.Property(exchange.PropCreatedTimestamp); found {
		if created, isTime := v.(time.Time); isTime {
			elapsed = i.clock().Sub(created).Milliseconds()
		}
	}
	fmt.Fprintf(&sb, historyRowFormat,
		ex.FromRouteID, ex.FromRouteID, label, strconv.FormatInt(elapsed, 10))
	sb.WriteString("\n")

	for _, entry := range history {
		fmt.Fprintf(&sb, historyRowFormat,
			entry.RouteID, entry.NodeID, entry.Label, strconv.FormatInt(entry.ElapsedMillis, 10))
		sb.WriteString("\n")
	}

	if formatter != nil {
		summary, err := formatter(ex)
		if err != nil {
			return "", true, fmt.Errorf("exchange formatter failed: %w", err)
		}
		sb.WriteString("\nExchange\n")
		sb.WriteString(historySeparator)
		sb.WriteString("\n")
		sb.WriteString(summary)
		sb.WriteString("\n")
	}

	if includeStacktraceHeader {
		sb.WriteString("\nStacktrace\n")
		sb.WriteString(historySeparator)
	}

	return sb.String(), true, nil
}

// SanitizeEndpointURI masks the password component of an endpoint URI so
// credentials never reach the logs. Unparseable URIs pass through unchanged.
func SanitizeEndpointURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.User == nil {
		return uri
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxxx")
	}
	return u.String()
}
