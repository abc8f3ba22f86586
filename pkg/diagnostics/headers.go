package diagnostics

import (
	"sort"

	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

// SortedHeaderKeys returns the message's header keys in ascending byte order,
// giving dumps a deterministic header sequence.
func SortedHeaderKeys(msg *exchange.Message) []string {
	headers := msg.Headers()
	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// CopyHeaders copies the headers from source to target. When override is
// false, headers already present on the target are kept. Values are copied by
// reference, not cloned.
func CopyHeaders(source, target *exchange.Message, override bool) {
	if source == nil || target == nil || !source.HasHeaders() {
		return
	}
	for key, value := range source.Headers() {
		if override || target.Header(key) == nil {
			target.SetHeader(key, value)
		}
	}
}
