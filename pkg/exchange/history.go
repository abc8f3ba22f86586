package exchange

// HistoryEntry records one processing-node visit during a message's traversal
// of the pipeline. Entries are immutable once appended.
type HistoryEntry struct {
	// RouteID is the id of the route the node belongs to.
	RouteID string
	// NodeID is the id of the processing node that was visited.
	NodeID string
	// Label is a human readable description of the node.
	Label string
	// ElapsedMillis is the time spent in the node, in milliseconds.
	ElapsedMillis int64
}
