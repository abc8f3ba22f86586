package exchange

// Message is the unit of data flowing through a pipeline: a set of named
// headers plus a single body of arbitrary type. A Message belongs to at most
// one Exchange; the back-reference may be nil for detached messages built in
// tests or adapters.
type Message struct {
	headers  map[string]any
	body     any
	exchange *Exchange
}

// NewMessage creates a detached message with no headers and a nil body.
func NewMessage() *Message {
	return &Message{}
}

// Header returns the value stored under key, or nil when the header is absent.
func (m *Message) Header(key string) any {
	if m.headers == nil {
		return nil
	}
	return m.headers[key]
}

// SetHeader stores value under key, replacing any existing value.
func (m *Message) SetHeader(key string, value any) {
	if m.headers == nil {
		m.headers = make(map[string]any)
	}
	m.headers[key] = value
}

// Headers returns the live header map. Callers iterating it while another
// goroutine mutates the message must serialize access themselves.
func (m *Message) Headers() map[string]any {
	return m.headers
}

// HasHeaders reports whether the message carries at least one header.
func (m *Message) HasHeaders() bool {
	return len(m.headers) > 0
}

// Body returns the message body, which may be nil.
func (m *Message) Body() any {
	return m.body
}

// SetBody replaces the message body.
func (m *Message) SetBody(body any) {
	m.body = body
}

// Exchange returns the owning exchange, or nil for a detached message.
func (m *Message) Exchange() *Exchange {
	return m.exchange
}
