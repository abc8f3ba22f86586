package exchange

import (
	"time"

	"github.com/google/uuid"

	"github.com/illmade-knight/go-msgtrace/pkg/converter"
)

// Well-known exchange property names.
const (
	// PropCreatedTimestamp holds the time.Time at which the exchange was created.
	PropCreatedTimestamp = "trace.createdTimestamp"
	// PropMessageHistory holds the []HistoryEntry recorded during traversal.
	PropMessageHistory = "trace.messageHistory"
)

// Well-known pipeline context property names.
const (
	// PropLogBodyStreams enables logging of stream based bodies ("true"/"false", default false).
	PropLogBodyStreams = "trace.logBodyStreams"
	// PropLogBodyMaxChars caps the number of characters of a logged body (default 1000).
	PropLogBodyMaxChars = "trace.logBodyMaxChars"
)

// Context carries pipeline-wide, read-only configuration shared by every
// exchange: named string properties and the type converter used when values
// need a textual form.
type Context struct {
	properties map[string]string
	converter  converter.TypeConverter
}

// NewContext creates a pipeline context using the given converter.
func NewContext(conv converter.TypeConverter) *Context {
	return &Context{
		properties: make(map[string]string),
		converter:  conv,
	}
}

// SetProperty sets a named context property.
func (c *Context) SetProperty(name, value string) {
	c.properties[name] = value
}

// Property returns the named context property and whether it was set.
func (c *Context) Property(name string) (string, bool) {
	v, ok := c.properties[name]
	return v, ok
}

// TypeConverter returns the converter shared by exchanges of this context.
func (c *Context) TypeConverter() converter.TypeConverter {
	return c.converter
}

// Exchange is the processing context wrapping one in-flight Message together
// with cross-cutting metadata: a property bag, the traversal history and the
// origin of the message. An exchange is owned by the pipeline that created it
// and must not be shared between goroutines without external serialization.
type Exchange struct {
	id         string
	context    *Context
	msg        *Message
	properties map[string]any

	// FromRouteID is the id of the route the exchange entered the pipeline on.
	FromRouteID string
	// FromEndpointURI is the URI of the endpoint the exchange originated from.
	FromEndpointURI string
}

// NewExchange creates an exchange with a fresh id, an empty in-message and
// the creation timestamp recorded as a property.
func NewExchange(ctx *Context) *Exchange {
	e := &Exchange{
		id:         uuid.NewString(),
		context:    ctx,
		properties: make(map[string]any),
	}
	e.msg = &Message{exchange: e}
	e.properties[PropCreatedTimestamp] = time.Now()
	return e
}

// ID returns the unique exchange id.
func (e *Exchange) ID() string {
	return e.id
}

// Context returns the pipeline context, which may be nil for detached exchanges.
func (e *Exchange) Context() *Context {
	return e.context
}

// Message returns the current in-flight message.
func (e *Exchange) Message() *Message {
	return e.msg
}

// Property returns the named exchange property and whether it was set.
func (e *Exchange) Property(name string) (any, bool) {
	v, ok := e.properties[name]
	return v, ok
}

// SetProperty sets a named exchange property.
func (e *Exchange) SetProperty(name string, value any) {
	e.properties[name] = value
}

// AddHistory appends one traversal record to the exchange's message history.
func (e *Exchange) AddHistory(entry HistoryEntry) {
	list, _ := e.properties[PropMessageHistory].([]HistoryEntry)
	e.properties[PropMessageHistory] = append(list, entry)
}

// History returns the recorded traversal history in append order.
func (e *Exchange) History() []HistoryEntry {
	list, _ := e.properties[PropMessageHistory].([]HistoryEntry)
	return list
}
