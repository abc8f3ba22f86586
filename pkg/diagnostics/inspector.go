// Package diagnostics produces safe, bounded representations of in-flight
// messages for logging, tracing and audit: a clipped textual body form, an
// XML dump of headers and body, and a fixed-width table of the message
// history. Every public operation returns a value and never propagates an
// error; the only side effect is resetting a stream cache body after it has
// been read, so the body stays re-readable for downstream consumers.
package diagnostics

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-msgtrace/pkg/converter"
)

// InspectorConfig holds the optional collaborators of an Inspector. Zero
// fields fall back to the package defaults.
type InspectorConfig struct {
	// Escape produces XML-safe text. Defaults to XMLEscape.
	Escape func(string) string
	// Clock supplies the current time for elapsed computations. Defaults to time.Now.
	Clock func() time.Time
	// SanitizeURI masks credentials in endpoint URIs. Defaults to SanitizeEndpointURI.
	SanitizeURI func(string) string
}

// Inspector renders diagnostic views of messages and exchanges. It holds no
// per-message state; a single Inspector may be shared across goroutines as
// long as each message is only dumped by its owning goroutine.
type Inspector struct {
	converter   converter.TypeConverter
	escape      func(string) string
	clock       func() time.Time
	sanitizeURI func(string) string
	logger      zerolog.Logger
}

// NewInspector creates an Inspector using the given converter for textual
// forms of header and body values.
func NewInspector(cfg InspectorConfig, conv converter.TypeConverter, logger zerolog.Logger) (*Inspector, error) {
	if conv == nil {
		return nil, errors.New("type converter cannot be nil")
	}
	if cfg.Escape == nil {
		cfg.Escape = XMLEscape
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.SanitizeURI == nil {
		cfg.SanitizeURI = SanitizeEndpointURI
	}
	return &Inspector{
		converter:   conv,
		escape:      cfg.Escape,
		clock:       cfg.Clock,
		sanitizeURI: cfg.SanitizeURI,
		logger:      logger.With().Str("component", "Inspector").Logger(),
	}, nil
}
