package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illmade-knight/go-msgtrace/pkg/diagnostics"
	"github.com/illmade-knight/go-msgtrace/pkg/exchange"
)

func TestCopyHeaders(t *testing.T) {
	t.Run("without override existing headers win", func(t *testing.T) {
		source := exchange.NewMessage()
		source.SetHeader("a", "from-source")
		source.SetHeader("b", "only-source")

		target := exchange.NewMessage()
		target.SetHeader("a", "from-target")

		diagnostics.CopyHeaders(source, target, false)

		assert.Equal(t, "from-target", target.Header("a"))
		assert.Equal(t, "only-source", target.Header("b"))
	})

	t.Run("with override source headers win", func(t *testing.T) {
		source := exchange.NewMessage()
		source.SetHeader("a", "from-source")

		target := exchange.NewMessage()
		target.SetHeader("a", "from-target")

		diagnostics.CopyHeaders(source, target, true)

		assert.Equal(t, "from-source", target.Header("a"))
	})

	t.Run("values are copied by reference", func(t *testing.T) {
		shared := &exchange.StringSource{Data: "shared"}
		source := exchange.NewMessage()
		source.SetHeader("ref", shared)

		target := exchange.NewMessage()
		diagnostics.CopyHeaders(source, target, false)

		assert.Same(t, shared, target.Header("ref"))
	})

	t.Run("empty source is a no-op", func(t *testing.T) {
		target := exchange.NewMessage()
		target.SetHeader("a", "kept")

		diagnostics.CopyHeaders(exchange.NewMessage(), target, true)
		diagnostics.CopyHeaders(nil, target, true)

		assert.Equal(t, "kept", target.Header("a"))
		assert.Len(t, target.Headers(), 1)
	})
}
