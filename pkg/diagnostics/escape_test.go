package diagnostics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/illmade-knight/go-msgtrace/pkg/diagnostics"
)

func TestXMLEscape(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text passes through", "hello world", "hello world"},
		{"special characters", `<a href="x">&</a>`, "&lt;a href=&quot;x&quot;&gt;&amp;&lt;/a&gt;"},
		{"control character", "a\x01b", "a&#x1;b"},
		{"whitespace survives", "a\tb\nc\rd", "a\tb\nc\rd"},
		{"unicode survives", "héllo wörld", "héllo wörld"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, diagnostics.XMLEscape(tc.in))
		})
	}
}
