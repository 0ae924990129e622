package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	r := NewRenderer()

	tests := []struct {
		name        string
		source      string
		contains    []string
		notContains []string
	}{
		{
			name:     "bold and list",
			source:   "**Reply**: fine\n\n- one\n- two",
			contains: []string{"<strong>Reply</strong>", "<li>one</li>"},
		},
		{
			name:     "citation markers are highlighted",
			source:   "Article 5 applies[0] and Article 50 too[1].",
			contains: []string{`<span class="citation">[0]</span>`, `<span class="citation">[1]</span>`},
		},
		{
			name:        "script is stripped",
			source:      "hello <script>alert(1)</script>",
			notContains: []string{"<script>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(r.Render(tt.source))
			for _, want := range tt.contains {
				assert.True(t, strings.Contains(got, want), "expected %q in %q", want, got)
			}
			for _, unwanted := range tt.notContains {
				assert.False(t, strings.Contains(got, unwanted), "unexpected %q in %q", unwanted, got)
			}
		})
	}
}
