package docs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdown(t *testing.T) {
	c := NewConverter()

	out, err := c.Markdown(`<p>The <strong>Name</strong> attribute is required.</p><ul><li>IfcWall</li><li>IfcSlab</li></ul>`)
	require.NoError(t, err)
	assert.Contains(t, out, "**Name**")
	assert.Contains(t, out, "- IfcWall")
	assert.Contains(t, out, "- IfcSlab")

	out, err = c.Markdown(`<table><tr><th>Property</th></tr><tr><td>IsExternal</td></tr></table>`)
	require.NoError(t, err)
	assert.Contains(t, out, "|")
	assert.Contains(t, out, "Property")
	assert.Contains(t, out, "IsExternal")

	out, err = c.Markdown("  \n ")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPlainText(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		expected string
	}{
		{
			name:     "plain text",
			fragment: "Property sets  for walls",
			expected: "Property sets for walls",
		},
		{
			name:     "blocks become lines",
			fragment: "<p>First <em>paragraph</em>.</p><p>Second</p>",
			expected: "First paragraph.\nSecond",
		},
		{
			name:     "scripts dropped",
			fragment: "<div>Shown<script>alert(1)</script></div><style>p{}</style>",
			expected: "Shown",
		},
		{
			name:     "empty",
			fragment: "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PlainText(tt.fragment))
		})
	}
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "First paragraph.", Summary("<p>First paragraph.</p><p>Second</p>", 0))
	assert.Equal(t, "First...", Summary("<p>First paragraph.</p>", 6))
	assert.Equal(t, "Short", Summary("Short", 40))
}
