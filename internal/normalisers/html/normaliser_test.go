package html

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, "html", normaliser.Format())
	assert.Contains(t, normaliser.Extensions(), ".html")
	assert.Contains(t, normaliser.Extensions(), ".htm")
}

func TestNormalise_Success(t *testing.T) {
	page := "<html><head><title>Test Page</title></head><body><p>Hello World</p></body></html>"

	result, err := New().Normalise("/path/to/document.html", []byte(page))
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "Test Page", result.Title)
	assert.Equal(t, "Hello World", result.Text)
	assert.Equal(t, "html", result.Format)
}

func TestNormalise_TitleExtraction(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		file          string
		expectedTitle string
	}{
		{"title tag", "<title>My Page</title>", "/page.html", "My Page"},
		{"entities decoded", "<title>Q&amp;A</title>", "/page.html", "Q&A"},
		{"empty title falls back", "<title>  </title><p>x</p>", "/release-notes_v2.html", "release notes v2"},
		{"no title falls back", "<p>Body only</p>", "/index.htm", "index"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := New().Normalise(tc.file, []byte(tc.content))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedTitle, result.Title)
		})
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "nested tags",
			input:    "<div><p><strong>Bold</strong> text</p></div>",
			expected: "Bold text",
		},
		{
			name:     "script removed",
			input:    "<p>Before</p><script>alert('evil');</script><p>After</p>",
			expected: "Before\nAfter",
		},
		{
			name:     "style removed",
			input:    "<style>.foo { color: red; }</style><p>Content</p>",
			expected: "Content",
		},
		{
			name:     "head removed",
			input:    "<head><meta charset='utf-8'><title>Title</title></head><body>Content</body>",
			expected: "Content",
		},
		{
			name:     "br to newline",
			input:    "Line 1<br>Line 2<br/>Line 3",
			expected: "Line 1\nLine 2\nLine 3",
		},
		{
			name:     "HTML entities decoded",
			input:    "<p>&lt;tag&gt; &amp; &quot;quotes&quot;</p>",
			expected: "<tag> & \"quotes\"",
		},
		{
			name:     "comments removed",
			input:    "<p>Before</p><!-- comment --><p>After</p>",
			expected: "Before\nAfter",
		},
		{
			name:     "headings and list items",
			input:    "<h1>Title</h1><ul><li>Item 1</li><li>Item 2</li></ul>",
			expected: "Title\nItem 1\nItem 2",
		},
		{
			name:     "images removed",
			input:    `<p>See <img src="image.png" alt="Image"> here</p>`,
			expected: "See here",
		},
		{
			name:     "svg removed",
			input:    `<p>Before</p><svg width="100"><circle cx="50"/></svg><p>After</p>`,
			expected: "Before\nAfter",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripHTML(tc.input))
		})
	}
}
