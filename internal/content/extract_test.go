package content

import (
	"testing"

	"github.com/jonathan/link-planner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
	<head>
		<title>  Composting   Guide </title>
		<style>body { color: red; }</style>
		<script>var tracking = "should not appear";</script>
	</head>
	<body>
		<header><a href="/">Home</a></header>
		<nav><ul><li>Menu item</li></ul></nav>
		<main>
			<h1>Home Composting</h1>
			<p>Compost turns kitchen scraps into soil.</p><p>Worms&nbsp;help &amp; so does air.</p>
			<!-- hidden comment -->
		</main>
		<footer>Copyright footer</footer>
	</body>
</html>`

func TestExtract_RemovesBoilerplate(t *testing.T) {
	text, err := Extract(samplePage)
	require.NoError(t, err)

	assert.Contains(t, text, "Home Composting")
	assert.Contains(t, text, "Compost turns kitchen scraps into soil.")
	assert.NotContains(t, text, "tracking")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Menu item")
	assert.NotContains(t, text, "Copyright footer")
	assert.NotContains(t, text, "hidden comment")
}

func TestExtract_SeparatesBlocksAndDecodesEntities(t *testing.T) {
	text, err := Extract(samplePage)
	require.NoError(t, err)

	assert.Contains(t, text, "soil. Worms help & so does air.")
	assert.NotContains(t, text, "&amp;")
	assert.NotContains(t, text, "  ")
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t "} {
		_, err := Extract(input)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrExtraction)
	}
}

func TestExtract_NoVisibleText(t *testing.T) {
	_, err := Extract(`<html><head><title>Only title</title></head><body><nav>menu</nav><script>x()</script></body></html>`)
	require.Error(t, err)
	assert.Equal(t, types.KindExtraction, types.KindOf(err))
}

func TestExtract_Fragment(t *testing.T) {
	text, err := Extract("<p>Just a <b>fragment</b></p>")
	require.NoError(t, err)
	assert.Equal(t, "Just a fragment", text)
}

func TestExtract_InlineMarkupKeepsWordsWhole(t *testing.T) {
	text, err := Extract(`<p>Read our <b>sour</b>dough guide to e<em>-</em>commerce.</p><p>See <a href="/x">bak</a>ery<br>hours</p>`)
	require.NoError(t, err)

	assert.Equal(t, "Read our sourdough guide to e-commerce. See bakery hours", text)
	assert.Equal(t, 9, WordCount(text))
}

func TestAnalyze(t *testing.T) {
	doc, err := Analyze(samplePage)
	require.NoError(t, err)

	assert.Equal(t, "Composting Guide", doc.Title)
	assert.Equal(t, WordCount(doc.Text), doc.WordCount)
	assert.Equal(t, Hash(doc.Text), doc.Hash)
	assert.Len(t, doc.Hash, 64)
}

func TestTitle(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   string
	}{
		{"title element", "<html><head><title>Hello</title></head><body></body></html>", "Hello"},
		{"h1 fallback", "<html><body><h1>Heading  One</h1></body></html>", "Heading One"},
		{"none", "<html><body><p>text</p></body></html>", ""},
		{"empty markup", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Title(tt.markup))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   "))
	assert.Equal(t, 4, WordCount("one two\tthree\nfour"))
}
