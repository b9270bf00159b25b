package linking

import (
	"strings"
	"testing"

	"github.com/jdkato/prose/v2"
	"github.com/stretchr/testify/assert"
)

func TestRegexExtractor(t *testing.T) {
	text := "Visit the Home Composting Guide today. Our Kitchen Scraps tips. Home Composting Guide again. single Word."

	phrases := NewRegexExtractor().ExtractCandidates(text)
	assert.Equal(t, []string{"Home Composting Guide", "Our Kitchen Scraps"}, phrases)
	assert.Empty(t, NewRegexExtractor().ExtractCandidates(""))
}

func TestChunkNounPhrases(t *testing.T) {
	tokens := []prose.Token{
		{Text: "The", Tag: "DT"},
		{Text: "organic", Tag: "JJ"},
		{Text: "compost", Tag: "NN"},
		{Text: "pile", Tag: "NN"},
		{Text: "needs", Tag: "VBZ"},
		{Text: "fresh", Tag: "JJ"},
		{Text: "green", Tag: "JJ"},
		{Text: "material", Tag: "NN"},
		{Text: ".", Tag: "."},
		{Text: "Gardens", Tag: "NNS"},
		{Text: "big", Tag: "JJ"},
		{Text: "Organic", Tag: "JJ"},
		{Text: "Compost", Tag: "NN"},
		{Text: "Pile", Tag: "NN"},
	}

	phrases := chunkNounPhrases(tokens)
	assert.Equal(t, []string{"organic compost pile", "fresh green material", "Gardens", "big Organic Compost Pile"}, phrases)
}

func TestChunkNounPhrases_DropsDanglingAdjectives(t *testing.T) {
	tokens := []prose.Token{{Text: "very", Tag: "RB"}, {Text: "green", Tag: "JJ"}, {Text: ".", Tag: "."}}
	assert.Empty(t, chunkNounPhrases(tokens))
}

func TestPOSExtractor(t *testing.T) {
	phrases := NewPOSExtractor(nil).ExtractCandidates("The organic compost pile needs fresh green material every week.")

	joined := strings.ToLower(strings.Join(phrases, "|"))
	assert.Contains(t, joined, "compost")
	assert.Contains(t, joined, "material")
	assert.Empty(t, NewPOSExtractor(nil).ExtractCandidates("   "))
}

func TestNewPhraseExtractor(t *testing.T) {
	assert.IsType(t, &RegexExtractor{}, NewPhraseExtractor("regex", nil))
	assert.IsType(t, &RegexExtractor{}, NewPhraseExtractor("REGEX", nil))
	assert.IsType(t, &POSExtractor{}, NewPhraseExtractor("pos", nil))
	assert.IsType(t, &POSExtractor{}, NewPhraseExtractor("", nil))
}
