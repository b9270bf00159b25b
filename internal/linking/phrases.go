package linking

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/jonathan/link-planner/internal/logging"
)

// PhraseExtractor proposes anchor-text candidates from page text.
// Implementations never fail; a degraded extractor returns fewer candidates.
type PhraseExtractor interface {
	ExtractCandidates(text string) []string
}

// Extractor names accepted by NewPhraseExtractor.
const (
	ExtractorPOS   = "pos"
	ExtractorRegex = "regex"
)

// NewPhraseExtractor returns the extractor registered under name, defaulting to POS tagging.
func NewPhraseExtractor(name string, logger logging.Logger) PhraseExtractor {
	if strings.EqualFold(name, ExtractorRegex) {
		return NewRegexExtractor()
	}
	return NewPOSExtractor(logger)
}

// POSExtractor chunks noun phrases (adjectives followed by one or more nouns) from
// part-of-speech tags. It falls back to the regex heuristic when tagging fails.
type POSExtractor struct {
	fallback *RegexExtractor
	logger   logging.Logger
}

// NewPOSExtractor creates a POSExtractor.
func NewPOSExtractor(logger logging.Logger) *POSExtractor {
	return &POSExtractor{fallback: NewRegexExtractor(), logger: logging.OrNop(logger)}
}

// ExtractCandidates implements PhraseExtractor.
func (e *POSExtractor) ExtractCandidates(text string) (phrases []string) {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("POS tagging panicked, falling back to regex", logging.String("panic", fmt.Sprint(r)))
			phrases = e.fallback.ExtractCandidates(text)
		}
	}()

	doc, err := prose.NewDocument(text,
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		e.logger.Warn("POS tagging failed, falling back to regex", logging.Err(err))
		return e.fallback.ExtractCandidates(text)
	}

	return chunkNounPhrases(doc.Tokens())
}

// chunkNounPhrases applies the grammar <JJ>* <NN.*>+ over tagged tokens.
func chunkNounPhrases(tokens []prose.Token) []string {
	var phrases []string
	seen := make(map[string]bool)
	var adjectives, nouns []string

	flush := func() {
		if len(nouns) > 0 {
			phrase := strings.Join(append(adjectives, nouns...), " ")
			if key := strings.ToLower(phrase); !seen[key] {
				seen[key] = true
				phrases = append(phrases, phrase)
			}
		}
		adjectives, nouns = nil, nil
	}

	for _, tok := range tokens {
		switch {
		case strings.HasPrefix(tok.Tag, "NN"):
			nouns = append(nouns, tok.Text)
		case strings.HasPrefix(tok.Tag, "JJ"):
			if len(nouns) > 0 {
				flush()
			}
			adjectives = append(adjectives, tok.Text)
		default:
			flush()
		}
	}
	flush()
	return phrases
}

// capitalizedPhrase matches two to five consecutive capitalized words.
var capitalizedPhrase = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,4}\b`)

// RegexExtractor proposes runs of capitalized words as candidates.
type RegexExtractor struct{}

// NewRegexExtractor creates a RegexExtractor.
func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// ExtractCandidates implements PhraseExtractor.
func (e *RegexExtractor) ExtractCandidates(text string) []string {
	var phrases []string
	seen := make(map[string]bool)
	for _, m := range capitalizedPhrase.FindAllString(text, -1) {
		m = strings.Join(strings.Fields(m), " ")
		if !seen[m] {
			seen[m] = true
			phrases = append(phrases, m)
		}
	}
	return phrases
}
