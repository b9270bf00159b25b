package linking

import (
	"regexp"
	"strings"
	"unicode"
)

// stopWords are never counted as overlapping words and are stripped from anchor edges.
var stopWords = map[string]bool{
	"the": true, "and": true, "to": true, "of": true, "that": true, "is": true,
	"with": true, "for": true, "in": true, "on": true, "by": true, "as": true,
	"at": true, "from": true, "this": true, "it": true, "are": true, "be": true,
	"a": true, "an": true, "or": true, "our": true, "your": true, "its": true,
}

// AnchorRules bounds which candidates may become anchors.
type AnchorRules struct {
	MinWords   int
	MaxWords   int
	MinOverlap int
}

// Anchor is a validated anchor phrase located in the source text.
type Anchor struct {
	// Text is the phrase exactly as it appears in the source.
	Text string
	// Sentence is the source sentence containing the phrase.
	Sentence string
	// Offset is the byte offset of the first occurrence in the source text.
	Offset  int
	Overlap int
}

// SelectAnchor picks the best candidate for a link from sourceText to a page with targetText.
// A candidate qualifies when, after trimming stop words from its edges, it has MinWords to
// MaxWords words, occurs verbatim (case-insensitive) in sourceText and shares at least
// MinOverlap significant words with targetText. The longest qualifying phrase wins; ties
// go to the earliest occurrence.
func SelectAnchor(candidates []string, sourceText, targetText string, rules AnchorRules) (Anchor, bool) {
	targetWords := wordSet(targetText)

	var best Anchor
	bestWords := 0
	found := false
	for _, candidate := range candidates {
		phrase := trimStopWords(candidate)
		n := len(strings.Fields(phrase))
		if n == 0 || n < rules.MinWords || (rules.MaxWords > 0 && n > rules.MaxWords) {
			continue
		}

		overlap := overlapCount(phrase, targetWords)
		if overlap < rules.MinOverlap {
			continue
		}

		offset, verbatim := locate(sourceText, phrase)
		if offset < 0 {
			continue
		}

		if !found || n > bestWords || (n == bestWords && offset < best.Offset) {
			best = Anchor{Text: verbatim, Offset: offset, Overlap: overlap}
			bestWords = n
			found = true
		}
	}

	if found {
		best.Sentence = sentenceAt(sourceText, best.Offset)
	}
	return best, found
}

// trimStopWords removes stop words and stray punctuation from both ends of phrase.
func trimStopWords(phrase string) string {
	words := strings.Fields(phrase)
	for i := range words {
		words[i] = strings.TrimFunc(words[i], func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
	}
	for len(words) > 0 && (words[0] == "" || stopWords[strings.ToLower(words[0])]) {
		words = words[1:]
	}
	for len(words) > 0 && (words[len(words)-1] == "" || stopWords[strings.ToLower(words[len(words)-1])]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// locate finds phrase in text as whole words, case-insensitively, allowing any whitespace
// between words. It returns the offset and the matched text, or -1.
func locate(text, phrase string) (int, string) {
	words := strings.Fields(phrase)
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	// \b only knows ASCII word characters, so words are bounded by any non-letter, non-digit rune.
	re, err := regexp.Compile(`(?i)(?:^|[^\p{L}\p{N}])(` + strings.Join(quoted, `\s+`) + `)(?:[^\p{L}\p{N}]|$)`)
	if err != nil {
		return -1, ""
	}
	loc := re.FindStringSubmatchIndex(text)
	if loc == nil {
		return -1, ""
	}
	return loc[2], strings.Join(strings.Fields(text[loc[2]:loc[3]]), " ")
}

// significantWords lowercases text and keeps alphanumeric words that are not stop words.
func significantWords(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '\''
	})
	out := words[:0]
	for _, w := range words {
		w = strings.Trim(w, "-'")
		if w != "" && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range significantWords(text) {
		set[w] = true
	}
	return set
}

// overlapCount counts distinct significant words of phrase present in target.
func overlapCount(phrase string, target map[string]bool) int {
	seen := make(map[string]bool)
	for _, w := range significantWords(phrase) {
		if target[w] && !seen[w] {
			seen[w] = true
		}
	}
	return len(seen)
}

// sentenceAt returns the sentence of text containing byte offset.
// Sentences end at '.', '!' or '?' followed by whitespace.
func sentenceAt(text string, offset int) string {
	start := 0
	for i := 0; i < len(text); i++ {
		if !isSentenceEnd(text, i) {
			continue
		}
		if i >= offset {
			return strings.TrimSpace(text[start : i+1])
		}
		start = i + 1
	}
	return strings.TrimSpace(text[start:])
}

func isSentenceEnd(text string, i int) bool {
	switch text[i] {
	case '.', '!', '?':
		return i+1 == len(text) || text[i+1] == ' ' || text[i+1] == '\n' || text[i+1] == '\t'
	}
	return false
}
