// Package content turns raw page markup into the plain text used for clustering and anchor selection.
package content

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jonathan/link-planner/internal/types"
)

// boilerplateSelector matches structural elements that never carry page content.
const boilerplateSelector = "script, style, noscript, template, iframe, svg, head, nav, header, footer, aside, form, [role=navigation], [aria-hidden=true]"

// Document is the extracted view of a single page.
type Document struct {
	Title     string
	Text      string
	WordCount int
	Hash      string
}

// Extract returns whitespace-normalized visible text from markup.
// Empty input, unparseable markup and pages without visible text produce an extraction error.
func Extract(markup string) (string, error) {
	doc, err := parse(markup)
	if err != nil {
		return "", err
	}
	return extractText(doc)
}

// Analyze parses markup once and returns title, text, word count and content hash.
func Analyze(markup string) (*Document, error) {
	doc, err := parse(markup)
	if err != nil {
		return nil, err
	}

	// Title must be read before boilerplate removal drops <head>.
	title := titleOf(doc)

	text, err := extractText(doc)
	if err != nil {
		return nil, err
	}

	return &Document{
		Title:     title,
		Text:      text,
		WordCount: WordCount(text),
		Hash:      Hash(text),
	}, nil
}

// Title returns the page title, falling back to the first <h1>.
func Title(markup string) string {
	doc, err := parse(markup)
	if err != nil {
		return ""
	}
	return titleOf(doc)
}

// WordCount returns the number of whitespace-separated words in text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Hash computes the SHA256 hash of text and returns it as hex.
func Hash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func parse(markup string) (*goquery.Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, types.NewError(types.KindExtraction, "empty markup", nil)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, types.NewError(types.KindExtraction, "failed to parse HTML", err)
	}
	return doc, nil
}

func titleOf(doc *goquery.Document) string {
	if title := CleanText(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return CleanText(doc.Find("h1").First().Text())
}

func extractText(doc *goquery.Document) (string, error) {
	doc.Find(boilerplateSelector).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	var sb strings.Builder
	for _, n := range root.Nodes {
		collectText(n, &sb)
	}

	text := CleanText(sb.String())
	if text == "" {
		return "", types.NewError(types.KindExtraction, "no visible text after removing boilerplate", nil)
	}
	return text, nil
}

// blockElements end a run of text; inline elements such as <b> or <a> do not,
// so markup inside a word leaves the word intact.
var blockElements = map[atom.Atom]bool{
	atom.Address: true, atom.Article: true, atom.Blockquote: true, atom.Br: true,
	atom.Caption: true, atom.Dd: true, atom.Details: true, atom.Div: true,
	atom.Dl: true, atom.Dt: true, atom.Figcaption: true, atom.Figure: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Hr: true, atom.Li: true, atom.Main: true, atom.Ol: true, atom.P: true,
	atom.Pre: true, atom.Section: true, atom.Summary: true, atom.Table: true,
	atom.Td: true, atom.Th: true, atom.Tr: true, atom.Ul: true,
}

// collectText writes every text node below n as is, with a space around block
// elements so adjacent blocks do not run their words together.
func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
	if block {
		sb.WriteByte(' ')
	}
}
