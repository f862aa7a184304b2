package markdown

import (
	"fmt"
	"regexp"
	"strings"
)

// BlockKind classifies a segment of text.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockRule
	BlockQuote
	BlockUnorderedList
	BlockOrderedList
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockRule:
		return "rule"
	case BlockQuote:
		return "blockquote"
	case BlockUnorderedList:
		return "unordered_list"
	case BlockOrderedList:
		return "ordered_list"
	default:
		return fmt.Sprintf("BlockKind(%d)", int(k))
	}
}

// Block is one classified segment. Lines hold the raw, unescaped text of the
// block with its markers stripped: a single element for headings, one per
// source line for quotes and lists, and the whole segment for paragraphs.
type Block struct {
	Kind  BlockKind
	Level int
	Lines []string
}

// Document is the parsed form of a text: its blocks, in order, and the
// contents of every fenced code block. Code block i appears in the block text
// as the placeholder returned by Placeholder(i).
type Document struct {
	Blocks []Block
	Code   []string
}

var (
	fenceRe       = regexp.MustCompile("(?s)```(.*?)```")
	blankRunRe    = regexp.MustCompile(`\n\n+`)
	ruleRe        = regexp.MustCompile(`^\s*(?:-{3,}|\*{3,}|_{3,})\s*$`)
	orderedRe     = regexp.MustCompile(`^\d+\. `)
	orderedItemRe = regexp.MustCompile(`^\d+\.\s*`)
	quoteMarkRe   = regexp.MustCompile(`^> ?`)
	placeholderRe = regexp.MustCompile(`__CODEBLOCK_(\d+)__`)
)

// Placeholder returns the token that stands in for code block i.
func Placeholder(i int) string {
	return fmt.Sprintf("__CODEBLOCK_%d__", i)
}

// Parse extracts fenced code blocks from text, splits the rest on blank
// lines and classifies every non-empty segment. An opening fence with no
// closing fence after it is left in place as ordinary text.
func Parse(text string) *Document {
	doc := &Document{}

	text = fenceRe.ReplaceAllStringFunc(strings.TrimSpace(text), func(m string) string {
		code := fenceRe.FindStringSubmatch(m)[1]
		doc.Code = append(doc.Code, code)
		return Placeholder(len(doc.Code) - 1)
	})

	for _, seg := range blankRunRe.Split(text, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, classify(seg))
	}

	return doc
}

// classify applies the block rules in priority order; the first match wins.
func classify(seg string) Block {
	switch {
	case strings.HasPrefix(seg, "### "):
		return Block{Kind: BlockHeading, Level: 3, Lines: []string{seg[4:]}}
	case strings.HasPrefix(seg, "## "):
		return Block{Kind: BlockHeading, Level: 2, Lines: []string{seg[3:]}}
	case strings.HasPrefix(seg, "# "):
		return Block{Kind: BlockHeading, Level: 1, Lines: []string{seg[2:]}}

	case ruleRe.MatchString(seg):
		return Block{Kind: BlockRule}

	case strings.HasPrefix(seg, "> "):
		lines := strings.Split(seg, "\n")
		for i, line := range lines {
			lines[i] = quoteMarkRe.ReplaceAllString(line, "")
		}
		return Block{Kind: BlockQuote, Lines: lines}

	case strings.HasPrefix(seg, "* "), strings.HasPrefix(seg, "- "):
		lines := strings.Split(seg, "\n")
		for i, line := range lines {
			lines[i] = dropRunes(line, 2)
		}
		return Block{Kind: BlockUnorderedList, Lines: lines}

	case orderedRe.MatchString(seg):
		lines := strings.Split(seg, "\n")
		for i, line := range lines {
			lines[i] = orderedItemRe.ReplaceAllString(line, "")
		}
		return Block{Kind: BlockOrderedList, Lines: lines}

	default:
		return Block{Kind: BlockParagraph, Lines: []string{seg}}
	}
}

// dropRunes removes the first n characters of s.
func dropRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}
