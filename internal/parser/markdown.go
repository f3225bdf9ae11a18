// Package parser turns records and model replies into structured values:
// embeddable documents, markdown outlines and JSON payloads.
package parser

import (
	"regexp"
	"strings"
)

var (
	headingLine   = regexp.MustCompile(`^#{1,6}\s+\S`)
	mdHeadingMark = regexp.MustCompile(`^#+\s+`)
	mdEmphasis    = regexp.MustCompile(`\*\*|\*|__|\^`)
	mdListMark    = regexp.MustCompile(`^\s*[-*+]\s+`)
)

// Outline counts structural blocks of a markdown body.
type Outline struct {
	Headings   int
	Paragraphs int
}

// LooksLikeOverview reports a heading-heavy document: at least one heading
// and fewer than five paragraphs per heading.
func (o Outline) LooksLikeOverview() bool {
	return o.Headings > 0 && o.Paragraphs < 5*o.Headings
}

// OutlineOf counts ATX headings and blank-line separated paragraphs of a
// markdown body. Frontmatter is skipped and a fenced code block counts as a
// single paragraph.
func OutlineOf(content string) Outline {
	var o Outline
	inPara, inFence := false, false
	for _, line := range strings.Split(stripFrontmatter(content), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "```") {
			if !inFence {
				o.Paragraphs++
			}
			inFence = !inFence
			inPara = false
			continue
		}
		switch {
		case inFence:
		case line == "":
			inPara = false
		case headingLine.MatchString(line):
			o.Headings++
			inPara = false
		case !inPara:
			o.Paragraphs++
			inPara = true
		}
	}
	return o
}

func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") {
		return content
	}
	end := strings.Index(content[4:], "\n---")
	if end < 0 {
		return content
	}
	rest := content[4+end+4:]
	return strings.TrimPrefix(rest, "\n")
}

// CleanMarkdown strips heading markers, emphasis, list bullets and backticks.
func CleanMarkdown(text string) string {
	if text == "" {
		return ""
	}
	text = mdHeadingMark.ReplaceAllString(text, "")
	text = mdEmphasis.ReplaceAllString(text, "")
	text = mdListMark.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "`", "")
	return strings.TrimSpace(text)
}
