package extract

import (
	"regexp"
	"strings"
	"sync"
)

// markdownPatterns holds the compiled patterns used to strip Markdown markup.
type markdownPatterns struct {
	header     *regexp.Regexp
	bulletList *regexp.Regexp
	numberList *regexp.Regexp
	blockquote *regexp.Regexp
	codeFence  *regexp.Regexp
	rule       *regexp.Regexp
	image      *regexp.Regexp
	link       *regexp.Regexp
	inlineCode *regexp.Regexp
	bold       *regexp.Regexp
	italic     *regexp.Regexp
	underscore *regexp.Regexp
	escape     *regexp.Regexp
}

var (
	patterns     *markdownPatterns
	patternsOnce sync.Once
)

func getPatterns() *markdownPatterns {
	patternsOnce.Do(func() {
		patterns = &markdownPatterns{
			header:     regexp.MustCompile(`^\s*#{1,6}\s+`),
			bulletList: regexp.MustCompile(`^\s*[-*+]\s+`),
			numberList: regexp.MustCompile(`^\s*\d+\.\s+`),
			blockquote: regexp.MustCompile(`^\s*(?:>\s?)+`),
			codeFence:  regexp.MustCompile("^\\s*(?:\x60{3}|~{3})"),
			rule:       regexp.MustCompile(`^\s*(?:[-*_]\s*){3,}$`),
			image:      regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`),
			link:       regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`),
			inlineCode: regexp.MustCompile("\x60([^\x60]+)\x60"),
			bold:       regexp.MustCompile(`\*\*([^*]+)\*\*`),
			italic:     regexp.MustCompile(`(^|[^*\\])\*([^*\s][^*]*?)\*`),
			underscore: regexp.MustCompile(`(^|[^\w\\])_([^_\s][^_]*?)_(\W|$)`),
			escape:     regexp.MustCompile(`\\([\\` + "\x60" + `*_{}\[\]()#+\-.!|>~])`),
		}
	})
	return patterns
}

// PlainText strips Markdown markup and returns the text as paragraphs
// separated by blank lines. Fenced code blocks and horizontal rules are dropped;
// list items and headings each keep their own line.
func PlainText(markdown string) string {
	p := getPatterns()

	var (
		paragraphs []string
		current    []string
		inCode     bool
	)
	flush := func() {
		if len(current) > 0 {
			paragraphs = append(paragraphs, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(strings.ReplaceAll(markdown, "\r\n", "\n"), "\n") {
		if p.codeFence.MatchString(line) {
			inCode = !inCode
			flush()
			continue
		}
		if inCode {
			continue
		}
		if strings.TrimSpace(line) == "" || p.rule.MatchString(line) {
			flush()
			continue
		}
		if text := stripLine(p, line); text != "" {
			current = append(current, text)
		}
	}
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func stripLine(p *markdownPatterns, line string) string {
	line = p.header.ReplaceAllString(line, "")
	line = p.blockquote.ReplaceAllString(line, "")
	line = p.bulletList.ReplaceAllString(line, "")
	line = p.numberList.ReplaceAllString(line, "")
	line = p.image.ReplaceAllString(line, "")
	line = p.link.ReplaceAllString(line, "$1")
	line = p.inlineCode.ReplaceAllString(line, "$1")
	line = p.bold.ReplaceAllString(line, "$1")
	line = p.italic.ReplaceAllString(line, "$1$2")
	line = p.underscore.ReplaceAllString(line, "$1$2$3")
	line = p.escape.ReplaceAllString(line, "$1")
	return strings.Join(strings.Fields(line), " ")
}
