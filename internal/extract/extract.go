// Package extract turns HTML sources into plain text with blank-line
// paragraph breaks, ready for segmentation.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// Options controls how an HTML document is reduced.
type Options struct {
	// Selector, when set, keeps only elements matching this CSS selector.
	Selector string
	// IncludeAll converts the whole document instead of the readable article.
	IncludeAll bool
	// BaseURL resolves relative links during readability extraction. May be nil.
	BaseURL *url.URL
}

// Text extracts the document's content as plain text paragraphs.
func Text(content io.Reader, opt Options) (string, error) {
	markdown, err := ToMarkdown(content, opt)
	if err != nil {
		return "", err
	}
	text := PlainText(markdown)
	if text == "" {
		return "", fmt.Errorf("no text content extracted")
	}
	return text, nil
}

// ToMarkdown extracts content from HTML and converts it to Markdown.
// A selector overrides IncludeAll; otherwise readability picks the main article.
func ToMarkdown(content io.Reader, opt Options) (string, error) {
	switch {
	case opt.Selector != "":
		return extractWithSelector(content, opt.Selector)
	case opt.IncludeAll:
		raw, err := io.ReadAll(content)
		if err != nil {
			return "", fmt.Errorf("failed to read HTML content: %w", err)
		}
		return convertToMarkdown(string(raw))
	default:
		return extractMainContent(content, opt.BaseURL)
	}
}

func extractMainContent(content io.Reader, baseURL *url.URL) (string, error) {
	if baseURL == nil {
		baseURL = &url.URL{}
	}

	// readability consumes the reader; keep a copy for the fallback
	raw, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read HTML content: %w", err)
	}

	article, err := readability.FromReader(bytes.NewReader(raw), baseURL)
	if err != nil || strings.TrimSpace(article.Content) == "" {
		slog.Debug("Readability found no article, converting whole document", "error", err)
		return convertToMarkdown(string(raw))
	}
	return convertToMarkdown(article.Content)
}

func extractWithSelector(content io.Reader, selector string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(selector)
	if selection.Length() == 0 {
		return "", fmt.Errorf("no elements found matching selector: %s", selector)
	}

	var parts []string
	selection.Each(func(_ int, s *goquery.Selection) {
		html, err := s.Html()
		if err != nil {
			return
		}
		// each match becomes its own block so paragraphs stay apart
		tag := goquery.NodeName(s)
		parts = append(parts, fmt.Sprintf("<%s>%s</%s>", tag, html, tag))
	})
	if len(parts) == 0 {
		return "", fmt.Errorf("failed to extract HTML from selection")
	}
	return convertToMarkdown(strings.Join(parts, "\n"))
}

func convertToMarkdown(html string) (string, error) {
	converter := md.NewConverter("", true, &md.Options{CodeBlockStyle: "fenced"})
	converter.Remove("script", "style", "noscript")

	markdown, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return collapseBlankLines(strings.TrimSpace(markdown)), nil
}

func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return s
}
