package application

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	maxExcerptLength = 200
)

// MarkdownProcessingResult contains the results of rendering post content
type MarkdownProcessingResult struct {
	Excerpt     string
	HTMLContent []byte
}

// relativeImageTransformer points bare image keys (alice/123.png) at the image store
type relativeImageTransformer struct {
	baseURL string
}

func (t *relativeImageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	if t.baseURL == "" {
		return
	}

	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isRelativeLink(dest) {
			img.Destination = []byte(t.baseURL + "/" + strings.TrimPrefix(strings.TrimPrefix(dest, "./"), "/"))
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}

	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		return false
	}

	if strings.HasPrefix(dest, "../") {
		return false
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// MarkdownRenderer defines the interface for converting post content to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) (*MarkdownProcessingResult, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
}

// NewMarkdownRenderer builds a renderer that drops raw HTML from post content.
// Relative image destinations are resolved against imageBaseURL when it is set.
func NewMarkdownRenderer(imageBaseURL string) MarkdownRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeImageTransformer{baseURL: strings.TrimSuffix(imageBaseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &MarkdownRendererImpl{
		renderer: renderer,
	}
}

func (r *MarkdownRendererImpl) Render(markdown []byte) (*MarkdownProcessingResult, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &MarkdownProcessingResult{
		Excerpt:     extractExcerpt(markdown),
		HTMLContent: buf.Bytes(),
	}, nil
}

// extractExcerpt returns the first prose paragraph, cut at a word boundary
func extractExcerpt(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables, quotes, images
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, ">") ||
			strings.HasPrefix(trimmed, "![") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	excerpt := strings.Join(paragraphLines, " ")

	if utf8.RuneCountInString(excerpt) > maxExcerptLength {
		excerpt = string([]rune(excerpt)[:maxExcerptLength])
		if lastSpace := strings.LastIndexAny(excerpt, " \t"); lastSpace > 0 {
			excerpt = excerpt[:lastSpace]
		}
		excerpt += "..."
	}

	return excerpt
}
