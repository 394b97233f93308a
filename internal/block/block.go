// Package block defines the unit of content the indexer embeds and
// searches over, plus a default Markdown-aware extractor. The extractor is
// pluggable: callers may supply their own Extractor to index other formats.
package block

import (
	"context"
	"regexp"
	"strings"
)

// Block is a contiguous, 1-based inclusive line range of a note file.
type Block struct {
	Path      string
	StartLine int
	EndLine   int
	Content   string
}

// EmbeddedBlock pairs a Block with the vector produced for it.
type EmbeddedBlock struct {
	Block
	Vector []float32
}

// Extractor splits a file's content into Blocks. The default
// implementation is MarkdownExtractor; callers may substitute their own.
type Extractor interface {
	Extract(ctx context.Context, path string, content []byte) ([]Block, error)
}

var headerPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// MarkdownExtractor splits a Markdown file into one Block per section that
// starts at an ATX header of any level (# through ######) and runs to the
// line before the next header, plus one Block for any content before the
// first header; when the file has no headers at all it emits one Block per
// blank-line-delimited paragraph. It does not attempt token-budget splitting: a
// section here has no size limit.
type MarkdownExtractor struct{}

// NewMarkdownExtractor returns the default Extractor.
func NewMarkdownExtractor() *MarkdownExtractor {
	return &MarkdownExtractor{}
}

// Extract implements Extractor.
func (e *MarkdownExtractor) Extract(_ context.Context, path string, content []byte) ([]Block, error) {
	text := string(content)
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	lines := strings.Split(text, "\n")
	// strings.Split on text ending in "\n" yields a trailing empty element;
	// drop it so EndLine never points past the last real line.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	var headerLines []int
	for i, line := range lines {
		if headerPattern.MatchString(line) {
			headerLines = append(headerLines, i)
		}
	}

	if len(headerLines) == 0 {
		return extractByParagraph(path, lines), nil
	}

	var blocks []Block

	if headerLines[0] > 0 {
		if b := buildBlock(path, lines, 0, headerLines[0]-1); b != nil {
			blocks = append(blocks, *b)
		}
	}

	for i, start := range headerLines {
		end := len(lines) - 1
		if i+1 < len(headerLines) {
			end = headerLines[i+1] - 1
		}
		if b := buildBlock(path, lines, start, end); b != nil {
			blocks = append(blocks, *b)
		}
	}

	return blocks, nil
}

// extractByParagraph splits header-less content into blocks on blank lines.
func extractByParagraph(path string, lines []string) []Block {
	var blocks []Block
	start := -1
	for i, line := range lines {
		blank := strings.TrimSpace(line) == ""
		if !blank && start == -1 {
			start = i
		}
		if blank && start != -1 {
			if b := buildBlock(path, lines, start, i-1); b != nil {
				blocks = append(blocks, *b)
			}
			start = -1
		}
	}
	if start != -1 {
		if b := buildBlock(path, lines, start, len(lines)-1); b != nil {
			blocks = append(blocks, *b)
		}
	}
	return blocks
}

func buildBlock(path string, lines []string, start, end int) *Block {
	if start < 0 || end >= len(lines) || start > end {
		return nil
	}
	section := strings.Join(lines[start:end+1], "\n")
	if strings.TrimSpace(section) == "" {
		return nil
	}
	return &Block{
		Path:      path,
		StartLine: start + 1,
		EndLine:   end + 1,
		Content:   section,
	}
}
