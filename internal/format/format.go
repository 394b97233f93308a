// Package format renders query results for the CLI and server in one of
// three fixed output shapes. Formatting is dispatched on a tag; nothing
// upstream of this package renders anything itself.
package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danimelchor/mindmap-go/internal/nnindex"
)

// Format selects how results are rendered.
type Format string

const (
	// Raw prints one "path:start:end" per result, no distance or content.
	Raw Format = "raw"
	// List prints a numbered, human-readable list with distances and excerpts.
	List Format = "list"
	// JSON prints the results as a JSON array.
	JSON Format = "json"
)

// Valid reports whether f is one of the three supported formats.
func (f Format) Valid() bool {
	switch f {
	case Raw, List, JSON:
		return true
	default:
		return false
	}
}

// Parse converts a string into a Format, defaulting to Raw for an empty
// string and erroring on anything unrecognized.
func Parse(s string) (Format, error) {
	if s == "" {
		return Raw, nil
	}
	f := Format(strings.ToLower(s))
	if !f.Valid() {
		return "", fmt.Errorf("unknown format %q: must be one of raw, list, json", s)
	}
	return f, nil
}

// jsonResult is the wire shape of one result under the JSON format,
// matching original_source/src/formatter.rs's SearchResultWithContext.
type jsonResult struct {
	Path        string  `json:"path"`
	StartLineNo int     `json:"start_line_no"`
	EndLineNo   int     `json:"end_line_no"`
	Distance    float64 `json:"distance"`
	Context     string  `json:"context"`
}

// Render formats results for query according to f.
func Render(query string, results []nnindex.Result, f Format) (string, error) {
	switch f {
	case Raw, "":
		return renderRaw(results), nil
	case JSON:
		return renderJSON(results)
	case List:
		return renderList(query, results), nil
	default:
		return "", fmt.Errorf("unknown format %q: must be one of raw, list, json", f)
	}
}

func renderRaw(results []nnindex.Result) string {
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s:%d:%d\n", r.Path, r.StartLine, r.EndLine)
	}
	return b.String()
}

func renderJSON(results []nnindex.Result) (string, error) {
	out := make([]jsonResult, len(results))
	for i, r := range results {
		out[i] = jsonResult{
			Path:        r.Path,
			StartLineNo: r.StartLine,
			EndLineNo:   r.EndLine,
			Distance:    r.Distance,
			Context:     r.Content,
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to marshal results: %w", err)
	}
	return string(data), nil
}

func renderList(query string, results []nnindex.Result) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for %q\n", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result", len(results))
	if len(results) != 1 {
		b.WriteString("s")
	}
	fmt.Fprintf(&b, " for %q\n\n", query)

	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s:%d:%d - %v\n", i+1, r.Path, r.StartLine, r.EndLine, r.Distance)
		b.WriteString(excerpt(r.Content))
		b.WriteString("\n\n")
	}
	return b.String()
}

const excerptLimit = 200

func excerpt(content string) string {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) <= excerptLimit {
		return trimmed
	}
	return trimmed[:excerptLimit] + "..."
}
