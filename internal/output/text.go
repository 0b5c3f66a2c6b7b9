package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/examflux/examflux/internal/item"
)

// TextWriter outputs human-readable terminal cards, one per item.
type TextWriter struct{}

func (t *TextWriter) WriteItems(w io.Writer, title string, items []item.Item) error {
	ew := &errWriter{w: w}

	ew.printf("%s — %d item(s)\n", title, len(items))
	ew.println(strings.Repeat("─", 60))
	if len(items) == 0 {
		ew.println("(none)")
		return ew.err
	}
	for _, it := range items {
		writeCard(ew, it)
	}
	return ew.err
}

func (t *TextWriter) WriteItem(w io.Writer, it item.Item) error {
	ew := &errWriter{w: w}
	writeCard(ew, it)
	return ew.err
}

func (t *TextWriter) WriteSimilar(w io.Writer, res item.SimilarityResult, noResults bool) error {
	ew := &errWriter{w: w}
	if noResults {
		ew.printf("No similar items for #%s.\n", res.QueryID)
		return ew.err
	}
	ew.printf("Similar to #%s (top %d):\n", res.QueryID, res.TopK)
	for _, hit := range res.Results {
		ew.printf("  #%-6s score: %.3f\n", hit.ID, hit.Score)
	}
	return ew.err
}

func (t *TextWriter) WriteRaw(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Backend-defined payload may not be JSON at all; show it as-is.
		_, err := fmt.Fprintln(w, strings.TrimSpace(string(raw)))
		return err
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

// writeCard mirrors the reviewer card layout: header with id and status,
// then whichever payload sections the item carries.
func writeCard(ew *errWriter, it item.Item) {
	status := string(item.NormalizeStatus(it.Status))
	if bool(it.Committed) {
		status += " committed"
	}
	ew.printf("\nItem #%s  [%s]\n", it.ID, status)

	if !it.Stimulus.IsZero() {
		ew.println("  Stimulus:")
		for _, line := range strings.Split(it.Stimulus.String(), "\n") {
			ew.printf("    %s\n", line)
		}
	}
	if !it.Stem.IsZero() {
		ew.printf("  Stem: %s\n", it.Stem)
	}
	if len(it.Choices) > 0 {
		ew.println("  Choices:")
		for i, c := range it.Choices {
			ew.printf("    %c. %s\n", 'A'+i, c)
		}
	}
	if !it.Answer.IsZero() {
		ew.printf("  Answer: %s\n", it.Answer)
	}
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
