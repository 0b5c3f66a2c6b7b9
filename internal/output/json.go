package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/examflux/examflux/internal/item"
)

// JSONWriter outputs machine-readable JSON.
type JSONWriter struct{}

func (j *JSONWriter) WriteItems(w io.Writer, title string, items []item.Item) error {
	if items == nil {
		items = []item.Item{}
	}
	return writeJSON(w, items)
}

func (j *JSONWriter) WriteItem(w io.Writer, it item.Item) error {
	return writeJSON(w, it)
}

func (j *JSONWriter) WriteSimilar(w io.Writer, res item.SimilarityResult, noResults bool) error {
	if res.Results == nil {
		res.Results = []item.SimilarityHit{}
	}
	return writeJSON(w, res)
}

func (j *JSONWriter) WriteRaw(w io.Writer, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("backend response is not JSON: %w", err)
	}
	_, err := fmt.Fprintln(w, buf.String())
	return err
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing JSON: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
