package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/examflux/examflux/internal/item"
)

// Writer renders review views in a specific format.
type Writer interface {
	// WriteItems renders a titled item collection (queue or cart).
	WriteItems(w io.Writer, title string, items []item.Item) error
	// WriteItem renders a single item card.
	WriteItem(w io.Writer, it item.Item) error
	// WriteSimilar renders a similarity outcome. noResults marks a valid
	// empty answer, which renders as a neutral message rather than an error.
	WriteSimilar(w io.Writer, res item.SimilarityResult, noResults bool) error
	// WriteRaw renders a backend-defined payload verbatim.
	WriteRaw(w io.Writer, raw json.RawMessage) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "text":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
