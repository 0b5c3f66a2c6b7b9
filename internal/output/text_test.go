package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/examflux/examflux/internal/item"
)

func decodeItem(t *testing.T, data string) item.Item {
	t.Helper()
	var it item.Item
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("decoding item: %v", err)
	}
	return it
}

func TestTextWriter_WriteItems(t *testing.T) {
	items := []item.Item{
		decodeItem(t, `{"id":1,"status":"pending","stem":"Which claim do both passages support?","choices":["A claim","B claim"],"answer":"A"}`),
		decodeItem(t, `{"id":2,"status":"new"}`),
	}

	var buf bytes.Buffer
	w := &TextWriter{}
	if err := w.WriteItems(&buf, "Review queue", items); err != nil {
		t.Fatalf("WriteItems error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Review queue — 2 item(s)",
		"Item #1  [pending]",
		"Item #2  [pending]", // "new" normalizes to pending
		"Stem: Which claim do both passages support?",
		"A. A claim",
		"B. B claim",
		"Answer: A",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTextWriter_EmptyCollection(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).WriteItems(&buf, "Cart", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(none)") {
		t.Errorf("output = %q, want (none) marker", buf.String())
	}
}

func TestTextWriter_CommittedFlag(t *testing.T) {
	it := decodeItem(t, `{"id":3,"status":"approved","committed":1}`)
	var buf bytes.Buffer
	if err := (&TextWriter{}).WriteItem(&buf, it); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "[approved committed]") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestTextWriter_Similar(t *testing.T) {
	res := item.SimilarityResult{
		QueryID: item.ParseID("5"),
		TopK:    6,
		Results: []item.SimilarityHit{
			{ID: item.ParseID("7"), Score: 0.91},
			{ID: item.ParseID("3"), Score: 0.85},
		},
	}
	var buf bytes.Buffer
	if err := (&TextWriter{}).WriteSimilar(&buf, res, false); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Similar to #5 (top 6):") {
		t.Errorf("missing header: %q", out)
	}
	// Rendered in server order.
	if strings.Index(out, "#7") > strings.Index(out, "#3") {
		t.Errorf("results reordered: %q", out)
	}
}

func TestTextWriter_SimilarNoResults(t *testing.T) {
	res := item.SimilarityResult{QueryID: item.ParseID("5"), TopK: 6}
	var buf bytes.Buffer
	if err := (&TextWriter{}).WriteSimilar(&buf, res, true); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No similar items for #5.") {
		t.Errorf("output = %q, want neutral no-results message", buf.String())
	}
}

func TestTextWriter_RawNonJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextWriter{}).WriteRaw(&buf, json.RawMessage("plain ack")); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "plain ack" {
		t.Errorf("output = %q", buf.String())
	}
}
