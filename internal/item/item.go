package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the review state of an item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// NormalizeStatus maps whatever the backend stored into the review
// vocabulary. Missing or unrecognized values (the generator writes "new")
// count as pending.
func NormalizeStatus(s Status) Status {
	switch Status(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusApproved:
		return StatusApproved
	case StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// IsReviewable reports whether an item still belongs in the review queue.
func IsReviewable(it Item) bool {
	return NormalizeStatus(it.Status) == StatusPending
}

// ID is an item identifier. The backend may send it as a JSON number or a
// JSON string; ID preserves the original form so it round-trips unchanged
// and remains stable as a key.
type ID struct {
	value  string
	quoted bool
}

// ParseID builds an ID from its string form, e.g. a CLI argument.
func ParseID(s string) ID {
	s = strings.TrimSpace(s)
	var n json.Number
	if err := json.Unmarshal([]byte(s), &n); err == nil {
		return ID{value: n.String()}
	}
	return ID{value: s, quoted: true}
}

func (id ID) String() string { return id.value }

// IsZero reports whether the ID is unset.
func (id ID) IsZero() bool { return id.value == "" }

// Equal compares IDs by their string form, so 12 and "12" match.
func (id ID) Equal(other ID) bool { return id.value == other.value }

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*id = ID{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return fmt.Errorf("item id: %w", err)
		}
		*id = ID{value: v, quoted: true}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("item id: %w", err)
	}
	*id = ID{value: n.String()}
	return nil
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.value == "" {
		return []byte("null"), nil
	}
	if id.quoted {
		return json.Marshal(id.value)
	}
	return []byte(id.value), nil
}

// Text is a tolerant payload field. Backends send stimulus, stem, choices
// and answer as plain strings, structured values, or null; Text keeps the
// raw bytes so the value round-trips, and renders structured values as
// compact JSON for display.
type Text struct {
	raw json.RawMessage
}

// NewText wraps a plain string value.
func NewText(s string) Text {
	b, _ := json.Marshal(s)
	return Text{raw: b}
}

func (t *Text) UnmarshalJSON(b []byte) error {
	if strings.TrimSpace(string(b)) == "null" {
		t.raw = nil
		return nil
	}
	t.raw = append(json.RawMessage(nil), b...)
	return nil
}

func (t Text) MarshalJSON() ([]byte, error) {
	if t.raw == nil {
		return []byte("null"), nil
	}
	return t.raw, nil
}

// IsZero reports whether the field was absent or null.
func (t Text) IsZero() bool { return t.raw == nil }

func (t Text) String() string {
	if t.raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(t.raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, t.raw); err != nil {
		return string(t.raw)
	}
	return buf.String()
}

// Flag is a tolerant boolean. The original store keeps committed as free
// text, so 0/1 numbers, booleans, and strings all appear on the wire.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	switch strings.ToLower(s) {
	case "", "null", "0", "false", "no":
		*f = false
	default:
		*f = true
	}
	return nil
}

// Item is one AI-generated exam question under human review.
type Item struct {
	ID        ID             `json:"id"`
	Status    Status         `json:"status,omitempty"`
	Committed Flag           `json:"committed,omitempty"`
	Source    string         `json:"source,omitempty"`
	Prompt    Text           `json:"prompt,omitzero"`
	Stimulus  Text           `json:"stimulus,omitzero"`
	Stem      Text           `json:"stem,omitzero"`
	Choices   []Text         `json:"choices,omitempty"`
	Answer    Text           `json:"answer,omitzero"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
}

// UnmarshalJSON accepts the legacy "choice" key as an alias for "choices".
// This is the single normalization point for shape tolerance; nothing
// downstream re-checks field shapes.
func (it *Item) UnmarshalJSON(b []byte) error {
	type alias Item
	aux := struct {
		*alias
		Choice []Text `json:"choice"`
	}{alias: (*alias)(it)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(it.Choices) == 0 && len(aux.Choice) > 0 {
		it.Choices = aux.Choice
	}
	return nil
}

// SimilarityHit is one ranked neighbor from a similarity search.
type SimilarityHit struct {
	ID    ID      `json:"id"`
	Score float64 `json:"score"`
}

// SimilarityResult is the server's ranked answer to a similarity query.
// Results are ordered by descending score; ties carry no ordering contract.
type SimilarityResult struct {
	QueryID ID              `json:"query_id"`
	TopK    int             `json:"top_k"`
	Results []SimilarityHit `json:"results"`
}
