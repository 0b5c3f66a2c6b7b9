package item

import (
	"encoding/json"
	"testing"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   Status
		want Status
	}{
		{"pending", StatusPending},
		{"approved", StatusApproved},
		{"rejected", StatusRejected},
		{"APPROVED", StatusApproved},
		{" rejected ", StatusRejected},
		{"new", StatusPending},
		{"", StatusPending},
		{"whatever", StatusPending},
	}
	for _, tt := range tests {
		if got := NormalizeStatus(tt.in); got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsReviewable(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{"pending", true},
		{"new", true},
		{"", true},
		{"approved", false},
		{"rejected", false},
		{"Approved", false},
	}
	for _, tt := range tests {
		if got := IsReviewable(Item{Status: tt.status}); got != tt.want {
			t.Errorf("IsReviewable(status=%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestID_RoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		str  string
	}{
		{`12`, "12"},
		{`"12"`, "12"},
		{`"abc-7"`, "abc-7"},
		{`9007199254740993`, "9007199254740993"}, // beyond float64 precision
	}
	for _, tt := range tests {
		var id ID
		if err := json.Unmarshal([]byte(tt.in), &id); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if id.String() != tt.str {
			t.Errorf("String() = %q, want %q", id.String(), tt.str)
		}
		out, err := json.Marshal(id)
		if err != nil {
			t.Fatalf("Marshal error: %v", err)
		}
		if string(out) != tt.in {
			t.Errorf("round trip: got %s, want %s", out, tt.in)
		}
	}
}

func TestID_EqualAcrossForms(t *testing.T) {
	var numeric, quoted ID
	if err := json.Unmarshal([]byte(`12`), &numeric); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal([]byte(`"12"`), &quoted); err != nil {
		t.Fatal(err)
	}
	if !numeric.Equal(quoted) {
		t.Error("12 and \"12\" should compare equal")
	}
	if !numeric.Equal(ParseID("12")) {
		t.Error("ParseID(\"12\") should equal wire id 12")
	}
}

func TestText_StringForms(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"plain text"`, "plain text"},
		{`{"a": 1}`, `{"a":1}`},
		{`[1, 2]`, `[1,2]`},
		{`null`, ""},
	}
	for _, tt := range tests {
		var txt Text
		if err := json.Unmarshal([]byte(tt.in), &txt); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if got := txt.String(); got != tt.want {
			t.Errorf("Text(%s).String() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFlag_Tolerance(t *testing.T) {
	tests := []struct {
		in   string
		want Flag
	}{
		{`true`, true},
		{`false`, false},
		{`1`, true},
		{`0`, false},
		{`"1"`, true},
		{`"0"`, false},
		{`""`, false},
		{`null`, false},
		{`"yes-ish"`, true},
	}
	for _, tt := range tests {
		var f Flag
		if err := json.Unmarshal([]byte(tt.in), &f); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tt.in, err)
		}
		if f != tt.want {
			t.Errorf("Flag(%s) = %v, want %v", tt.in, f, tt.want)
		}
	}
}

func TestItem_ChoiceAlias(t *testing.T) {
	var it Item
	data := `{"id": 3, "choice": ["A", "B"], "status": "pending"}`
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(it.Choices) != 2 {
		t.Fatalf("Choices length = %d, want 2", len(it.Choices))
	}
	if it.Choices[0].String() != "A" || it.Choices[1].String() != "B" {
		t.Errorf("Choices = %v, %v, want A, B", it.Choices[0], it.Choices[1])
	}
}

func TestItem_ChoicesWins(t *testing.T) {
	var it Item
	data := `{"id": 3, "choices": ["X"], "choice": ["A", "B"]}`
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if len(it.Choices) != 1 || it.Choices[0].String() != "X" {
		t.Errorf("expected choices key to win over choice alias, got %+v", it.Choices)
	}
}

func TestItem_StructuredPayloads(t *testing.T) {
	var it Item
	data := `{"id": "q-9", "stimulus": {"passages": ["one", "two"]}, "stem": "Which?", "answer": "B", "committed": "1"}`
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if it.ID.String() != "q-9" {
		t.Errorf("ID = %q, want q-9", it.ID)
	}
	if it.Stimulus.String() != `{"passages":["one","two"]}` {
		t.Errorf("Stimulus = %q", it.Stimulus.String())
	}
	if !bool(it.Committed) {
		t.Error("Committed should be true")
	}
	if it.Stem.String() != "Which?" {
		t.Errorf("Stem = %q", it.Stem.String())
	}
}

func TestSimilarityResult_Decode(t *testing.T) {
	data := `{"query_id": 5, "top_k": 6, "results": [{"id": 7, "score": 0.91}, {"id": 3, "score": 0.85}]}`
	var res SimilarityResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if res.QueryID.String() != "5" || res.TopK != 6 {
		t.Errorf("header = %s/%d, want 5/6", res.QueryID, res.TopK)
	}
	if len(res.Results) != 2 {
		t.Fatalf("Results length = %d, want 2", len(res.Results))
	}
	if res.Results[0].ID.String() != "7" || res.Results[0].Score != 0.91 {
		t.Errorf("first hit = %+v", res.Results[0])
	}
}
