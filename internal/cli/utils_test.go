package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/viie/internal/models"
)

func sampleResponse() *models.SearchResponse {
	return &models.SearchResponse{
		Collection: "docs",
		QueryTime:  42,
		Results: []*models.SearchResult{
			{Rank: 1, ID: "a", Score: 1},
			{Rank: 2, ID: "b", Score: 0.25},
		},
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Collection != "docs" || decoded.QueryTime != 42 {
		t.Errorf("decoded collection=%q query_time=%d", decoded.Collection, decoded.QueryTime)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].ID != "a" || decoded.Results[1].Score != 0.25 {
		t.Errorf("decoded results = %+v", decoded.Results)
	}
}

func TestWriteSearchResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, sampleResponse(), OutputText); err != nil {
		t.Fatalf("WriteSearchResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Found 2 results", `"docs"`, "42ms", "1. a", "1.0000", "0.2500"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
}

func TestWriteSearchResults_unknownFormatTreatedAsText(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, &models.SearchResponse{Collection: "x"}, SearchOutputFormat("unknown")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Found 0 results") {
		t.Errorf("unknown format should fall back to text; got %q", buf.String())
	}
}

func TestParseVector(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []float32
		wantErr bool
	}{
		{"commas", "1,2,3", []float32{1, 2, 3}, false},
		{"spaces and brackets", "[0.5, -1  2e1]", []float32{0.5, -1, 20}, false},
		{"single", "7", []float32{7}, false},
		{"empty", "", nil, true},
		{"only separators", "[ , ]", nil, true},
		{"not a number", "1,x,3", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVector(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseVector(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ParseVector(%q) = %v, want %v", tt.in, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("ParseVector(%q)[%d] = %v, want %v", tt.in, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestFormatVector(t *testing.T) {
	if got := FormatVector([]float32{1, 0.5, -2}); got != "[1, 0.5, -2]" {
		t.Errorf("FormatVector = %q", got)
	}
	long := FormatVector(make([]float32, 500))
	if !strings.HasSuffix(long, "...]") {
		t.Errorf("long vector should be truncated, got %q", long)
	}
}
