// Package cli provides output and parsing helpers shared by the viie commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/viie/internal/models"
	"github.com/hyperjump/viie/pkg/utils"
)

// SearchOutputFormat is the format for search result output.
type SearchOutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText SearchOutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON SearchOutputFormat = "json"
)

// maxVectorText bounds how much of a vector FormatVector prints.
const maxVectorText = 200

// WriteSearchResults writes search results to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format SearchOutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(response)
	default:
		writeSearchResultsText(w, response)
		return nil
	}
}

func writeSearchResultsText(w io.Writer, response *models.SearchResponse) {
	fmt.Fprintf(w, "Found %d results in %q (%dms)\n", len(response.Results), response.Collection, response.QueryTime)
	for _, result := range response.Results {
		fmt.Fprintf(w, "%3d. %-24s %.4f\n", result.Rank, result.ID, result.Score)
	}
}

// ParseVector parses a list of numbers separated by commas or whitespace.
// Surrounding brackets are ignored, so "[1, 2, 3]" and "1,2,3" are equal.
func ParseVector(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', '[', ']', ' ', '\t', '\n', '\r':
			return true
		}
		return false
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty vector")
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector element %q", f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

// FormatVector renders values as "[a, b, ...]", truncated for display.
func FormatVector(values []float32) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(float64(v), 'g', 6, 32)
	}
	return "[" + utils.Truncate(strings.Join(parts, ", "), maxVectorText) + "]"
}
