package chunker

import (
	"errors"
	"strings"
	"testing"
)

func TestTextChunker_Chunk(t *testing.T) {
	tests := []struct {
		name string
		max  int
		in   string
		want []string
	}{
		{
			name: "merges short sentences",
			max:  50,
			in:   "Hello world. How are you? Fine!",
			want: []string{"Hello world How are you Fine"},
		},
		{
			name: "splits when budget exceeded",
			max:  15,
			in:   "Hello world. How are you? Fine!",
			want: []string{"Hello world", "How are you", "Fine"},
		},
		{
			name: "long sentence is its own chunk",
			max:  5,
			in:   "This sentence is long. ok",
			want: []string{"This sentence is long", "ok"},
		},
		{
			name: "no terminator",
			max:  100,
			in:   "  just one fragment  ",
			want: []string{"just one fragment"},
		},
		{
			name: "only separators",
			max:  10,
			in:   "...!?  . ",
			want: nil,
		},
		{
			name: "empty",
			max:  10,
			in:   "",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TextChunker{MaxLength: tt.max}.Chunk(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTextChunker_NoEmptyChunks(t *testing.T) {
	text := strings.Repeat("A fairly long sentence that exceeds the limit. ", 10)
	got, err := TextChunker{MaxLength: 3}.Chunk(text)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Errorf("got %d chunks, want 10", len(got))
	}
	for _, c := range got {
		if c == "" {
			t.Error("empty chunk emitted")
		}
	}
}

func TestTextChunker_InvalidMaxLength(t *testing.T) {
	for _, max := range []int{0, -4} {
		if _, err := (TextChunker{MaxLength: max}).Chunk("text."); !errors.Is(err, ErrInvalidMaxLength) {
			t.Errorf("MaxLength=%d err = %v", max, err)
		}
	}
}
