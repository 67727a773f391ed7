package vector

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func mustCollection(t *testing.T, dim int) *Collection[float32] {
	t.Helper()
	c, err := NewCollection[float32](dim)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestNewCollection_InvalidDimension(t *testing.T) {
	for _, dim := range []int{0, -1} {
		if _, err := NewCollection[float32](dim); err == nil {
			t.Errorf("NewCollection(%d) expected error", dim)
		}
	}
}

func TestCollection_InsertSearch(t *testing.T) {
	c := mustCollection(t, 3)
	if !c.IsEmpty() {
		t.Fatal("new collection should be empty")
	}
	entries := map[string][]float32{
		"a": {1, 0, 0},
		"b": {0.9, 0.1, 0},
		"c": {0, 1, 0},
	}
	for id, e := range entries {
		if err := c.Insert(id, New(e)); err != nil {
			t.Fatal(err)
		}
	}
	if c.Len() != 3 {
		t.Errorf("Len=%d", c.Len())
	}

	results, err := c.Search(New([]float32{1, 0, 0}), 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "b" {
		t.Errorf("got order %s,%s want a,b", results[0].ID, results[1].ID)
	}
	if math.Abs(results[0].Score-1) > 1e-6 {
		t.Errorf("top score = %v, want 1", results[0].Score)
	}
	if results[0].Score < results[1].Score {
		t.Error("results not sorted by score descending")
	}
}

func TestCollection_InsertReplaces(t *testing.T) {
	c := mustCollection(t, 2)
	_ = c.Insert("x", New([]float32{1, 0}))
	_ = c.Insert("x", New([]float32{0, 1}))
	if c.Len() != 1 {
		t.Fatalf("Len=%d, want 1", c.Len())
	}
	v, ok := c.Get("x")
	if !ok {
		t.Fatal("x missing")
	}
	if got := v.Elements(); got[0] != 0 || got[1] != 1 {
		t.Errorf("Get(x) = %v, want [0 1]", got)
	}
}

func TestCollection_DimensionMismatch(t *testing.T) {
	c := mustCollection(t, 3)
	err := c.Insert("bad", New([]float32{1, 2}))
	var dm *DimensionMismatchError
	if !errors.As(err, &dm) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dm.Expected != 3 || dm.Actual != 2 {
		t.Errorf("got expected=%d actual=%d", dm.Expected, dm.Actual)
	}
	if c.Len() != 0 {
		t.Error("failed insert must not change the collection")
	}
	if _, err := c.Search(New([]float32{1}), 1); !IsDimensionMismatch(err) {
		t.Errorf("Search mismatch err = %v", err)
	}
	_ = c.Insert("ok", New([]float32{1, 2, 3}))
	if err := c.Update("ok", New([]float32{1})); !IsDimensionMismatch(err) {
		t.Errorf("Update mismatch err = %v", err)
	}
}

func TestCollection_Update(t *testing.T) {
	c := mustCollection(t, 2)
	if err := c.Update("missing", New([]float32{1, 0})); !errors.Is(err, ErrVectorIDNotFound) {
		t.Fatalf("Update(missing) err = %v", err)
	}
	if c.Len() != 0 {
		t.Error("failed update must not insert")
	}
	_ = c.Insert("a", New([]float32{1, 0}))
	if err := c.Update("a", New([]float32{0, 1})); err != nil {
		t.Fatal(err)
	}
	v, _ := c.Get("a")
	if v.Elements()[1] != 1 {
		t.Errorf("update not applied: %v", v.Elements())
	}
}

func TestCollection_Delete(t *testing.T) {
	c := mustCollection(t, 2)
	_ = c.Insert("x", New([]float32{1, 0}))
	_ = c.Insert("y", New([]float32{0, 1}))
	c.Delete("x")
	c.Delete("never-there")
	if c.Len() != 1 {
		t.Errorf("expected size 1, got %d", c.Len())
	}
	if _, ok := c.Get("x"); ok {
		t.Error("x should be gone")
	}
	results, _ := c.Search(New([]float32{1, 0}), 10)
	for _, r := range results {
		if r.ID == "x" {
			t.Error("deleted id returned by search")
		}
	}
}

func TestCollection_SearchExactMatchScoresOne(t *testing.T) {
	c := mustCollection(t, 4)
	_ = c.Insert("a", New([]float32{3, 5, 7, 11}))
	_ = c.Insert("b", New([]float32{1, 1, 1, 1}))
	for _, q := range [][]float32{{3, 5, 7, 11}, {1, 1, 1, 1}} {
		results, err := c.Search(New(q), 2)
		if err != nil {
			t.Fatal(err)
		}
		if results[0].Score != 1.0 {
			t.Errorf("Search(%v) top score = %.17g, want exactly 1", q, results[0].Score)
		}
		for _, r := range results {
			if r.Score > 1 || r.Score < -1 {
				t.Errorf("score %v outside [-1, 1]", r.Score)
			}
		}
	}
}

func TestCollection_SearchBounds(t *testing.T) {
	c := mustCollection(t, 2)
	results, err := c.Search(New([]float32{1, 0}), 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("empty collection returned %d results", len(results))
	}

	_ = c.Insert("a", New([]float32{1, 0}))
	_ = c.Insert("b", New([]float32{0, 1}))
	tests := []struct {
		k    int
		want int
	}{
		{k: 0, want: 0},
		{k: -3, want: 0},
		{k: 1, want: 1},
		{k: 2, want: 2},
		{k: 100, want: 2},
	}
	for _, tt := range tests {
		results, err := c.Search(New([]float32{1, 1}), tt.k)
		if err != nil {
			t.Fatal(err)
		}
		if len(results) != tt.want {
			t.Errorf("Search(k=%d) returned %d, want %d", tt.k, len(results), tt.want)
		}
	}
}

func TestCollection_SearchTieBreakByID(t *testing.T) {
	c := mustCollection(t, 2)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		_ = c.Insert(id, New([]float32{1, 1}))
	}
	for i := 0; i < 5; i++ {
		results, _ := c.Search(New([]float32{1, 1}), 3)
		if results[0].ID != "alpha" || results[1].ID != "mid" || results[2].ID != "zeta" {
			t.Fatalf("tie order = %v", results)
		}
	}
}

func TestCollection_ZeroQuery(t *testing.T) {
	c := mustCollection(t, 2)
	_ = c.Insert("a", New([]float32{1, 0}))
	_ = c.Insert("zero", New([]float32{0, 0}))
	results, err := c.Search(New([]float32{0, 0}), 2)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Score != 0 {
			t.Errorf("zero query score for %s = %v, want 0", r.ID, r.Score)
		}
	}
}

func TestCollection_NaNSortsLast(t *testing.T) {
	c := mustCollection(t, 2)
	nan := float32(math.NaN())
	_ = c.Insert("aaa-nan", New([]float32{nan, 1}))
	_ = c.Insert("b", New([]float32{0, 1}))
	_ = c.Insert("c", New([]float32{1, 0}))
	results, err := c.Search(New([]float32{0, 1}), 3)
	if err != nil {
		t.Fatal(err)
	}
	if results[len(results)-1].ID != "aaa-nan" {
		t.Errorf("NaN result should be last, got %v", results)
	}
	if results[0].ID != "b" {
		t.Errorf("top = %s, want b", results[0].ID)
	}
}

func TestCollection_IDs(t *testing.T) {
	c := mustCollection(t, 1)
	for _, id := range []string{"c", "a", "b"} {
		_ = c.Insert(id, New([]float32{1}))
	}
	ids := c.IDs()
	if len(ids) != 3 || ids[0] != "a" || ids[2] != "c" {
		t.Errorf("IDs() = %v", ids)
	}
}

func TestCollection_IntegerElements(t *testing.T) {
	c, err := NewCollection[int](2)
	if err != nil {
		t.Fatal(err)
	}
	_ = c.Insert("x", New([]int{3, 4}))
	results, _ := c.Search(New([]int{3, 4}), 1)
	if len(results) != 1 || math.Abs(results[0].Score-1) > 1e-9 {
		t.Errorf("int search = %v", results)
	}
}

func TestCollection_ConcurrentAccess(t *testing.T) {
	c := mustCollection(t, 2)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Insert(string(rune('a'+i)), New([]float32{float32(j), 1}))
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := c.Search(New([]float32{1, 1}), 3); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	if c.Len() != 8 {
		t.Errorf("Len=%d, want 8", c.Len())
	}
}
