package embedding

import (
	"math"
	"testing"
)

func approxEqual(t *testing.T, got, want []float32, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > tol {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func l2(x []float32) float64 {
	var s float64
	for _, v := range x {
		s += float64(v) * float64(v)
	}
	return math.Sqrt(s)
}

func TestBagOfWords(t *testing.T) {
	got := bagOfWords("The cat and the dog is here", defaultVocabulary, 5)
	approxEqual(t, got, []float32{2, 1, 1, 0, 0}, 0)

	got = bagOfWords("the the and", defaultVocabulary, 2)
	approxEqual(t, got, []float32{2, 1}, 0)
}

func TestTfIdf(t *testing.T) {
	w := float32(math.Log(2.0/3.0) / 3)
	got := tfIdf("example document one", tfidfCorpus, tfidfVocabulary, 6)
	approxEqual(t, got, []float32{w, w, 0, 0, 0, 0}, 1e-6)

	got = tfIdf("", tfidfCorpus, tfidfVocabulary, 4)
	approxEqual(t, got, []float32{0, 0, 0, 0}, 0)
}

func TestOneHot(t *testing.T) {
	approxEqual(t, oneHot("is the THE", defaultVocabulary, 4), []float32{1, 0, 1, 0}, 0)
	approxEqual(t, oneHot("is", defaultVocabulary, 2), []float32{0, 0}, 0)
}

func TestCharacterLevel(t *testing.T) {
	approxEqual(t, characterLevel("ab", 4), []float32{97.0 / 98.0, 1, 0, 0}, 1e-6)
	approxEqual(t, characterLevel("abc", 2), []float32{1, 0.5}, 1e-6)
	approxEqual(t, characterLevel("", 3), []float32{0, 0, 0}, 0)
}

func TestNGramEmbedding(t *testing.T) {
	got := ngramEmbedding("aaaa", 3, 8)
	var sum float32
	nonZero := 0
	for _, v := range got {
		sum += v
		if v != 0 {
			nonZero++
		}
	}
	if nonZero != 1 || math.Abs(float64(sum-1)) > 1e-6 {
		t.Errorf("ngram(aaaa) = %v", got)
	}

	got = ngramEmbedding("hello world", 2, 16)
	sum = 0
	for _, v := range got {
		sum += v
	}
	if math.Abs(float64(sum-1)) > 1e-5 {
		t.Errorf("ngram sum = %v, want 1", sum)
	}

	approxEqual(t, ngramEmbedding("ab", 3, 4), []float32{0, 0, 0, 0}, 0)
}

func TestHashingTrick(t *testing.T) {
	got := hashingTrick("alpha beta gamma alpha", 32)
	if math.Abs(l2(got)-1) > 1e-6 {
		t.Errorf("norm = %v, want 1", l2(got))
	}
	again := hashingTrick("ALPHA beta gamma alpha", 32)
	approxEqual(t, again, got, 0)

	approxEqual(t, hashingTrick("   ", 3), []float32{0, 0, 0}, 0)

	single := hashingTrick("word", 8)
	nonZero := 0
	for _, v := range single {
		if v != 0 {
			nonZero++
			if v != 1 && v != -1 {
				t.Errorf("single word value = %v, want ±1", v)
			}
		}
	}
	if nonZero != 1 {
		t.Errorf("single word set %d slots", nonZero)
	}
}

func TestWordCountStats(t *testing.T) {
	got := wordCountStats("Hello world 42!", 10)
	want := []float32{3, 3, 1, 13.0 / 3.0, 10.0 / 15.0, 2.0 / 15.0, 1.0 / 15.0, 1.0 / 15.0, 0, 0}
	approxEqual(t, got, want, 1e-6)

	approxEqual(t, wordCountStats("a a b", 3), []float32{3, 2, 2.0 / 3.0}, 1e-6)
	approxEqual(t, wordCountStats("", 4), []float32{0, 0, 0, 0}, 0)
}

func TestAsciiSumEmbedding(t *testing.T) {
	e := NewEngine(WithSeed(1))
	got := asciiSumEmbedding("A", 3, e.uniform)
	for i, v := range got {
		base := (65 + float64(i)) / 10
		if math.Abs(float64(v)-base) > 0.5+1e-5 {
			t.Errorf("slot %d = %v, want within 0.5 of %v", i, v, base)
		}
	}
}

func TestRandomEmbedding_Range(t *testing.T) {
	e := NewEngine()
	for _, v := range randomEmbedding(200, e.uniform) {
		if v < -1 || v > 1 {
			t.Fatalf("value %v outside [-1, 1]", v)
		}
	}
}

func TestSamplesStayBelowUpperBound(t *testing.T) {
	justBelow := func(lo, hi float64) float64 { return math.Nextafter(hi, lo) }
	for _, v := range randomEmbedding(4, justBelow) {
		if v >= 1 {
			t.Errorf("random value %v, want < 1", v)
		}
	}
	if got := asciiSumEmbedding("", 1, justBelow); got[0] >= 0.5 {
		t.Errorf("ascii_sum jitter %v, want < 0.5", got[0])
	}
	if v := sample32(func(lo, _ float64) float64 { return lo }, -1, 1); v != -1 {
		t.Errorf("lower bound sample = %v, want -1", v)
	}
}
