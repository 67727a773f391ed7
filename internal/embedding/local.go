package embedding

import (
	"hash/fnv"
	"math"
	"unicode"

	"github.com/hyperjump/viie/pkg/utils"
)

// Built-in vocabularies. Set Config.VocabPath to use a real vocabulary.
var (
	defaultVocabulary = []string{"the", "and", "is"}
	tfidfCorpus       = []string{"example document one", "example document two"}
	tfidfVocabulary   = []string{"example", "document", "one", "two"}
)

// sampler returns a uniform sample in [lo, hi).
type sampler func(lo, hi float64) float64

// sample32 narrows a sample to float32 without rounding up onto hi.
func sample32(sample sampler, lo, hi float64) float32 {
	v := float32(sample(lo, hi))
	if float64(v) >= hi {
		v = math.Nextafter32(float32(hi), float32(lo))
	}
	return v
}

func randomEmbedding(dim int, sample sampler) []float32 {
	out := make([]float32, dim)
	for i := range out {
		out[i] = sample32(sample, -1, 1)
	}
	return out
}

func asciiSumEmbedding(text string, dim int, sample sampler) []float32 {
	var sum uint32
	for _, r := range text {
		sum += uint32(r)
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = (float32(sum)+float32(i))/10 + sample32(sample, -0.5, 0.5)
	}
	return out
}

func wordCounts(words []string) map[string]float32 {
	counts := make(map[string]float32, len(words))
	for _, w := range words {
		counts[w]++
	}
	return counts
}

func bagOfWords(text string, vocabulary []string, dim int) []float32 {
	counts := wordCounts(Words(text))
	out := make([]float32, dim)
	for i, term := range vocabulary {
		if i >= dim {
			break
		}
		out[i] = counts[term]
	}
	return out
}

// tfIdf uses idf = ln(N / (df + 1)). Terms present in every corpus document
// therefore get a negative weight.
func tfIdf(text string, corpus, vocabulary []string, dim int) []float32 {
	words := Words(text)
	out := make([]float32, dim)
	if len(words) == 0 {
		return out
	}
	tf := wordCounts(words)
	total := float32(len(words))

	df := make(map[string]float32)
	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, w := range Words(doc) {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}
	n := float64(len(corpus))
	for i, term := range vocabulary {
		if i >= dim {
			break
		}
		idf := float32(math.Log(n / float64(df[term]+1)))
		out[i] = tf[term] / total * idf
	}
	return out
}

func oneHot(text string, vocabulary []string, dim int) []float32 {
	index := make(map[string]int, len(vocabulary))
	for i, w := range vocabulary {
		if _, ok := index[w]; !ok {
			index[w] = i
		}
	}
	out := make([]float32, dim)
	for _, w := range Words(text) {
		if i, ok := index[w]; ok && i < dim {
			out[i] = 1
		}
	}
	return out
}

func characterLevel(text string, dim int) []float32 {
	out := make([]float32, dim)
	pos := 0
	for _, r := range text {
		out[pos%dim] += float32(r) / 128
		pos++
	}
	var maxVal float32
	for _, v := range out {
		if v > maxVal {
			maxVal = v
		}
	}
	if maxVal > 0 {
		for i := range out {
			out[i] /= maxVal
		}
	}
	return out
}

// ngramEmbedding counts character n-grams into dim hashed buckets and
// normalises by the total count. Text shorter than n yields a zero vector.
func ngramEmbedding(text string, n, dim int) []float32 {
	out := make([]float32, dim)
	runes := []rune(text)
	if len(runes) < n {
		return out
	}
	counts := make(map[string]float32)
	for i := 0; i+n <= len(runes); i++ {
		counts[string(runes[i:i+n])]++
	}
	var sum float32
	for gram, c := range counts {
		out[hashString(gram)%uint64(dim)] += c
		sum += c
	}
	if sum > 0 {
		for i := range out {
			out[i] /= sum
		}
	}
	return out
}

// hashingTrick adds ±1 per word at hash(word) mod dim. The sign is read from
// the same hash state after the word has been written a second time.
func hashingTrick(text string, dim int) []float32 {
	out := make([]float32, dim)
	for _, w := range Words(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(w))
		index := h.Sum64() % uint64(dim)
		_, _ = h.Write([]byte(w))
		sign := float32(1)
		if h.Sum64()%2 != 0 {
			sign = -1
		}
		out[index] += sign
	}
	utils.NormalizeL2(out)
	return out
}

func wordCountStats(text string, dim int) []float32 {
	out := make([]float32, dim)
	words := RawWords(text)
	if len(words) == 0 {
		return out
	}
	total := float32(len(words))
	unique := make(map[string]struct{}, len(words))
	var letters int
	var alpha, digit, punct, upper float32
	for _, w := range words {
		unique[w] = struct{}{}
		letters += len(w)
		for _, r := range w {
			switch {
			case unicode.IsLetter(r):
				alpha++
				if unicode.IsUpper(r) {
					upper++
				}
			case r >= '0' && r <= '9':
				digit++
			case r <= unicode.MaxASCII && (unicode.IsPunct(r) || unicode.IsSymbol(r)):
				punct++
			}
		}
	}
	length := float32(len(text))
	stats := []float32{
		total,
		float32(len(unique)),
		float32(len(unique)) / total,
		float32(letters) / total,
		alpha / length,
		digit / length,
		punct / length,
		upper / length,
	}
	copy(out, stats)
	return out
}
