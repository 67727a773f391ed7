package embedding

import "strings"

// Method selects how text is turned into a vector.
type Method int

const (
	Random Method = iota
	AsciiSum
	BagOfWords
	TfIdf
	OneHotEncoding
	CharacterLevel
	NGram
	HashingTrick
	WordCount
	Word2Vec
	GloVe
	FastText
	BertEmbedding
	UniversalSentenceEncoder
	Doc2Vec
	Lsa
	Lda
	PcaReduced
	PosTagging
	CosineSimilarity
	ExternalAPI
)

var methodNames = [...]string{
	Random:                   "random",
	AsciiSum:                 "ascii_sum",
	BagOfWords:               "bag_of_words",
	TfIdf:                    "tf_idf",
	OneHotEncoding:           "one_hot",
	CharacterLevel:           "character_level",
	NGram:                    "ngram",
	HashingTrick:             "hashing_trick",
	WordCount:                "word_count",
	Word2Vec:                 "word2vec",
	GloVe:                    "glove",
	FastText:                 "fasttext",
	BertEmbedding:            "bert",
	UniversalSentenceEncoder: "universal_sentence_encoder",
	Doc2Vec:                  "doc2vec",
	Lsa:                      "lsa",
	Lda:                      "lda",
	PcaReduced:               "pca",
	PosTagging:               "pos_tagging",
	CosineSimilarity:         "cosine_similarity",
	ExternalAPI:              "external_api",
}

// FallbackMethod is used when a technique name is not recognised.
const FallbackMethod = AsciiSum

// String returns the technique name of m.
func (m Method) String() string {
	if m < 0 || int(m) >= len(methodNames) {
		return "unknown"
	}
	return methodNames[m]
}

// ParseMethod maps a technique name (case-insensitive) to its Method.
func ParseMethod(name string) (Method, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range methodNames {
		if n == name {
			return Method(i), true
		}
	}
	return 0, false
}

// Methods returns every known method in declaration order.
func Methods() []Method {
	out := make([]Method, len(methodNames))
	for i := range methodNames {
		out[i] = Method(i)
	}
	return out
}

// IsLocal reports whether m is computed in-process without models or network access.
func (m Method) IsLocal() bool {
	return m >= Random && m <= WordCount
}

// IsDeterministic reports whether m always maps the same input to the same vector.
func (m Method) IsDeterministic() bool {
	return m != Random && m != AsciiSum
}
