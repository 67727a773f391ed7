package embedding

// unsupportedReasons names what each model-backed method would need.
var unsupportedReasons = map[Method]string{
	Word2Vec:                 "Word2Vec requires a pre-trained word vector model",
	GloVe:                    "GloVe requires pre-trained embeddings loaded from file",
	FastText:                 "FastText requires bindings to the FastText library",
	BertEmbedding:            "BERT embeddings require an ONNX sentence model (set model_path and build with cgo)",
	UniversalSentenceEncoder: "Universal Sentence Encoder requires TensorFlow bindings",
	Doc2Vec:                  "Doc2Vec requires a trained paragraph vector model",
	Lsa:                      "LSA requires a linear algebra backend",
	Lda:                      "LDA requires a topic modeling implementation",
	PcaReduced:               "PCA reduction requires a linear algebra backend",
	PosTagging:               "POS tagging requires an NLP library",
	CosineSimilarity:         "cosine similarity is a comparison method, not an embedding generator",
}

func unsupported(m Method, err error) *UnsupportedError {
	reason, ok := unsupportedReasons[m]
	if !ok {
		reason = "no generator available"
	}
	return &UnsupportedError{Method: m, Reason: reason, Err: err}
}
