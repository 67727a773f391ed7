package models

// VectorRequest carries the values for an insert or update.
type VectorRequest struct {
	Values []float32 `json:"values"`
}

// VectorResponse is a stored vector.
type VectorResponse struct {
	ID     string    `json:"id"`
	Values []float32 `json:"values"`
}

// EmbedRequest embeds Content into a collection. An empty ID is generated; an
// empty Technique uses the configured default method.
type EmbedRequest struct {
	ID        string `json:"id,omitempty"`
	Content   string `json:"content"`
	Technique string `json:"technique,omitempty"`
}

// EmbedResponse reports the id an embedding was stored under.
type EmbedResponse struct {
	ID         string `json:"id"`
	Collection string `json:"collection"`
}

// BatchItem is one entry of a batch embed request.
type BatchItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// BatchEmbedRequest embeds many items with one technique.
type BatchEmbedRequest struct {
	Items     []BatchItem `json:"items"`
	Technique string      `json:"technique,omitempty"`
}

// BatchEmbedResponse reports how many items were inserted. On failure Error
// describes the first failing item; earlier items remain inserted.
type BatchEmbedResponse struct {
	Inserted int    `json:"inserted"`
	Error    string `json:"error,omitempty"`
}

// PreviewEmbedRequest generates a vector without storing it.
type PreviewEmbedRequest struct {
	Content   string `json:"content"`
	Technique string `json:"technique"`
	Dimension int    `json:"dimension"`
	// Fallback returns a random vector when the technique fails.
	Fallback bool `json:"fallback,omitempty"`
}

// PreviewEmbedResponse is a generated vector.
type PreviewEmbedResponse struct {
	Technique string    `json:"technique"`
	Values    []float32 `json:"values"`
}
