// Package models defines the request and response types of the HTTP API.
package models

// CreateCollectionRequest creates a collection of the given dimension.
type CreateCollectionRequest struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
}

// CollectionInfo describes one collection.
type CollectionInfo struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Count     int    `json:"count"`
}

// CollectionsResponse lists collections in name order.
type CollectionsResponse struct {
	Collections []CollectionInfo `json:"collections"`
}
