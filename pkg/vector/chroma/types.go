package chroma

import "github.com/papercomputeco/cards/pkg/vector"

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaCreateCollectionRequest struct {
	Name        string         `json:"name"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	GetOrCreate bool           `json:"get_or_create"`
}

// chromaUpsertRequest is the body of the upsert endpoint. Metadata values are
// flat scalars.
type chromaUpsertRequest struct {
	IDs        []string                  `json:"ids"`
	Embeddings [][]float32               `json:"embeddings"`
	Metadatas  []map[string]vector.Value `json:"metadatas"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string                  `json:"ids"`
	Distances [][]float64                 `json:"distances"`
	Metadatas [][]map[string]vector.Value `json:"metadatas"`
}

type chromaGetRequest struct {
	IDs     []string `json:"ids"`
	Include []string `json:"include"`
}

type chromaGetResponse struct {
	IDs        []string                  `json:"ids"`
	Metadatas  []map[string]vector.Value `json:"metadatas"`
	Embeddings [][]float32               `json:"embeddings"`
}
