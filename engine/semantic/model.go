package semantic

// SearchHit is a single similarity search result. Produced per query,
// never persisted.
type SearchHit struct {
	ID           string  `json:"id"`
	Score        float32 `json:"score"`
	Question     string  `json:"question"`
	Answer       string  `json:"answer"`
	Category     string  `json:"category"`
	OriginalText string  `json:"original_text"`
	Index        int     `json:"index"`
}

// VectorRecord is a single point to store in Qdrant: the embedding plus
// the knowledge record payload. Once upserted the store owns it.
type VectorRecord struct {
	ID        string
	Embedding []float32
	Payload   map[string]any // question, answer, category, original_text, index
}
