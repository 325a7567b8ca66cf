package entities

// Vector is an embedding. Every vector stored in one collection has the same length.
type Vector []float32

// IndexedDocument is a point of a vector index collection.
type IndexedDocument struct {
	ID       uint64         `json:"id"`
	Vector   Vector         `json:"vector"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// RetrievalHit is a search result. It never carries the stored vector.
type RetrievalHit struct {
	Text    string         `json:"text"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// PayloadTextKey is the payload field holding a document's text.
const PayloadTextKey = "text"

// Payload flattens the document text and metadata into a single map,
// the text key winning over a metadata entry of the same name.
func (d IndexedDocument) Payload() map[string]any {
	payload := make(map[string]any, len(d.Metadata)+1)
	for k, v := range d.Metadata {
		payload[k] = v
	}
	payload[PayloadTextKey] = d.Text
	return payload
}
