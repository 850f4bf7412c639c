package chunkstore

import (
	"encoding/json"
	"fmt"
)

const (
	fieldID       = "id"
	fieldContent  = "content"
	fieldFilepath = "filepath"
	fieldDistance = "distance"
)

// Entity is the storable part of a chunk.
type Entity struct {
	// ID is assigned by the backend on insert; zero before.
	ID       int64
	Content  string
	Filepath string
	// Metadata holds arbitrary JSON values; the store does not interpret it.
	Metadata map[string]interface{}
}

// Chunk is an Entity with its embedding.
type Chunk struct {
	Entity
	Embedding []float32
}

// SearchResult is a stored Entity with its cosine distance to the query;
// smaller is more similar.
type SearchResult struct {
	Entity
	Distance float64
}

// EntityOf converts a caller struct or map into an Entity. The JSON fields
// content and filepath are required strings, id is optional and every other
// field is folded into Metadata.
func EntityOf(v interface{}) (Entity, error) {
	switch actual := v.(type) {
	case Entity:
		return actual, nil
	case *Entity:
		return *actual, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Entity{}, fmt.Errorf("chunkstore: entity: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return Entity{}, fmt.Errorf("chunkstore: entity must encode as a JSON object: %w", err)
	}
	ret := Entity{}
	var ok bool
	if ret.Content, ok = fields[fieldContent].(string); !ok {
		return Entity{}, fmt.Errorf("chunkstore: entity: %q must be a string", fieldContent)
	}
	if ret.Filepath, ok = fields[fieldFilepath].(string); !ok {
		return Entity{}, fmt.Errorf("chunkstore: entity: %q must be a string", fieldFilepath)
	}
	if id, ok := fields[fieldID].(float64); ok {
		ret.ID = int64(id)
	}
	ret.Metadata = stripReserved(fields)
	return ret, nil
}

// Fields spreads Metadata over the reserved fields id, content, filepath and
// distance. Reserved fields win over metadata keys of the same name.
func (r *SearchResult) Fields() map[string]interface{} {
	ret := make(map[string]interface{}, len(r.Metadata)+4)
	for k, v := range r.Metadata {
		ret[k] = v
	}
	ret[fieldID] = r.ID
	ret[fieldContent] = r.Content
	ret[fieldFilepath] = r.Filepath
	ret[fieldDistance] = r.Distance
	return ret
}

// Decode decodes Fields into dest via its JSON form.
func (r *SearchResult) Decode(dest interface{}) error {
	data, err := json.Marshal(r.Fields())
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("chunkstore: decode result %d: %w", r.ID, err)
	}
	return nil
}
