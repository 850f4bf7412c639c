package chunkstore

import (
	"encoding/json"
	"fmt"
)

const emptyMetadata = "{}"

// stripReserved returns a copy of m without id, content and filepath, or nil
// when nothing remains.
func stripReserved(m map[string]interface{}) map[string]interface{} {
	var ret map[string]interface{}
	for k, v := range m {
		switch k {
		case fieldID, fieldContent, fieldFilepath:
			continue
		}
		if ret == nil {
			ret = make(map[string]interface{}, len(m))
		}
		ret[k] = v
	}
	return ret
}

// encodeMetadata serializes metadata without reserved keys into canonical
// JSON (keys sorted); empty metadata encodes as "{}".
func encodeMetadata(m map[string]interface{}) (string, error) {
	stripped := stripReserved(m)
	if len(stripped) == 0 {
		return emptyMetadata, nil
	}
	data, err := json.Marshal(stripped)
	if err != nil {
		return "", fmt.Errorf("chunkstore: encode metadata: %w", err)
	}
	return string(data), nil
}

// decodeMetadata parses stored metadata; NULL, empty and "{}" decode to nil.
func decodeMetadata(raw []byte) (map[string]interface{}, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("chunkstore: decode metadata: %w", err)
	}
	return stripReserved(m), nil
}

// row is the physical form of a chunk shared by both backends.
type row struct {
	content   string
	filepath  string
	metadata  string
	embedding interface{}
}

func (s *Store) encode(c *Chunk) (*row, error) {
	metadata, err := encodeMetadata(c.Metadata)
	if err != nil {
		return nil, err
	}
	embedding, err := s.backend.encodeEmbedding(c.Embedding)
	if err != nil {
		return nil, err
	}
	return &row{content: c.Content, filepath: c.Filepath, metadata: metadata, embedding: embedding}, nil
}

func (r *row) args() []interface{} {
	return []interface{}{r.content, r.filepath, r.metadata, r.embedding}
}
