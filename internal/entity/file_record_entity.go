package entity

import (
	"encoding/json"
	"fmt"
)

// RecordState is where a workspace file sits in its lazy-materialization
// lifecycle. There is no state for "missing": absent records are nil.
type RecordState int

const (
	// RecordStateReference names a binary source (file_key/url) that has not
	// been pulled into the session yet.
	RecordStateReference RecordState = iota
	// RecordStateUnparsed holds inline binary that has not been turned into
	// text yet.
	RecordStateUnparsed
	// RecordStateParsed has materialized text lines.
	RecordStateParsed
)

func (s RecordState) String() string {
	switch s {
	case RecordStateReference:
		return "reference"
	case RecordStateUnparsed:
		return "unparsed"
	case RecordStateParsed:
		return "parsed"
	}
	return "unknown"
}

// FileRecord is the value document of a workspace item. Content lives as
// ordered text lines once parsed; binary payloads ride along base64-encoded
// in RawContent until an edit invalidates them.
type FileRecord struct {
	Content       []string               `json:"content,omitempty"`
	RawContent    string                 `json:"raw_content,omitempty"`
	FileKey       string                 `json:"file_key,omitempty"`
	Url           string                 `json:"url,omitempty"`
	ContentHash   string                 `json:"content_hash,omitempty"`
	FileType      string                 `json:"file_type,omitempty"`
	FileExtension string                 `json:"file_extension,omitempty"`
	Parsed        bool                   `json:"parsed"`
	IsReference   bool                   `json:"is_reference,omitempty"`
	CreatedAt     string                 `json:"created_at,omitempty"`
	ModifiedAt    string                 `json:"modified_at,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

func (r *FileRecord) State() RecordState {
	switch {
	case r.IsReference && !r.Parsed:
		return RecordStateReference
	case !r.Parsed:
		return RecordStateUnparsed
	}
	return RecordStateParsed
}

// SetMeta writes a metadata key, allocating the map on first use.
func (r *FileRecord) SetMeta(key string, value interface{}) {
	if r.Metadata == nil {
		r.Metadata = map[string]interface{}{}
	}
	r.Metadata[key] = value
}

// ToValue flattens the record into the generic document shape the store
// persists. Round-tripping through JSON keeps the store layer ignorant of
// the record schema.
func (r *FileRecord) ToValue() (map[string]interface{}, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal file record: %w", err)
	}
	var value map[string]interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("unmarshal file record value: %w", err)
	}
	return value, nil
}

// FileRecordFromValue rebuilds a record from a stored item value.
func FileRecordFromValue(value map[string]interface{}) (*FileRecord, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal item value: %w", err)
	}
	var rec FileRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal file record: %w", err)
	}
	return &rec, nil
}
