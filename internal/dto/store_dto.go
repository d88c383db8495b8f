package dto

import "time"

// StoreItem is one namespaced document returned by get/search.
type StoreItem struct {
	Namespace []string               `json:"namespace"`
	Key       string                 `json:"key"`
	Value     map[string]interface{} `json:"value"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt *time.Time             `json:"updated_at,omitempty"`
}

const (
	StoreOpGet    = "get"
	StoreOpPut    = "put"
	StoreOpDelete = "delete"
)

// StoreOperation is one entry of a heterogeneous batch.
type StoreOperation struct {
	Op        string                 `json:"op"`
	Namespace []string               `json:"namespace"`
	Key       string                 `json:"key"`
	Value     map[string]interface{} `json:"value,omitempty"`
}

// StoreOperationResult mirrors its operation by position. A failed
// operation carries Error and leaves the rest of the batch untouched.
type StoreOperationResult struct {
	Op    string                 `json:"op"`
	Key   string                 `json:"key"`
	Value map[string]interface{} `json:"value,omitempty"`
	Found bool                   `json:"found,omitempty"`
	Error string                 `json:"error,omitempty"`
}
