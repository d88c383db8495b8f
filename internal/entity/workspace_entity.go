package entity

import (
	"errors"
	"strings"
	"time"
)

// NamespaceSeparator joins segments for the serialized form stored in the
// namespace column. Segments containing the separator do not round-trip.
const NamespaceSeparator = "/"

var ErrInvalidNamespace = errors.New("invalid namespace: expected at least (session_id, user_id) segments")

// Namespace is the ordered scope tuple under which workspace keys are
// isolated, canonically (domain, session_id, user_id).
type Namespace []string

func NewNamespace(domain, sessionId, userId string) Namespace {
	return Namespace{domain, sessionId, userId}
}

func ParseNamespace(s string) Namespace {
	if s == "" {
		return Namespace{}
	}
	return Namespace(strings.Split(s, NamespaceSeparator))
}

func (n Namespace) String() string {
	return strings.Join(n, NamespaceSeparator)
}

func (n Namespace) Validate() error {
	if len(n) < 2 {
		return ErrInvalidNamespace
	}
	for _, seg := range n {
		if seg == "" {
			return ErrInvalidNamespace
		}
	}
	return nil
}

// SessionId returns the session segment. Two-segment namespaces are the
// legacy (session_id, user_id) form without a domain prefix.
func (n Namespace) SessionId() string {
	switch {
	case len(n) >= 3:
		return n[1]
	case len(n) == 2:
		return n[0]
	}
	return ""
}

func (n Namespace) UserId() string {
	switch {
	case len(n) >= 3:
		return n[2]
	case len(n) == 2:
		return n[1]
	}
	return ""
}

// WorkspaceItem is one (namespace, key) row: an arbitrary sanitized JSON
// document plus the extracted session/user side columns.
type WorkspaceItem struct {
	Namespace Namespace
	Key       string
	Value     map[string]interface{}
	SessionId string
	UserId    string
	CreatedAt time.Time
	UpdatedAt *time.Time
}

// WorkspaceStats summarizes one session workspace.
type WorkspaceStats struct {
	FileCount   int64
	ParsedCount int64
	TotalSize   int64
}
