package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ByNamespace struct {
	Namespace string
}

func (s ByNamespace) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("namespace = ?", s.Namespace)
}

// ByNamespacePrefix matches serialized namespaces by string prefix. The
// prefix is escaped so stored separator-free segments cannot smuggle LIKE
// wildcards into the query.
type ByNamespacePrefix struct {
	Prefix string
}

func (s ByNamespacePrefix) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("namespace LIKE ?", EscapeLike(s.Prefix)+"%")
}

type ByKey struct {
	Key string
}

func (s ByKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("key = ?", s.Key)
}

type ByKeyPrefix struct {
	Prefix string
}

func (s ByKeyPrefix) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("key LIKE ?", EscapeLike(s.Prefix)+"%")
}

type BySessionId struct {
	SessionId string
}

func (s BySessionId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("session_id = ?", s.SessionId)
}

type ByUserId struct {
	UserId string
}

func (s ByUserId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserId)
}

// EscapeLike neutralizes LIKE metacharacters in user-supplied fragments.
func EscapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
