// Package specification expresses repository queries as composable filter
// values, so services can narrow lookups without writing SQL.
package specification

import "gorm.io/gorm"

// Specification is one composable query constraint.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
