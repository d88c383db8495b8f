package unitofwork

import "context"

// RepositoryFactory hands out request-scoped units of work. Services create
// one per operation rather than holding repositories directly.
type RepositoryFactory interface {
	NewUnitOfWork(ctx context.Context) UnitOfWork
}
