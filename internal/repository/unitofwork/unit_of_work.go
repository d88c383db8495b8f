package unitofwork

import (
	"context"

	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	WorkspaceItemRepository() contract.WorkspaceItemRepository
	FileCacheRepository() contract.FileCacheRepository
	LibraryFileRepository() contract.LibraryFileRepository
}
