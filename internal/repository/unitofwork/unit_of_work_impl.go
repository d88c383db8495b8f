package unitofwork

import (
	"context"
	"fmt"

	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"
	"github.com/thetahealth/mirobody-sub003/internal/repository/implementation"

	"gorm.io/gorm"
)

type UnitOfWorkImpl struct {
	db *gorm.DB
	tx *gorm.DB // nil until Begin; accessors fall back to the pooled handle
}

func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &UnitOfWorkImpl{
		db: db,
	}
}

func (u *UnitOfWorkImpl) getDB() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UnitOfWorkImpl) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}
	u.tx = u.db.WithContext(ctx).Begin()
	return u.tx.Error
}

func (u *UnitOfWorkImpl) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}
	err := u.tx.Commit().Error
	u.tx = nil
	return err
}

func (u *UnitOfWorkImpl) Rollback() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to rollback")
	}
	err := u.tx.Rollback().Error
	u.tx = nil
	return err
}

// Repository Accessors

func (u *UnitOfWorkImpl) WorkspaceItemRepository() contract.WorkspaceItemRepository {
	return implementation.NewWorkspaceItemRepository(u.getDB())
}

func (u *UnitOfWorkImpl) FileCacheRepository() contract.FileCacheRepository {
	return implementation.NewFileCacheRepository(u.getDB())
}

func (u *UnitOfWorkImpl) LibraryFileRepository() contract.LibraryFileRepository {
	return implementation.NewLibraryFileRepository(u.getDB())
}
