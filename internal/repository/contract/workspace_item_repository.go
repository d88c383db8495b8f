package contract

import (
	"context"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"
)

type WorkspaceItemRepository interface {
	// Create inserts a new row and reports gorm.ErrDuplicatedKey when the
	// (namespace, key) pair already exists.
	Create(ctx context.Context, item *entity.WorkspaceItem) error
	// Upsert inserts or replaces the (namespace, key) row in one statement.
	Upsert(ctx context.Context, item *entity.WorkspaceItem) error
	Delete(ctx context.Context, namespace, key string) error
	DeleteByNamespace(ctx context.Context, namespace string) (int64, error) // Purge a whole workspace
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WorkspaceItem, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WorkspaceItem, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	ListNamespaces(ctx context.Context, prefix string, limit, offset int) ([]entity.Namespace, error)
	Stats(ctx context.Context, sessionId, userId string) (*entity.WorkspaceStats, error)
}
