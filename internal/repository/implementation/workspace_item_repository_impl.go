package implementation

import (
	"context"
	"errors"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/mapper"
	"github.com/thetahealth/mirobody-sub003/internal/model"
	"github.com/thetahealth/mirobody-sub003/internal/repository/contract"
	"github.com/thetahealth/mirobody-sub003/internal/repository/specification"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const uniqueViolation = "23505"

type WorkspaceItemRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WorkspaceItemMapper
}

func NewWorkspaceItemRepository(db *gorm.DB) contract.WorkspaceItemRepository {
	return &WorkspaceItemRepositoryImpl{
		db:     db,
		mapper: mapper.NewWorkspaceItemMapper(),
	}
}

func (r *WorkspaceItemRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *WorkspaceItemRepositoryImpl) Create(ctx context.Context, item *entity.WorkspaceItem) error {
	m := r.mapper.ToModel(item)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return gorm.ErrDuplicatedKey
		}
		return err
	}
	*item = *r.mapper.ToEntity(m)
	return nil
}

func (r *WorkspaceItemRepositoryImpl) Upsert(ctx context.Context, item *entity.WorkspaceItem) error {
	m := r.mapper.ToModel(item)
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO agent_workspace_items (namespace, key, value, session_id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
		ON CONFLICT (namespace, key)
		DO UPDATE SET
			value = EXCLUDED.value,
			session_id = EXCLUDED.session_id,
			user_id = EXCLUDED.user_id,
			updated_at = NOW()
	`, m.Namespace, m.Key, m.Value, m.SessionId, m.UserId).Error
}

func (r *WorkspaceItemRepositoryImpl) Delete(ctx context.Context, namespace, key string) error {
	return r.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		Delete(&model.WorkspaceItem{}).Error
}

func (r *WorkspaceItemRepositoryImpl) DeleteByNamespace(ctx context.Context, namespace string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("namespace = ?", namespace).
		Delete(&model.WorkspaceItem{})
	return result.RowsAffected, result.Error
}

func (r *WorkspaceItemRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.WorkspaceItem, error) {
	var m model.WorkspaceItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *WorkspaceItemRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.WorkspaceItem, error) {
	var models []*model.WorkspaceItem
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *WorkspaceItemRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.WorkspaceItem{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *WorkspaceItemRepositoryImpl) ListNamespaces(ctx context.Context, prefix string, limit, offset int) ([]entity.Namespace, error) {
	var serialized []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT namespace
		FROM agent_workspace_items
		WHERE namespace LIKE ?
		ORDER BY namespace
		LIMIT ? OFFSET ?
	`, specification.EscapeLike(prefix)+"%", limit, offset).Scan(&serialized).Error
	if err != nil {
		return nil, err
	}

	namespaces := make([]entity.Namespace, len(serialized))
	for i, s := range serialized {
		namespaces[i] = entity.ParseNamespace(s)
	}
	return namespaces, nil
}

func (r *WorkspaceItemRepositoryImpl) Stats(ctx context.Context, sessionId, userId string) (*entity.WorkspaceStats, error) {
	var row struct {
		FileCount   int64
		ParsedCount int64
		TotalSize   int64
	}
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS file_count,
			COUNT(*) FILTER (WHERE (value->>'parsed')::boolean) AS parsed_count,
			COALESCE(SUM(length(value::text)), 0) AS total_size
		FROM agent_workspace_items
		WHERE session_id = ? AND user_id = ?
	`, sessionId, userId).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &entity.WorkspaceStats{
		FileCount:   row.FileCount,
		ParsedCount: row.ParsedCount,
		TotalSize:   row.TotalSize,
	}, nil
}
