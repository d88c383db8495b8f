package mapper

import (
	"time"

	"github.com/thetahealth/mirobody-sub003/internal/entity"
	"github.com/thetahealth/mirobody-sub003/internal/model"
)

type WorkspaceItemMapper struct{}

func NewWorkspaceItemMapper() *WorkspaceItemMapper {
	return &WorkspaceItemMapper{}
}

func (m *WorkspaceItemMapper) ToEntity(item *model.WorkspaceItem) *entity.WorkspaceItem {
	if item == nil {
		return nil
	}

	var updatedAt *time.Time
	if !item.UpdatedAt.IsZero() {
		t := item.UpdatedAt
		updatedAt = &t
	}

	return &entity.WorkspaceItem{
		Namespace: entity.ParseNamespace(item.Namespace),
		Key:       item.Key,
		Value:     map[string]interface{}(item.Value),
		SessionId: item.SessionId,
		UserId:    item.UserId,
		CreatedAt: item.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *WorkspaceItemMapper) ToModel(item *entity.WorkspaceItem) *model.WorkspaceItem {
	if item == nil {
		return nil
	}

	var updatedAt time.Time
	if item.UpdatedAt != nil {
		updatedAt = *item.UpdatedAt
	}

	return &model.WorkspaceItem{
		Namespace: item.Namespace.String(),
		Key:       item.Key,
		Value:     item.Value,
		SessionId: item.SessionId,
		UserId:    item.UserId,
		CreatedAt: item.CreatedAt,
		UpdatedAt: updatedAt,
	}
}

func (m *WorkspaceItemMapper) ToEntities(items []*model.WorkspaceItem) []*entity.WorkspaceItem {
	entities := make([]*entity.WorkspaceItem, len(items))
	for i, item := range items {
		entities[i] = m.ToEntity(item)
	}
	return entities
}
