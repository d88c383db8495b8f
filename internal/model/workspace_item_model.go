package model

import (
	"time"

	"gorm.io/datatypes"
)

type WorkspaceItem struct {
	Namespace string            `gorm:"type:varchar(512);primaryKey"`
	Key       string            `gorm:"type:varchar(1024);primaryKey"`
	Value     datatypes.JSONMap `gorm:"type:jsonb"`
	SessionId string            `gorm:"type:varchar(255);index:idx_workspace_items_session"`
	UserId    string            `gorm:"type:varchar(255);index:idx_workspace_items_user"`
	CreatedAt time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `gorm:"default:CURRENT_TIMESTAMP"`
}

func (WorkspaceItem) TableName() string {
	return "agent_workspace_items"
}
