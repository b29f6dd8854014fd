package model

import (
	"time"

	"gorm.io/datatypes"
)

// Document 通用 JSON 文档行，表名由调用方指定
type Document struct {
	DocumentID string         `gorm:"type:uuid;primaryKey"                json:"document_id"`
	Body       datatypes.JSON `gorm:"type:jsonb;not null"                 json:"body"`
	CreatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}
