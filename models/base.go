package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Zephony/zephony-go/util"
)

// BaseModel carries the columns every table shares. Embed it by value.
type BaseModel struct {
	ID          uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Token       string     `gorm:"size:200;uniqueIndex" json:"token"`
	Status      string     `gorm:"size:20;not null;default:active" json:"status"`
	DeletedData string     `gorm:"size:500" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

// Identifiable is implemented by every model embedding BaseModel
type Identifiable interface {
	GetID() uint
}

// BeforeCreate assigns a token and the active status when they are unset
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.Token == "" {
		b.Token = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = util.StatusActive
	}
	return nil
}

func (b *BaseModel) GetID() uint {
	return b.ID
}

// SoftDelete marks the row deleted. Nothing is written; the caller saves.
func (b *BaseModel) SoftDelete() {
	now := time.Now()
	b.Status = util.StatusDeleted
	b.DeletedAt = &now
}

// IsActive reports whether the row has the active status
func (b *BaseModel) IsActive() bool {
	return b.Status == util.StatusActive
}

// BaseDetails returns the fields every detail level starts from
func (b *BaseModel) BaseDetails() map[string]any {
	var createdAt any
	if !b.CreatedAt.IsZero() {
		createdAt = util.SerializeDatetime(b.CreatedAt, false)
	}
	return map[string]any{
		"id":         b.ID,
		"status":     b.Status,
		"created_at": createdAt,
	}
}
