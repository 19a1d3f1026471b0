package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/glowmart/storefront-backend/pkg/enums"
)

// User is an authenticated storefront member.
type User struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string           `gorm:"column:email;not null;uniqueIndex:users_email_key"`
	Name      string           `gorm:"column:name;not null"`
	Role      enums.MemberRole `gorm:"column:role;type:text;not null;default:'user'"`
	Phone     *string          `gorm:"column:phone"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
