package gorm

import (
	"time"
)

// UserModel is the GORM model for credential records. The unique index
// on email is the store-level constraint that serializes concurrent
// registrations for the same address.
type UserModel struct {
	ID         string    `gorm:"primaryKey;size:64"`
	Email      string    `gorm:"uniqueIndex;size:255;not null"`
	Credential string    `gorm:"size:128;not null"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}
