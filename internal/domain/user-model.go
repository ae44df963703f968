package domain

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string `json:"fullname"`
	PasswordHash string `json:"-"`
	// ResetOTP is the single outstanding password-reset code ("" = none pending).
	// A new SendOTP overwrites it; only a successful password replace clears it.
	ResetOTP    string `gorm:"type:varchar(100)" json:"-"`
	IsActive    bool   `gorm:"not null;default:true" json:"is_active"`
	IsStaff     bool   `gorm:"not null;default:false" json:"is_staff"`
	IsSuperuser bool   `gorm:"not null;default:false" json:"is_superuser"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
