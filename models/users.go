package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"type:varchar(255);unique;not null" json:"username"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Email     string    `gorm:"type:varchar(255);unique;not null" json:"email"`
	Password  string    `gorm:"type:varchar(255);not null" json:"-"`
	Role      string    `gorm:"type:varchar(50);not null;default:'customer'" json:"role"`
	Verified  bool      `gorm:"not null;default:false" json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// pending email verification
	VerifyCodeHash  string     `gorm:"type:varchar(255)" json:"-"`
	VerifyExpiresAt *time.Time `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
