package database

import (
	"errors"
	"strings"

	"github.com/brewcraft/restaurant-backend/config"
	"github.com/brewcraft/restaurant-backend/models"
	"github.com/brewcraft/restaurant-backend/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdmin creates the configured administrator if it does not exist.
// An existing account is left untouched.
func EnsureAdmin(db *gorm.DB, cfg config.AdminConfig) error {
	if cfg.Username == "" || cfg.Password == "" {
		utils.InfoLogger.Println("Admin bootstrap skipped: no credentials configured")
		return nil
	}

	var existing models.User
	err := db.Where("username = ?", cfg.Username).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	email := cfg.Email
	if email == "" {
		email = cfg.Username + "@localhost"
	}
	admin := models.User{
		Username: cfg.Username,
		Name:     "Administrator",
		Email:    strings.ToLower(email),
		Password: string(hashed),
		Role:     models.RoleAdmin,
		Verified: true,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	utils.InfoLogger.Printf("Admin account %s created", admin.Username)
	return nil
}
