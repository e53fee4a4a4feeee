package config

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"shuttle_desk/internal/models"
)

// SeedAdmin upserts the first privileged login from ADMIN_EMAIL/ADMIN_PASSWORD.
// Without it a fresh database has nobody able to approve anyone. No-op when
// the env vars are absent or the user already exists.
func SeedAdmin() {
	email := GetEnv("ADMIN_EMAIL", "")
	password := GetEnv("ADMIN_PASSWORD", "")
	if email == "" || password == "" {
		return
	}

	var existing models.User
	if err := DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("seed admin: could not hash password: %v", err)
		return
	}
	admin := models.User{
		Email:    email,
		Password: string(hash),
		Role:     models.RoleAdmin,
		Status:   models.UserActive,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("seed admin: %v", err)
		return
	}
	log.Printf("seeded admin account %s", email)
}
