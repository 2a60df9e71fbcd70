// Command seed provisions the bootstrap admin account. Safe to run
// repeatedly: an existing account with the configured email is left alone.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusdesk/helpdesk-api/internal/models"
	"github.com/campusdesk/helpdesk-api/internal/repository"
	"github.com/campusdesk/helpdesk-api/pkg/config"
	"github.com/campusdesk/helpdesk-api/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo := repository.NewUserRepository(db)

	if _, err := repo.FindByEmail(ctx, cfg.Seed.AdminEmail); err == nil {
		log.Printf("admin account %s already exists, nothing to do", cfg.Seed.AdminEmail)
		return
	} else if !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to check existing admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}

	admin := &models.User{
		Email:        cfg.Seed.AdminEmail,
		PasswordHash: string(hash),
		FullName:     cfg.Seed.AdminName,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin account: %v", err)
	}

	log.Printf("admin account %s created", cfg.Seed.AdminEmail)
}
