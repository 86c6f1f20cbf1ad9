package database

import (
	"context"
	"fmt"

	"github.com/marior032001/jwt-pizza-service/config"
	"github.com/marior032001/jwt-pizza-service/models"
	"github.com/marior032001/jwt-pizza-service/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Seed is the data written into a fresh schema.
type Seed struct {
	Admin  config.AdminConfig
	Hasher utils.PasswordHasher
}

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RoleBinding{},
		&models.AuthToken{},
		&models.MenuItem{},
		&models.Franchise{},
		&models.Store{},
		&models.Order{},
		&models.OrderItem{},
	}
}

// DefaultMenuItem is seeded alongside the admin account.
func DefaultMenuItem() models.MenuItem {
	return models.MenuItem{
		Title:       "Veggie",
		Description: "A garden of delight",
		Image:       "pizza1.png",
		Price:       decimal.RequireFromString("4.99"),
	}
}

func bootstrap(ctx context.Context, db *gorm.DB, seed Seed) error {
	fresh := !db.Migrator().HasTable(&models.User{})

	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	if !fresh {
		return nil
	}
	return seedDefaults(ctx, db, seed)
}

func seedDefaults(ctx context.Context, db *gorm.DB, seed Seed) error {
	if seed.Hasher == nil || seed.Admin.Email == "" {
		return nil
	}

	hashed, err := seed.Hasher.Hash(seed.Admin.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := models.User{Name: seed.Admin.Name, Email: seed.Admin.Email, Password: hashed}
		if err := tx.Omit("Bindings").Create(&admin).Error; err != nil {
			return err
		}
		binding := models.BindingFor(admin.ID, models.AdminRole{})
		if err := tx.Create(&binding).Error; err != nil {
			return err
		}
		item := DefaultMenuItem()
		return tx.Create(&item).Error
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	utils.InfoLogger.WithField("email", seed.Admin.Email).Info("seeded default admin and menu")
	return nil
}
