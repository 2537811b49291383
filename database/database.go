package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bassem-o/School/config"
	"github.com/bassem-o/School/models"
)

// Connect opens the database and migrates the schema. The returned handle is
// passed down explicitly; there is no package-level connection.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Teacher{},
		&models.AbsenceRequest{},
		&models.DelayRequest{},
		&models.Session{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Legacy deployments carried a plaintext users.password column; drop it
	// if it is still around.
	if db.Migrator().HasColumn(&models.User{}, "password") {
		if err := db.Migrator().DropColumn(&models.User{}, "password"); err != nil {
			return fmt.Errorf("drop legacy users.password: %w", err)
		}
	}
	return nil
}
