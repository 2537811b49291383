// scripts/create_admin.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/bassem-o/School/config"
	"github.com/bassem-o/School/database"
	"github.com/bassem-o/School/models"
)

func main() {
	username := flag.String("username", "admin", "admin username")
	password := flag.String("password", "", "admin password (required)")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	cfg := config.Load()
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var existing models.User
	if err := db.Where("username = ?", *username).First(&existing).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("failed to query users: %v", err)
		}
	} else {
		fmt.Println("admin user already exists with username:", *username)
		os.Exit(0)
	}

	u := models.User{
		Username:     *username,
		PasswordHash: string(hashed),
		Role:         models.RoleAdmin,
		Name:         *name,
		Email:        *email,
	}
	if err := db.Create(&u).Error; err != nil {
		log.Fatalf("failed to insert admin: %v", err)
	}

	fmt.Println("admin user created:")
	fmt.Println("   Username:", *username)
}
