package config

import (
	"log"

	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
)

// MigrateDB runs database migrations
func MigrateDB() {
	err := global.DB.AutoMigrate(
		&models.User{},
		&models.Feed{},
		&models.Subscription{},
		&models.SubscriptionFeed{},
		&models.Tag{},
		&models.SubscriptionTag{},
		&models.Entry{},
		&models.UserEntry{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")
}
