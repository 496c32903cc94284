package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"ttlearn/adapters/db"
	"ttlearn/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.Connect(appConfig.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	migrator := db.NewMigrationRunner()
	if err := migrator.Run(context.Background(), conn); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	driver, _ := db.DriverFor(appConfig.Database)
	log.Printf("Migrations %s applied on %s", migrator.Version(), driver)
}
