package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"

	"fieldvisit-backend/internal/auth"
	"fieldvisit-backend/internal/config"
	"fieldvisit-backend/internal/database"
	"fieldvisit-backend/internal/db"
	"fieldvisit-backend/internal/models"
	"fieldvisit-backend/internal/repositories"
	"fieldvisit-backend/internal/services"
	"fieldvisit-backend/migrations"
)

func main() {
	adminName := flag.String("admin", "admin", "Name of the admin user to create")
	adminPassword := flag.String("password", "", "Password for the admin user (required)")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt")
	flag.Parse()

	if *adminPassword == "" {
		log.Fatal("-password is required")
	}

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE ALL visits, clients, users and settings!")
	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	cfg := config.Load()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.NewMigratorWithFS(pool, migrations.FS, ".").RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if _, err := pool.Exec(ctx, `TRUNCATE visits, clients, users, system_settings RESTART IDENTITY`); err != nil {
		log.Fatalf("Failed to truncate tables: %v", err)
	}
	fmt.Println("  - Cleared visits, clients, users and system_settings")

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHours)
	users := services.NewUserService(repositories.NewUserRepository(pool), jwtManager, nil)
	if _, err := users.Upsert(ctx, models.UpsertUserRequest{
		Name:     *adminName,
		Role:     models.RoleAdmin,
		Password: *adminPassword,
	}); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	fmt.Printf("  - Created admin user %q\n", *adminName)

	settings := services.NewSystemSettingService(repositories.NewSystemSettingRepository(pool))
	defaults := map[string]int{
		services.SettingDistanceThreshold: services.DefaultDistanceThreshold,
		services.SettingReminderMinutes:   services.DefaultReminderMinutes,
	}
	for key, value := range defaults {
		if err := settings.Set(ctx, key, strconv.Itoa(value)); err != nil {
			log.Fatalf("Failed to create setting %s: %v", key, err)
		}
	}
	fmt.Println("  - Created default settings")

	fmt.Println()
	fmt.Println("Database reset successful!")
}
