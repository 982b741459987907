package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kedai-qr/api/internal/config"
	"github.com/kedai-qr/api/internal/database"
	"github.com/kedai-qr/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

type seedMenu struct {
	name     string
	price    string
	category string
	stock    int32
}

var defaultMenus = []seedMenu{
	{"Nasi Goreng", "25000", "Makanan", 50},
	{"Mie Ayam", "20000", "Makanan", 40},
	{"Teh", "8000", enum.CategoryDrink, 100},
	{"Kopi Susu", "15000", enum.CategoryDrink, 60},
}

func main() {
	// CLI flags
	email := flag.String("email", "", "Admin email address")
	password := flag.String("password", "", "Admin password")
	name := flag.String("name", "", "Admin full name")
	tables := flag.Int("tables", 10, "Number of tables to create")
	withMenu := flag.Bool("menu", true, "Create a starter menu when the menu is empty")
	flag.Parse()

	// Fall back to environment variables
	if *email == "" {
		*email = os.Getenv("SEED_EMAIL")
	}
	if *password == "" {
		*password = os.Getenv("SEED_PASSWORD")
	}
	if *name == "" {
		*name = os.Getenv("SEED_NAME")
	}

	// Fall back to defaults
	if *email == "" {
		*email = "admin@kedai.local"
	}
	if *password == "" {
		*password = "password123"
		log.Println("WARNING: Using default password 'password123'. Change immediately in production!")
	}
	if *name == "" {
		*name = "Admin Kedai"
	}

	cfg := config.Load()

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Unable to migrate database: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	// Seed in a transaction (all or nothing)
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx)

	userID, err := seedAdmin(ctx, q, *email, *password, *name)
	if err != nil {
		log.Fatalf("Failed to seed admin: %v", err)
	}

	created, err := seedTables(ctx, q, *tables)
	if err != nil {
		log.Fatalf("Failed to seed tables: %v", err)
	}

	if *withMenu {
		if err := seedMenus(ctx, q); err != nil {
			log.Fatalf("Failed to seed menus: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed completed successfully")
	log.Printf("Admin ID: %s", userID)
	log.Printf("Tables created: %d", created)
}

// seedAdmin creates the admin user if it doesn't exist.
func seedAdmin(ctx context.Context, q *database.Queries, email, password, fullName string) (uuid.UUID, error) {
	existing, err := q.GetUserByEmail(ctx, email)
	if err == nil {
		log.Printf("User '%s' already exists (ID: %s), skipping", email, existing.ID)
		return existing.ID, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("check user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := q.CreateUser(ctx, database.CreateUserParams{
		Email:          email,
		HashedPassword: string(hashed),
		FullName:       fullName,
		Role:           database.UserRoleADMIN,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert user: %w", err)
	}

	log.Printf("Created admin user '%s' (ID: %s)", email, user.ID)
	return user.ID, nil
}

// seedTables creates tables "1".."n", skipping numbers already taken.
func seedTables(ctx context.Context, q *database.Queries, n int) (int, error) {
	created := 0
	for i := 1; i <= n; i++ {
		number := fmt.Sprint(i)
		if _, err := q.GetTableByNumber(ctx, number); err == nil {
			continue
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return created, fmt.Errorf("check table %s: %w", number, err)
		}
		if _, err := q.CreateTable(ctx, number); err != nil {
			return created, fmt.Errorf("insert table %s: %w", number, err)
		}
		created++
	}
	return created, nil
}

// seedMenus inserts the starter menu when no menus exist.
func seedMenus(ctx context.Context, q *database.Queries) error {
	menus, err := q.ListMenus(ctx)
	if err != nil {
		return fmt.Errorf("list menus: %w", err)
	}
	if len(menus) > 0 {
		log.Printf("Menu already has %d items, skipping", len(menus))
		return nil
	}

	for _, m := range defaultMenus {
		var price pgtype.Numeric
		if err := price.Scan(m.price); err != nil {
			return fmt.Errorf("price for %s: %w", m.name, err)
		}
		if _, err := q.CreateMenu(ctx, database.CreateMenuParams{
			Name:     m.name,
			Price:    price,
			Category: m.category,
			Stock:    m.stock,
		}); err != nil {
			return fmt.Errorf("insert menu %s: %w", m.name, err)
		}
	}

	log.Printf("Created %d menu items", len(defaultMenus))
	return nil
}
