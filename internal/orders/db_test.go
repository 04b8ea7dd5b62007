package orders

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  title TEXT NOT NULL,
  author TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price TEXT NOT NULL,
  cover_image TEXT,
  category TEXT NOT NULL,
  isbn TEXT,
  published_year INTEGER,
  pages INTEGER,
  condition TEXT NOT NULL DEFAULT 'good',
  featured INTEGER NOT NULL DEFAULT 0,
  sold INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  buyer_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  total_price TEXT NOT NULL,
  ship_full_name TEXT NOT NULL,
  ship_address TEXT NOT NULL,
  ship_phone TEXT NOT NULL,
  ship_city TEXT,
  ship_postal_code TEXT,
  payment_method TEXT NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	suffix := uuid.NewString()[:8]
	user := &models.User{
		ID:           uuid.New(),
		Username:     fmt.Sprintf("user_%s", suffix),
		Email:        fmt.Sprintf("user_%s@example.com", suffix),
		PasswordHash: "hash",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateBook(t *testing.T, db *gorm.DB, sellerID uuid.UUID, title string, price float64, sold bool) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     title,
		Author:    "Order Author",
		Price:     decimal.NewFromFloat(price),
		Category:  "fiction",
		Condition: enums.BookConditionGood,
		Sold:      sold,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}
