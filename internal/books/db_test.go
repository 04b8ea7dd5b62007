package books

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

	dsn := "file:books_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'user',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	books := `
CREATE TABLE IF NOT EXISTS books (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
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
);`
	if err := db.Exec(users).Error; err != nil {
		t.Fatalf("create users table: %v", err)
	}
	if err := db.Exec(books).Error; err != nil {
		t.Fatalf("create books table: %v", err)
	}
	return db
}

func mustCreateTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        fmt.Sprintf("%s@example.com", username),
		PasswordHash: "hash",
		Role:         enums.UserRoleUser,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func mustCreateTestBook(t *testing.T, db *gorm.DB, sellerID uuid.UUID, title string, mutate func(*models.Book)) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     title,
		Author:    "Test Author",
		Price:     decimal.NewFromFloat(12.50),
		Category:  "fiction",
		Condition: enums.BookConditionGood,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if mutate != nil {
		mutate(book)
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("create book: %v", err)
	}
	return book
}
