package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/api/middleware"
	booksvc "github.com/pageturn/bookmarket-backend/internal/books"
	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
)

func newControllerTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:controllers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	stmts := []string{`
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
);`, `
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
);`, `
CREATE TABLE IF NOT EXISTS orders (
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
);`, `
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  book_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  price TEXT NOT NULL,
  created_at DATETIME
);`}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Username:     "user_" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "x",
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedBook(t *testing.T, db *gorm.DB, sellerID uuid.UUID, title string) *models.Book {
	t.Helper()
	book := &models.Book{
		ID:       uuid.New(),
		SellerID: sellerID,
		Title:    title,
		Author:   "Author",
		Price:    decimal.NewFromInt(10),
		Category: "fiction",
	}
	if err := db.Create(book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func asUser(user *models.User, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := middleware.WithUserID(r.Context(), user.ID.String())
		ctx = middleware.WithRole(ctx, string(user.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TestBookCreateAndGetRoundTrip(t *testing.T) {
	db := newControllerTestDB(t)
	svc, err := booksvc.NewService(booksvc.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seller := seedUser(t, db, enums.UserRoleUser)

	r := chi.NewRouter()
	r.Method(http.MethodPost, "/books", asUser(seller, BookCreate(svc, nil)))
	r.Get("/books/{bookId}", BooksGet(svc, nil))

	body := `{"title":"Dune","author":"Frank Herbert","price":"12.50","category":"sci-fi","condition":"very-good"}`
	req := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var stored models.Book
	if err := db.First(&stored, "title = ?", "Dune").Error; err != nil {
		t.Fatalf("load created book: %v", err)
	}
	if stored.SellerID != seller.ID {
		t.Fatal("seller must come from the authenticated user")
	}

	req = httptest.NewRequest(http.MethodGet, "/books/"+stored.ID.String(), nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data booksvc.BookDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Title != "Dune" || !envelope.Data.Price.Equal(decimal.NewFromFloat(12.50)) {
		t.Fatalf("unexpected book: %+v", envelope.Data)
	}
}

func TestBookUpdateEnforcesOwnership(t *testing.T) {
	db := newControllerTestDB(t)
	svc, err := booksvc.NewService(booksvc.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seller := seedUser(t, db, enums.UserRoleUser)
	stranger := seedUser(t, db, enums.UserRoleUser)
	admin := seedUser(t, db, enums.UserRoleAdmin)
	book := seedBook(t, db, seller.ID, "Owned")

	update := func(actor *models.User, body string) int {
		r := chi.NewRouter()
		r.Method(http.MethodPut, "/books/{bookId}", asUser(actor, BookUpdate(svc, nil)))
		req := httptest.NewRequest(http.MethodPut, "/books/"+book.ID.String(), strings.NewReader(body))
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := update(stranger, `{"title":"Hijacked"}`); code != http.StatusForbidden {
		t.Fatalf("expected 403 for stranger, got %d", code)
	}
	if code := update(seller, `{"title":"Renamed"}`); code != http.StatusOK {
		t.Fatalf("expected 200 for owner, got %d", code)
	}
	if code := update(admin, `{"title":"Moderated"}`); code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", code)
	}

	var stored models.Book
	if err := db.First(&stored, "id = ?", book.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if stored.Title != "Moderated" {
		t.Fatalf("expected last write to win, got %q", stored.Title)
	}
}

func TestBooksListExcludesSoldAndPaginates(t *testing.T) {
	db := newControllerTestDB(t)
	svc, err := booksvc.NewService(booksvc.NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seller := seedUser(t, db, enums.UserRoleUser)
	seedBook(t, db, seller.ID, "Available")
	sold := seedBook(t, db, seller.ID, "Gone")
	if err := db.Model(sold).Update("sold", true).Error; err != nil {
		t.Fatalf("mark sold: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/books", BooksList(svc, nil))

	req := httptest.NewRequest(http.MethodGet, "/books?limit=10", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data booksvc.BookListDTO `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Books) != 1 || envelope.Data.Books[0].Title != "Available" {
		t.Fatalf("expected only the unsold book, got %+v", envelope.Data.Books)
	}

	req = httptest.NewRequest(http.MethodGet, "/books?limit=0", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range limit, got %d", rec.Code)
	}
}
