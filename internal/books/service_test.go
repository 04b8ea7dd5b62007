package books

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookmarket-backend/pkg/errors"
	"github.com/pageturn/bookmarket-backend/pkg/pagination"
)

func newTestService(t *testing.T) (*Service, *Repository, *models.User) {
	t.Helper()
	db := newTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seller := mustCreateTestUser(t, db, "seller_"+uuid.NewString()[:8])
	return svc, repo, seller
}

func TestServiceListFiltersAndPaginates(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		offset := time.Duration(i) * time.Minute
		mustCreateTestBook(t, repo.db, seller.ID, "Fiction Book", func(b *models.Book) {
			b.CreatedAt = now.Add(-offset)
			b.UpdatedAt = b.CreatedAt
		})
	}
	mustCreateTestBook(t, repo.db, seller.ID, "History Book", func(b *models.Book) {
		b.Category = "history"
	})
	mustCreateTestBook(t, repo.db, seller.ID, "Sold Book", func(b *models.Book) {
		b.Sold = true
	})

	page, err := svc.List(ctx, ListInput{
		Filters:    ListFilters{Category: "fiction"},
		Pagination: pagination.Params{Limit: 2},
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Books) != 2 {
		t.Fatalf("expected 2 books, got %d", len(page.Books))
	}
	if page.NextCursor == "" {
		t.Fatal("expected next cursor")
	}
	for _, b := range page.Books {
		if b.Category != "fiction" || b.Sold {
			t.Fatalf("unexpected row in filtered page: %+v", b)
		}
	}

	second, err := svc.List(ctx, ListInput{
		Filters:    ListFilters{Category: "fiction"},
		Pagination: pagination.Params{Limit: 2, Cursor: page.NextCursor},
	})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Books) != 1 {
		t.Fatalf("expected 1 book on second page, got %d", len(second.Books))
	}
	if second.NextCursor != "" {
		t.Fatal("expected empty cursor on last page")
	}
}

func TestServiceFeaturedCapsAtLimit(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	for i := 0; i < FeaturedLimit+3; i++ {
		mustCreateTestBook(t, repo.db, seller.ID, "Featured Book", func(b *models.Book) {
			b.Featured = true
		})
	}
	mustCreateTestBook(t, repo.db, seller.ID, "Featured Sold", func(b *models.Book) {
		b.Featured = true
		b.Sold = true
	})

	rows, err := svc.Featured(ctx)
	if err != nil {
		t.Fatalf("featured: %v", err)
	}
	if len(rows) != FeaturedLimit {
		t.Fatalf("expected %d featured books, got %d", FeaturedLimit, len(rows))
	}
	for _, b := range rows {
		if b.Sold {
			t.Fatal("sold book leaked into featured shelf")
		}
	}
}

func TestServiceSearchMatchesTitleAuthorISBN(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	isbn := "978-0-123456-78-9"
	mustCreateTestBook(t, repo.db, seller.ID, "The Go Programming Language", func(b *models.Book) {
		b.Author = "Alan Donovan"
		b.ISBN = &isbn
	})
	mustCreateTestBook(t, repo.db, seller.ID, "Unrelated", nil)

	for _, q := range []string{"go programming", "DONOVAN", "123456"} {
		rows, err := svc.Search(ctx, q)
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(rows) != 1 {
			t.Fatalf("search %q: expected 1 hit, got %d", q, len(rows))
		}
	}

	if _, err := svc.Search(ctx, "   "); err == nil {
		t.Fatal("expected validation error for blank query")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceGetIncludesSellerUsername(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	book := mustCreateTestBook(t, repo.db, seller.ID, "With Seller", nil)

	dto, err := svc.Get(ctx, book.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if dto.SellerUsername != seller.Username {
		t.Fatalf("expected seller username %q, got %q", seller.Username, dto.SellerUsername)
	}

	if _, err := svc.Get(ctx, uuid.New()); err == nil {
		t.Fatal("expected not found")
	} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceBatchReturnsCurrentRows(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	available := mustCreateTestBook(t, repo.db, seller.ID, "Available", nil)
	sold := mustCreateTestBook(t, repo.db, seller.ID, "Sold", func(b *models.Book) {
		b.Sold = true
	})

	rows, err := svc.Batch(ctx, []uuid.UUID{available.ID, sold.ID, uuid.New()})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	if _, err := svc.Batch(ctx, nil); err == nil {
		t.Fatal("expected validation error for empty batch")
	}
}

func TestServiceCreateValidates(t *testing.T) {
	t.Parallel()

	svc, _, seller := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateBookInput{
		SellerID:  seller.ID,
		Title:     "  Clean Title  ",
		Author:    "Author",
		Price:     decimal.NewFromFloat(9.99),
		Category:  "fiction",
		Condition: enums.BookConditionLikeNew,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Title != "Clean Title" {
		t.Fatalf("expected trimmed title, got %q", created.Title)
	}
	if created.Sold {
		t.Fatal("new listing must not be sold")
	}

	cases := []CreateBookInput{
		{SellerID: seller.ID, Author: "A", Category: "c", Condition: enums.BookConditionGood},
		{SellerID: seller.ID, Title: "T", Category: "c", Condition: enums.BookConditionGood},
		{SellerID: seller.ID, Title: "T", Author: "A", Condition: enums.BookConditionGood},
		{SellerID: seller.ID, Title: "T", Author: "A", Category: "c", Price: decimal.NewFromInt(-1), Condition: enums.BookConditionGood},
		{SellerID: seller.ID, Title: "T", Author: "A", Category: "c", Condition: enums.BookCondition("mint")},
	}
	for i, input := range cases {
		if _, err := svc.Create(ctx, input); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		} else if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}
}

func TestServiceUpdateAppliesFields(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	book := mustCreateTestBook(t, repo.db, seller.ID, "Original", nil)

	newTitle := "Updated"
	newPrice := decimal.NewFromFloat(20.00)
	featured := true
	dto, err := svc.Update(ctx, book.ID, UpdateBookInput{
		Title:    &newTitle,
		Price:    &newPrice,
		Featured: &featured,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if dto.Title != "Updated" || !dto.Featured {
		t.Fatalf("update not applied: %+v", dto)
	}
	if !dto.Price.Equal(newPrice) {
		t.Fatalf("expected price %s, got %s", newPrice, dto.Price)
	}

	bad := decimal.NewFromInt(-5)
	if _, err := svc.Update(ctx, book.ID, UpdateBookInput{Price: &bad}); err == nil {
		t.Fatal("expected validation error for negative price")
	}

	if _, err := svc.Update(ctx, uuid.New(), UpdateBookInput{Title: &newTitle}); err == nil {
		t.Fatal("expected not found")
	}
}

func TestServiceDeleteRejectsSold(t *testing.T) {
	t.Parallel()

	svc, repo, seller := newTestService(t)
	ctx := context.Background()

	book := mustCreateTestBook(t, repo.db, seller.ID, "Removable", nil)
	sold := mustCreateTestBook(t, repo.db, seller.ID, "Sold", func(b *models.Book) {
		b.Sold = true
	})

	if err := svc.Delete(ctx, book.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, book.ID); err == nil {
		t.Fatal("expected book gone")
	}

	err := svc.Delete(ctx, sold.ID)
	if err == nil {
		t.Fatal("expected state conflict for sold book")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRepositoryMarkSoldIsCompareAndSet(t *testing.T) {
	t.Parallel()

	_, repo, seller := newTestService(t)
	ctx := context.Background()

	book := mustCreateTestBook(t, repo.db, seller.ID, "Contested", nil)

	won, err := repo.MarkSold(ctx, book.ID)
	if err != nil {
		t.Fatalf("mark sold: %v", err)
	}
	if !won {
		t.Fatal("first flip must win")
	}

	won, err = repo.MarkSold(ctx, book.ID)
	if err != nil {
		t.Fatalf("second mark sold: %v", err)
	}
	if won {
		t.Fatal("second flip must lose")
	}

	if err := repo.MarkAvailable(ctx, []uuid.UUID{book.ID}); err != nil {
		t.Fatalf("mark available: %v", err)
	}
	won, err = repo.MarkSold(ctx, book.ID)
	if err != nil {
		t.Fatalf("mark sold after release: %v", err)
	}
	if !won {
		t.Fatal("flip must win again after release")
	}
}
