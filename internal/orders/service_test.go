package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/internal/books"
	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookmarket-backend/pkg/errors"
	"github.com/pageturn/bookmarket-backend/pkg/types"
)

type testTxRunner struct {
	db *gorm.DB
}

func (r *testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	svc, err := NewService(NewRepository(db), books.NewRepository(db), &testTxRunner{db: db})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, db
}

func shipping() types.Shipping {
	city := "Lyon"
	return types.Shipping{
		FullName: "Jean Valjean",
		Address:  "55 Rue Plumet",
		Phone:    "+33 1 02 03 04 05",
		City:     &city,
	}
}

func TestCheckoutReservesBooksAndRecordsOrder(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	first := mustCreateBook(t, db, seller.ID, "First Edition", 30, false)
	second := mustCreateBook(t, db, seller.ID, "Second Copy", 12.50, false)

	result, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{first.ID, second.ID},
		Shipping:      shipping(),
		PaymentMethod: "cash on delivery",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if result.Message == "" {
		t.Fatal("expected confirmation message")
	}
	if len(result.Books) != 2 {
		t.Fatalf("expected 2 updated books, got %d", len(result.Books))
	}
	for _, b := range result.Books {
		if !b.Sold {
			t.Fatalf("book %s not flagged sold in response", b.ID)
		}
	}

	want := decimal.NewFromFloat(42.50)
	if !result.Order.TotalPrice.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, result.Order.TotalPrice)
	}
	if result.Order.SellerID != seller.ID {
		t.Fatal("seller must come from the first item")
	}
	if len(result.Order.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(result.Order.Items))
	}
	for i, item := range result.Order.Items {
		if item.Position != i {
			t.Fatalf("expected position %d, got %d", i, item.Position)
		}
	}

	var stored models.Book
	if err := db.First(&stored, "id = ?", first.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if !stored.Sold {
		t.Fatal("sold flag not persisted")
	}
}

func TestCheckoutConflictOnSoldBook(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	available := mustCreateBook(t, db, seller.ID, "Still Here", 10, false)
	gone := mustCreateBook(t, db, seller.ID, "Already Gone", 10, true)

	_, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{available.ID, gone.ID},
		Shipping:      shipping(),
		PaymentMethod: "cash",
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}

	// the whole transaction must roll back: the available copy stays
	// available and no order rows exist
	var stored models.Book
	if err := db.First(&stored, "id = ?", available.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if stored.Sold {
		t.Fatal("rollback failed: available book left reserved")
	}
	var count int64
	if err := db.Model(&models.Order{}).Count(&count).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no orders, got %d", count)
	}
}

func TestCheckoutRepeatFailsWithConflict(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	book := mustCreateBook(t, db, seller.ID, "One Copy", 20, false)

	input := CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{book.ID},
		Shipping:      shipping(),
		PaymentMethod: "cash",
	}
	if _, err := svc.Checkout(ctx, input); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := svc.Checkout(ctx, input)
	if err == nil {
		t.Fatal("expected conflict on repeat checkout")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCheckoutUnknownBookRollsBack(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	book := mustCreateBook(t, db, seller.ID, "Exists", 10, false)

	_, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{book.ID, uuid.New()},
		Shipping:      shipping(),
		PaymentMethod: "cash",
	})
	if err == nil {
		t.Fatal("expected not found")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored models.Book
	if err := db.First(&stored, "id = ?", book.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if stored.Sold {
		t.Fatal("rollback failed: existing book left reserved")
	}
}

func TestCheckoutValidation(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	bookID := uuid.New()

	cases := []CheckoutInput{
		{BuyerID: buyer.ID, Shipping: shipping(), PaymentMethod: "cash"},
		{BuyerID: buyer.ID, Items: []uuid.UUID{bookID, bookID}, Shipping: shipping(), PaymentMethod: "cash"},
		{BuyerID: buyer.ID, Items: []uuid.UUID{bookID}, Shipping: types.Shipping{Address: "a", Phone: "p"}, PaymentMethod: "cash"},
		{BuyerID: buyer.ID, Items: []uuid.UUID{bookID}, Shipping: types.Shipping{FullName: "n", Phone: "p"}, PaymentMethod: "cash"},
		{BuyerID: buyer.ID, Items: []uuid.UUID{bookID}, Shipping: types.Shipping{FullName: "n", Address: "a"}, PaymentMethod: "cash"},
		{BuyerID: buyer.ID, Items: []uuid.UUID{bookID}, Shipping: shipping(), PaymentMethod: "  "},
	}
	for i, input := range cases {
		_, err := svc.Checkout(ctx, input)
		if err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
	}
}

func TestListingsSplitByRole(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	other := mustCreateUser(t, db, enums.UserRoleUser)

	older := mustCreateBook(t, db, seller.ID, "Older", 5, false)
	newer := mustCreateBook(t, db, seller.ID, "Newer", 5, false)

	placeOrder := func(bookID uuid.UUID, createdAt time.Time) {
		res, err := svc.Checkout(ctx, CheckoutInput{
			BuyerID:       buyer.ID,
			Items:         []uuid.UUID{bookID},
			Shipping:      shipping(),
			PaymentMethod: "cash",
		})
		if err != nil {
			t.Fatalf("checkout: %v", err)
		}
		if err := db.Model(&models.Order{}).Where("id = ?", res.Order.ID).Update("created_at", createdAt).Error; err != nil {
			t.Fatalf("backdate order: %v", err)
		}
	}
	now := time.Now().UTC()
	placeOrder(older.ID, now.Add(-time.Hour))
	placeOrder(newer.ID, now)

	purchases, err := svc.ListPurchases(ctx, buyer.ID)
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	if len(purchases) != 2 {
		t.Fatalf("expected 2 purchases, got %d", len(purchases))
	}
	if !purchases[0].CreatedAt.After(purchases[1].CreatedAt) {
		t.Fatal("expected newest-first ordering")
	}
	if purchases[0].BuyerUsername != buyer.Username {
		t.Fatalf("expected buyer username %q, got %q", buyer.Username, purchases[0].BuyerUsername)
	}
	if len(purchases[0].Items) != 1 || purchases[0].Items[0].Book == nil {
		t.Fatal("expected book summary joined on order item")
	}

	sales, err := svc.ListSales(ctx, seller.ID)
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(sales))
	}

	none, err := svc.ListPurchases(ctx, other.ID)
	if err != nil {
		t.Fatalf("list other: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no orders for uninvolved user, got %d", len(none))
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 orders total, got %d", len(all))
	}
}

func TestCancelReleasesBooks(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seller := mustCreateUser(t, db, enums.UserRoleUser)
	buyer := mustCreateUser(t, db, enums.UserRoleUser)
	stranger := mustCreateUser(t, db, enums.UserRoleUser)
	admin := mustCreateUser(t, db, enums.UserRoleAdmin)

	book := mustCreateBook(t, db, seller.ID, "Returnable", 18, false)
	res, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{book.ID},
		Shipping:      shipping(),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	err = svc.Cancel(ctx, res.Order.ID, stranger.ID, enums.UserRoleUser)
	if err == nil {
		t.Fatal("expected forbidden for uninvolved user")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Cancel(ctx, res.Order.ID, buyer.ID, enums.UserRoleUser); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var stored models.Book
	if err := db.First(&stored, "id = ?", book.ID).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if stored.Sold {
		t.Fatal("book not returned to market")
	}
	var count int64
	if err := db.Model(&models.OrderItem{}).Count(&count).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if count != 0 {
		t.Fatal("order items left behind")
	}

	if err := svc.Cancel(ctx, res.Order.ID, buyer.ID, enums.UserRoleUser); err == nil {
		t.Fatal("expected not found for canceled order")
	}

	// admin may cancel someone else's order
	book2 := mustCreateBook(t, db, seller.ID, "Admin Handled", 9, false)
	res2, err := svc.Checkout(ctx, CheckoutInput{
		BuyerID:       buyer.ID,
		Items:         []uuid.UUID{book2.ID},
		Shipping:      shipping(),
		PaymentMethod: "cash",
	})
	if err != nil {
		t.Fatalf("second checkout: %v", err)
	}
	if err := svc.Cancel(ctx, res2.Order.ID, admin.ID, enums.UserRoleAdmin); err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
}
