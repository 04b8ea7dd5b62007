package books

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageturn/bookmarket-backend/pkg/db/models"
	pkgerrors "github.com/pageturn/bookmarket-backend/pkg/errors"
)

// BatchLimit caps how many ids a single batch lookup may request.
const BatchLimit = 100

// Service implements the catalog operations on top of the repository.
type Service struct {
	repo *Repository
}

// NewService builds a books service with the required dependencies.
func NewService(repo *Repository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("books repository required")
	}
	return &Service{repo: repo}, nil
}

// List returns one page of unsold listings.
func (s *Service) List(ctx context.Context, input ListInput) (*BookListDTO, error) {
	rows, next, err := s.repo.List(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		if strings.Contains(err.Error(), "cursor") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list books")
	}
	return &BookListDTO{Books: FromModels(rows), NextCursor: next}, nil
}

// Featured returns the featured shelf.
func (s *Service) Featured(ctx context.Context) ([]BookDTO, error) {
	rows, err := s.repo.ListFeatured(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured books")
	}
	return FromModels(rows), nil
}

// Search matches listings on title, author, or ISBN.
func (s *Service) Search(ctx context.Context, query string) ([]BookDTO, error) {
	if strings.TrimSpace(query) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query required")
	}
	rows, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search books")
	}
	return FromModels(rows), nil
}

// Get loads a single listing.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	dto := FromModel(book)
	return &dto, nil
}

// Batch returns the current rows for the requested ids. Missing ids are
// silently dropped so clients can prune stale cart entries.
func (s *Service) Batch(ctx context.Context, ids []uuid.UUID) ([]BookDTO, error) {
	if len(ids) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one book id required")
	}
	if len(ids) > BatchLimit {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d ids per batch", BatchLimit))
	}
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "batch load books")
	}
	return FromModels(rows), nil
}

// UserListings returns every listing owned by the caller.
func (s *Service) UserListings(ctx context.Context, sellerID uuid.UUID) ([]BookDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	rows, err := s.repo.ListBySeller(ctx, sellerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list user books")
	}
	return FromModels(rows), nil
}

// Create persists a new listing owned by the caller.
func (s *Service) Create(ctx context.Context, input CreateBookInput) (*BookDTO, error) {
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateListing(input); err != nil {
		return nil, err
	}

	book := &models.Book{
		SellerID:      input.SellerID,
		Title:         strings.TrimSpace(input.Title),
		Author:        strings.TrimSpace(input.Author),
		Description:   input.Description,
		Price:         input.Price,
		CoverImage:    input.CoverImage,
		Category:      strings.TrimSpace(input.Category),
		ISBN:          input.ISBN,
		PublishedYear: input.PublishedYear,
		Pages:         input.Pages,
		Condition:     input.Condition,
		Featured:      input.Featured,
	}
	created, err := s.repo.Create(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create book")
	}
	dto := FromModel(created)
	return &dto, nil
}

// Update applies the provided mutable fields to an existing listing.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookDTO, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}

	if input.Price != nil && input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.Condition != nil && !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid condition %q", *input.Condition))
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Description != nil {
		book.Description = *input.Description
	}
	if input.Price != nil {
		book.Price = *input.Price
	}
	if input.CoverImage != nil {
		book.CoverImage = input.CoverImage
	}
	if input.Category != nil {
		book.Category = strings.TrimSpace(*input.Category)
	}
	if input.ISBN != nil {
		book.ISBN = input.ISBN
	}
	if input.PublishedYear != nil {
		book.PublishedYear = input.PublishedYear
	}
	if input.Pages != nil {
		book.Pages = input.Pages
	}
	if input.Condition != nil {
		book.Condition = *input.Condition
	}
	if input.Featured != nil {
		book.Featured = *input.Featured
	}

	saved, err := s.repo.Save(ctx, book)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save book")
	}
	dto := FromModel(saved)
	return &dto, nil
}

// Delete removes a listing. Copies tied to an order stay until the order
// is canceled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "book id required")
	}

	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "book not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load book")
	}
	if book.Sold {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "sold books cannot be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete book")
	}
	return nil
}

func validateListing(input CreateBookInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Author) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "author required")
	}
	if strings.TrimSpace(input.Category) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "category required")
	}
	if input.Price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if !input.Condition.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid condition %q", input.Condition))
	}
	return nil
}
