package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pageturn/bookmarket-backend/api/middleware"
	"github.com/pageturn/bookmarket-backend/api/responses"
	"github.com/pageturn/bookmarket-backend/api/validators"
	booksvc "github.com/pageturn/bookmarket-backend/internal/books"
	"github.com/pageturn/bookmarket-backend/pkg/enums"
	pkgerrors "github.com/pageturn/bookmarket-backend/pkg/errors"
	"github.com/pageturn/bookmarket-backend/pkg/logger"
	"github.com/pageturn/bookmarket-backend/pkg/pagination"
)

// BooksList serves the paginated public catalog of unsold listings.
func BooksList(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), booksvc.ListInput{
			Filters: booksvc.ListFilters{
				Category: strings.TrimSpace(r.URL.Query().Get("category")),
			},
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func BooksFeatured(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := svc.Featured(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, books)
	}
}

func BooksSearch(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		books, err := svc.Search(r.Context(), r.URL.Query().Get("q"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, books)
	}
}

func BooksGet(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		book, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

type batchBooksRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1"`
}

// BooksBatch resolves the current state of a set of listings, used by the
// storefront to refresh cart pages.
func BooksBatch(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload batchBooksRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		books, err := svc.Batch(r.Context(), payload.IDs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, books)
	}
}

// MyListings returns every listing, sold or not, owned by the caller.
func MyListings(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		books, err := svc.UserListings(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, books)
	}
}

type createBookRequest struct {
	Title         string          `json:"title" validate:"required"`
	Author        string          `json:"author" validate:"required"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price" validate:"required"`
	CoverImage    *string         `json:"cover_image,omitempty"`
	Category      string          `json:"category" validate:"required"`
	ISBN          *string         `json:"isbn,omitempty"`
	PublishedYear *int            `json:"published_year,omitempty"`
	Pages         *int            `json:"pages,omitempty" validate:"omitempty,min=1"`
	Condition     string          `json:"condition,omitempty"`
	Featured      bool            `json:"featured,omitempty"`
}

func BookCreate(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		condition := enums.BookConditionGood
		if strings.TrimSpace(payload.Condition) != "" {
			condition, err = enums.ParseBookCondition(strings.TrimSpace(payload.Condition))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
		}

		book, err := svc.Create(r.Context(), booksvc.CreateBookInput{
			SellerID:      userID,
			Title:         payload.Title,
			Author:        payload.Author,
			Description:   payload.Description,
			Price:         payload.Price,
			CoverImage:    payload.CoverImage,
			Category:      payload.Category,
			ISBN:          payload.ISBN,
			PublishedYear: payload.PublishedYear,
			Pages:         payload.Pages,
			Condition:     condition,
			Featured:      payload.Featured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, book)
	}
}

type updateBookRequest struct {
	Title         *string          `json:"title,omitempty"`
	Author        *string          `json:"author,omitempty"`
	Description   *string          `json:"description,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	CoverImage    *string          `json:"cover_image,omitempty"`
	Category      *string          `json:"category,omitempty"`
	ISBN          *string          `json:"isbn,omitempty"`
	PublishedYear *int             `json:"published_year,omitempty"`
	Pages         *int             `json:"pages,omitempty" validate:"omitempty,min=1"`
	Condition     *string          `json:"condition,omitempty"`
	Featured      *bool            `json:"featured,omitempty"`
}

func BookUpdate(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireListingOwner(r, svc, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateBookRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := booksvc.UpdateBookInput{
			Title:         payload.Title,
			Author:        payload.Author,
			Description:   payload.Description,
			Price:         payload.Price,
			CoverImage:    payload.CoverImage,
			Category:      payload.Category,
			ISBN:          payload.ISBN,
			PublishedYear: payload.PublishedYear,
			Pages:         payload.Pages,
			Featured:      payload.Featured,
		}
		if payload.Condition != nil {
			condition, err := enums.ParseBookCondition(strings.TrimSpace(*payload.Condition))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = &condition
		}

		book, err := svc.Update(r.Context(), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, book)
	}
}

func BookDelete(svc *booksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "bookId"), "bookId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := requireListingOwner(r, svc, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "listing removed"})
	}
}

// requireListingOwner permits writes from the seller who owns the listing or
// an admin.
func requireListingOwner(r *http.Request, svc *booksvc.Service, bookID uuid.UUID) error {
	userID, err := currentUserID(r)
	if err != nil {
		return err
	}
	if middleware.RoleFromContext(r.Context()) == string(enums.UserRoleAdmin) {
		return nil
	}

	book, err := svc.Get(r.Context(), bookID)
	if err != nil {
		return err
	}
	if book.SellerID != userID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "not your listing")
	}
	return nil
}
