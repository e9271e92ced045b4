package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookshop/internal/domain/access"
	"github.com/xiebiao/bookshop/internal/domain/book"
	"github.com/xiebiao/bookshop/internal/domain/user"
	"github.com/xiebiao/bookshop/internal/infrastructure/persistence/memory"
	apperrors "github.com/xiebiao/bookshop/pkg/errors"
)

var (
	librarian = access.NewCaller(2, user.RoleLibrarian)
	customer  = access.NewCaller(3, user.RoleUser)
)

func setup(t *testing.T) (*ManageCatalogUseCase, *ListBooksUseCase, uint) {
	t.Helper()
	books := memory.NewBookStore()
	authors := memory.NewAuthorStore()
	svc := book.NewService(books, authors)

	manage := NewManageCatalogUseCase(svc)
	a, err := manage.CreateAuthor(context.Background(), librarian, AuthorRequest{FirstName: "Frank", LastName: "Herbert"})
	require.NoError(t, err)
	return manage, NewListBooksUseCase(svc, authors), a.ID
}

func TestPublish_RequiresLibrarian(t *testing.T) {
	manage, _, authorID := setup(t)
	_, err := manage.Publish(context.Background(), customer, BookRequest{
		Title: "Dune", AuthorID: authorID, Category: "Fiction", Price: "15.99", Stock: 3,
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = manage.CreateAuthor(context.Background(), customer, AuthorRequest{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestPublishListAndGet(t *testing.T) {
	ctx := context.Background()
	manage, list, authorID := setup(t)

	d, err := manage.Publish(ctx, librarian, BookRequest{
		ISBN: "978-0-441-17271-9", Title: "Dune", AuthorID: authorID, Category: "fiction",
		Price: "15.99", Stock: 3, PublishedAt: "1965-08-01",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1599), d.Price)
	assert.Equal(t, "9780441172719", d.ISBN)
	assert.True(t, d.IsAvailable)

	_, err = manage.Publish(ctx, librarian, BookRequest{
		Title: "Children of Dune", AuthorID: authorID, Category: "Fiction", Price: "9.50", Stock: 0,
	})
	require.NoError(t, err)

	res, err := list.Execute(ctx, ListBooksRequest{Keyword: "dune", SortBy: book.SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, res.List, 2)
	assert.Equal(t, "9.50", res.List[0].PriceYuan)
	assert.Equal(t, "Frank Herbert", res.List[0].Author)
	assert.Equal(t, 1, res.TotalPages)

	res, err = list.Execute(ctx, ListBooksRequest{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, res.List, 1)
	assert.Equal(t, "Dune", res.List[0].Title)

	_, err = list.Execute(ctx, ListBooksRequest{Category: "Cooking"})
	assert.ErrorIs(t, err, book.ErrInvalidCategory)

	got, err := list.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "1965-08-01", got.PublishedAt)
}

func TestPublish_Validation(t *testing.T) {
	ctx := context.Background()
	manage, _, authorID := setup(t)

	cases := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"price with three decimals", BookRequest{Title: "X", AuthorID: authorID, Category: "Art", Price: "1.999"}, book.ErrInvalidPrice},
		{"price above max", BookRequest{Title: "X", AuthorID: authorID, Category: "Art", Price: "1000.00"}, book.ErrInvalidPrice},
		{"zero price", BookRequest{Title: "X", AuthorID: authorID, Category: "Art", Price: "0"}, book.ErrInvalidPrice},
		{"unknown category", BookRequest{Title: "X", AuthorID: authorID, Category: "Cooking", Price: "1"}, book.ErrInvalidCategory},
		{"missing title", BookRequest{AuthorID: authorID, Category: "Art", Price: "1"}, book.ErrInvalidTitle},
		{"unknown author", BookRequest{Title: "X", AuthorID: 99, Category: "Art", Price: "1"}, book.ErrAuthorNotFound},
		{"stock too large", BookRequest{Title: "X", AuthorID: authorID, Category: "Art", Price: "1", Stock: book.MaxStock + 1}, book.ErrInvalidStock},
		{"bad isbn", BookRequest{ISBN: "123", Title: "X", AuthorID: authorID, Category: "Art", Price: "1"}, book.ErrInvalidISBN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := manage.Publish(ctx, librarian, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRestockUpdateDelete(t *testing.T) {
	ctx := context.Background()
	manage, list, authorID := setup(t)

	d, err := manage.Publish(ctx, librarian, BookRequest{
		Title: "Dune", AuthorID: authorID, Category: "Fiction", Price: "15.99", Stock: 1,
	})
	require.NoError(t, err)

	r, err := manage.Restock(ctx, librarian, d.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, r.Stock)

	_, err = manage.Restock(ctx, librarian, d.ID, 0)
	assert.ErrorIs(t, err, book.ErrInvalidQuantity)

	off := false
	u, err := manage.Update(ctx, librarian, d.ID, BookRequest{
		Title: "Dune (Deluxe)", AuthorID: authorID, Category: "Fiction", Price: "20.00", Stock: 999, IsAvailable: &off,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), u.Price)
	assert.Equal(t, 5, u.Stock, "修改图书不改库存")
	assert.False(t, u.IsAvailable)

	require.NoError(t, manage.Delete(ctx, librarian, d.ID))
	_, err = list.Get(ctx, d.ID)
	assert.ErrorIs(t, err, book.ErrBookNotFound)

	assert.ErrorIs(t, manage.Delete(ctx, librarian, d.ID), book.ErrBookNotFound)
}

func TestAuthorLifecycle(t *testing.T) {
	ctx := context.Background()
	manage, list, herbertID := setup(t)

	le, err := manage.CreateAuthor(ctx, librarian, AuthorRequest{FirstName: "Ursula", LastName: "Le Guin"})
	require.NoError(t, err)

	found, err := list.ListAuthors(ctx, "guin")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, le.ID, found[0].ID)

	all, err := list.ListAuthors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = manage.UpdateAuthor(ctx, customer, le.ID, AuthorRequest{FirstName: "U", LastName: "K"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := manage.UpdateAuthor(ctx, librarian, le.ID, AuthorRequest{
		FirstName: " Ursula K. ", LastName: "Le Guin", Nationality: "US",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ursula K. Le Guin", updated.FullName)

	got, err := list.GetAuthor(ctx, le.ID)
	require.NoError(t, err)
	assert.Equal(t, "US", got.Nationality)

	_, err = manage.UpdateAuthor(ctx, librarian, le.ID, AuthorRequest{FirstName: " ", LastName: "Le Guin"})
	assert.ErrorIs(t, err, book.ErrInvalidAuthor)
	_, err = manage.UpdateAuthor(ctx, librarian, 99, AuthorRequest{FirstName: "A", LastName: "B"})
	assert.ErrorIs(t, err, book.ErrAuthorNotFound)

	require.NoError(t, manage.DeleteAuthor(ctx, librarian, le.ID))
	_, err = list.GetAuthor(ctx, le.ID)
	assert.ErrorIs(t, err, book.ErrAuthorNotFound)
	assert.ErrorIs(t, manage.DeleteAuthor(ctx, librarian, le.ID), book.ErrAuthorNotFound)

	// 名下有书的作者不能删除,书删掉后可以
	d, err := manage.Publish(ctx, librarian, BookRequest{
		Title: "Dune", AuthorID: herbertID, Category: "Fiction", Price: "15.99", Stock: 1,
	})
	require.NoError(t, err)
	err = manage.DeleteAuthor(ctx, librarian, herbertID)
	assert.ErrorIs(t, err, book.ErrAuthorHasBooks)
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	require.NoError(t, manage.Delete(ctx, librarian, d.ID))
	require.NoError(t, manage.DeleteAuthor(ctx, librarian, herbertID))
}
