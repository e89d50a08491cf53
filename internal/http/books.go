package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/database/books"
	"github.com/locallib/catalog/internal/database/genres"
	"github.com/locallib/catalog/internal/entities"
)

// BooksController serves the book list, detail and CRUD pages.
type BooksController struct {
	books   *books.Repository
	authors *authors.Repository
	genres  *genres.Repository
	perPage int
}

func NewBooksController(booksRepo *books.Repository, authorsRepo *authors.Repository, genresRepo *genres.Repository, perPage int) *BooksController {
	return &BooksController{books: booksRepo, authors: authorsRepo, genres: genresRepo, perPage: perPage}
}

// List renders one page of the catalog.
func (bc *BooksController) List(c *gin.Context) {
	page := pageParam(c)
	pageBooks, total, err := bc.books.List(bc.perPage, (page-1)*bc.perPage)
	if err != nil {
		renderServerError(c, err, "book list")
		return
	}

	// A page past the end clamps to the last page and refetches.
	pagination := newPagination(page, bc.perPage, total)
	if pagination.Page != page {
		pageBooks, _, err = bc.books.List(pagination.PerPage, pagination.Offset())
		if err != nil {
			renderServerError(c, err, "book list")
			return
		}
	}

	c.HTML(http.StatusOK, "book_list", gin.H{
		"Title":      "Books",
		"User":       auth.CurrentUser(c),
		"Books":      pageBooks,
		"Pagination": pagination,
	})
}

// Detail renders a single book with its copies.
func (bc *BooksController) Detail(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "book detail")
		return
	}

	c.HTML(http.StatusOK, "book_detail", gin.H{
		"Title": book.Title,
		"User":  auth.CurrentUser(c),
		"Book":  book,
	})
}

// bookFormContext collects everything the create/update form needs.
func (bc *BooksController) bookFormContext(c *gin.Context, title string, book *entities.Book, formError string) (gin.H, error) {
	allAuthors, _, err := bc.authors.List(0, 0)
	if err != nil {
		return nil, err
	}
	allGenres, err := bc.genres.List()
	if err != nil {
		return nil, err
	}

	selected := make(map[uint]bool, len(book.Genres))
	for _, g := range book.Genres {
		selected[g.ID] = true
	}

	return gin.H{
		"Title":          title,
		"User":           auth.CurrentUser(c),
		"Book":           book,
		"Authors":        allAuthors,
		"Genres":         allGenres,
		"SelectedGenres": selected,
		"Error":          formError,
		"CSRFToken":      auth.GetCSRFToken(c),
	}, nil
}

// bindBookForm reads the submitted form into book. Every field is written,
// so an empty input clears the stored value.
func (bc *BooksController) bindBookForm(c *gin.Context, book *entities.Book) string {
	book.Title = c.PostForm("title")
	book.Summary = c.PostForm("summary")
	book.ISBN = c.PostForm("isbn")
	book.Language = c.PostForm("language")

	book.AuthorID = nil
	if raw := c.PostForm("author_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return "Invalid author selection"
		}
		authorID := uint(id)
		book.AuthorID = &authorID
	}

	var genreIDs []uint
	for _, raw := range c.PostFormArray("genre_ids") {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return "Invalid genre selection"
		}
		genreIDs = append(genreIDs, uint(id))
	}
	selectedGenres, err := bc.genres.GetByIDs(genreIDs)
	if err != nil {
		return "Invalid genre selection"
	}
	book.Genres = selectedGenres

	if book.Title == "" {
		return "Title is required"
	}
	if book.ISBN == "" {
		return "ISBN is required"
	}
	if len(book.ISBN) > 13 {
		return "ISBN must be at most 13 characters"
	}
	return ""
}

// CreateForm renders an empty book form.
func (bc *BooksController) CreateForm(c *gin.Context) {
	data, err := bc.bookFormContext(c, "Create Book", &entities.Book{}, "")
	if err != nil {
		renderServerError(c, err, "book create form")
		return
	}
	c.HTML(http.StatusOK, "book_form", data)
}

// Create handles the book creation submission.
func (bc *BooksController) Create(c *gin.Context) {
	var book entities.Book
	if msg := bc.bindBookForm(c, &book); msg != "" {
		bc.redisplayBookForm(c, "Create Book", &book, msg)
		return
	}

	if err := bc.books.Create(&book); err != nil {
		bc.redisplayBookForm(c, "Create Book", &book, "Could not save book: the ISBN may already be in use")
		return
	}

	c.Redirect(http.StatusFound, book.URL())
}

// UpdateForm renders the form pre-filled with the book's current fields.
func (bc *BooksController) UpdateForm(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "book update form")
		return
	}

	data, err := bc.bookFormContext(c, "Update Book", book, "")
	if err != nil {
		renderServerError(c, err, "book update form")
		return
	}
	c.HTML(http.StatusOK, "book_form", data)
}

// Update handles the book update submission.
func (bc *BooksController) Update(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "book update")
		return
	}

	if msg := bc.bindBookForm(c, book); msg != "" {
		bc.redisplayBookForm(c, "Update Book", book, msg)
		return
	}

	if err := bc.books.Update(book); err != nil {
		bc.redisplayBookForm(c, "Update Book", book, "Could not save book: the ISBN may already be in use")
		return
	}

	c.Redirect(http.StatusFound, book.URL())
}

// DeleteConfirm renders the delete confirmation page.
func (bc *BooksController) DeleteConfirm(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := bc.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "book delete form")
		return
	}

	c.HTML(http.StatusOK, "book_confirm_delete", gin.H{
		"Title":     "Delete Book",
		"User":      auth.CurrentUser(c),
		"Book":      book,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Delete removes a book. A book still referenced by copies is refused and
// the confirmation page re-rendered with the reason.
func (bc *BooksController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	err := bc.books.Delete(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		if errors.Is(err, books.ErrBookInUse) {
			book, getErr := bc.books.GetByID(id)
			if getErr != nil {
				renderServerError(c, getErr, "book delete")
				return
			}
			c.HTML(http.StatusOK, "book_confirm_delete", gin.H{
				"Title":     "Delete Book",
				"User":      auth.CurrentUser(c),
				"Book":      book,
				"Error":     "This book still has copies in the catalog and cannot be deleted.",
				"CSRFToken": auth.GetCSRFToken(c),
			})
			return
		}
		renderServerError(c, err, "book delete")
		return
	}

	c.Redirect(http.StatusFound, "/books/")
}

func (bc *BooksController) redisplayBookForm(c *gin.Context, title string, book *entities.Book, msg string) {
	data, err := bc.bookFormContext(c, title, book, msg)
	if err != nil {
		renderServerError(c, err, "book form")
		return
	}
	c.HTML(http.StatusOK, "book_form", data)
}
