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
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

// AdminController serves the staff-only management backend. Each entity gets
// a list page with an inline create form, an edit page and a delete action.
type AdminController struct {
	books     *books.Repository
	authors   *authors.Repository
	genres    *genres.Repository
	instances *instances.Repository
	users     *auth.Service
}

func NewAdminController(
	booksRepo *books.Repository,
	authorsRepo *authors.Repository,
	genresRepo *genres.Repository,
	instancesRepo *instances.Repository,
	users *auth.Service,
) *AdminController {
	return &AdminController{
		books:     booksRepo,
		authors:   authorsRepo,
		genres:    genresRepo,
		instances: instancesRepo,
		users:     users,
	}
}

// RegisterRoutes mounts the backend under the given group. The group is
// expected to carry the staff gate already.
func (ac *AdminController) RegisterRoutes(admin *gin.RouterGroup) {
	admin.GET("/", ac.Index)

	admin.GET("/genres", ac.GenreList)
	admin.POST("/genres", ac.GenreCreate)
	admin.GET("/genres/:id", ac.GenreEdit)
	admin.POST("/genres/:id", ac.GenreUpdate)
	admin.POST("/genres/:id/delete", ac.GenreDelete)

	admin.GET("/authors", ac.AuthorList)
	admin.POST("/authors", ac.AuthorCreate)
	admin.GET("/authors/:id", ac.AuthorEdit)
	admin.POST("/authors/:id", ac.AuthorUpdate)
	admin.POST("/authors/:id/delete", ac.AuthorDelete)

	admin.GET("/books", ac.BookList)
	admin.POST("/books", ac.BookCreate)
	admin.GET("/books/:id", ac.BookEdit)
	admin.POST("/books/:id", ac.BookUpdate)
	admin.POST("/books/:id/delete", ac.BookDelete)

	admin.GET("/instances", ac.InstanceList)
	admin.POST("/instances", ac.InstanceCreate)
	admin.GET("/instances/:id", ac.InstanceEdit)
	admin.POST("/instances/:id", ac.InstanceUpdate)
	admin.POST("/instances/:id/delete", ac.InstanceDelete)
}

// Index shows the entity overview with record counts.
func (ac *AdminController) Index(c *gin.Context) {
	numBooks, err := ac.books.Count()
	if err != nil {
		renderServerError(c, err, "admin index")
		return
	}
	numAuthors, err := ac.authors.Count()
	if err != nil {
		renderServerError(c, err, "admin index")
		return
	}
	numInstances, err := ac.instances.Count()
	if err != nil {
		renderServerError(c, err, "admin index")
		return
	}
	allGenres, err := ac.genres.List()
	if err != nil {
		renderServerError(c, err, "admin index")
		return
	}

	c.HTML(http.StatusOK, "admin_index", gin.H{
		"Title":        "Site administration",
		"User":         auth.CurrentUser(c),
		"NumBooks":     numBooks,
		"NumAuthors":   numAuthors,
		"NumInstances": numInstances,
		"NumGenres":    len(allGenres),
	})
}

// --- Genres ---

func (ac *AdminController) GenreList(c *gin.Context) {
	allGenres, err := ac.genres.List()
	if err != nil {
		renderServerError(c, err, "admin genre list")
		return
	}
	c.HTML(http.StatusOK, "admin_genre_list", gin.H{
		"Title":     "Genres",
		"User":      auth.CurrentUser(c),
		"Genres":    allGenres,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) GenreCreate(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		c.Redirect(http.StatusFound, "/admin/genres")
		return
	}
	if err := ac.genres.Create(&entities.Genre{Name: name}); err != nil {
		renderServerError(c, err, "admin genre create")
		return
	}
	c.Redirect(http.StatusFound, "/admin/genres")
}

func (ac *AdminController) GenreEdit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	genre, err := ac.genres.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin genre edit")
		return
	}
	c.HTML(http.StatusOK, "admin_genre_form", gin.H{
		"Title":     "Change genre",
		"User":      auth.CurrentUser(c),
		"Genre":     genre,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) GenreUpdate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	genre, err := ac.genres.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin genre update")
		return
	}
	genre.Name = c.PostForm("name")
	if err := ac.genres.Update(genre); err != nil {
		renderServerError(c, err, "admin genre update")
		return
	}
	c.Redirect(http.StatusFound, "/admin/genres")
}

func (ac *AdminController) GenreDelete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := ac.genres.Delete(id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		renderServerError(c, err, "admin genre delete")
		return
	}
	c.Redirect(http.StatusFound, "/admin/genres")
}

// --- Authors ---

func (ac *AdminController) AuthorList(c *gin.Context) {
	allAuthors, _, err := ac.authors.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin author list")
		return
	}
	c.HTML(http.StatusOK, "admin_author_list", gin.H{
		"Title":     "Authors",
		"User":      auth.CurrentUser(c),
		"Authors":   allAuthors,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) AuthorCreate(c *gin.Context) {
	form := readAuthorForm(c)
	var author entities.Author
	if msg := bindAuthorForm(form, &author); msg != "" {
		c.Redirect(http.StatusFound, "/admin/authors")
		return
	}
	if err := ac.authors.Create(&author); err != nil {
		renderServerError(c, err, "admin author create")
		return
	}
	c.Redirect(http.StatusFound, "/admin/authors")
}

// AuthorEdit shows the author form with their books listed inline.
func (ac *AdminController) AuthorEdit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	author, err := ac.authors.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin author edit")
		return
	}
	c.HTML(http.StatusOK, "admin_author_form", gin.H{
		"Title":     "Change author",
		"User":      auth.CurrentUser(c),
		"Author":    author,
		"Form": authorFormData{
			FirstName:   author.FirstName,
			LastName:    author.LastName,
			DateOfBirth: formatDate(author.DateOfBirth),
			DateOfDeath: formatDate(author.DateOfDeath),
		},
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) AuthorUpdate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	author, err := ac.authors.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin author update")
		return
	}
	form := readAuthorForm(c)
	if msg := bindAuthorForm(form, author); msg != "" {
		c.HTML(http.StatusOK, "admin_author_form", gin.H{
			"Title":     "Change author",
			"User":      auth.CurrentUser(c),
			"Author":    author,
			"Form":      form,
			"Error":     msg,
			"CSRFToken": auth.GetCSRFToken(c),
		})
		return
	}
	if err := ac.authors.Update(author); err != nil {
		renderServerError(c, err, "admin author update")
		return
	}
	c.Redirect(http.StatusFound, "/admin/authors")
}

func (ac *AdminController) AuthorDelete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := ac.authors.Delete(id); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		renderServerError(c, err, "admin author delete")
		return
	}
	c.Redirect(http.StatusFound, "/admin/authors")
}

// --- Books ---

func (ac *AdminController) BookList(c *gin.Context) {
	allBooks, _, err := ac.books.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin book list")
		return
	}
	allAuthors, _, err := ac.authors.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin book list")
		return
	}
	allGenres, err := ac.genres.List()
	if err != nil {
		renderServerError(c, err, "admin book list")
		return
	}
	c.HTML(http.StatusOK, "admin_book_list", gin.H{
		"Title":     "Books",
		"User":      auth.CurrentUser(c),
		"Books":     allBooks,
		"Authors":   allAuthors,
		"Genres":    allGenres,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) BookCreate(c *gin.Context) {
	var book entities.Book
	if msg := ac.bindAdminBookForm(c, &book); msg != "" {
		c.Redirect(http.StatusFound, "/admin/books")
		return
	}
	if err := ac.books.Create(&book); err != nil {
		renderServerError(c, err, "admin book create")
		return
	}
	c.Redirect(http.StatusFound, "/admin/books")
}

// BookEdit shows the book form with its copies listed inline.
func (ac *AdminController) BookEdit(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := ac.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin book edit")
		return
	}
	allAuthors, _, err := ac.authors.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin book edit")
		return
	}
	allGenres, err := ac.genres.List()
	if err != nil {
		renderServerError(c, err, "admin book edit")
		return
	}
	selected := make(map[uint]bool, len(book.Genres))
	for _, g := range book.Genres {
		selected[g.ID] = true
	}
	c.HTML(http.StatusOK, "admin_book_form", gin.H{
		"Title":          "Change book",
		"User":           auth.CurrentUser(c),
		"Book":           book,
		"Authors":        allAuthors,
		"Genres":         allGenres,
		"SelectedGenres": selected,
		"CSRFToken":      auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) BookUpdate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	book, err := ac.books.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin book update")
		return
	}
	if msg := ac.bindAdminBookForm(c, book); msg != "" {
		c.Redirect(http.StatusFound, "/admin/books/"+strconv.FormatUint(uint64(id), 10))
		return
	}
	if err := ac.books.Update(book); err != nil {
		renderServerError(c, err, "admin book update")
		return
	}
	c.Redirect(http.StatusFound, "/admin/books")
}

// BookDelete refuses while copies still reference the book, matching the
// public confirmation page behavior.
func (ac *AdminController) BookDelete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	err := ac.books.Delete(id)
	if err != nil {
		if errors.Is(err, books.ErrBookInUse) {
			c.Redirect(http.StatusFound, "/admin/books/"+strconv.FormatUint(uint64(id), 10))
			return
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			renderServerError(c, err, "admin book delete")
			return
		}
	}
	c.Redirect(http.StatusFound, "/admin/books")
}

func (ac *AdminController) bindAdminBookForm(c *gin.Context, book *entities.Book) string {
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
	selectedGenres, err := ac.genres.GetByIDs(genreIDs)
	if err != nil {
		return "Invalid genre selection"
	}
	book.Genres = selectedGenres

	if book.Title == "" || book.ISBN == "" {
		return "Title and ISBN are required"
	}
	return ""
}

// --- Book copies ---

// InstanceList shows every copy with status and due date filters.
func (ac *AdminController) InstanceList(c *gin.Context) {
	status := entities.LoanStatus(c.Query("status"))
	if !status.Valid() {
		status = ""
	}
	dueBefore, err := parseDateField(c.Query("due_before"))
	if err != nil {
		dueBefore = nil
	}
	dueAfter, err := parseDateField(c.Query("due_after"))
	if err != nil {
		dueAfter = nil
	}

	copies, err := ac.instances.Filter(status, dueBefore, dueAfter)
	if err != nil {
		renderServerError(c, err, "admin copy list")
		return
	}
	allBooks, _, err := ac.books.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin copy list")
		return
	}
	allUsers, err := ac.users.ListUsers()
	if err != nil {
		renderServerError(c, err, "admin copy list")
		return
	}

	c.HTML(http.StatusOK, "admin_instance_list", gin.H{
		"Title":     "Book copies",
		"User":      auth.CurrentUser(c),
		"Instances": copies,
		"Books":     allBooks,
		"Users":     allUsers,
		"Statuses":  entities.LoanStatuses(),
		"Status":    string(status),
		"DueBefore": formatDate(dueBefore),
		"DueAfter":  formatDate(dueAfter),
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) InstanceCreate(c *gin.Context) {
	var instance entities.BookInstance
	if msg := ac.bindInstanceForm(c, &instance); msg != "" {
		c.Redirect(http.StatusFound, "/admin/instances")
		return
	}
	if err := ac.instances.Create(&instance); err != nil {
		renderServerError(c, err, "admin copy create")
		return
	}
	c.Redirect(http.StatusFound, "/admin/instances")
}

func (ac *AdminController) InstanceEdit(c *gin.Context) {
	instance, err := ac.instances.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin copy edit")
		return
	}
	allBooks, _, err := ac.books.List(0, 0)
	if err != nil {
		renderServerError(c, err, "admin copy edit")
		return
	}
	allUsers, err := ac.users.ListUsers()
	if err != nil {
		renderServerError(c, err, "admin copy edit")
		return
	}
	c.HTML(http.StatusOK, "admin_instance_form", gin.H{
		"Title":     "Change book copy",
		"User":      auth.CurrentUser(c),
		"Instance":  instance,
		"Books":     allBooks,
		"Users":     allUsers,
		"Statuses":  entities.LoanStatuses(),
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

func (ac *AdminController) InstanceUpdate(c *gin.Context) {
	instance, err := ac.instances.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "admin copy update")
		return
	}
	if msg := ac.bindInstanceForm(c, instance); msg != "" {
		c.Redirect(http.StatusFound, "/admin/instances/"+instance.ID)
		return
	}
	if err := ac.instances.Update(instance); err != nil {
		renderServerError(c, err, "admin copy update")
		return
	}
	c.Redirect(http.StatusFound, "/admin/instances")
}

func (ac *AdminController) InstanceDelete(c *gin.Context) {
	if err := ac.instances.Delete(c.Param("id")); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		renderServerError(c, err, "admin copy delete")
		return
	}
	c.Redirect(http.StatusFound, "/admin/instances")
}

func (ac *AdminController) bindInstanceForm(c *gin.Context, instance *entities.BookInstance) string {
	rawBook := c.PostForm("book_id")
	bookID, err := strconv.ParseUint(rawBook, 10, 32)
	if err != nil {
		return "A book is required"
	}
	instance.BookID = uint(bookID)
	instance.Imprint = c.PostForm("imprint")

	status := entities.LoanStatus(c.PostForm("status"))
	if !status.Valid() {
		return "Invalid status"
	}
	instance.Status = status

	dueBack, err := parseDateField(c.PostForm("due_back"))
	if err != nil {
		return "Invalid due date"
	}
	instance.DueBack = dueBack

	instance.BorrowerID = nil
	if raw := c.PostForm("borrower_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return "Invalid borrower selection"
		}
		borrowerID := uint(id)
		instance.BorrowerID = &borrowerID
	}
	return ""
}
