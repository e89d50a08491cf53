package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/entities"
)

// defaultDateOfDeath pre-fills the author create form.
const defaultDateOfDeath = "2020-06-11"

// AuthorsController serves the author list, detail and CRUD pages.
type AuthorsController struct {
	authors *authors.Repository
	perPage int
}

func NewAuthorsController(authorsRepo *authors.Repository, perPage int) *AuthorsController {
	return &AuthorsController{authors: authorsRepo, perPage: perPage}
}

// List renders one page of authors ordered by name.
func (ac *AuthorsController) List(c *gin.Context) {
	page := pageParam(c)
	pageAuthors, total, err := ac.authors.List(ac.perPage, (page-1)*ac.perPage)
	if err != nil {
		renderServerError(c, err, "author list")
		return
	}

	// A page past the end clamps to the last page and refetches.
	pagination := newPagination(page, ac.perPage, total)
	if pagination.Page != page {
		pageAuthors, _, err = ac.authors.List(pagination.PerPage, pagination.Offset())
		if err != nil {
			renderServerError(c, err, "author list")
			return
		}
	}

	c.HTML(http.StatusOK, "author_list", gin.H{
		"Title":      "Authors",
		"User":       auth.CurrentUser(c),
		"Authors":    pageAuthors,
		"Pagination": pagination,
	})
}

// Detail renders a single author and their books.
func (ac *AuthorsController) Detail(c *gin.Context) {
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
		renderServerError(c, err, "author detail")
		return
	}

	c.HTML(http.StatusOK, "author_detail", gin.H{
		"Title":  author.DisplayName(),
		"User":   auth.CurrentUser(c),
		"Author": author,
	})
}

// authorFormData carries the raw form values so invalid input redisplays
// exactly as submitted.
type authorFormData struct {
	FirstName   string
	LastName    string
	DateOfBirth string
	DateOfDeath string
}

func (ac *AuthorsController) renderAuthorForm(c *gin.Context, title string, form authorFormData, authorID uint, formError string) {
	c.HTML(http.StatusOK, "author_form", gin.H{
		"Title":     title,
		"User":      auth.CurrentUser(c),
		"Form":      form,
		"AuthorID":  authorID,
		"Error":     formError,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// bindAuthorForm applies the submitted values to the author record. Every
// field is written, so an empty input clears the stored value.
func bindAuthorForm(form authorFormData, author *entities.Author) string {
	if form.FirstName == "" || form.LastName == "" {
		return "First and last name are required"
	}

	birth, err := parseDateField(form.DateOfBirth)
	if err != nil {
		return "Invalid date of birth"
	}
	death, err := parseDateField(form.DateOfDeath)
	if err != nil {
		return "Invalid date of death"
	}

	author.FirstName = form.FirstName
	author.LastName = form.LastName
	author.DateOfBirth = birth
	author.DateOfDeath = death
	return ""
}

func readAuthorForm(c *gin.Context) authorFormData {
	return authorFormData{
		FirstName:   c.PostForm("first_name"),
		LastName:    c.PostForm("last_name"),
		DateOfBirth: c.PostForm("date_of_birth"),
		DateOfDeath: c.PostForm("date_of_death"),
	}
}

// CreateForm renders an empty author form with the death date pre-filled.
func (ac *AuthorsController) CreateForm(c *gin.Context) {
	ac.renderAuthorForm(c, "Create Author", authorFormData{DateOfDeath: defaultDateOfDeath}, 0, "")
}

// Create handles the author creation submission.
func (ac *AuthorsController) Create(c *gin.Context) {
	form := readAuthorForm(c)

	var author entities.Author
	if msg := bindAuthorForm(form, &author); msg != "" {
		ac.renderAuthorForm(c, "Create Author", form, 0, msg)
		return
	}

	if err := ac.authors.Create(&author); err != nil {
		renderServerError(c, err, "author create")
		return
	}

	c.Redirect(http.StatusFound, author.URL())
}

// UpdateForm renders the form pre-filled with the author's current fields.
func (ac *AuthorsController) UpdateForm(c *gin.Context) {
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
		renderServerError(c, err, "author update form")
		return
	}

	form := authorFormData{
		FirstName:   author.FirstName,
		LastName:    author.LastName,
		DateOfBirth: formatDate(author.DateOfBirth),
		DateOfDeath: formatDate(author.DateOfDeath),
	}
	ac.renderAuthorForm(c, "Update Author", form, author.ID, "")
}

// Update handles the author update submission.
func (ac *AuthorsController) Update(c *gin.Context) {
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
		renderServerError(c, err, "author update")
		return
	}

	form := readAuthorForm(c)
	if msg := bindAuthorForm(form, author); msg != "" {
		ac.renderAuthorForm(c, "Update Author", form, author.ID, msg)
		return
	}

	if err := ac.authors.Update(author); err != nil {
		renderServerError(c, err, "author update")
		return
	}

	c.Redirect(http.StatusFound, author.URL())
}

// DeleteConfirm renders the delete confirmation page.
func (ac *AuthorsController) DeleteConfirm(c *gin.Context) {
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
		renderServerError(c, err, "author delete form")
		return
	}

	c.HTML(http.StatusOK, "author_confirm_delete", gin.H{
		"Title":     "Delete Author",
		"User":      auth.CurrentUser(c),
		"Author":    author,
		"CSRFToken": auth.GetCSRFToken(c),
	})
}

// Delete removes an author. Their books survive with the author reference
// nulled.
func (ac *AuthorsController) Delete(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := ac.authors.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "author delete")
		return
	}

	c.Redirect(http.StatusFound, "/authors/")
}
