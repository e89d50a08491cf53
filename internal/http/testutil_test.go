package http

import (
	"html/template"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/locallib/catalog/internal/database"
	"github.com/locallib/catalog/internal/entities"
)

func setupTestDB(t *testing.T) (*database.Database, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

// createTestTemplate covers every page name the controllers render, emitting
// just enough markers for assertions.
func createTestTemplate() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"formatDate": formatDate,
	}).Parse(`
{{define "index"}}books:{{.NumBooks}} copies:{{.NumInstances}} available:{{.NumInstancesAvailable}} authors:{{.NumAuthors}} genres_r:{{.NumGenresR}} visits:{{.NumVisits}}{{end}}
{{define "book_list"}}{{range .Books}}[{{.Title}}]{{end}} page:{{.Pagination.Page}}/{{.Pagination.TotalPages}}{{end}}
{{define "book_detail"}}book:{{.Book.Title}} isbn:{{.Book.ISBN}} copies:{{len .Book.Instances}}{{end}}
{{define "book_form"}}form:{{.Title}} error:{{.Error}}{{end}}
{{define "book_confirm_delete"}}delete:{{.Book.Title}} error:{{.Error}}{{end}}
{{define "author_list"}}{{range .Authors}}[{{.DisplayName}}]{{end}} page:{{.Pagination.Page}}/{{.Pagination.TotalPages}}{{end}}
{{define "author_detail"}}author:{{.Author.DisplayName}} books:{{len .Author.Books}}{{end}}
{{define "author_form"}}form:{{.Title}} death:{{.Form.DateOfDeath}} error:{{.Error}}{{end}}
{{define "author_confirm_delete"}}delete:{{.Author.DisplayName}}{{end}}
{{define "borrowed_user"}}{{range .Loans}}[{{.Book.Title}}:{{formatDate .DueBack}}]{{end}}{{end}}
{{define "borrowed_all"}}{{range .Loans}}[{{.ID}}]{{end}}{{end}}
{{define "renew_form"}}renew:{{.Instance.ID}} proposed:{{.RenewalDate}} error:{{.Error}}{{end}}
{{define "not_found"}}record not found{{end}}
{{define "admin_index"}}admin books:{{.NumBooks}}{{end}}
{{define "admin_genre_list"}}{{range .Genres}}[{{.Name}}]{{end}}{{end}}
{{define "admin_genre_form"}}genre:{{.Genre.Name}}{{end}}
{{define "admin_author_list"}}{{range .Authors}}[{{.DisplayName}}]{{end}}{{end}}
{{define "admin_author_form"}}author:{{.Author.DisplayName}}{{end}}
{{define "admin_book_list"}}{{range .Books}}[{{.Title}}]{{end}}{{end}}
{{define "admin_book_form"}}book:{{.Book.Title}}{{end}}
{{define "admin_instance_list"}}{{range .Instances}}[{{.ID}}:{{.Status}}]{{end}}{{end}}
{{define "admin_instance_form"}}copy:{{.Instance.ID}}{{end}}
`))
}

func seedCatalog(t *testing.T, db *database.Database) (*entities.Author, *entities.Book) {
	t.Helper()

	author := &entities.Author{FirstName: "Ursula", LastName: "Le Guin"}
	require.NoError(t, db.DB.Create(author).Error)

	book := &entities.Book{
		Title:    "The Dispossessed",
		AuthorID: &author.ID,
		Summary:  "An ambiguous utopia.",
		ISBN:     "9780061054884",
		Language: "English",
	}
	require.NoError(t, db.DB.Create(book).Error)
	return author, book
}

func seedInstance(t *testing.T, db *database.Database, book *entities.Book, status entities.LoanStatus, dueBack *time.Time, borrowerID *uint) *entities.BookInstance {
	t.Helper()
	instance := &entities.BookInstance{
		BookID:     book.ID,
		Imprint:    "Test Imprint",
		Status:     status,
		DueBack:    dueBack,
		BorrowerID: borrowerID,
	}
	require.NoError(t, db.DB.Create(instance).Error)
	return instance
}
