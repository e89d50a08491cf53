package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/config"
	"github.com/locallib/catalog/internal/database"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/database/books"
	"github.com/locallib/catalog/internal/database/genres"
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

func newAdminRouter(db *database.Database) *gin.Engine {
	controller := NewAdminController(
		books.NewRepository(db.DB),
		authors.NewRepository(db.DB),
		genres.NewRepository(db.DB),
		instances.NewRepository(db.DB),
		auth.NewService(db.DB, config.Auth{BcryptCost: 4}),
	)

	router := gin.New()
	router.SetHTMLTemplate(createTestTemplate())
	controller.RegisterRoutes(router.Group("/admin"))
	return router
}

func postForm(t *testing.T, router *gin.Engine, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	router.ServeHTTP(w, req)
	return w
}

func TestAdminController_Genres(t *testing.T) {
	t.Run("creates, renames and deletes a genre", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newAdminRouter(db)

		w := postForm(t, router, "/admin/genres", url.Values{"name": {"Horror"}})
		assert.Equal(t, http.StatusFound, w.Code)

		var genre entities.Genre
		require.NoError(t, db.DB.Where("name = ?", "Horror").First(&genre).Error)

		id := strconv.Itoa(int(genre.ID))
		w = postForm(t, router, "/admin/genres/"+id, url.Values{"name": {"Gothic Horror"}})
		assert.Equal(t, http.StatusFound, w.Code)

		require.NoError(t, db.DB.First(&genre, genre.ID).Error)
		assert.Equal(t, "Gothic Horror", genre.Name)

		w = postForm(t, router, "/admin/genres/"+id+"/delete", nil)
		assert.Equal(t, http.StatusFound, w.Code)

		var count int64
		db.DB.Model(&entities.Genre{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestAdminController_InstanceList(t *testing.T) {
	t.Run("filters by status", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		onLoan := seedInstance(t, db, book, entities.StatusOnLoan, nil, nil)
		available := seedInstance(t, db, book, entities.StatusAvailable, nil, nil)

		router := newAdminRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/instances?status=o", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), onLoan.ID)
		assert.NotContains(t, w.Body.String(), available.ID)
	})

	t.Run("ignores an unknown status value", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		instance := seedInstance(t, db, book, entities.StatusOnLoan, nil, nil)

		router := newAdminRouter(db)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/admin/instances?status=zz", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), instance.ID)
	})
}

func TestAdminController_InstanceUpdate(t *testing.T) {
	t.Run("assigns a borrower and due date", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		instance := seedInstance(t, db, book, entities.StatusAvailable, nil, nil)
		borrower := createBorrower(t, db, "reader")

		router := newAdminRouter(db)

		form := url.Values{
			"book_id":     {strconv.Itoa(int(book.ID))},
			"imprint":     {"Test Imprint"},
			"status":      {"o"},
			"due_back":    {"2024-06-01"},
			"borrower_id": {strconv.Itoa(int(borrower.ID))},
		}
		w := postForm(t, router, "/admin/instances/"+instance.ID, form)
		assert.Equal(t, http.StatusFound, w.Code)

		var updated entities.BookInstance
		require.NoError(t, db.DB.First(&updated, "id = ?", instance.ID).Error)
		assert.Equal(t, entities.StatusOnLoan, updated.Status)
		require.NotNil(t, updated.BorrowerID)
		assert.Equal(t, borrower.ID, *updated.BorrowerID)
		require.NotNil(t, updated.DueBack)
		assert.Equal(t, "2024-06-01", updated.DueBack.Format(dateLayout))
	})

	t.Run("rejects an invalid status without saving", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		instance := seedInstance(t, db, book, entities.StatusAvailable, nil, nil)

		router := newAdminRouter(db)

		form := url.Values{
			"book_id": {strconv.Itoa(int(book.ID))},
			"status":  {"x"},
		}
		w := postForm(t, router, "/admin/instances/"+instance.ID, form)
		assert.Equal(t, http.StatusFound, w.Code)

		var unchanged entities.BookInstance
		require.NoError(t, db.DB.First(&unchanged, "id = ?", instance.ID).Error)
		assert.Equal(t, entities.StatusAvailable, unchanged.Status)
	})
}

func TestAdminController_BookDelete(t *testing.T) {
	t.Run("refuses while copies exist", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		seedInstance(t, db, book, entities.StatusAvailable, nil, nil)

		router := newAdminRouter(db)

		id := strconv.Itoa(int(book.ID))
		w := postForm(t, router, "/admin/books/"+id+"/delete", nil)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/admin/books/"+id, w.Header().Get("Location"))

		var count int64
		db.DB.Model(&entities.Book{}).Count(&count)
		assert.EqualValues(t, 1, count)
	})
}
