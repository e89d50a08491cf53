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

	"github.com/locallib/catalog/internal/database"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/entities"
)

func newAuthorsRouter(db *database.Database, perPage int) *gin.Engine {
	controller := NewAuthorsController(authors.NewRepository(db.DB), perPage)

	router := gin.New()
	router.SetHTMLTemplate(createTestTemplate())
	router.GET("/authors/", controller.List)
	router.GET("/author/create", controller.CreateForm)
	router.POST("/author/create", controller.Create)
	router.GET("/author/:id", controller.Detail)
	router.POST("/author/:id/update", controller.Update)
	router.POST("/author/:id/delete", controller.Delete)
	return router
}

func TestAuthorsController_List(t *testing.T) {
	t.Run("orders by last name", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		require.NoError(t, db.DB.Create(&entities.Author{FirstName: "Terry", LastName: "Pratchett"}).Error)
		require.NoError(t, db.DB.Create(&entities.Author{FirstName: "Douglas", LastName: "Adams"}).Error)

		router := newAuthorsRouter(db, 10)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/authors/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Less(t, strings.Index(body, "Adams"), strings.Index(body, "Pratchett"))
	})
}

func TestAuthorsController_CreateForm(t *testing.T) {
	t.Run("prefills the date of death", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newAuthorsRouter(db, 10)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/author/create", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "death:2020-06-11")
	})
}

func TestAuthorsController_Create(t *testing.T) {
	t.Run("creates author and redirects to detail page", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newAuthorsRouter(db, 10)

		form := url.Values{
			"first_name":    {"Octavia"},
			"last_name":     {"Butler"},
			"date_of_birth": {"1947-06-22"},
			"date_of_death": {"2006-02-24"},
		}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/author/create", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)

		var created entities.Author
		require.NoError(t, db.DB.Where("last_name = ?", "Butler").First(&created).Error)
		assert.Equal(t, "/author/"+strconv.Itoa(int(created.ID)), w.Header().Get("Location"))
		require.NotNil(t, created.DateOfBirth)
		assert.Equal(t, "1947-06-22", created.DateOfBirth.Format(dateLayout))
	})

	t.Run("rejects invalid dates without saving", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newAuthorsRouter(db, 10)

		form := url.Values{
			"first_name":    {"Octavia"},
			"last_name":     {"Butler"},
			"date_of_birth": {"22/06/1947"},
		}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/author/create", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid date of birth")

		var count int64
		db.DB.Model(&entities.Author{}).Count(&count)
		assert.Zero(t, count)
	})
}

func TestAuthorsController_Detail(t *testing.T) {
	t.Run("renders author with books", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		author, _ := seedCatalog(t, db)
		router := newAuthorsRouter(db, 10)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/author/"+strconv.Itoa(int(author.ID)), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "author:Le Guin, Ursula")
		assert.Contains(t, w.Body.String(), "books:1")
	})

	t.Run("returns 404 for nonexistent author", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newAuthorsRouter(db, 10)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/author/99999", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestAuthorsController_Delete(t *testing.T) {
	t.Run("deletes author and keeps their books", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		author, book := seedCatalog(t, db)
		router := newAuthorsRouter(db, 10)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/author/"+strconv.Itoa(int(author.ID))+"/delete", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/authors/", w.Header().Get("Location"))

		var surviving entities.Book
		require.NoError(t, db.DB.First(&surviving, book.ID).Error)
		assert.Nil(t, surviving.AuthorID)
	})
}
