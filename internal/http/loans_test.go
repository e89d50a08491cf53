package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database"
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

// fixedNow pins the renewal window so the boundary tests are deterministic.
var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func newLoansRouter(db *database.Database, user *entities.User) *gin.Engine {
	controller := NewLoansController(instances.NewRepository(db.DB), 10)
	controller.now = func() time.Time { return fixedNow }

	router := gin.New()
	router.SetHTMLTemplate(createTestTemplate())
	if user != nil {
		router.Use(func(c *gin.Context) {
			c.Set(auth.ContextKeyUser, user)
		})
	}
	router.GET("/mybooks/", controller.MyBooks)
	router.GET("/allborrowedbooks/", controller.AllBorrowed)
	router.GET("/book/:id/renew", controller.RenewForm)
	router.POST("/book/:id/renew", controller.Renew)
	return router
}

func createBorrower(t *testing.T, db *database.Database, username string) *entities.User {
	t.Helper()
	user := &entities.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, db.DB.Create(user).Error)
	return user
}

func TestLoansController_MyBooks(t *testing.T) {
	t.Run("lists only the current user's loans ordered by due date", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		me := createBorrower(t, db, "me")
		other := createBorrower(t, db, "other")

		later := fixedNow.AddDate(0, 0, 14)
		sooner := fixedNow.AddDate(0, 0, 7)
		seedInstance(t, db, book, entities.StatusOnLoan, &later, &me.ID)
		seedInstance(t, db, book, entities.StatusOnLoan, &sooner, &me.ID)
		seedInstance(t, db, book, entities.StatusOnLoan, &sooner, &other.ID)
		// available copies never show up as loans
		seedInstance(t, db, book, entities.StatusAvailable, nil, &me.ID)

		router := newLoansRouter(db, me)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/mybooks/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, 2, strings.Count(body, "[The Dispossessed"))
		assert.Less(t,
			strings.Index(body, sooner.Format(dateLayout)),
			strings.Index(body, later.Format(dateLayout)))
	})
}

func TestLoansController_AllBorrowed(t *testing.T) {
	t.Run("lists every copy regardless of status", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		me := createBorrower(t, db, "me")

		due := fixedNow.AddDate(0, 0, 7)
		onLoan := seedInstance(t, db, book, entities.StatusOnLoan, &due, &me.ID)
		available := seedInstance(t, db, book, entities.StatusAvailable, nil, nil)

		router := newLoansRouter(db, me)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/allborrowedbooks/", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "["+onLoan.ID+"]")
		assert.Contains(t, w.Body.String(), "["+available.ID+"]")
	})
}

func TestLoansController_RenewForm(t *testing.T) {
	t.Run("proposes a date three weeks ahead", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		_, book := seedCatalog(t, db)
		due := fixedNow.AddDate(0, 0, 3)
		instance := seedInstance(t, db, book, entities.StatusOnLoan, &due, nil)

		router := newLoansRouter(db, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/book/"+instance.ID+"/renew", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "proposed:2024-04-05")
	})

	t.Run("returns 404 for unknown copy", func(t *testing.T) {
		db, cleanup := setupTestDB(t)
		defer cleanup()

		router := newLoansRouter(db, nil)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/book/00000000-0000-0000-0000-000000000000/renew", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLoansController_Renew(t *testing.T) {
	renew := func(t *testing.T, router *gin.Engine, id, date string) *httptest.ResponseRecorder {
		t.Helper()
		form := url.Values{"renewal_date": {date}}
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/book/"+id+"/renew", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		router.ServeHTTP(w, req)
		return w
	}

	setup := func(t *testing.T) (*database.Database, *gin.Engine, *entities.BookInstance, func()) {
		db, cleanup := setupTestDB(t)
		_, book := seedCatalog(t, db)
		due := fixedNow.AddDate(0, 0, 3)
		instance := seedInstance(t, db, book, entities.StatusOnLoan, &due, nil)
		return db, newLoansRouter(db, nil), instance, cleanup
	}

	dueBackOf := func(t *testing.T, db *database.Database, id string) string {
		t.Helper()
		var instance entities.BookInstance
		require.NoError(t, db.DB.First(&instance, "id = ?", id).Error)
		require.NotNil(t, instance.DueBack)
		return instance.DueBack.Format(dateLayout)
	}

	t.Run("accepts a date within the window", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "2024-03-29")

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/allborrowedbooks/", w.Header().Get("Location"))
		assert.Equal(t, "2024-03-29", dueBackOf(t, db, instance.ID))
	})

	t.Run("accepts today", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "2024-03-15")

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "2024-03-15", dueBackOf(t, db, instance.ID))
	})

	t.Run("accepts exactly four weeks ahead", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "2024-04-12")

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "2024-04-12", dueBackOf(t, db, instance.ID))
	})

	t.Run("rejects a date in the past", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "2024-03-14")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "renewal in past")
		assert.Equal(t, "2024-03-18", dueBackOf(t, db, instance.ID))
	})

	t.Run("rejects a date past four weeks", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "2024-04-13")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "more than 4 weeks ahead")
		assert.Equal(t, "2024-03-18", dueBackOf(t, db, instance.ID))
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		db, router, instance, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, instance.ID, "15/03/2024")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "YYYY-MM-DD")
		assert.Equal(t, "2024-03-18", dueBackOf(t, db, instance.ID))
	})

	t.Run("returns 404 for unknown copy", func(t *testing.T) {
		_, router, _, cleanup := setup(t)
		defer cleanup()

		w := renew(t, router, "00000000-0000-0000-0000-000000000000", "2024-03-29")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
