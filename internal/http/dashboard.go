package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database/authors"
	"github.com/locallib/catalog/internal/database/books"
	"github.com/locallib/catalog/internal/database/genres"
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

// DashboardController renders the home page with catalog-wide counts and
// the per-session visit counter.
type DashboardController struct {
	books     *books.Repository
	instances *instances.Repository
	authors   *authors.Repository
	genres    *genres.Repository
	sessions  *auth.SessionManager
}

func NewDashboardController(
	booksRepo *books.Repository,
	instancesRepo *instances.Repository,
	authorsRepo *authors.Repository,
	genresRepo *genres.Repository,
	sessions *auth.SessionManager,
) *DashboardController {
	return &DashboardController{
		books:     booksRepo,
		instances: instancesRepo,
		authors:   authorsRepo,
		genres:    genresRepo,
		sessions:  sessions,
	}
}

// Index computes the aggregate counts shown on the dashboard. The genre
// count covers names starting with a lowercase "r" only.
func (dc *DashboardController) Index(c *gin.Context) {
	numBooks, err := dc.books.Count()
	if err != nil {
		renderServerError(c, err, "dashboard book count")
		return
	}
	numInstances, err := dc.instances.Count()
	if err != nil {
		renderServerError(c, err, "dashboard copy count")
		return
	}
	numAvailable, err := dc.instances.CountByStatus(entities.StatusAvailable)
	if err != nil {
		renderServerError(c, err, "dashboard availability count")
		return
	}
	numAuthors, err := dc.authors.Count()
	if err != nil {
		renderServerError(c, err, "dashboard author count")
		return
	}
	numGenresR, err := dc.genres.CountNameStartingWith("r")
	if err != nil {
		renderServerError(c, err, "dashboard genre count")
		return
	}

	numVisits := dc.sessions.RecordVisit(c.Request)

	c.HTML(http.StatusOK, "index", gin.H{
		"Title":                 "Local Library",
		"User":                  auth.CurrentUser(c),
		"NumBooks":              numBooks,
		"NumInstances":          numInstances,
		"NumInstancesAvailable": numAvailable,
		"NumAuthors":            numAuthors,
		"NumGenresR":            numGenresR,
		"NumVisits":             numVisits,
	})
}

// renderServerError logs the error and renders a plain 500; the cause is
// never exposed to the client.
func renderServerError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.String(http.StatusInternalServerError, "internal server error")
}
