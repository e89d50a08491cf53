package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/auth"
	"github.com/locallib/catalog/internal/database/instances"
	"github.com/locallib/catalog/internal/entities"
)

const (
	// proposedRenewalWeeks is the default loan extension offered in the form.
	proposedRenewalWeeks = 3
	// maxRenewalWeeks bounds how far ahead a loan may be renewed.
	maxRenewalWeeks = 4
)

// LoansController serves the borrowed-copy lists and the renewal workflow.
type LoansController struct {
	instances *instances.Repository
	perPage   int
	// now is swappable so renewal window tests can pin the clock.
	now func() time.Time
}

func NewLoansController(instancesRepo *instances.Repository, perPage int) *LoansController {
	return &LoansController{instances: instancesRepo, perPage: perPage, now: time.Now}
}

// MyBooks lists the copies currently on loan to the signed-in user.
func (lc *LoansController) MyBooks(c *gin.Context) {
	user := auth.CurrentUser(c)
	loans, err := lc.instances.ListByBorrower(user.ID)
	if err != nil {
		renderServerError(c, err, "my books")
		return
	}

	c.HTML(http.StatusOK, "borrowed_user", gin.H{
		"Title": "My Borrowed Books",
		"User":  user,
		"Loans": loans,
		"Now":   today(lc.now()),
	})
}

// AllBorrowed lists every copy in the catalog ordered by due date, so the
// most overdue copies come first.
func (lc *LoansController) AllBorrowed(c *gin.Context) {
	page := pageParam(c)
	loans, total, err := lc.instances.List(lc.perPage, (page-1)*lc.perPage)
	if err != nil {
		renderServerError(c, err, "all borrowed")
		return
	}

	// A page past the end clamps to the last page and refetches.
	pagination := newPagination(page, lc.perPage, total)
	if pagination.Page != page {
		loans, _, err = lc.instances.List(pagination.PerPage, pagination.Offset())
		if err != nil {
			renderServerError(c, err, "all borrowed")
			return
		}
	}

	c.HTML(http.StatusOK, "borrowed_all", gin.H{
		"Title":      "All Borrowed Books",
		"User":       auth.CurrentUser(c),
		"Loans":      loans,
		"Pagination": pagination,
		"Now":        today(lc.now()),
	})
}

// RenewForm renders the renewal form with a proposed date three weeks out.
func (lc *LoansController) RenewForm(c *gin.Context) {
	instance, ok := lc.loadInstance(c)
	if !ok {
		return
	}

	proposed := today(lc.now()).AddDate(0, 0, proposedRenewalWeeks*7)
	lc.renderRenewForm(c, instance, proposed.Format(dateLayout), "")
}

// Renew validates the submitted date and persists it. An invalid date
// re-renders the form without touching the loan.
func (lc *LoansController) Renew(c *gin.Context) {
	instance, ok := lc.loadInstance(c)
	if !ok {
		return
	}

	raw := c.PostForm("renewal_date")
	renewal, err := time.Parse(dateLayout, raw)
	if err != nil {
		lc.renderRenewForm(c, instance, raw, "Invalid date - enter a date in YYYY-MM-DD format")
		return
	}

	if msg := lc.validateRenewalDate(renewal); msg != "" {
		lc.renderRenewForm(c, instance, raw, msg)
		return
	}

	if err := lc.instances.UpdateDueBack(instance.ID, renewal); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return
		}
		renderServerError(c, err, "renew loan")
		return
	}

	c.Redirect(http.StatusFound, "/allborrowedbooks/")
}

// validateRenewalDate checks the renewal window. Both bounds are inclusive:
// today and the date exactly four weeks ahead are accepted.
func (lc *LoansController) validateRenewalDate(renewal time.Time) string {
	now := today(lc.now())
	if renewal.Before(now) {
		return "Invalid date - renewal in past"
	}
	if renewal.After(now.AddDate(0, 0, maxRenewalWeeks*7)) {
		return "Invalid date - renewal more than 4 weeks ahead"
	}
	return ""
}

func (lc *LoansController) loadInstance(c *gin.Context) (*entities.BookInstance, bool) {
	instance, err := lc.instances.GetByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			renderNotFound(c)
			return nil, false
		}
		renderServerError(c, err, "load loan")
		return nil, false
	}
	return instance, true
}

func (lc *LoansController) renderRenewForm(c *gin.Context, instance *entities.BookInstance, dateValue, formError string) {
	c.HTML(http.StatusOK, "renew_form", gin.H{
		"Title":       "Renew Loan",
		"User":        auth.CurrentUser(c),
		"Instance":    instance,
		"RenewalDate": dateValue,
		"Error":       formError,
		"CSRFToken":   auth.GetCSRFToken(c),
	})
}
