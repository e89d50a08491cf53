package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/locallib/catalog/internal/auth"
)

// dateLayout is the wire format for every date field in the forms.
const dateLayout = "2006-01-02"

// parseIDParam reads the numeric :id route parameter. A malformed value is
// treated the same as a missing record.
func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		renderNotFound(c)
		return 0, false
	}
	return uint(id), true
}

// renderNotFound renders the shared "record not found" page.
func renderNotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, "not_found", gin.H{
		"Title": "Not Found",
		"User":  auth.CurrentUser(c),
	})
}

// parseDateField parses an optional form date. Empty input yields nil.
func parseDateField(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// formatDate renders an optional date for form inputs and tables.
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

// today truncates now to the calendar date. Dates are stored as UTC
// midnights, so the truncation happens in UTC regardless of server zone.
func today(now time.Time) time.Time {
	year, month, day := now.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Pagination carries the page window rendered below every list view.
type Pagination struct {
	Page       int
	PerPage    int
	Total      int64
	TotalPages int
}

func newPagination(page, perPage int, total int64) Pagination {
	if page < 1 {
		page = 1
	}
	totalPages := 1
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
		if totalPages < 1 {
			totalPages = 1
		}
	}
	if page > totalPages {
		page = totalPages
	}
	return Pagination{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PerPage
}

func (p Pagination) HasPrev() bool {
	return p.Page > 1
}

func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}

func (p Pagination) PrevPage() int {
	return p.Page - 1
}

func (p Pagination) NextPage() int {
	return p.Page + 1
}

// pageParam reads the ?page= query parameter, defaulting to 1.
func pageParam(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}
