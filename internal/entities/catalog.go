package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoanStatus is the availability state of a single book copy.
type LoanStatus string

const (
	StatusMaintenance LoanStatus = "m"
	StatusOnLoan      LoanStatus = "o"
	StatusAvailable   LoanStatus = "a"
	StatusReserved    LoanStatus = "r"
)

var loanStatusLabels = map[LoanStatus]string{
	StatusMaintenance: "Maintenance",
	StatusOnLoan:      "On loan",
	StatusAvailable:   "Available",
	StatusReserved:    "Reserved",
}

// Label returns the human-readable name of the status.
func (s LoanStatus) Label() string {
	if label, ok := loanStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Valid reports whether s is one of the known loan statuses.
func (s LoanStatus) Valid() bool {
	_, ok := loanStatusLabels[s]
	return ok
}

// LoanStatuses lists all statuses in display order, for form selects.
func LoanStatuses() []LoanStatus {
	return []LoanStatus{StatusMaintenance, StatusOnLoan, StatusAvailable, StatusReserved}
}

// Genre is a book classification (e.g. Science Fiction). Books reference
// genres many-to-many; a genre owns nothing.
type Genre struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Author owns zero or more books. Deleting an author does not delete its
// books; their author reference is nulled instead.
type Author struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	FirstName   string     `gorm:"size:100" json:"first_name"`
	LastName    string     `gorm:"index;size:100" json:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	DateOfDeath *time.Time `json:"date_of_death,omitempty"`
	Books       []Book     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"books,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName renders the author as "Last, First".
func (a *Author) DisplayName() string {
	return fmt.Sprintf("%s, %s", a.LastName, a.FirstName)
}

// URL returns the address of the author's detail page.
func (a *Author) URL() string {
	return fmt.Sprintf("/author/%d", a.ID)
}

// Book is a title in the catalog, not a physical copy. Copies are tracked
// as BookInstance records.
type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"index;size:200" json:"title"`
	AuthorID  *uint          `gorm:"index" json:"author_id,omitempty"`
	Author    *Author        `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"author,omitempty"`
	Summary   string         `gorm:"size:1000" json:"summary"`
	ISBN      string         `gorm:"column:isbn;uniqueIndex;size:13" json:"isbn"`
	Language  string         `gorm:"size:30" json:"language"`
	Genres    []Genre        `gorm:"many2many:book_genres;" json:"genres,omitempty"`
	Instances []BookInstance `gorm:"foreignKey:BookID" json:"instances,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// URL returns the address of the book's detail page.
func (b *Book) URL() string {
	return fmt.Sprintf("/book/%d", b.ID)
}

// DisplayGenre joins up to three genre names for compact list display.
func (b *Book) DisplayGenre() string {
	names := make([]string, 0, 3)
	for i, genre := range b.Genres {
		if i == 3 {
			break
		}
		names = append(names, genre.Name)
	}
	return strings.Join(names, ", ")
}

// AuthorName returns the author's display name, or empty when the author
// reference has been nulled.
func (b *Book) AuthorName() string {
	if b.Author == nil {
		return ""
	}
	return b.Author.DisplayName()
}

// BookInstance is one physical, lendable copy of a book. Its primary key is
// a UUID generated at creation so identifiers neither expose collection size
// nor are guessable. A book cannot be deleted while copies reference it.
type BookInstance struct {
	ID         string     `gorm:"primaryKey;size:36" json:"id"`
	BookID     uint       `gorm:"index" json:"book_id"`
	Book       *Book      `gorm:"foreignKey:BookID;constraint:OnDelete:RESTRICT" json:"book,omitempty"`
	Imprint    string     `gorm:"size:200" json:"imprint"`
	DueBack    *time.Time `gorm:"index" json:"due_back,omitempty"`
	Status     LoanStatus `gorm:"size:1;default:'m'" json:"status"`
	BorrowerID *uint      `gorm:"index" json:"borrower_id,omitempty"`
	Borrower   *User      `gorm:"foreignKey:BorrowerID;constraint:OnDelete:SET NULL" json:"borrower,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BeforeCreate assigns a fresh UUID when none was supplied.
func (bi *BookInstance) BeforeCreate(tx *gorm.DB) error {
	if bi.ID == "" {
		bi.ID = uuid.NewString()
	}
	if bi.Status == "" {
		bi.Status = StatusMaintenance
	}
	return nil
}

// Label renders the copy as "id (book title)".
func (bi *BookInstance) Label() string {
	title := ""
	if bi.Book != nil {
		title = bi.Book.Title
	}
	return fmt.Sprintf("%s (%s)", bi.ID, title)
}

// IsOverdue reports whether the copy's due date is set and strictly before
// the calendar date of now. An unset due date is never overdue. Due dates
// are stored as UTC midnights, so the comparison truncates now in UTC.
func (bi *BookInstance) IsOverdue(now time.Time) bool {
	if bi.DueBack == nil {
		return false
	}
	year, month, day := now.UTC().Date()
	today := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return bi.DueBack.Before(today)
}

// Overdue is the template-facing variant of IsOverdue.
func (bi *BookInstance) Overdue() bool {
	return bi.IsOverdue(time.Now())
}

func (Genre) TableName() string {
	return "genres"
}

func (Author) TableName() string {
	return "authors"
}

func (Book) TableName() string {
	return "books"
}

func (BookInstance) TableName() string {
	return "book_instances"
}
