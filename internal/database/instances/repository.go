// Package instances provides database operations for individual book copies.
package instances

import (
	"time"

	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/entities"
)

// Repository handles all book copy database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book copy repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a copy with its book preloaded.
func (r *Repository) GetByID(id string) (*entities.BookInstance, error) {
	var instance entities.BookInstance
	err := r.db.Preload("Book").Preload("Borrower").
		Where("id = ?", id).First(&instance).Error
	if err != nil {
		return nil, err
	}
	return &instance, nil
}

// ListByBorrower returns the copies currently on loan to one user, soonest
// due first.
func (r *Repository) ListByBorrower(userID uint) ([]entities.BookInstance, error) {
	var loans []entities.BookInstance
	err := r.db.Preload("Book").
		Where("borrower_id = ? AND status = ?", userID, entities.StatusOnLoan).
		Order("due_back ASC").
		Find(&loans).Error
	return loans, err
}

// List returns one page of all copies ordered by due date ascending, so the
// most overdue sort first, together with the total copy count.
func (r *Repository) List(limit, offset int) ([]entities.BookInstance, int64, error) {
	var total int64
	if err := r.db.Model(&entities.BookInstance{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var instances []entities.BookInstance
	query := r.db.Preload("Book").Preload("Borrower").Order("due_back ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&instances).Error
	return instances, total, err
}

// Filter narrows the copy list by status and due date range. Zero values
// leave the corresponding filter off. Used by the administrative backend.
func (r *Repository) Filter(status entities.LoanStatus, dueBefore, dueAfter *time.Time) ([]entities.BookInstance, error) {
	query := r.db.Preload("Book").Preload("Borrower").Order("due_back ASC")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if dueBefore != nil {
		query = query.Where("due_back < ?", dueBefore)
	}
	if dueAfter != nil {
		query = query.Where("due_back >= ?", dueAfter)
	}

	var instances []entities.BookInstance
	err := query.Find(&instances).Error
	return instances, err
}

// UpdateDueBack persists a renewed due date for one copy.
func (r *Repository) UpdateDueBack(id string, dueBack time.Time) error {
	result := r.db.Model(&entities.BookInstance{}).
		Where("id = ?", id).
		Update("due_back", dueBack)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Create inserts a new copy; its UUID is generated on insert when unset.
func (r *Repository) Create(instance *entities.BookInstance) error {
	return r.db.Create(instance).Error
}

// Update writes every field of the copy record.
func (r *Repository) Update(instance *entities.BookInstance) error {
	return r.db.Omit("Book", "Borrower").Save(instance).Error
}

// Delete removes a copy permanently.
func (r *Repository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&entities.BookInstance{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Count returns the total number of copies.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookInstance{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of copies in one status.
func (r *Repository) CountByStatus(status entities.LoanStatus) (int64, error) {
	var count int64
	err := r.db.Model(&entities.BookInstance{}).
		Where("status = ?", status).Count(&count).Error
	return count, err
}
