// Package books provides database operations for catalog book records.
package books

import (
	"errors"

	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/entities"
)

// ErrBookInUse is returned when a delete is refused because copies of the
// book still exist.
var ErrBookInUse = errors.New("book has copies and cannot be deleted")

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns one page of books with author and genres preloaded, together
// with the total book count for pagination.
func (r *Repository) List(limit, offset int) ([]entities.Book, int64, error) {
	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var books []entities.Book
	query := r.db.Preload("Author").Preload("Genres").Order("title ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	err := query.Find(&books).Error
	return books, total, err
}

// GetByID retrieves a book with its author, genres and copies.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Preload("Author").Preload("Genres").
		Preload("Instances", func(db *gorm.DB) *gorm.DB {
			return db.Order("due_back ASC")
		}).
		Preload("Instances.Borrower").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Create inserts a new book. Associated genres must already exist; the join
// rows are written in the same transaction.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Omit("Genres.*").Create(book).Error
}

// Update writes every field of the book record and replaces its genre set.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Genres", "Instances", "Author").Save(book).Error; err != nil {
			return err
		}
		return tx.Model(book).Association("Genres").Replace(book.Genres)
	})
}

// Delete removes a book. The delete is refused while any copy references
// the book, mirroring the RESTRICT rule on the foreign key.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var copies int64
		if err := tx.Model(&entities.BookInstance{}).Where("book_id = ?", id).Count(&copies).Error; err != nil {
			return err
		}
		if copies > 0 {
			return ErrBookInUse
		}
		if err := tx.Model(&entities.Book{ID: id}).Association("Genres").Clear(); err != nil {
			return err
		}
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Count returns the total number of books.
func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, err
}
