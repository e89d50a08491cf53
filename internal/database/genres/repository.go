// Package genres provides database operations for genre records.
package genres

import (
	"gorm.io/gorm"

	"github.com/locallib/catalog/internal/entities"
)

// Repository handles all genre database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new genre repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// List returns all genres ordered by name.
func (r *Repository) List() ([]entities.Genre, error) {
	var genres []entities.Genre
	err := r.db.Order("name ASC").Find(&genres).Error
	return genres, err
}

// GetByID retrieves a single genre.
func (r *Repository) GetByID(id uint) (*entities.Genre, error) {
	var genre entities.Genre
	err := r.db.First(&genre, id).Error
	if err != nil {
		return nil, err
	}
	return &genre, nil
}

// GetByIDs retrieves the genres for a set of IDs, for form binding.
func (r *Repository) GetByIDs(ids []uint) ([]entities.Genre, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var genres []entities.Genre
	err := r.db.Where("id IN ?", ids).Find(&genres).Error
	return genres, err
}

// Create inserts a new genre.
func (r *Repository) Create(genre *entities.Genre) error {
	return r.db.Create(genre).Error
}

// Update writes every field of the genre record.
func (r *Repository) Update(genre *entities.Genre) error {
	return r.db.Save(genre).Error
}

// Delete removes a genre and its book associations.
func (r *Repository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM book_genres WHERE genre_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&entities.Genre{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// CountNameStartingWith counts genres whose name begins with the given
// prefix, case-sensitively. substr keeps SQLite's BINARY collation in play;
// LIKE would fold ASCII case.
func (r *Repository) CountNameStartingWith(prefix string) (int64, error) {
	var count int64
	err := r.db.Model(&entities.Genre{}).
		Where("substr(name, 1, ?) = ?", len(prefix), prefix).
		Count(&count).Error
	return count, err
}
