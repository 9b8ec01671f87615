package repository

import (
	"gorm.io/gorm"
)

// SequenceRepository allocates the public monotonic identifiers, one
// counter per entity type.
type SequenceRepository struct {
	db *gorm.DB
}

func NewSequenceRepository(db *gorm.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) WithTx(tx *gorm.DB) SequenceRepositoryInterface {
	if tx == nil {
		return r
	}
	return &SequenceRepository{db: tx}
}

// Next increments and returns the named counter. The upsert keeps the row
// locked for the rest of the surrounding transaction, which also serializes
// concurrent allocations per entity type.
func (r *SequenceRepository) Next(name string) (uint, error) {
	var value uint
	err := r.db.Raw(
		`INSERT INTO sequences (name, value) VALUES (?, 1)
		 ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
		 RETURNING value`,
		name,
	).Scan(&value).Error
	return value, err
}
