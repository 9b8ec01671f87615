package repository

import (
	"gorm.io/gorm"
)

// TxManager scopes a multi-document mutation to one database transaction.
// The callback's error aborts and rolls back everything, so validation
// failures discovered mid-transaction never leave partial writes behind.
type TxManager interface {
	InTransaction(fn func(tx *gorm.DB) error) error
}

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) InTransaction(fn func(tx *gorm.DB) error) error {
	return m.db.Transaction(fn)
}
