// Package repository provides persistence for the shared account record
// and for harvested post rows.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoAccount is returned when the accounts table has no record.
var ErrNoAccount = errors.New("no account configured")

// Account is the single shared account record.
// SessionRef points at a persisted session blob in the object store;
// empty means a fresh interactive login is required.
type Account struct {
	ID         uint   `gorm:"primaryKey"`
	Phone      string `gorm:"column:phone"`
	APIID      int    `gorm:"column:api_id"`
	APIHash    string `gorm:"column:api_hash"`
	SessionRef string `gorm:"column:session_ref"`
	UpdatedAt  time.Time
}

// TableName overrides the GORM default.
func (Account) TableName() string { return "accounts" }

// AccountsRepository reads and updates the shared account record.
type AccountsRepository struct {
	db *gorm.DB
}

// NewAccountsRepository creates a repository over the given GORM handle.
func NewAccountsRepository(db *gorm.DB) *AccountsRepository {
	return &AccountsRepository{db: db}
}

// Get returns the account record. The phone number is normalized to
// always carry the leading plus sign.
func (r *AccountsRepository) Get(ctx context.Context) (*Account, error) {
	var acc Account
	err := r.db.WithContext(ctx).Order("id").First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoAccount
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	if acc.Phone != "" && !strings.HasPrefix(acc.Phone, "+") {
		acc.Phone = "+" + acc.Phone
	}
	return &acc, nil
}

// Upsert creates the account record or replaces its credentials and
// session reference. Records are keyed by phone number.
func (r *AccountsRepository) Upsert(ctx context.Context, acc *Account) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoUpdates: clause.AssignmentColumns([]string{"api_id", "api_hash", "session_ref", "updated_at"}),
		}).
		Create(acc).Error
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

// SetSessionRef writes the session blob reference back into the account
// record. An empty ref clears it, forcing a fresh login on the next attempt.
func (r *AccountsRepository) SetSessionRef(ctx context.Context, id uint, ref string) error {
	err := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Update("session_ref", ref).Error
	if err != nil {
		return fmt.Errorf("update session ref: %w", err)
	}
	return nil
}
