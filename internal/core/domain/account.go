package domain

import (
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const maxNameLength = 200

// Account is a registered user and their cash balance.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Balance      decimal.Decimal
	PasswordHash string
	IsAdmin      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewAccountParams are the inputs of NewAccount. PasswordHash must already be
// hashed; the constructor never sees the plain password.
type NewAccountParams struct {
	Email        string
	Name         string
	Balance      decimal.Decimal
	PasswordHash string
	IsAdmin      bool
}

// NewAccount validates and normalizes p and returns an active account with a
// fresh id.
func NewAccount(p NewAccountParams, now time.Time) (*Account, error) {
	email, err := NormalizeEmail(p.Email)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, Invalid("name", "name is required")
	}
	if len(name) > maxNameLength {
		return nil, Invalid("name", "name must be at most %d characters", maxNameLength)
	}

	if p.Balance.IsNegative() {
		return nil, Invalid("current_balance", "balance cannot be negative")
	}
	if err := CheckMoney("current_balance", p.Balance, MaxAmount); err != nil {
		return nil, err
	}

	if p.PasswordHash == "" {
		return nil, Invalid("password", "password is required")
	}

	now = now.UTC()
	return &Account{
		ID:           uuid.New(),
		Email:        email,
		Name:         name,
		Balance:      p.Balance.Round(MoneyPlaces),
		PasswordHash: p.PasswordHash,
		IsAdmin:      p.IsAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// NormalizeEmail trims the address and lower-cases its domain part. The local
// part is kept as typed.
func NormalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", Invalid("email", "user must have an email address")
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw || addr.Name != "" {
		return "", Invalid("email", "enter a valid email address")
	}
	at := strings.LastIndex(raw, "@")
	return raw[:at] + "@" + strings.ToLower(raw[at+1:]), nil
}

// Debit removes amount from the balance.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}

// Credit adds amount to the balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}
