package trading

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/security"
)

// bcrypt ignores input past 72 bytes.
const maxPasswordBytes = 72

// Registration is the input of Register.
type Registration struct {
	Email           string
	Name            string
	Password        string
	ConfirmPassword string
	Balance         decimal.Decimal
}

// Credentials are returned on register and login. APIKey is shown once.
type Credentials struct {
	Account *domain.Account
	APIKey  string
}

// Register creates an account and issues its first API key.
func (s *Service) Register(ctx context.Context, r Registration) (*Credentials, error) {
	log := s.log.With("operation", "register")

	if err := checkPassword(r.Password); err != nil {
		return nil, err
	}
	if r.Password != r.ConfirmPassword {
		return nil, domain.Invalid("confirm_password", "password and confirm password don't match")
	}

	acc, err := s.createAccount(ctx, r.Email, r.Name, r.Password, r.Balance, false)
	if err != nil {
		return nil, fault(log, "create account", err)
	}

	key, err := s.issueKey(ctx, acc.ID)
	if err != nil {
		return nil, fault(log, "issue api key", err)
	}

	log.Info("Account registered", "account_id", acc.ID)
	return &Credentials{Account: acc, APIKey: key}, nil
}

// CreateAdmin creates an administrator. Admins sign in through Login like
// everyone else.
func (s *Service) CreateAdmin(ctx context.Context, email, name, password string) (*domain.Account, error) {
	log := s.log.With("operation", "create_admin")

	if err := checkPassword(password); err != nil {
		return nil, err
	}
	acc, err := s.createAccount(ctx, email, name, password, decimal.Zero, true)
	if err != nil {
		return nil, fault(log, "create account", err)
	}

	log.Info("Admin created", "account_id", acc.ID)
	return acc, nil
}

// Login checks an email and password and issues a fresh API key.
func (s *Service) Login(ctx context.Context, email, password string) (*Credentials, error) {
	log := s.log.With("operation", "login")

	email, err := domain.NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	lookupCtx, cancel := s.storageContext(ctx)
	acc, err := s.store.GetAccountByEmail(lookupCtx, email)
	cancel()
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fault(log, "load account", err)
	}

	ok, err := security.CheckPassword(acc.PasswordHash, password)
	if err != nil {
		return nil, fault(log.With("account_id", acc.ID), "check password", err)
	}
	if !ok || !acc.IsActive {
		log.Warn("Login failed", "account_id", acc.ID)
		return nil, domain.ErrUnauthenticated
	}

	key, err := s.issueKey(ctx, acc.ID)
	if err != nil {
		return nil, fault(log.With("account_id", acc.ID), "issue api key", err)
	}
	return &Credentials{Account: acc, APIKey: key}, nil
}

// Authenticate resolves a presented API key to its active account.
func (s *Service) Authenticate(ctx context.Context, apiKey string) (*domain.Account, error) {
	if !security.LooksLikeKey(apiKey) {
		return nil, domain.ErrUnauthenticated
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	acc, err := s.store.GetAccountByAPIKey(ctx, security.HashKey(apiKey))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, fault(s.log.With("operation", "authenticate"), "load api key", err)
	}
	if !acc.IsActive {
		return nil, domain.ErrUnauthenticated
	}
	return acc, nil
}

func checkPassword(password string) error {
	if password == "" {
		return domain.Invalid("password", "password is required")
	}
	if len(password) > maxPasswordBytes {
		return domain.Invalid("password", "password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}

func (s *Service) createAccount(ctx context.Context, email, name, password string, balance decimal.Decimal, admin bool) (*domain.Account, error) {
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}
	acc, err := domain.NewAccount(domain.NewAccountParams{
		Email:        email,
		Name:         name,
		Balance:      balance,
		PasswordHash: hash,
		IsAdmin:      admin,
	}, s.now())
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	err = s.store.CreateAccount(ctx, acc)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return nil, domain.Invalid("email", "user with this email already exists")
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *Service) issueKey(ctx context.Context, accountID uuid.UUID) (string, error) {
	key, err := security.GenerateAPIKey()
	if err != nil {
		return "", err
	}

	ctx, cancel := s.storageContext(ctx)
	defer cancel()

	if err := s.store.SaveAPIKey(ctx, accountID, key.Hash, key.Prefix); err != nil {
		return "", err
	}
	return key.Plain, nil
}
