package trading_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Subhansheikh5843/Stock-backend/internal/core/domain"
	"github.com/Subhansheikh5843/Stock-backend/internal/core/trading"
)

func register(t *testing.T, svc *trading.Service, email, balance string) *trading.Credentials {
	t.Helper()
	creds, err := svc.Register(context.Background(), trading.Registration{
		Email:           email,
		Name:            "Jane Trader",
		Password:        "hunter22",
		ConfirmPassword: "hunter22",
		Balance:         dec(balance),
	})
	if err != nil {
		t.Fatalf("Register(%s) failed: %v", email, err)
	}
	return creds
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newService(t, trading.Options{})
	ctx := context.Background()

	creds := register(t, svc, " Jane@Example.COM ", "250.50")
	if creds.Account.Email != "Jane@example.com" {
		t.Errorf("email = %q, want domain lower-cased and trimmed", creds.Account.Email)
	}
	if creds.Account.PasswordHash == "hunter22" || creds.Account.IsAdmin {
		t.Errorf("account = %+v", creds.Account)
	}

	acc, err := svc.Authenticate(ctx, creds.APIKey)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if acc.ID != creds.Account.ID || !acc.Balance.Equal(dec("250.50")) {
		t.Errorf("authenticated as %+v", acc)
	}

	for _, key := range []string{"", "garbage", creds.APIKey[:len(creds.APIKey)-1] + "0"} {
		if key == creds.APIKey {
			continue
		}
		if _, err := svc.Authenticate(ctx, key); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("Authenticate(%q) = %v, want ErrUnauthenticated", key, err)
		}
	}
}

func TestRegister_Rejects(t *testing.T) {
	svc, _ := newService(t, trading.Options{})
	register(t, svc, "taken@example.com", "0")

	tests := []struct {
		name    string
		reg     trading.Registration
		field   string
		message string
	}{
		{
			"password mismatch",
			trading.Registration{Email: "a@example.com", Name: "A", Password: "one", ConfirmPassword: "two"},
			"confirm_password", "password and confirm password don't match",
		},
		{
			"negative balance",
			trading.Registration{Email: "b@example.com", Name: "B", Password: "pw", ConfirmPassword: "pw", Balance: dec("-1")},
			"current_balance", "balance cannot be negative",
		},
		{
			"duplicate email",
			trading.Registration{Email: "taken@EXAMPLE.com", Name: "C", Password: "pw", ConfirmPassword: "pw"},
			"email", "user with this email already exists",
		},
		{
			"bad email",
			trading.Registration{Email: "not-an-email", Name: "D", Password: "pw", ConfirmPassword: "pw"},
			"email", "enter a valid email address",
		},
		{
			"missing password",
			trading.Registration{Email: "e@example.com", Name: "E"},
			"password", "password is required",
		},
		{
			"long password",
			trading.Registration{Email: "f@example.com", Name: "F", Password: strings.Repeat("x", 73), ConfirmPassword: strings.Repeat("x", 73)},
			"password", "password must be at most 72 bytes",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.reg)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Register() error = %v, want ValidationError", err)
			}
			if verr.Field != tc.field || verr.Message != tc.message {
				t.Errorf("Register() error = %s: %s, want %s: %s", verr.Field, verr.Message, tc.field, tc.message)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newService(t, trading.Options{})
	ctx := context.Background()
	first := register(t, svc, "login@example.com", "0")

	creds, err := svc.Login(ctx, "login@EXAMPLE.com", "hunter22")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if creds.Account.ID != first.Account.ID || creds.APIKey == first.APIKey {
		t.Errorf("login issued %+v", creds)
	}
	for _, key := range []string{first.APIKey, creds.APIKey} {
		if _, err := svc.Authenticate(ctx, key); err != nil {
			t.Errorf("key %s... no longer valid: %v", key[:12], err)
		}
	}

	failures := []struct{ email, password string }{
		{"login@example.com", "wrong"},
		{"nobody@example.com", "hunter22"},
		{"login@example.com", ""},
	}
	for _, f := range failures {
		_, err := svc.Login(ctx, f.email, f.password)
		if !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("Login(%s, %q) = %v, want ErrUnauthenticated", f.email, f.password, err)
		}
		if err != nil && err.Error() != "invalid email or password" {
			t.Errorf("message = %q", err.Error())
		}
	}
}

func TestCreateAdmin(t *testing.T) {
	svc, _ := newService(t, trading.Options{})
	ctx := context.Background()

	admin, err := svc.CreateAdmin(ctx, "root@example.com", "Root", "s3cret")
	if err != nil {
		t.Fatalf("CreateAdmin failed: %v", err)
	}
	if !admin.IsAdmin || !admin.Balance.IsZero() {
		t.Errorf("admin = %+v", admin)
	}

	creds, err := svc.Login(ctx, "root@example.com", "s3cret")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if !creds.Account.IsAdmin {
		t.Error("logged-in admin lost the admin flag")
	}

	if _, err := svc.CreateAdmin(ctx, "root@example.com", "Root", "again"); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("duplicate admin: got %v, want ErrInvalidArgument", err)
	}
}
