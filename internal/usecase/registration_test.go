package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/security"
)

func newRegistrationFixture(t *testing.T, accounts ...*domain.Account) (*RegistrationService, *testAccountRepo, *testAuditRepo) {
	t.Helper()

	repo := newTestAccountRepo(accounts...)
	audit := &testAuditRepo{}
	svc := NewRegistrationService(testConfig(), repo, newTestRecorder(audit))
	return svc, repo, audit
}

func TestRegister(t *testing.T) {
	svc, repo, audit := newRegistrationFixture(t)
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	svc.WithClock(func() time.Time { return now })

	input := RegistrationInput{
		Username: "new.diner",
		Email:    "New.Diner@Example.com",
		Password: "Bright-Falcon-Orchard-3!",
		Question: "What was your childhood nickname at home?",
		Answer:   "Sir Wigglesworth",
	}

	account, err := svc.Register(context.Background(), input, testMeta)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if account.Role != domain.RoleCustomer {
		t.Fatalf("sign-ups must get the customer role, got %s", account.Role)
	}
	if account.Email != "new.diner@example.com" {
		t.Fatalf("expected lowercased email, got %q", account.Email)
	}
	if account.PasswordHash != "" || account.SecurityAnswerHash != "" {
		t.Fatal("returned account must not carry credential material")
	}
	if account.PasswordChangedAt == nil || !account.PasswordChangedAt.Equal(now) {
		t.Fatalf("expected password change stamped at %v, got %v", now, account.PasswordChangedAt)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected one created account, got %d", len(repo.created))
	}
	stored := repo.created[0]
	if ok, _ := security.VerifyPassword(input.Password, stored.PasswordHash); !ok {
		t.Fatal("stored hash does not verify the password")
	}
	if ok, _ := security.VerifyPassword(security.NormalizeAnswer(input.Answer), stored.SecurityAnswerHash); !ok {
		t.Fatal("stored hash does not verify the normalized answer")
	}

	if audit.lastAction() != "account registered (new.diner)" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}
}

func TestRegisterWithoutSecurityQuestion(t *testing.T) {
	svc, repo, _ := newRegistrationFixture(t)

	input := RegistrationInput{
		Username: "diner",
		Email:    "diner@example.com",
		Password: "Bright-Falcon-Orchard-3!",
	}

	if _, err := svc.Register(context.Background(), input, testMeta); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if repo.created[0].SecurityQuestion != "" || repo.created[0].SecurityAnswerHash != "" {
		t.Fatal("expected no recovery question recorded")
	}
}

func TestRegisterInvalidInput(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	base := RegistrationInput{
		Username: "diner",
		Email:    "diner@example.com",
		Password: "Bright-Falcon-Orchard-3!",
	}

	cases := []struct {
		name   string
		mutate func(*RegistrationInput)
	}{
		{"username too short", func(in *RegistrationInput) { in.Username = "ab" }},
		{"username bad characters", func(in *RegistrationInput) { in.Username = "diner choy" }},
		{"malformed email", func(in *RegistrationInput) { in.Email = "not-an-email" }},
		{"unknown question", func(in *RegistrationInput) {
			in.Question = "What is your favorite color?"
			in.Answer = "aquamarine"
		}},
		{"weak answer", func(in *RegistrationInput) {
			in.Question = "What was your childhood nickname at home?"
			in.Answer = "n/a"
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := base
			tc.mutate(&input)
			if _, err := svc.Register(context.Background(), input, testMeta); !errors.Is(err, ErrInvalidRegistration) {
				t.Fatalf("expected ErrInvalidRegistration, got %v", err)
			}
		})
	}
}

func TestRegisterWeakPassword(t *testing.T) {
	svc, _, _ := newRegistrationFixture(t)

	input := RegistrationInput{
		Username: "diner",
		Email:    "diner@example.com",
		Password: "diner123",
	}

	_, err := svc.Register(context.Background(), input, testMeta)
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PolicyError, got %v", err)
	}
	if len(policyErr.Violations) == 0 {
		t.Fatal("expected at least one violation")
	}
}

func TestRegisterDuplicates(t *testing.T) {
	existing := &domain.Account{
		ID:       "acc-1",
		Username: "diner",
		Email:    "diner@example.com",
	}

	svc, _, _ := newRegistrationFixture(t, existing)

	input := RegistrationInput{
		Username: "diner",
		Email:    "fresh@example.com",
		Password: "Bright-Falcon-Orchard-3!",
	}
	if _, err := svc.Register(context.Background(), input, testMeta); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	input.Username = "fresh"
	input.Email = "diner@example.com"
	if _, err := svc.Register(context.Background(), input, testMeta); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}
