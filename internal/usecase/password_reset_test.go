package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/infra/security"
)

const recoveryQuestion = "What was the name of your first stuffed animal?"

func newResetFixture(t *testing.T, accounts ...*domain.Account) (*PasswordResetService, *testAccountRepo, *testSessionStore, *testAuditRepo) {
	t.Helper()

	repo := newTestAccountRepo(accounts...)
	sessions := newTestSessionStore()
	audit := &testAuditRepo{}
	recorder := newTestRecorder(audit)

	passwords := NewPasswordService(testConfig(), repo, &testEventPublisher{}, recorder)
	svc := NewPasswordResetService(repo, sessions, passwords, recorder)
	return svc, repo, sessions, audit
}

func recoverableAccount(t *testing.T) *domain.Account {
	t.Helper()
	return &domain.Account{
		ID:                 "acc-1",
		Username:           "diner",
		Email:              "diner@example.com",
		PasswordHash:       mustHash(t, "Quiet-Meadow-Lantern-4!"),
		SecurityQuestion:   recoveryQuestion,
		SecurityAnswerHash: mustHash(t, security.NormalizeAnswer("Mr. Whiskers")),
	}
}

func TestResetFullFlow(t *testing.T) {
	account := recoverableAccount(t)
	svc, repo, sessions, audit := newResetFixture(t, account)

	session := &domain.Session{ID: "sess-1"}
	sessions.sessions[session.ID] = *session

	if err := svc.Start(context.Background(), session, "diner", testMeta); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session.ResetTarget != "acc-1" || session.ResetVerified {
		t.Fatalf("unexpected session state after start: %+v", session)
	}

	question, err := svc.Question(context.Background(), session)
	if err != nil {
		t.Fatalf("Question failed: %v", err)
	}
	if question != recoveryQuestion {
		t.Fatalf("unexpected question %q", question)
	}

	// Normalization makes casing and spacing irrelevant.
	if err := svc.Answer(context.Background(), session, "  MR.  whiskers ", testMeta); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if !session.ResetVerified {
		t.Fatal("expected answer match to mark the session verified")
	}

	next := "Bright-Falcon-Orchard-3!"
	if err := svc.Complete(context.Background(), session, next, next, testMeta); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	if ok, _ := security.VerifyPassword(next, repo.accounts["acc-1"].PasswordHash); !ok {
		t.Fatal("stored hash does not verify the new password")
	}
	if session.ResetTarget != "" || session.ResetVerified {
		t.Fatalf("expected reset state cleared, got %+v", session)
	}
	if audit.lastAction() != "password reset completed" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}
}

func TestResetStartUniformBehavior(t *testing.T) {
	noQuestion := &domain.Account{
		ID:           "acc-2",
		Username:     "plain",
		Email:        "plain@example.com",
		PasswordHash: mustHash(t, "Quiet-Meadow-Lantern-4!"),
	}

	svc, _, sessions, _ := newResetFixture(t, noQuestion)

	// Unknown username and an account without a recovery question behave
	// identically from the caller's side.
	for _, username := range []string{"ghost", "plain"} {
		session := &domain.Session{ID: "sess-" + username}
		sessions.sessions[session.ID] = *session

		if err := svc.Start(context.Background(), session, username, testMeta); err != nil {
			t.Fatalf("Start(%q) failed: %v", username, err)
		}
		if session.ResetTarget != "" {
			t.Fatalf("Start(%q) must not record a target", username)
		}
		if _, err := svc.Question(context.Background(), session); !errors.Is(err, ErrResetNotReady) {
			t.Fatalf("Question after Start(%q): expected ErrResetNotReady, got %v", username, err)
		}
	}
}

func TestResetStartClearsPriorProgress(t *testing.T) {
	account := recoverableAccount(t)
	svc, _, sessions, _ := newResetFixture(t, account)

	session := &domain.Session{ID: "sess-1", ResetTarget: "acc-1", ResetVerified: true}
	sessions.sessions[session.ID] = *session

	if err := svc.Start(context.Background(), session, "ghost", testMeta); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if session.ResetTarget != "" || session.ResetVerified {
		t.Fatal("restarting the flow must discard earlier progress")
	}
}

func TestResetAnswerMismatch(t *testing.T) {
	account := recoverableAccount(t)
	svc, _, sessions, audit := newResetFixture(t, account)

	session := &domain.Session{ID: "sess-1", ResetTarget: "acc-1"}
	sessions.sessions[session.ID] = *session

	err := svc.Answer(context.Background(), session, "fluffy", testMeta)
	if !errors.Is(err, ErrSecurityAnswerMismatch) {
		t.Fatalf("expected ErrSecurityAnswerMismatch, got %v", err)
	}
	if session.ResetVerified {
		t.Fatal("mismatch must not verify the session")
	}
	if audit.lastAction() != "password reset answer rejected" {
		t.Fatalf("unexpected audit action %q", audit.lastAction())
	}
}

func TestResetCompleteRequiresVerifiedAnswer(t *testing.T) {
	account := recoverableAccount(t)
	svc, repo, sessions, _ := newResetFixture(t, account)

	cases := []struct {
		name    string
		session *domain.Session
	}{
		{"nil session", nil},
		{"no target", &domain.Session{ID: "sess-1"}},
		{"unverified", &domain.Session{ID: "sess-2", ResetTarget: "acc-1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.session != nil {
				sessions.sessions[tc.session.ID] = *tc.session
			}
			err := svc.Complete(context.Background(), tc.session, "Bright-Falcon-Orchard-3!", "Bright-Falcon-Orchard-3!", testMeta)
			if !errors.Is(err, ErrResetNotReady) {
				t.Fatalf("expected ErrResetNotReady, got %v", err)
			}
		})
	}

	if len(repo.passwordUpdates) != 0 {
		t.Fatal("password must not change without a verified answer")
	}
}

func TestResetStateSurvivesPolicyRejection(t *testing.T) {
	account := recoverableAccount(t)
	svc, repo, sessions, _ := newResetFixture(t, account)

	session := &domain.Session{ID: "sess-1", ResetTarget: "acc-1", ResetVerified: true}
	sessions.sessions[session.ID] = *session

	err := svc.Complete(context.Background(), session, "short", "short", testMeta)
	var policyErr *PolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("expected PolicyError, got %v", err)
	}

	// The user retries the password without re-answering.
	if session.ResetTarget != "acc-1" || !session.ResetVerified {
		t.Fatalf("expected reset state preserved, got %+v", session)
	}

	next := "Bright-Falcon-Orchard-3!"
	if err := svc.Complete(context.Background(), session, next, next, testMeta); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if ok, _ := security.VerifyPassword(next, repo.accounts["acc-1"].PasswordHash); !ok {
		t.Fatal("stored hash does not verify the new password")
	}
}

func TestResetCompleteMismatchedConfirmation(t *testing.T) {
	account := recoverableAccount(t)
	svc, repo, sessions, _ := newResetFixture(t, account)

	session := &domain.Session{ID: "sess-1", ResetTarget: "acc-1", ResetVerified: true}
	sessions.sessions[session.ID] = *session

	err := svc.Complete(context.Background(), session, "Bright-Falcon-Orchard-3!", "Bright-Falcon-Orchard-4!", testMeta)
	codes := violationCodes(err)
	if !codes["password_mismatch"] {
		t.Fatalf("expected password_mismatch violation, got %v", codes)
	}
	if len(repo.passwordUpdates) != 0 {
		t.Fatal("password must not change when the confirmation differs")
	}

	// The mismatch counts as a policy rejection; the verified state survives
	// so the user can retype both entries.
	if session.ResetTarget != "acc-1" || !session.ResetVerified {
		t.Fatalf("expected reset state preserved, got %+v", session)
	}
}

func TestResetQuestionExpiredTarget(t *testing.T) {
	svc, _, sessions, _ := newResetFixture(t)

	session := &domain.Session{ID: "sess-1", ResetTarget: "gone", CreatedAt: time.Now()}
	sessions.sessions[session.ID] = *session

	if _, err := svc.Question(context.Background(), session); !errors.Is(err, ErrResetNotReady) {
		t.Fatalf("expected ErrResetNotReady for a vanished target, got %v", err)
	}
}
