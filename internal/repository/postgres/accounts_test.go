package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/core/domain"
	"github.com/Stilsi-dev/ITSECWB-RestaurantApp/internal/repository"
)

func newAccountMock(t *testing.T) (pgxmock.PgxPoolIface, *AccountRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewAccountRepository(mock)
}

func accountRowColumns() []string {
	return []string{
		"id", "username", "email", "role", "password_hash", "failed_logins",
		"locked_until", "password_changed_at", "security_question",
		"security_answer_hash", "last_login", "created_at",
	}
}

func TestAccountRepository_Create(t *testing.T) {
	mock, repo := newAccountMock(t)

	createdAt := time.Now().UTC()
	account := domain.Account{
		ID:           "acc-1",
		Username:     "diner",
		Email:        "diner@example.com",
		Role:         domain.RoleCustomer,
		PasswordHash: "hash",
		CreatedAt:    createdAt,
	}

	mock.ExpectExec(`INSERT INTO restaurant\.accounts`).
		WithArgs(
			account.ID,
			account.Username,
			account.Email,
			account.Role,
			account.PasswordHash,
			account.FailedLogins,
			(*time.Time)(nil),
			(*time.Time)(nil),
			nil,
			nil,
			(*time.Time)(nil),
			account.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), account); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByUsername(t *testing.T) {
	mock, repo := newAccountMock(t)

	createdAt := time.Now().UTC()
	rows := pgxmock.NewRows(accountRowColumns()).AddRow(
		"acc-1", "diner", "diner@example.com", domain.RoleCustomer, "hash", 2,
		nil, nil, nil, nil, nil, createdAt,
	)

	mock.ExpectQuery(`SELECT .*FROM restaurant\.accounts`).
		WithArgs("diner").
		WillReturnRows(rows)

	account, err := repo.GetByUsername(context.Background(), "diner")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}
	if account.ID != "acc-1" || account.FailedLogins != 2 {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.LockedUntil != nil || account.SecurityQuestion != "" {
		t.Fatalf("expected null columns mapped to zero values, got %+v", account)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_GetByIDNotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`SELECT .*FROM restaurant\.accounts`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows(accountRowColumns()))

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_RecordFailedAttempt(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`UPDATE restaurant\.accounts\s+SET failed_logins = failed_logins \+ 1\s+WHERE id = \$1\s+RETURNING failed_logins`).
		WithArgs("acc-1").
		WillReturnRows(pgxmock.NewRows([]string{"failed_logins"}).AddRow(3))

	count, err := repo.RecordFailedAttempt(context.Background(), "acc-1")
	if err != nil {
		t.Fatalf("RecordFailedAttempt returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected post-increment count 3, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_RecordFailedAttemptMissingAccount(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`UPDATE restaurant\.accounts`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"failed_logins"}))

	_, err := repo.RecordFailedAttempt(context.Background(), "ghost")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_ApplyLock(t *testing.T) {
	mock, repo := newAccountMock(t)

	until := time.Now().UTC().Add(15 * time.Minute)

	mock.ExpectExec(`UPDATE restaurant\.accounts SET locked_until = \$1, failed_logins = \$2 WHERE id = \$3`).
		WithArgs(until, 0, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.ApplyLock(context.Background(), "acc-1", until); err != nil {
		t.Fatalf("ApplyLock returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_ClearLock(t *testing.T) {
	mock, repo := newAccountMock(t)

	lastLogin := time.Now().UTC()

	mock.ExpectExec(`UPDATE restaurant\.accounts SET locked_until = \$1, failed_logins = \$2, last_login = \$3 WHERE id = \$4`).
		WithArgs(nil, 0, lastLogin, "acc-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := repo.ClearLock(context.Background(), "acc-1", lastLogin); err != nil {
		t.Fatalf("ClearLock returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_UpdatePasswordNotFound(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`UPDATE restaurant\.accounts SET password_hash = \$1 WHERE id = \$2`).
		WithArgs("new-hash", "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePassword(context.Background(), "ghost", "new-hash")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccountRepository_CountAdmins(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM restaurant\.accounts WHERE role = \$1`).
		WithArgs(domain.RoleAdmin).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	count, err := repo.CountAdmins(context.Background())
	if err != nil {
		t.Fatalf("CountAdmins returned error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 admins, got %d", count)
	}
}

func TestAccountRepository_PasswordHistory(t *testing.T) {
	mock, repo := newAccountMock(t)

	changedAt := time.Now().UTC()

	mock.ExpectExec(`INSERT INTO restaurant\.password_history`).
		WithArgs("hist-1", "acc-1", "old-hash", changedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry := domain.PasswordHistoryEntry{
		ID:           "hist-1",
		AccountID:    "acc-1",
		PasswordHash: "old-hash",
		ChangedAt:    changedAt,
	}
	if err := repo.AddPasswordHistory(context.Background(), entry); err != nil {
		t.Fatalf("AddPasswordHistory returned error: %v", err)
	}

	rows := pgxmock.NewRows([]string{"id", "account_id", "password_hash", "changed_at"}).
		AddRow("hist-1", "acc-1", "old-hash", changedAt)

	mock.ExpectQuery(`SELECT id, account_id, password_hash, changed_at FROM restaurant\.password_history`).
		WithArgs("acc-1").
		WillReturnRows(rows)

	history, err := repo.ListPasswordHistory(context.Background(), "acc-1", 5)
	if err != nil {
		t.Fatalf("ListPasswordHistory returned error: %v", err)
	}
	if len(history) != 1 || history[0].PasswordHash != "old-hash" {
		t.Fatalf("unexpected history %+v", history)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAccountRepository_TrimPasswordHistory(t *testing.T) {
	mock, repo := newAccountMock(t)

	mock.ExpectExec(`DELETE FROM restaurant\.password_history\s+WHERE account_id = \$1\s+AND id NOT IN`).
		WithArgs("acc-1", 5).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	if err := repo.TrimPasswordHistory(context.Background(), "acc-1", 5); err != nil {
		t.Fatalf("TrimPasswordHistory returned error: %v", err)
	}

	// keep <= 0 is a no-op and must not touch the database.
	if err := repo.TrimPasswordHistory(context.Background(), "acc-1", 0); err != nil {
		t.Fatalf("no-op trim returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
