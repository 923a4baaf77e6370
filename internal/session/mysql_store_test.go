package session

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"dotrip/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMySQLStore(t *testing.T) (MySQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	now := time.Date(2025, 5, 5, 10, 0, 0, 0, time.UTC)
	return MySQLStore{DB: db, TTL: 30 * time.Minute, Now: func() time.Time { return now }}, mock
}

func TestMySQLStore_SaveUpserts(t *testing.T) {
	store, mock := newMySQLStore(t)
	expires := time.Date(2025, 5, 5, 10, 30, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO wizard_states")).
		WithArgs("sid-1", sqlmock.AnyArg(), expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := store.Save(context.Background(), models.NewWizardState("sid-1")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMySQLStore_LoadDecodesPayload(t *testing.T) {
	store, mock := newMySQLStore(t)

	st := models.NewWizardState("sid-2")
	st.Otp.State = models.OtpAwaitingCode
	st.Otp.Phone = "9876543210"
	raw, _ := json.Marshal(st)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM wizard_states WHERE session_id = ? AND expires_at > ?")).
		WithArgs("sid-2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(raw)))

	got, err := store.Load(context.Background(), "sid-2")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Otp.State != models.OtpAwaitingCode || got.Otp.Phone != "9876543210" {
		t.Fatalf("decoded state = %+v", got.Otp)
	}
}

func TestMySQLStore_LoadMissing(t *testing.T) {
	store, mock := newMySQLStore(t)
	mock.ExpectQuery("SELECT payload FROM wizard_states").
		WithArgs("gone", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"payload"}))

	if _, err := store.Load(context.Background(), "gone"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("expected ErrStateNotFound, got %v", err)
	}
}

func TestMySQLStore_PurgeExpired(t *testing.T) {
	store, mock := newMySQLStore(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM wizard_states WHERE expires_at <= ?")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := store.PurgeExpired(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("PurgeExpired = %d, %v", n, err)
	}
}
