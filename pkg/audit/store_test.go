package audit

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStoreSave(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := VaultEvent{
		Common: Common{
			UserID:         "user-1",
			ClientIP:       "10.0.0.1",
			OrganizationID: "org-1",
			Action:         "create",
			Success:        true,
		},
		VaultID: "vault-1",
		Name:    "Audit Committee",
	}

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(
			sqlmock.AnyArg(), // id
			sql.NullString{String: "org-1", Valid: true},
			"user-1",
			"vault.create",
			"vault",
			"vault-1",
			"success",
			"10.0.0.1",
			sqlmock.AnyArg(), // details (JSON)
			sqlmock.AnyArg(), // created_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveFailedAuthEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)

	event := AuthEvent{
		ClientIP:     "192.168.1.1",
		Path:         "/organizations",
		Success:      false,
		ErrorMessage: "token expired",
	}

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(
			sqlmock.AnyArg(),
			sql.NullString{},
			"",
			"auth.authenticate",
			"session",
			"",
			"failure",
			"192.168.1.1",
			sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = store.Save(event)
	if err != nil {
		t.Errorf("Save() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreSaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := NewStoreWithDB(db)
	mock.ExpectExec(`INSERT INTO audit_logs`).WillReturnError(errors.New("connection reset"))

	err = store.Save(OrganizationEvent{Common: Common{UserID: "u", OrganizationID: "o", Action: "update", Success: true}})
	if err == nil {
		t.Error("expected error from Save()")
	}
}

func TestStoreNilDB(t *testing.T) {
	store := &Store{db: nil}

	err := store.Save(AuthEvent{UserID: "user-1", Success: true})
	if err != nil {
		t.Errorf("Save() with nil db should not error, got: %v", err)
	}
}

func TestStoreClose(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	store := &Store{db: db, owned: true}

	mock.ExpectClose()

	err = store.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStoreCloseSharedDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	// a shared handle belongs to the caller and stays open
	if err := NewStoreWithDB(db).Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected calls: %v", err)
	}
}
