package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var inspectionColNames = []string{
	"id", "element_id", "project_id", "version", "created_by_user_id", "last_modified_by_user_id",
	"inspector", "status", "notes", "inspection_date", "attributes", "updated_at",
}

func strPtr(s string) *string { return &s }

func TestInspectionRepo_Upsert_FirstFiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inspection_records\s+WHERE element_id = \$1 AND project_id = \$2\s+FOR UPDATE`).
		WithArgs(int64(7), int64(3)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO inspection_records`).
		WithArgs(int64(7), int64(3), int64(9), "alice", "passed", "", "", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(inspectionColNames).
			AddRow(1, 7, 3, 1, 9, 9, "alice", "passed", "", "", []byte(`{}`), time.Now()))
	mock.ExpectCommit()

	repo := NewInspectionRepo(db)
	rec, err := repo.Upsert(context.Background(), UpsertParams{
		ElementID: 7,
		ProjectID: 3,
		ActorID:   9,
		Inspector: strPtr("alice"),
		Status:    strPtr("passed"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.Version != 1 {
		t.Errorf("version = %d, want 1", rec.Version)
	}
	if rec.CreatedByUserID != 9 || rec.LastModifiedByUserID != 9 {
		t.Errorf("actor attribution: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestInspectionRepo_Upsert_SecondFilingBumpsVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inspection_records\s+WHERE element_id = \$1 AND project_id = \$2\s+FOR UPDATE`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows(inspectionColNames).
			AddRow(1, 7, 3, 4, 9, 9, "alice", "passed", "old notes", "2026-01-10", []byte(`{}`), time.Now()))
	// Version bumps to 5, the new actor becomes last modifier, creator is untouched,
	// and the unsupplied inspector keeps its stored value.
	mock.ExpectQuery(`UPDATE inspection_records`).
		WithArgs(5, int64(11), "alice", "failed", "old notes", "2026-01-10", []byte(`{}`), int64(1)).
		WillReturnRows(sqlmock.NewRows(inspectionColNames).
			AddRow(1, 7, 3, 5, 9, 11, "alice", "failed", "old notes", "2026-01-10", []byte(`{}`), time.Now()))
	mock.ExpectCommit()

	repo := NewInspectionRepo(db)
	rec, err := repo.Upsert(context.Background(), UpsertParams{
		ElementID: 7,
		ProjectID: 3,
		ActorID:   11,
		Status:    strPtr("failed"),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.Version != 5 {
		t.Errorf("version = %d, want 5", rec.Version)
	}
	if rec.CreatedByUserID != 9 {
		t.Errorf("created_by changed to %d", rec.CreatedByUserID)
	}
	if rec.LastModifiedByUserID != 11 {
		t.Errorf("last_modified_by = %d, want 11", rec.LastModifiedByUserID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestInspectionRepo_Upsert_DefaultsOnFirstFiling(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM inspection_records\s+WHERE element_id = \$1 AND project_id = \$2\s+FOR UPDATE`).
		WithArgs(int64(7), int64(3)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO inspection_records`).
		WithArgs(int64(7), int64(3), int64(9), "unassigned", "pending", "", "", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows(inspectionColNames).
			AddRow(1, 7, 3, 1, 9, 9, "unassigned", "pending", "", "", []byte(`{}`), time.Now()))
	mock.ExpectCommit()

	repo := NewInspectionRepo(db)
	rec, err := repo.Upsert(context.Background(), UpsertParams{
		ElementID: 7,
		ProjectID: 3,
		ActorID:   9,
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.Inspector != "unassigned" || rec.Status != "pending" {
		t.Errorf("defaults not applied: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestInspectionRepo_GetByElementProject_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM inspection_records WHERE element_id = \$1 AND project_id = \$2`).
		WithArgs(int64(7), int64(99)).
		WillReturnError(sql.ErrNoRows)

	repo := NewInspectionRepo(db)
	_, err = repo.GetByElementProject(context.Background(), 7, 99)
	if !errors.Is(err, ErrInspectionNotFound) {
		t.Errorf("err = %v, want ErrInspectionNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
