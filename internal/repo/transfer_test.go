package repo

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/twxlab/twx/internal/models"
)

var transferColNames = []string{
	"id", "element_id", "project_id", "status", "transferred_from_project_id",
	"source_approved", "source_approver_id", "source_approved_at",
	"dest_approved", "dest_approver_id", "dest_approved_at",
	"received_condition", "condition_notes", "actual_location", "activated_date", "created_at",
}

func TestTransferRepo_ListByElement(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM transfer_records WHERE element_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(transferColNames).
			AddRow(2, 7, 4, models.TransferPendingApproval, int64(3),
				false, nil, nil, false, nil, nil, "", "", "", nil, now).
			AddRow(1, 7, 3, models.TransferActive, nil,
				true, int64(1), now, true, int64(2), now,
				models.ConditionGood, "", "", now, now.Add(-time.Hour)))

	repo := NewTransferRepo(db)
	records, err := repo.ListByElement(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListByElement: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[0].Status != models.TransferPendingApproval || records[1].Status != models.TransferActive {
		t.Errorf("unexpected order: %+v", records)
	}
	if records[1].TransferredFromProjectID != nil {
		t.Errorf("opening record should have no source project")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTransferRepo_GetPending_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM transfer_records\s+WHERE element_id = \$1 AND project_id = \$2 AND status = \$3`).
		WithArgs(int64(7), int64(2), models.TransferPendingApproval).
		WillReturnError(sql.ErrNoRows)

	repo := NewTransferRepo(db)
	_, err = repo.GetPending(context.Background(), 7, 2)
	if !errors.Is(err, ErrTransferNotFound) {
		t.Errorf("err = %v, want ErrTransferNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestTransferRepo_CountPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM transfer_records WHERE status = \$1`).
		WithArgs(models.TransferPendingApproval).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	repo := NewTransferRepo(db)
	n, err := repo.CountPending(context.Background())
	if err != nil {
		t.Fatalf("CountPending: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
