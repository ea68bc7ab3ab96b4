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

var elementColNames = []string{
	"id", "asset_number", "ifc_type", "name", "notes", "status",
	"current_project_id", "current_condition", "scan_code", "created_at", "updated_at",
}

func elementRow(id int64, assetNumber, ifcType string, projectID int64, status models.ElementStatus) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(elementColNames).
		AddRow(id, assetNumber, ifcType, "", "", status, projectID, models.ConditionGood,
			models.ScanCode(assetNumber), now, now)
}

func TestElementRepo_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO asset_counters`).
		WithArgs("IfcBeam").
		WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO elements`).
		WithArgs("IfcBeam-000007", "IfcBeam", "", "", models.StatusActive, int64(3), models.ConditionGood, "TWX-ASSET-IfcBeam-000007").
		WillReturnRows(elementRow(42, "IfcBeam-000007", "IfcBeam", 3, models.StatusActive))
	mock.ExpectExec(`INSERT INTO transfer_records`).
		WithArgs(int64(42), int64(3), models.TransferActive, models.ConditionGood).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	repo := NewElementRepo(db)
	element, err := repo.Register(context.Background(), RegisterParams{
		IfcType:   "IfcBeam",
		ProjectID: 3,
		Condition: models.ConditionGood,
		CreatorID: 1,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if element.AssetNumber != "IfcBeam-000007" {
		t.Errorf("asset number = %q, want IfcBeam-000007", element.AssetNumber)
	}
	if element.ScanCode != "TWX-ASSET-IfcBeam-000007" {
		t.Errorf("scan code = %q", element.ScanCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_Register_SequencePerType(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	repo := NewElementRepo(db)

	// Two registrations of the same type get consecutive numbers; a
	// different type starts its own sequence.
	for i, tc := range []struct {
		ifcType string
		seq     int64
		number  string
	}{
		{"IfcColumn", 1, "IfcColumn-000001"},
		{"IfcColumn", 2, "IfcColumn-000002"},
		{"IfcSlab", 1, "IfcSlab-000001"},
	} {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO asset_counters`).
			WithArgs(tc.ifcType).
			WillReturnRows(sqlmock.NewRows([]string{"last_seq"}).AddRow(tc.seq))
		mock.ExpectQuery(`INSERT INTO elements`).
			WithArgs(tc.number, tc.ifcType, "", "", models.StatusActive, int64(1), models.ConditionFair, models.ScanCode(tc.number)).
			WillReturnRows(elementRow(int64(i+1), tc.number, tc.ifcType, 1, models.StatusActive))
		mock.ExpectExec(`INSERT INTO transfer_records`).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		element, err := repo.Register(context.Background(), RegisterParams{
			IfcType:   tc.ifcType,
			ProjectID: 1,
			Condition: models.ConditionFair,
		})
		if err != nil {
			t.Fatalf("Register %s: %v", tc.ifcType, err)
		}
		if element.AssetNumber != tc.number {
			t.Errorf("asset number = %q, want %q", element.AssetNumber, tc.number)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_Register_CounterFailureRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO asset_counters`).
		WithArgs("IfcBeam").
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	repo := NewElementRepo(db)
	_, err = repo.Register(context.Background(), RegisterParams{
		IfcType: "IfcBeam", ProjectID: 1, Condition: models.ConditionGood,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_GetByID_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM elements WHERE id = \$1`).
		WithArgs(int64(999)).
		WillReturnError(sql.ErrNoRows)

	repo := NewElementRepo(db)
	_, err = repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_GetByScanCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM elements WHERE scan_code = \$1`).
		WithArgs("TWX-ASSET-IfcBeam-000007").
		WillReturnRows(elementRow(42, "IfcBeam-000007", "IfcBeam", 3, models.StatusActive))

	repo := NewElementRepo(db)
	element, err := repo.GetByScanCode(context.Background(), "TWX-ASSET-IfcBeam-000007")
	if err != nil {
		t.Fatalf("GetByScanCode: %v", err)
	}
	if element.ID != 42 {
		t.Errorf("id = %d, want 42", element.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_List_Filters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM elements WHERE current_project_id = \$1 AND status = \$2 ORDER BY id LIMIT \$3 OFFSET \$4`).
		WithArgs(int64(3), models.StatusInTransit, 50, 0).
		WillReturnRows(elementRow(1, "IfcBeam-000001", "IfcBeam", 3, models.StatusInTransit))

	repo := NewElementRepo(db)
	elements, err := repo.List(context.Background(), ListFilter{ProjectID: 3, Status: models.StatusInTransit}, 50, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(elements) != 1 {
		t.Fatalf("len = %d, want 1", len(elements))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestElementRepo_UpdateMeta_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE elements`).
		WithArgs("n", "", models.ConditionPoor, int64(5)).
		WillReturnError(sql.ErrNoRows)

	repo := NewElementRepo(db)
	_, err = repo.UpdateMeta(context.Background(), 5, "n", "", models.ConditionPoor)
	if !errors.Is(err, ErrElementNotFound) {
		t.Errorf("err = %v, want ErrElementNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
