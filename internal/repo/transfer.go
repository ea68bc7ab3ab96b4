package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/twxlab/twx/internal/models"
)

// ErrTransferNotFound is returned when no pending transfer exists for a pair.
var ErrTransferNotFound = errors.New("pending transfer not found")

// TransferRepo reads the append-only transfer history. Writes go through
// the workflow engine so the multi-row transitions stay in one transaction.
type TransferRepo struct {
	DB *sql.DB
}

func NewTransferRepo(db *sql.DB) *TransferRepo {
	return &TransferRepo{DB: db}
}

const transferCols = `id, element_id, project_id, status, transferred_from_project_id,
	source_approved, source_approver_id, source_approved_at,
	dest_approved, dest_approver_id, dest_approved_at,
	received_condition, condition_notes, actual_location, activated_date, created_at`

// ScanTransfer scans one transfer_records row. Shared with the workflow engine.
func ScanTransfer(row interface{ Scan(...interface{}) error }) (*models.TransferRecord, error) {
	t := &models.TransferRecord{}
	err := row.Scan(
		&t.ID,
		&t.ElementID,
		&t.ProjectID,
		&t.Status,
		&t.TransferredFromProjectID,
		&t.SourceApproved,
		&t.SourceApproverID,
		&t.SourceApprovedAt,
		&t.DestApproved,
		&t.DestApproverID,
		&t.DestApprovedAt,
		&t.ReceivedCondition,
		&t.ConditionNotes,
		&t.ActualLocation,
		&t.ActivatedDate,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListByElement returns the element's transfer history, newest first.
func (r *TransferRepo) ListByElement(ctx context.Context, elementID int64) ([]models.TransferRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+transferCols+` FROM transfer_records WHERE element_id = $1 ORDER BY created_at DESC, id DESC`,
		elementID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransferRecord
	for rows.Next() {
		t, err := ScanTransfer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *t)
	}
	return records, rows.Err()
}

// GetPending returns the open pending_approval record for the pair, or
// ErrTransferNotFound.
func (r *TransferRepo) GetPending(ctx context.Context, elementID, projectID int64) (*models.TransferRecord, error) {
	t, err := ScanTransfer(r.DB.QueryRowContext(ctx,
		`SELECT `+transferCols+` FROM transfer_records
		 WHERE element_id = $1 AND project_id = $2 AND status = $3`,
		elementID, projectID, models.TransferPendingApproval,
	))
	if err == sql.ErrNoRows {
		return nil, ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListPending returns all open pending_approval records, oldest first.
func (r *TransferRepo) ListPending(ctx context.Context, limit, offset int) ([]models.TransferRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+transferCols+` FROM transfer_records
		 WHERE status = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		models.TransferPendingApproval, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.TransferRecord
	for rows.Next() {
		t, err := ScanTransfer(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *t)
	}
	return records, rows.Err()
}

// CountPending returns the number of open pending_approval records.
func (r *TransferRepo) CountPending(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transfer_records WHERE status = $1`,
		models.TransferPendingApproval,
	).Scan(&n)
	return n, err
}
