package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/twxlab/twx/internal/metrics"
	"github.com/twxlab/twx/internal/models"
	"github.com/twxlab/twx/internal/repo"
)

// CompletionVia names the path a transfer completion came through. Both
// paths end in the same transition; the via is recorded in logs and
// metrics so the shortcut stays observable.
type CompletionVia string

const (
	ViaDirectLink      CompletionVia = "direct_link"
	ViaApprovedReceipt CompletionVia = "approved_receipt"
)

// Engine is the transfer workflow state machine. All multi-row
// transitions run in a single transaction; element rows are locked for
// the duration so concurrent requests against the same element serialize.
type Engine struct {
	DB *sql.DB
}

func New(db *sql.DB) *Engine {
	return &Engine{DB: db}
}

// RequestTransfer opens (or returns) the pending transfer for the pair
// and moves the element to in_transit. When the target project equals the
// element's current project this is a no-op and the returned record is nil.
func (e *Engine) RequestTransfer(ctx context.Context, elementID, targetProjectID, actorID int64) (*models.TransferRecord, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	element, err := lockElement(ctx, tx, elementID)
	if err != nil {
		return nil, err
	}
	if element.CurrentProjectID == targetProjectID {
		return nil, tx.Commit()
	}

	record, err := pendingForUpdate(ctx, tx, elementID, targetProjectID)
	if err != nil && err != repo.ErrTransferNotFound {
		return nil, err
	}
	if record == nil {
		record, err = repo.ScanTransfer(tx.QueryRowContext(ctx,
			`INSERT INTO transfer_records (element_id, project_id, status, transferred_from_project_id)
			 VALUES ($1, $2, $3, $4)
			 RETURNING `+transferCols,
			elementID, targetProjectID, models.TransferPendingApproval, element.CurrentProjectID,
		))
		if err != nil {
			return nil, fmt.Errorf("insert pending transfer: %w", err)
		}
	}

	// The in_transit transition is explicit on every request path, even
	// when the pending record already existed.
	if element.Status != models.StatusInTransit {
		if _, err := tx.ExecContext(ctx,
			`UPDATE elements SET status = $1, updated_at = NOW() WHERE id = $2`,
			models.StatusInTransit, elementID,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("transfer requested",
		"element_id", elementID,
		"from_project", element.CurrentProjectID,
		"to_project", targetProjectID,
		"actor_id", actorID)
	metrics.IncTransfersRequested()
	return record, nil
}

// Approve records one side's sign-off on the pending transfer for the
// pair. Re-approving by the same role overwrites the approver and
// timestamp. Returns the updated record; callers read BothApproved from it.
func (e *Engine) Approve(ctx context.Context, elementID, targetProjectID int64, role models.ApprovalRole, actorID int64) (*models.TransferRecord, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, err := pendingForUpdate(ctx, tx, elementID, targetProjectID)
	if err != nil {
		return nil, err
	}

	var column string
	switch role {
	case models.RoleSource:
		column = "source"
	case models.RoleDestination:
		column = "dest"
	default:
		return nil, fmt.Errorf("unknown approval role %q", role)
	}

	record, err = repo.ScanTransfer(tx.QueryRowContext(ctx,
		`UPDATE transfer_records
		 SET `+column+`_approved = TRUE, `+column+`_approver_id = $1, `+column+`_approved_at = NOW()
		 WHERE id = $2
		 RETURNING `+transferCols,
		actorID, record.ID,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	slog.Info("transfer approval recorded",
		"element_id", elementID,
		"to_project", targetProjectID,
		"role", role,
		"actor_id", actorID,
		"both_approved", record.BothApproved())
	return record, nil
}

// ReceiveParams carries the physical receipt details.
type ReceiveParams struct {
	Condition      models.Condition
	ConditionNotes string
	ActualLocation string
	ActorID        int64
}

// Receive completes an approved transfer: the element must be in_transit,
// a pending record must exist for the pair, and both approvals must be
// recorded. On success the element becomes active in the target project
// with the received condition, atomically with the record activation.
func (e *Engine) Receive(ctx context.Context, elementID, targetProjectID int64, p ReceiveParams) (*models.Element, *models.TransferRecord, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	element, err := lockElement(ctx, tx, elementID)
	if err != nil {
		return nil, nil, err
	}
	record, err := pendingForUpdate(ctx, tx, elementID, targetProjectID)
	if err != nil {
		return nil, nil, err
	}

	if element.Status != models.StatusInTransit {
		return nil, nil, &PreconditionError{
			Reason:           ReasonNotInTransit,
			ElementStatus:    element.Status,
			MissingApprovals: missingApprovals(record),
		}
	}
	if missing := missingApprovals(record); len(missing) > 0 {
		return nil, nil, &PreconditionError{
			Reason:           ReasonMissingApprovals,
			ElementStatus:    element.Status,
			MissingApprovals: missing,
		}
	}

	element, record, err = e.complete(ctx, tx, ViaApprovedReceipt, element, record, completion{
		condition:      p.Condition,
		conditionNotes: p.ConditionNotes,
		actualLocation: p.ActualLocation,
		actorID:        p.ActorID,
	})
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return element, record, nil
}

// LinkParams is one mapping-directory link request.
type LinkParams struct {
	ElementID         int64
	ProjectID         int64
	ExternalElementID string
	ExternalObjectURL string
	ActorID           int64
	Notes             string
}

// Link attaches the element to an external model object. Any previously
// active mapping is deactivated in the same transaction, so there is
// never an instant with zero or two active mappings. When the mapping's
// project differs from the element's current project the link also
// completes the move: an existing pending transfer is force-approved and
// activated, otherwise an active record is appended directly, bypassing
// the approval protocol (the shortcut path).
func (e *Engine) Link(ctx context.Context, p LinkParams) (*models.ModelMapping, error) {
	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	element, err := lockElement(ctx, tx, p.ElementID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE model_mappings SET is_active = FALSE WHERE element_id = $1 AND is_active`,
		p.ElementID,
	); err != nil {
		return nil, fmt.Errorf("deactivate mappings: %w", err)
	}

	mapping, err := repo.ScanMapping(tx.QueryRowContext(ctx,
		`INSERT INTO model_mappings (element_id, project_id, external_element_id, external_object_url, is_active, mapped_by_user_id, notes)
		 VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		 RETURNING id, element_id, project_id, external_element_id, external_object_url, is_active, mapped_by_user_id, notes, created_at`,
		p.ElementID, p.ProjectID, p.ExternalElementID, p.ExternalObjectURL, p.ActorID, p.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("insert mapping: %w", err)
	}

	if p.ProjectID != element.CurrentProjectID {
		record, err := pendingForUpdate(ctx, tx, p.ElementID, p.ProjectID)
		if err != nil && err != repo.ErrTransferNotFound {
			return nil, err
		}
		if record == nil {
			record, err = repo.ScanTransfer(tx.QueryRowContext(ctx,
				`INSERT INTO transfer_records (element_id, project_id, status, transferred_from_project_id)
				 VALUES ($1, $2, $3, $4)
				 RETURNING `+transferCols,
				p.ElementID, p.ProjectID, models.TransferPendingApproval, element.CurrentProjectID,
			))
			if err != nil {
				return nil, fmt.Errorf("insert transfer record: %w", err)
			}
		}
		if _, _, err := e.complete(ctx, tx, ViaDirectLink, element, record, completion{
			condition: element.CurrentCondition,
			actorID:   p.ActorID,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return mapping, nil
}

// completion carries the receipt fields into the shared transition.
type completion struct {
	condition      models.Condition
	conditionNotes string
	actualLocation string
	actorID        int64
}

// complete is the single authoritative transition that activates a
// transfer record and the element, regardless of which path triggered
// it. The direct-link path forces both approvals true, attributing the
// destination approval to the linking actor; the approved-receipt path
// requires the approvals already present.
func (e *Engine) complete(ctx context.Context, tx *sql.Tx, via CompletionVia, element *models.Element, record *models.TransferRecord, c completion) (*models.Element, *models.TransferRecord, error) {
	if via == ViaDirectLink {
		var err error
		record, err = repo.ScanTransfer(tx.QueryRowContext(ctx,
			`UPDATE transfer_records
			 SET source_approved = TRUE,
			     source_approved_at = COALESCE(source_approved_at, NOW()),
			     dest_approved = TRUE, dest_approver_id = $1, dest_approved_at = NOW()
			 WHERE id = $2
			 RETURNING `+transferCols,
			c.actorID, record.ID,
		))
		if err != nil {
			return nil, nil, err
		}
	}

	record, err := repo.ScanTransfer(tx.QueryRowContext(ctx,
		`UPDATE transfer_records
		 SET status = $1, activated_date = NOW(), received_condition = $2, condition_notes = $3, actual_location = $4
		 WHERE id = $5
		 RETURNING `+transferCols,
		models.TransferActive, c.condition, c.conditionNotes, c.actualLocation, record.ID,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("activate transfer record: %w", err)
	}

	element, err = repo.ScanElement(tx.QueryRowContext(ctx,
		`UPDATE elements
		 SET status = $1, current_project_id = $2, current_condition = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+repo.ElementCols,
		models.StatusActive, record.ProjectID, c.condition, element.ID,
	))
	if err != nil {
		return nil, nil, fmt.Errorf("activate element: %w", err)
	}

	slog.Info("transfer completed",
		"element_id", element.ID,
		"to_project", record.ProjectID,
		"via", via,
		"actor_id", c.actorID)
	metrics.IncTransfersCompleted(string(via))
	return element, record, nil
}

// transferCols mirrors repo.TransferRepo's column list for RETURNING clauses.
const transferCols = `id, element_id, project_id, status, transferred_from_project_id,
	source_approved, source_approver_id, source_approved_at,
	dest_approved, dest_approver_id, dest_approved_at,
	received_condition, condition_notes, actual_location, activated_date, created_at`

func lockElement(ctx context.Context, tx *sql.Tx, id int64) (*models.Element, error) {
	element, err := repo.ScanElement(tx.QueryRowContext(ctx,
		`SELECT `+repo.ElementCols+` FROM elements WHERE id = $1 FOR UPDATE`, id))
	if err == sql.ErrNoRows {
		return nil, repo.ErrElementNotFound
	}
	if err != nil {
		return nil, err
	}
	return element, nil
}

func pendingForUpdate(ctx context.Context, tx *sql.Tx, elementID, projectID int64) (*models.TransferRecord, error) {
	record, err := repo.ScanTransfer(tx.QueryRowContext(ctx,
		`SELECT `+transferCols+` FROM transfer_records
		 WHERE element_id = $1 AND project_id = $2 AND status = $3
		 FOR UPDATE`,
		elementID, projectID, models.TransferPendingApproval,
	))
	if err == sql.ErrNoRows {
		return nil, repo.ErrTransferNotFound
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func missingApprovals(record *models.TransferRecord) []models.ApprovalRole {
	var missing []models.ApprovalRole
	if !record.SourceApproved {
		missing = append(missing, models.RoleSource)
	}
	if !record.DestApproved {
		missing = append(missing, models.RoleDestination)
	}
	return missing
}
