package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/twxlab/twx/internal/models"
)

// ErrElementNotFound is returned when an element id or scan code matches nothing.
var ErrElementNotFound = errors.New("element not found")

// ========================
// REPOSITORY STRUCT
// ========================

type ElementRepo struct {
	DB *sql.DB
}

func NewElementRepo(db *sql.DB) *ElementRepo {
	return &ElementRepo{DB: db}
}

const ElementCols = `id, asset_number, ifc_type, name, notes, status, current_project_id, current_condition, scan_code, created_at, updated_at`

func ScanElement(row interface{ Scan(...interface{}) error }) (*models.Element, error) {
	e := &models.Element{}
	err := row.Scan(
		&e.ID,
		&e.AssetNumber,
		&e.IfcType,
		&e.Name,
		&e.Notes,
		&e.Status,
		&e.CurrentProjectID,
		&e.CurrentCondition,
		&e.ScanCode,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return e, nil
}

// RegisterParams holds the validated input for registering a new element.
type RegisterParams struct {
	IfcType   string
	ProjectID int64
	Condition models.Condition
	Name      string
	Notes     string
	CreatorID int64
}

// ========================
// REGISTER ELEMENT
// ========================

// Register reserves the next asset number for the ifcType, inserts the
// element (status active) and its opening transfer record, all in one
// transaction. The counter upsert serializes concurrent registrations of
// the same ifcType on the asset_counters row lock, so duplicate numbers
// cannot be issued.
func (r *ElementRepo) Register(ctx context.Context, p RegisterParams) (*models.Element, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var seq int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO asset_counters (ifc_type, last_seq)
		 VALUES ($1, 1)
		 ON CONFLICT (ifc_type) DO UPDATE SET last_seq = asset_counters.last_seq + 1
		 RETURNING last_seq`,
		p.IfcType,
	).Scan(&seq)
	if err != nil {
		return nil, fmt.Errorf("reserve asset number: %w", err)
	}

	assetNumber := fmt.Sprintf("%s-%06d", p.IfcType, seq)
	scanCode := models.ScanCode(assetNumber)

	element, err := ScanElement(tx.QueryRowContext(ctx,
		`INSERT INTO elements (asset_number, ifc_type, name, notes, status, current_project_id, current_condition, scan_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+ElementCols,
		assetNumber, p.IfcType, p.Name, p.Notes, models.StatusActive, p.ProjectID, p.Condition, scanCode,
	))
	if err != nil {
		return nil, fmt.Errorf("insert element: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO transfer_records (element_id, project_id, status, received_condition, activated_date)
		 VALUES ($1, $2, $3, $4, NOW())`,
		element.ID, p.ProjectID, models.TransferActive, p.Condition,
	)
	if err != nil {
		return nil, fmt.Errorf("insert opening transfer record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return element, nil
}

// ========================
// GETTERS
// ========================

func (r *ElementRepo) GetByID(ctx context.Context, id int64) (*models.Element, error) {
	element, err := ScanElement(r.DB.QueryRowContext(ctx,
		`SELECT `+ElementCols+` FROM elements WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, ErrElementNotFound
	}
	if err != nil {
		return nil, err
	}
	return element, nil
}

func (r *ElementRepo) GetByScanCode(ctx context.Context, code string) (*models.Element, error) {
	element, err := ScanElement(r.DB.QueryRowContext(ctx,
		`SELECT `+ElementCols+` FROM elements WHERE scan_code = $1`, code))
	if err == sql.ErrNoRows {
		return nil, ErrElementNotFound
	}
	if err != nil {
		return nil, err
	}
	return element, nil
}

// ========================
// LIST ELEMENTS
// ========================

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	ProjectID int64
	Status    models.ElementStatus
	IfcType   string
}

func (r *ElementRepo) List(ctx context.Context, f ListFilter, limit, offset int) ([]models.Element, error) {
	query := `SELECT ` + ElementCols + ` FROM elements`
	var args []interface{}
	var where []string

	if f.ProjectID != 0 {
		args = append(args, f.ProjectID)
		where = append(where, "current_project_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if f.IfcType != "" {
		args = append(args, f.IfcType)
		where = append(where, "ifc_type = $"+strconv.Itoa(len(args)))
	}
	for i, w := range where {
		if i == 0 {
			query += " WHERE " + w
		} else {
			query += " AND " + w
		}
	}
	args = append(args, limit)
	query += " ORDER BY id LIMIT $" + strconv.Itoa(len(args))
	args = append(args, offset)
	query += " OFFSET $" + strconv.Itoa(len(args))

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var elements []models.Element
	for rows.Next() {
		e, err := ScanElement(rows)
		if err != nil {
			return nil, err
		}
		elements = append(elements, *e)
	}
	return elements, rows.Err()
}

// ========================
// UPDATE ELEMENT
// ========================

// UpdateMeta updates the mutable descriptive fields. Asset number, ifc
// type, scan code, status and project assignment are owned elsewhere and
// cannot be changed here.
func (r *ElementRepo) UpdateMeta(ctx context.Context, id int64, name, notes string, condition models.Condition) (*models.Element, error) {
	element, err := ScanElement(r.DB.QueryRowContext(ctx,
		`UPDATE elements
		 SET name = $1, notes = $2, current_condition = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+ElementCols,
		name, notes, condition, id,
	))
	if err == sql.ErrNoRows {
		return nil, ErrElementNotFound
	}
	if err != nil {
		return nil, err
	}
	return element, nil
}

// CountMissingRecentInspection returns how many elements have no
// inspection row in their current project newer than the cutoff. Used by
// the overdue-inspection sweep.
func (r *ElementRepo) CountMissingRecentInspection(ctx context.Context, cutoffDays int) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM elements e
		 WHERE e.status <> 'scrapped' AND e.status <> 'retired'
		   AND NOT EXISTS (
		     SELECT 1 FROM inspection_records i
		     WHERE i.element_id = e.id
		       AND i.project_id = e.current_project_id
		       AND i.updated_at > NOW() - ($1 * INTERVAL '1 day')
		   )`,
		cutoffDays,
	).Scan(&n)
	return n, err
}
