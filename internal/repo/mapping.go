package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/twxlab/twx/internal/models"
)

// ErrMappingNotFound is returned when a reverse lookup matches nothing.
var ErrMappingNotFound = errors.New("model mapping not found")

// MappingRepo reads the external-model mapping directory. Creating a
// mapping goes through the workflow engine because a link into a
// different project can complete a transfer.
type MappingRepo struct {
	DB *sql.DB
}

func NewMappingRepo(db *sql.DB) *MappingRepo {
	return &MappingRepo{DB: db}
}

const mappingCols = `id, element_id, project_id, external_element_id, external_object_url, is_active, mapped_by_user_id, notes, created_at`

// ScanMapping scans one model_mappings row. Shared with the workflow engine.
func ScanMapping(row interface{ Scan(...interface{}) error }) (*models.ModelMapping, error) {
	m := &models.ModelMapping{}
	err := row.Scan(
		&m.ID,
		&m.ElementID,
		&m.ProjectID,
		&m.ExternalElementID,
		&m.ExternalObjectURL,
		&m.IsActive,
		&m.MappedByUserID,
		&m.Notes,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ListByElement returns the element's mappings, active first, newest first.
// projectID narrows to one project when non-zero.
func (r *MappingRepo) ListByElement(ctx context.Context, elementID, projectID int64) ([]models.ModelMapping, error) {
	query := `SELECT ` + mappingCols + ` FROM model_mappings WHERE element_id = $1`
	args := []interface{}{elementID}
	if projectID != 0 {
		query += ` AND project_id = $2`
		args = append(args, projectID)
	}
	query += ` ORDER BY is_active DESC, created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mappings []models.ModelMapping
	for rows.Next() {
		m, err := ScanMapping(rows)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, *m)
	}
	return mappings, rows.Err()
}

// ActiveByElement returns the element's single active mapping, or
// ErrMappingNotFound when the element is not linked.
func (r *MappingRepo) ActiveByElement(ctx context.Context, elementID int64) (*models.ModelMapping, error) {
	m, err := ScanMapping(r.DB.QueryRowContext(ctx,
		`SELECT `+mappingCols+` FROM model_mappings WHERE element_id = $1 AND is_active`,
		elementID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// CheckLinking is the reverse lookup: given an external model object id,
// summarize the element that owns the most recent active mapping to it.
func (r *MappingRepo) CheckLinking(ctx context.Context, externalElementID string) (*models.LinkedAsset, error) {
	a := &models.LinkedAsset{}
	err := r.DB.QueryRowContext(ctx,
		`SELECT e.id, e.asset_number, e.status, e.current_condition, e.current_project_id
		 FROM model_mappings m
		 JOIN elements e ON e.id = m.element_id
		 WHERE m.external_element_id = $1 AND m.is_active
		 ORDER BY m.created_at DESC
		 LIMIT 1`,
		externalElementID,
	).Scan(&a.ElementID, &a.AssetNumber, &a.Status, &a.CurrentCondition, &a.CurrentProjectID)
	if err == sql.ErrNoRows {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
