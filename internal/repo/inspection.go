package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twxlab/twx/internal/models"
)

// ErrInspectionNotFound is returned when no inspection row matches.
var ErrInspectionNotFound = errors.New("inspection not found")

// InspectionRepo is the versioned inspection ledger: exactly one row per
// (element, project) pair with upsert semantics.
type InspectionRepo struct {
	DB *sql.DB
}

func NewInspectionRepo(db *sql.DB) *InspectionRepo {
	return &InspectionRepo{DB: db}
}

const inspectionCols = `id, element_id, project_id, version, created_by_user_id, last_modified_by_user_id,
	inspector, status, notes, inspection_date, attributes, updated_at`

func scanInspection(row interface{ Scan(...interface{}) error }) (*models.InspectionRecord, error) {
	rec := &models.InspectionRecord{}
	var attrs []byte
	err := row.Scan(
		&rec.ID,
		&rec.ElementID,
		&rec.ProjectID,
		&rec.Version,
		&rec.CreatedByUserID,
		&rec.LastModifiedByUserID,
		&rec.Inspector,
		&rec.Status,
		&rec.Notes,
		&rec.Date,
		&attrs,
		&rec.Timestamp,
	)
	if err != nil {
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &rec.Attributes); err != nil {
			return nil, fmt.Errorf("decode inspection attributes: %w", err)
		}
	}
	return rec, nil
}

// UpsertParams is one inspection filing. Nil pointer fields were not
// supplied by the caller and keep their existing (or default) value.
// Attributes merge key-by-key over the stored bag; the ledger does not
// interpret them.
type UpsertParams struct {
	ElementID  int64
	ProjectID  int64
	ActorID    int64
	Inspector  *string
	Status     *string
	Notes      *string
	Date       *string
	Attributes map[string]interface{}
}

// Upsert files an inspection. First filing inserts version 1 with the
// actor as creator; later filings lock the row, merge supplied fields and
// bump the version. createdByUserID never changes after the first filing.
func (r *InspectionRepo) Upsert(ctx context.Context, p UpsertParams) (*models.InspectionRecord, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := scanInspection(tx.QueryRowContext(ctx,
		`SELECT `+inspectionCols+` FROM inspection_records
		 WHERE element_id = $1 AND project_id = $2
		 FOR UPDATE`,
		p.ElementID, p.ProjectID,
	))
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	var rec *models.InspectionRecord
	if existing == nil {
		inspector := models.DefaultInspector
		status := models.DefaultInspectionStatus
		notes := ""
		date := ""
		if p.Inspector != nil {
			inspector = *p.Inspector
		}
		if p.Status != nil {
			status = *p.Status
		}
		if p.Notes != nil {
			notes = *p.Notes
		}
		if p.Date != nil {
			date = *p.Date
		}
		attrs, err := json.Marshal(nonNilAttrs(p.Attributes))
		if err != nil {
			return nil, err
		}
		rec, err = scanInspection(tx.QueryRowContext(ctx,
			`INSERT INTO inspection_records
			 (element_id, project_id, version, created_by_user_id, last_modified_by_user_id, inspector, status, notes, inspection_date, attributes)
			 VALUES ($1, $2, 1, $3, $3, $4, $5, $6, $7, $8)
			 RETURNING `+inspectionCols,
			p.ElementID, p.ProjectID, p.ActorID, inspector, status, notes, date, attrs,
		))
		if err != nil {
			return nil, fmt.Errorf("insert inspection: %w", err)
		}
	} else {
		if p.Inspector != nil {
			existing.Inspector = *p.Inspector
		}
		if p.Status != nil {
			existing.Status = *p.Status
		}
		if p.Notes != nil {
			existing.Notes = *p.Notes
		}
		if p.Date != nil {
			existing.Date = *p.Date
		}
		merged := nonNilAttrs(existing.Attributes)
		for k, v := range p.Attributes {
			merged[k] = v
		}
		attrs, err := json.Marshal(merged)
		if err != nil {
			return nil, err
		}
		rec, err = scanInspection(tx.QueryRowContext(ctx,
			`UPDATE inspection_records
			 SET version = $1, last_modified_by_user_id = $2, inspector = $3, status = $4, notes = $5, inspection_date = $6, attributes = $7, updated_at = NOW()
			 WHERE id = $8
			 RETURNING `+inspectionCols,
			existing.Version+1, p.ActorID, existing.Inspector, existing.Status, existing.Notes, existing.Date, attrs, existing.ID,
		))
		if err != nil {
			return nil, fmt.Errorf("update inspection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return rec, nil
}

func nonNilAttrs(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	return m
}

// GetByElement returns all inspections for an element, newest first.
func (r *InspectionRepo) GetByElement(ctx context.Context, elementID int64) ([]models.InspectionRecord, error) {
	return r.list(ctx,
		`SELECT `+inspectionCols+` FROM inspection_records WHERE element_id = $1 ORDER BY updated_at DESC, id DESC`,
		elementID)
}

// GetByElementProject returns the single row for the pair, or ErrInspectionNotFound.
func (r *InspectionRepo) GetByElementProject(ctx context.Context, elementID, projectID int64) (*models.InspectionRecord, error) {
	rec, err := scanInspection(r.DB.QueryRowContext(ctx,
		`SELECT `+inspectionCols+` FROM inspection_records WHERE element_id = $1 AND project_id = $2`,
		elementID, projectID,
	))
	if err == sql.ErrNoRows {
		return nil, ErrInspectionNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByProject returns a project's inspections, newest first.
func (r *InspectionRepo) ListByProject(ctx context.Context, projectID int64, limit, offset int) ([]models.InspectionRecord, error) {
	return r.list(ctx,
		`SELECT `+inspectionCols+` FROM inspection_records WHERE project_id = $1 ORDER BY updated_at DESC, id DESC LIMIT $2 OFFSET $3`,
		projectID, limit, offset)
}

// List returns all inspections, newest first.
func (r *InspectionRepo) List(ctx context.Context, limit, offset int) ([]models.InspectionRecord, error) {
	return r.list(ctx,
		`SELECT `+inspectionCols+` FROM inspection_records ORDER BY updated_at DESC, id DESC LIMIT $1 OFFSET $2`,
		limit, offset)
}

func (r *InspectionRepo) list(ctx context.Context, query string, args ...interface{}) ([]models.InspectionRecord, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.InspectionRecord
	for rows.Next() {
		rec, err := scanInspection(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}
