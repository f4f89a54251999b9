package postgres

import (
	"context"
	"database/sql"

	"informeclaro/internal/model"
	"informeclaro/internal/repository"
)

// ReportPostgres is a PostgreSQL implementation of repository.ReportRepository.
type ReportPostgres struct {
	db *sql.DB
}

// NewReportPostgres creates a new ReportPostgres repository.
func NewReportPostgres(db *sql.DB) *ReportPostgres {
	return &ReportPostgres{db: db}
}

var _ repository.ReportRepository = (*ReportPostgres)(nil)

const reportColumns = `id, session_id, original_name, output_name, status, error_message, archive_key, size, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*model.Report, error) {
	var (
		r      model.Report
		status string
	)
	if err := s.Scan(
		&r.ID,
		&r.SessionID,
		&r.OriginalName,
		&r.OutputName,
		&status,
		&r.ErrorMessage,
		&r.ArchiveKey,
		&r.Size,
		&r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Status = model.ReportStatus(status)
	return &r, nil
}

// Create inserts a report row and returns the stored record.
func (p *ReportPostgres) Create(ctx context.Context, r *model.Report) (*model.Report, error) {
	const q = `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + reportColumns
	row := p.db.QueryRowContext(ctx, q,
		r.ID,
		r.SessionID,
		r.OriginalName,
		r.OutputName,
		string(r.Status),
		r.ErrorMessage,
		r.ArchiveKey,
		r.Size,
		r.CreatedAt,
	)
	return scanReport(row)
}

// FindByID fetches a single report by its ID.
func (p *ReportPostgres) FindByID(ctx context.Context, id string) (*model.Report, error) {
	const q = `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`
	return scanReport(p.db.QueryRowContext(ctx, q, id))
}

// List returns reports using LIMIT/OFFSET pagination and a total count.
func (p *ReportPostgres) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.Report], error) {
	var total int
	if err := p.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports`).Scan(&total); err != nil {
		return nil, err
	}

	const q = `SELECT ` + reportColumns + ` FROM reports ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`
	rows, err := p.db.QueryContext(ctx, q, pq.Limit, pq.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Report, 0)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &repository.PageResult[model.Report]{Items: items, Total: total}, nil
}
