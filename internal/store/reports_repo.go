package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledgerport/internal/commerce"
	"ledgerport/internal/core"
	"ledgerport/internal/exporter"
)

var ErrReportNotFound = errors.New("report not found")

func (s *Store) InsertReport(ctx context.Context, rep *core.Report) error {
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now
	if rep.Status == "" {
		rep.Status = core.ReportPending
	}
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO reports (id, data_type, regime, format, start_date, end_date, status, file_path, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rep.ID, string(rep.DataType), rep.Regime, string(rep.Format),
		nullableTime(rep.StartDate), nullableTime(rep.EndDate), string(rep.Status),
		nullableString(rep.FilePath), nullableString(rep.ErrorMessage),
		rep.CreatedAt.Format(time.RFC3339Nano), rep.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func (s *Store) UpdateReport(ctx context.Context, rep *core.Report) error {
	rep.UpdatedAt = time.Now().UTC()
	res, err := s.DB.ExecContext(ctx, `
		UPDATE reports
		SET data_type = ?, regime = ?, format = ?, start_date = ?, end_date = ?, status = ?, file_path = ?, error = ?, updated_at = ?
		WHERE id = ?
	`, string(rep.DataType), rep.Regime, string(rep.Format),
		nullableTime(rep.StartDate), nullableTime(rep.EndDate), string(rep.Status),
		nullableString(rep.FilePath), nullableString(rep.ErrorMessage),
		rep.UpdatedAt.Format(time.RFC3339Nano), rep.ID)
	if err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update report rows: %w", err)
	}
	if rows == 0 {
		return ErrReportNotFound
	}
	return nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*core.Report, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT id, data_type, regime, format, start_date, end_date, status, file_path, error, created_at, updated_at
		FROM reports WHERE id = ?
	`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReportNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (s *Store) ListReports(ctx context.Context, status *core.ReportStatus, limit, offset int) ([]*core.Report, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT id, data_type, regime, format, start_date, end_date, status, file_path, error, created_at, updated_at
			FROM reports
			WHERE status = ?
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`, string(*status), limit, offset)
	} else {
		rows, err = s.DB.QueryContext(ctx, `
			SELECT id, data_type, regime, format, start_date, end_date, status, file_path, error, created_at, updated_at
			FROM reports
			ORDER BY created_at DESC
			LIMIT ? OFFSET ?
		`, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()
	var reports []*core.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Store) DeleteReport(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrReportNotFound
	}
	return nil
}

func scanReport(sc scanner) (*core.Report, error) {
	var (
		rep                  core.Report
		dataType, format     string
		status               string
		startNS, endNS       sql.NullString
		filePath, errMsg     sql.NullString
		createdAt, updatedAt string
	)
	if err := sc.Scan(&rep.ID, &dataType, &rep.Regime, &format, &startNS, &endNS,
		&status, &filePath, &errMsg, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rep.DataType = commerce.DataType(dataType)
	rep.Format = exporter.Format(format)
	rep.Status = core.ReportStatus(status)
	rep.FilePath = stringPtr(filePath)
	rep.ErrorMessage = stringPtr(errMsg)
	var err error
	if rep.StartDate, err = timePtr(startNS); err != nil {
		return nil, fmt.Errorf("parse report start date: %w", err)
	}
	if rep.EndDate, err = timePtr(endNS); err != nil {
		return nil, fmt.Errorf("parse report end date: %w", err)
	}
	if rep.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse report created_at: %w", err)
	}
	if rep.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse report updated_at: %w", err)
	}
	return &rep, nil
}
