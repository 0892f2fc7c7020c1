package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mbolis/qr-requests/model"
)

// AddSubmission validates and persists a viewer submission against the
// request identified by token. The whole check-then-insert runs in one
// transaction: status gate, one-time-use gate, field validation,
// duplicate-phone check, insert, used_count bump.
func (s *Store) AddSubmission(ctx context.Context, token string, in model.SubmissionInput) (model.Submission, error) {
	in = in.Normalize()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Submission{}, err
	}
	defer tx.Rollback()

	var (
		requestID  int
		status     string
		oneTimeUse bool
		usedCount  int
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, one_time_use, used_count
		FROM request
		WHERE token = ?`,
		token,
	).Scan(&requestID, &status, &oneTimeUse, &usedCount)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, ErrNotFound
	}
	if err != nil {
		return model.Submission{}, err
	}

	if status != model.StatusOpen {
		return model.Submission{}, ErrClosed
	}
	if oneTimeUse && usedCount > 0 {
		return model.Submission{}, ErrTokenUsed
	}

	err = in.Validate()
	if err != nil {
		return model.Submission{}, err
	}

	var duplicate bool
	err = tx.QueryRowContext(ctx, `
		SELECT 1 FROM submission
		WHERE request_id = ?
			AND phone = ?`,
		requestID,
		in.Phone,
	).Scan(&duplicate)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return model.Submission{}, err
	}
	if duplicate {
		return model.Submission{}, ErrDuplicatePhone
	}

	sub := model.Submission{
		RequestID: requestID,
		Name:      in.Name,
		Phone:     in.Phone,
		Email:     in.Email,
		CreatedAt: time.Now().UTC(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO submission (request_id, name, phone, email, created_at)
		VALUES (?, ?, ?, NULLIF(?, ''), ?)
		RETURNING id`,
		sub.RequestID,
		sub.Name,
		sub.Phone,
		sub.Email,
		sub.CreatedAt,
	).Scan(&sub.ID)
	if err != nil {
		return model.Submission{}, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE request SET used_count = used_count + 1 WHERE id = ?`,
		requestID,
	)
	if err != nil {
		return model.Submission{}, err
	}

	err = tx.Commit()
	if err != nil {
		return model.Submission{}, err
	}
	return sub, nil
}

// ListSubmissions returns a request's submissions, newest first.
func (s *Store) ListSubmissions(ctx context.Context, requestID int) ([]model.Submission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, name, phone, COALESCE(email, ''), created_at
		FROM submission
		WHERE request_id = ?
		ORDER BY created_at DESC, id DESC`,
		requestID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.Submission{}
	for rows.Next() {
		var sub model.Submission
		err = rows.Scan(&sub.ID, &sub.RequestID, &sub.Name, &sub.Phone, &sub.Email, &sub.CreatedAt)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SubmissionFilter narrows review queries. Name and Phone match as
// substrings (name case-insensitively); From is inclusive, To exclusive.
type SubmissionFilter struct {
	Name  string
	Phone string
	From  *time.Time
	To    *time.Time
}

func (f SubmissionFilter) where() (string, []any) {
	conds := []string{}
	args := []any{}
	if f.Name != "" {
		conds = append(conds, `instr(lower(s.name), lower(?)) > 0`)
		args = append(args, f.Name)
	}
	if f.Phone != "" {
		conds = append(conds, `instr(s.phone, ?) > 0`)
		args = append(args, f.Phone)
	}
	if f.From != nil {
		conds = append(conds, `s.created_at >= ?`)
		args = append(args, f.From.UTC())
	}
	if f.To != nil {
		conds = append(conds, `s.created_at < ?`)
		args = append(args, f.To.UTC())
	}

	where := ""
	for i, cond := range conds {
		if i == 0 {
			where = " WHERE " + cond
		} else {
			where += " AND " + cond
		}
	}
	return where, args
}

// SearchSubmissions powers the review page: submissions across all
// requests, joined with request title and points.
func (s *Store) SearchSubmissions(ctx context.Context, f SubmissionFilter) ([]model.SubmissionDetail, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.id, s.request_id, s.name, s.phone, COALESCE(s.email, ''), s.created_at,
			r.title, r.points
		FROM submission s
		INNER JOIN request r ON (r.id = s.request_id)`+where+`
		ORDER BY s.created_at DESC, s.id DESC`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []model.SubmissionDetail{}
	for rows.Next() {
		var sub model.SubmissionDetail
		err = rows.Scan(
			&sub.ID, &sub.RequestID, &sub.Name, &sub.Phone, &sub.Email, &sub.CreatedAt,
			&sub.RequestTitle, &sub.Points,
		)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
