package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mbolis/qr-requests/model"
)

type NewRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OneTimeUse  bool   `json:"one_time_use"`
	Points      int    `json:"points"`
	QRContent   string `json:"qr_content"`
}

func (nr NewRequest) validate() error {
	if strings.TrimSpace(nr.Title) == "" {
		return model.ValidationError{"title": "title is required"}
	}
	if nr.Points < 0 {
		return model.ValidationError{"points": "points cannot be negative"}
	}
	return nil
}

// CreateRequest persists a new open request with a fresh unique token.
func (s *Store) CreateRequest(ctx context.Context, nr NewRequest) (model.Request, error) {
	err := nr.validate()
	if err != nil {
		return model.Request{}, err
	}
	return insertRequest(ctx, s.db, nr, strings.TrimSpace(nr.Title))
}

// CreateBatch creates count requests in one transaction, suffixing the
// title with #1..#count so each printed QR stays attributable.
func (s *Store) CreateBatch(ctx context.Context, nr NewRequest, count int) ([]model.Request, error) {
	err := nr.validate()
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, model.ValidationError{"count": "count must be at least 1"}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	title := strings.TrimSpace(nr.Title)
	reqs := make([]model.Request, 0, count)
	for i := 1; i <= count; i++ {
		req, err := insertRequest(ctx, tx, nr, fmt.Sprintf("%s #%d", title, i))
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertRequest(ctx context.Context, db execer, nr NewRequest, title string) (model.Request, error) {
	token, err := newToken()
	if err != nil {
		return model.Request{}, err
	}

	req := model.Request{
		Title:       title,
		Description: strings.TrimSpace(nr.Description),
		Status:      model.StatusOpen,
		Token:       token,
		OneTimeUse:  nr.OneTimeUse,
		Points:      nr.Points,
		QRContent:   strings.TrimSpace(nr.QRContent),
		CreatedAt:   time.Now().UTC(),
	}

	err = db.QueryRowContext(ctx, `
		INSERT INTO request (title, description, status, token, one_time_use, points, qr_content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?)
		RETURNING id`,
		req.Title,
		req.Description,
		req.Status,
		req.Token,
		req.OneTimeUse,
		req.Points,
		req.QRContent,
		req.CreatedAt,
	).Scan(&req.ID)
	if err != nil {
		return model.Request{}, err
	}
	return req, nil
}

// ListRequests returns requests newest first, optionally filtered by
// status ("" means all).
func (s *Store) ListRequests(ctx context.Context, status string) ([]model.Request, error) {
	query := `
		SELECT
			r.id, r.title, r.description, r.status, r.token,
			r.one_time_use, r.used_count, r.points, COALESCE(r.qr_content, ''), r.created_at,
			(SELECT COUNT(*) FROM submission WHERE request_id = r.id)
		FROM request r`
	args := []any{}
	if status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY r.created_at DESC, r.id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []model.Request{}
	for rows.Next() {
		var r model.Request
		err = rows.Scan(
			&r.ID, &r.Title, &r.Description, &r.Status, &r.Token,
			&r.OneTimeUse, &r.UsedCount, &r.Points, &r.QRContent, &r.CreatedAt,
			&r.Submissions,
		)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, r)
	}
	return reqs, rows.Err()
}

func (s *Store) GetRequest(ctx context.Context, id int) (model.Request, error) {
	return s.getRequest(ctx, `r.id = ?`, id)
}

// GetRequestByToken resolves the public lookup key embedded in QR codes.
func (s *Store) GetRequestByToken(ctx context.Context, token string) (model.Request, error) {
	return s.getRequest(ctx, `r.token = ?`, token)
}

func (s *Store) getRequest(ctx context.Context, cond string, arg any) (model.Request, error) {
	var r model.Request
	err := s.db.QueryRowContext(ctx, `
		SELECT
			r.id, r.title, r.description, r.status, r.token,
			r.one_time_use, r.used_count, r.points, COALESCE(r.qr_content, ''), r.created_at,
			(SELECT COUNT(*) FROM submission WHERE request_id = r.id)
		FROM request r
		WHERE `+cond,
		arg,
	).Scan(
		&r.ID, &r.Title, &r.Description, &r.Status, &r.Token,
		&r.OneTimeUse, &r.UsedCount, &r.Points, &r.QRContent, &r.CreatedAt,
		&r.Submissions,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Request{}, ErrNotFound
	}
	if err != nil {
		return model.Request{}, err
	}
	return r, nil
}

// SetStatus transitions a request between open and closed. Both
// transitions are idempotent.
func (s *Store) SetStatus(ctx context.Context, id int, status string) error {
	if status != model.StatusOpen && status != model.StatusClosed {
		return model.ValidationError{"status": "status must be open or closed"}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE request SET status = ? WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}

// DeleteRequest removes a request; its submissions go with it through the
// foreign key cascade.
func (s *Store) DeleteRequest(ctx context.Context, id int) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM request WHERE id = ?`,
		id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n < 1 {
		return ErrNotFound
	}
	return nil
}
