package store

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mbolis/qr-requests/model"
)

// AddRewardEntry appends an adjustment to the rewards ledger. Negative
// points deduct from the balance.
func (s *Store) AddRewardEntry(ctx context.Context, name, phone string, points int, reason string) (model.RewardEntry, error) {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	if name == "" || phone == "" {
		return model.RewardEntry{}, model.ValidationError{"name": "name and phone are required"}
	}

	entry := model.RewardEntry{
		Name:      name,
		Phone:     phone,
		Points:    points,
		Reason:    strings.TrimSpace(reason),
		CreatedAt: time.Now().UTC(),
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO reward_entry (name, phone, points, reason, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		entry.Name,
		entry.Phone,
		entry.Points,
		entry.Reason,
		entry.CreatedAt,
	).Scan(&entry.ID)
	if err != nil {
		return model.RewardEntry{}, err
	}
	return entry, nil
}

// AdjustmentSum totals all ledger entries for one person.
func (s *Store) AdjustmentSum(ctx context.Context, name, phone string) (int, error) {
	var sum int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(points), 0)
		FROM reward_entry
		WHERE name = ?
			AND phone = ?`,
		name, phone,
	).Scan(&sum)
	return sum, err
}

// ClearRewardEntries deletes every ledger row for one person and reports
// how many were removed.
func (s *Store) ClearRewardEntries(ctx context.Context, name, phone string) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM reward_entry
		WHERE name = ?
			AND phone = ?`,
		name, phone,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// EarnedPoints sums the points of every submission made by one person
// (exact name and phone match), along with the submission count.
func (s *Store) EarnedPoints(ctx context.Context, name, phone string) (earned, count int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN r.points > 0 THEN r.points ELSE 0 END), 0),
			COUNT(*)
		FROM submission s
		INNER JOIN request r ON (r.id = s.request_id)
		WHERE s.name = ?
			AND s.phone = ?`,
		name, phone,
	).Scan(&earned, &count)
	return
}

// RewardsSummary aggregates earned points per person over the filtered
// submissions, folds in ledger adjustments, and floors balances at zero.
func (s *Store) RewardsSummary(ctx context.Context, f SubmissionFilter) ([]model.RewardBalance, error) {
	where, args := f.where()
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			s.name, s.phone, COUNT(*),
			COALESCE(SUM(CASE WHEN r.points > 0 THEN r.points ELSE 0 END), 0)
		FROM submission s
		INNER JOIN request r ON (r.id = s.request_id)`+where+`
		GROUP BY s.name, s.phone`,
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	balances := []model.RewardBalance{}
	for rows.Next() {
		var b model.RewardBalance
		err = rows.Scan(&b.Name, &b.Phone, &b.Submissions, &b.Earned)
		if err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	for i := range balances {
		adj, err := s.AdjustmentSum(ctx, balances[i].Name, balances[i].Phone)
		if err != nil {
			return nil, err
		}
		balances[i].Adjustments = adj
		balances[i].Balance = max(0, balances[i].Earned+adj)
	}

	sort.Slice(balances, func(i, j int) bool {
		if balances[i].Balance != balances[j].Balance {
			return balances[i].Balance > balances[j].Balance
		}
		return balances[i].Name < balances[j].Name
	})
	return balances, nil
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
