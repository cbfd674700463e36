package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const workColumns = `id, project_id, task_id, user_id, start_at, end_at, description, created, updated`

const workDetailSelect = `SELECT w.id, w.project_id, w.task_id, w.user_id, w.start_at, w.end_at,
	w.description, w.created, w.updated, p.client_id, c.name AS client_name,
	p.name AS project_name, t.name AS task_name, u.name AS user_name
FROM work_periods w
JOIN projects p ON p.id = w.project_id
JOIN clients c ON c.id = p.client_id
JOIN tasks t ON t.id = w.task_id
JOIN users u ON u.id = w.user_id`

// CreateWorkPeriod returns ErrUniqueViolation when the user already has an
// open period.
func (s *SQLDB) CreateWorkPeriod(ctx context.Context, w *models.WorkPeriod) error {
	_, err := s.exec(ctx, `INSERT INTO work_periods (`+workColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ID, w.ProjectID, w.TaskID, w.UserID, w.Start, w.End, w.Description, w.Created, w.Updated)
	if err != nil {
		return fmt.Errorf("failed to create work period: %w", err)
	}
	return nil
}

func (s *SQLDB) GetWorkPeriod(ctx context.Context, id string) (*models.WorkPeriod, error) {
	var w models.WorkPeriod
	if err := s.get(ctx, &w, `SELECT `+workColumns+` FROM work_periods WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &w, nil
}

// GetOpenWorkPeriod returns nil, nil when the user has no running period.
func (s *SQLDB) GetOpenWorkPeriod(ctx context.Context, userID string) (*models.WorkDetail, error) {
	var w models.WorkDetail
	err := s.get(ctx, &w, workDetailSelect+` WHERE w.user_id = ? AND w.end_at IS NULL`, userID)
	if errors.Is(err, ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open work period: %w", err)
	}
	return &w, nil
}

func (s *SQLDB) UpdateWorkPeriod(ctx context.Context, w *models.WorkPeriod) error {
	err := s.execOne(ctx, `UPDATE work_periods SET start_at = ?, end_at = ?, description = ?, updated = ? WHERE id = ?`,
		w.Start, w.End, w.Description, w.Updated, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update work period: %w", err)
	}
	return nil
}

func (s *SQLDB) DeleteWorkPeriod(ctx context.Context, id string) error {
	if err := s.execOne(ctx, `DELETE FROM work_periods WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete work period: %w", err)
	}
	return nil
}

func workWhere(filter WorkFilter) ([]string, []any) {
	where := []string{"w.end_at IS NOT NULL"}
	var args []any
	where, args = rangeFilter(where, args, "w.end_at", &filter.Range)
	where, args = clientFilter(where, args, "p.client_id", filter.ClientIDs)
	if filter.UserID != "" {
		where = append(where, "w.user_id = ?")
		args = append(args, filter.UserID)
	}
	return where, args
}

// ListWorkPeriods returns closed periods whose end falls within the range.
func (s *SQLDB) ListWorkPeriods(ctx context.Context, filter WorkFilter) ([]*models.WorkDetail, error) {
	where, args := workWhere(filter)

	var works []*models.WorkDetail
	if err := s.selectAll(ctx, &works, workDetailSelect+whereClause(where)+` ORDER BY w.start_at, w.id`, args...); err != nil {
		return nil, fmt.Errorf("failed to list work periods: %w", err)
	}
	return works, nil
}

// ListTaskTotals sums the elapsed seconds of closed periods per task.
func (s *SQLDB) ListTaskTotals(ctx context.Context, filter WorkFilter) ([]*models.TaskTotal, error) {
	where, args := workWhere(filter)

	query := `SELECT w.task_id, t.name AS task_name, w.project_id, p.name AS project_name,
		SUM(w.end_at - w.start_at) AS elapsed
	FROM work_periods w
	JOIN projects p ON p.id = w.project_id
	JOIN tasks t ON t.id = w.task_id` + whereClause(where) + `
	GROUP BY w.task_id, t.name, w.project_id, p.name
	ORDER BY p.name, t.name`

	var totals []*models.TaskTotal
	if err := s.selectAll(ctx, &totals, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list task totals: %w", err)
	}
	return totals, nil
}
