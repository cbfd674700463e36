package database

import (
	"context"
	"fmt"

	"github.com/jesses-code-adventures/tims/internal/models"
)

const (
	projectColumns = `id, client_id, name, description, archived, created, updated`
	taskColumns    = `id, project_id, name, description, archived, created, updated`
)

func (s *SQLDB) CreateProject(ctx context.Context, p *models.Project) error {
	_, err := s.exec(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.ClientID, p.Name, p.Description, p.Archived, p.Created, p.Updated)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (s *SQLDB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	if err := s.get(ctx, &p, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *SQLDB) ListProjects(ctx context.Context, clientID string, archived bool) ([]*models.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE client_id = ?`
	args := []any{clientID}
	if !archived {
		query += ` AND archived = ?`
		args = append(args, false)
	}

	var projects []*models.Project
	if err := s.selectAll(ctx, &projects, query+` ORDER BY name`, args...); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *SQLDB) UpdateProject(ctx context.Context, p *models.Project) error {
	err := s.execOne(ctx, `UPDATE projects SET name = ?, description = ?, archived = ?, updated = ? WHERE id = ?`,
		p.Name, p.Description, p.Archived, p.Updated, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

func (s *SQLDB) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := s.exec(ctx, `INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Name, t.Description, t.Archived, t.Created, t.Updated)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (s *SQLDB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.get(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLDB) ListTasks(ctx context.Context, projectID string, archived bool) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE project_id = ?`
	args := []any{projectID}
	if !archived {
		query += ` AND archived = ?`
		args = append(args, false)
	}

	var tasks []*models.Task
	if err := s.selectAll(ctx, &tasks, query+` ORDER BY name`, args...); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQLDB) UpdateTask(ctx context.Context, t *models.Task) error {
	err := s.execOne(ctx, `UPDATE tasks SET name = ?, description = ?, archived = ?, updated = ? WHERE id = ?`,
		t.Name, t.Description, t.Archived, t.Updated, t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}
