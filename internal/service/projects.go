package service

import (
	"context"
	"strings"

	"github.com/jesses-code-adventures/tims/internal/models"
)

// ProjectUpdate changes a project or a task. The parent cannot be changed.
type ProjectUpdate struct {
	Name        *string
	Description *string
}

func (u ProjectUpdate) apply(name *string, description **string) {
	if u.Name != nil {
		*name = strings.TrimSpace(*u.Name)
	}
	if u.Description != nil {
		if *u.Description == "" {
			*description = nil
		} else {
			*description = u.Description
		}
	}
}

func (s *TimesheetService) CreateProject(ctx context.Context, clientID, name string, description *string) (*models.Project, error) {
	if clientID == "" {
		return nil, missing("client_id")
	}
	if _, err := s.verify(ctx, anyOf(models.UserManager), clientID); err != nil {
		return nil, err
	}
	if _, err := s.db.GetClient(ctx, clientID); err != nil {
		return nil, lookupErr("client", clientID, err)
	}

	now := s.unix()
	p := &models.Project{
		ID:          models.NewUUID(),
		ClientID:    clientID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Created:     now,
		Updated:     now,
	}
	if err := check(p, ""); err != nil {
		return nil, err
	}
	if err := s.db.CreateProject(ctx, p); err != nil {
		return nil, duplicateErr("project", "name", p.Name, err)
	}
	return p, nil
}

// project loads a project and checks the user against its client.
func (s *TimesheetService) project(ctx context.Context, types []models.UserType, id string) (*models.Project, error) {
	p, err := s.db.GetProject(ctx, id)
	if err != nil {
		return nil, lookupErr("project", id, err)
	}
	if _, err := s.verify(ctx, types, p.ClientID); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *TimesheetService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.project(ctx, nil, id)
}

func (s *TimesheetService) ListProjects(ctx context.Context, clientID string, archived bool) ([]*models.Project, error) {
	if clientID == "" {
		return nil, missing("client_id")
	}
	if _, err := s.verify(ctx, nil, clientID); err != nil {
		return nil, err
	}
	return s.db.ListProjects(ctx, clientID, archived)
}

func (s *TimesheetService) UpdateProject(ctx context.Context, id string, update ProjectUpdate) (*models.Project, error) {
	if update.Name == nil && update.Description == nil {
		return nil, ErrNoChanges
	}
	p, err := s.project(ctx, anyOf(models.UserManager), id)
	if err != nil {
		return nil, err
	}
	update.apply(&p.Name, &p.Description)
	if err := check(p, ""); err != nil {
		return nil, err
	}
	p.Updated = s.unix()
	if err := s.db.UpdateProject(ctx, p); err != nil {
		return nil, duplicateErr("project", "name", p.Name, err)
	}
	return p, nil
}

func (s *TimesheetService) ArchiveProject(ctx context.Context, id string) error {
	p, err := s.project(ctx, anyOf(models.UserManager), id)
	if err != nil {
		return err
	}
	p.Archived = true
	p.Updated = s.unix()
	return s.db.UpdateProject(ctx, p)
}

func (s *TimesheetService) CreateTask(ctx context.Context, projectID, name string, description *string) (*models.Task, error) {
	if projectID == "" {
		return nil, missing("project_id")
	}
	p, err := s.project(ctx, anyOf(models.UserManager, models.UserWorker), projectID)
	if err != nil {
		return nil, err
	}

	now := s.unix()
	t := &models.Task{
		ID:          models.NewUUID(),
		ProjectID:   p.ID,
		Name:        strings.TrimSpace(name),
		Description: description,
		Created:     now,
		Updated:     now,
	}
	if err := check(t, ""); err != nil {
		return nil, err
	}
	if err := s.db.CreateTask(ctx, t); err != nil {
		return nil, duplicateErr("task", "name", t.Name, err)
	}
	return t, nil
}

// task loads a task and checks the user against the client of its project.
func (s *TimesheetService) task(ctx context.Context, types []models.UserType, id string) (*models.Task, error) {
	t, err := s.db.GetTask(ctx, id)
	if err != nil {
		return nil, lookupErr("task", id, err)
	}
	if _, err := s.project(ctx, types, t.ProjectID); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TimesheetService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.task(ctx, nil, id)
}

func (s *TimesheetService) ListTasks(ctx context.Context, projectID string, archived bool) ([]*models.Task, error) {
	if projectID == "" {
		return nil, missing("project_id")
	}
	if _, err := s.project(ctx, nil, projectID); err != nil {
		return nil, err
	}
	return s.db.ListTasks(ctx, projectID, archived)
}

func (s *TimesheetService) UpdateTask(ctx context.Context, id string, update ProjectUpdate) (*models.Task, error) {
	if update.Name == nil && update.Description == nil {
		return nil, ErrNoChanges
	}
	t, err := s.task(ctx, anyOf(models.UserManager), id)
	if err != nil {
		return nil, err
	}
	update.apply(&t.Name, &t.Description)
	if err := check(t, ""); err != nil {
		return nil, err
	}
	t.Updated = s.unix()
	if err := s.db.UpdateTask(ctx, t); err != nil {
		return nil, duplicateErr("task", "name", t.Name, err)
	}
	return t, nil
}

func (s *TimesheetService) ArchiveTask(ctx context.Context, id string) error {
	t, err := s.task(ctx, anyOf(models.UserManager), id)
	if err != nil {
		return err
	}
	t.Archived = true
	t.Updated = s.unix()
	return s.db.UpdateTask(ctx, t)
}
