package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
)

// WorkUpdate holds the editable fields of a work period. Nil fields are left
// unchanged.
type WorkUpdate struct {
	Start       *int64
	End         *int64
	Description *string
}

// StartWork opens a period for the signed in user against a task. A user can
// only have one period running at a time.
func (s *TimesheetService) StartWork(ctx context.Context, projectID, taskID, description string) (*models.WorkDetail, error) {
	var absent []string
	if projectID == "" {
		absent = append(absent, "project_id")
	}
	if taskID == "" {
		absent = append(absent, "task_id")
	}
	if len(absent) > 0 {
		return nil, missing(absent...)
	}

	project, err := s.db.GetProject(ctx, projectID)
	if err != nil {
		return nil, lookupErr("project", projectID, err)
	}
	task, err := s.db.GetTask(ctx, taskID)
	if err != nil {
		return nil, lookupErr("task", taskID, err)
	}
	if task.ProjectID != project.ID {
		return nil, invalid("task_id", "not part of project")
	}
	if project.Archived || task.Archived {
		return nil, invalid("task_id", "archived")
	}

	u, err := s.verify(ctx, anyOf(models.UserWorker), project.ClientID)
	if err != nil {
		return nil, err
	}

	open, err := s.db.GetOpenWorkPeriod(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		return nil, ErrTaskAlreadyStarted
	}

	now := s.unix()
	w := &models.WorkPeriod{
		ID:          models.NewUUID(),
		ProjectID:   project.ID,
		TaskID:      task.ID,
		UserID:      u.ID,
		Start:       now,
		Description: description,
		Created:     now,
		Updated:     now,
	}
	if err := check(w, ""); err != nil {
		return nil, err
	}
	if err := s.db.CreateWorkPeriod(ctx, w); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, ErrTaskAlreadyStarted
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"work_id": w.ID,
		"user_id": u.ID,
		"task_id": task.ID,
	}).Info("work started")

	return s.db.GetOpenWorkPeriod(ctx, u.ID)
}

// EndWork closes a running period. An empty workID ends the signed in user's
// current period. Only the user who started a period may end it.
func (s *TimesheetService) EndWork(ctx context.Context, workID string, description *string) (*models.WorkPeriod, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}

	if workID == "" {
		open, err := s.db.GetOpenWorkPeriod(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		if open == nil {
			return nil, ErrNoOpenWork
		}
		workID = open.ID
	}

	w, err := s.db.GetWorkPeriod(ctx, workID)
	if err != nil {
		return nil, lookupErr("work", workID, err)
	}
	if w.UserID != u.ID {
		return nil, ErrRights
	}
	if w.End != nil {
		return nil, ErrNoOpenWork
	}

	now := s.unix()
	if now < w.Start {
		return nil, invalid("end", "before start")
	}
	w.End = &now
	if description != nil {
		w.Description = *description
	}
	w.Updated = now
	if err := check(w, ""); err != nil {
		return nil, err
	}
	if err := s.db.UpdateWorkPeriod(ctx, w); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"work_id": w.ID,
		"user_id": u.ID,
		"elapsed": w.Elapsed(),
	}).Info("work ended")
	return w, nil
}

// OpenWork returns the signed in user's running period, or nil.
func (s *TimesheetService) OpenWork(ctx context.Context) (*models.WorkDetail, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.db.GetOpenWorkPeriod(ctx, u.ID)
}

// UpdateWork edits a period. The user who logged a period may change its
// description; changing timestamps needs a manager.
func (s *TimesheetService) UpdateWork(ctx context.Context, workID string, update WorkUpdate) (*models.WorkPeriod, error) {
	if update.Start == nil && update.End == nil && update.Description == nil {
		return nil, ErrNoChanges
	}

	w, err := s.db.GetWorkPeriod(ctx, workID)
	if err != nil {
		return nil, lookupErr("work", workID, err)
	}
	project, err := s.db.GetProject(ctx, w.ProjectID)
	if err != nil {
		return nil, lookupErr("project", w.ProjectID, err)
	}

	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if u.ID != w.UserID || update.Start != nil || update.End != nil {
		if _, err := s.verify(ctx, anyOf(models.UserManager), project.ClientID); err != nil {
			return nil, err
		}
	}

	if update.Start != nil {
		w.Start = *update.Start
	}
	if update.End != nil {
		w.End = update.End
	}
	if update.Description != nil {
		w.Description = *update.Description
	}
	if w.End != nil && *w.End <= w.Start {
		return nil, invalid("end", "must be after start")
	}
	w.Updated = s.unix()
	if err := check(w, ""); err != nil {
		return nil, err
	}

	if err := s.db.UpdateWorkPeriod(ctx, w); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, ErrTaskAlreadyStarted
		}
		return nil, err
	}
	return w, nil
}

func (s *TimesheetService) DeleteWork(ctx context.Context, workID string) error {
	w, err := s.db.GetWorkPeriod(ctx, workID)
	if err != nil {
		return lookupErr("work", workID, err)
	}
	project, err := s.db.GetProject(ctx, w.ProjectID)
	if err != nil {
		return lookupErr("project", w.ProjectID, err)
	}
	if _, err := s.verify(ctx, anyOf(models.UserManager), project.ClientID); err != nil {
		return err
	}
	if err := s.db.DeleteWorkPeriod(ctx, workID); err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	return nil
}

// ListWorks returns closed periods ending within rng, optionally for a single
// client, restricted to the clients the user can see.
func (s *TimesheetService) ListWorks(ctx context.Context, rng database.Range, clientID string) ([]*models.WorkDetail, error) {
	ids, err := s.scopeFor(ctx, anyOf(models.UserManager, models.UserClient), clientID)
	if err != nil {
		return nil, err
	}
	return s.db.ListWorkPeriods(ctx, database.WorkFilter{Range: rng, ClientIDs: ids})
}

// AccountWorks returns the signed in user's own closed periods.
func (s *TimesheetService) AccountWorks(ctx context.Context, rng database.Range) ([]*models.WorkDetail, error) {
	u, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	return s.db.ListWorkPeriods(ctx, database.WorkFilter{Range: rng, UserID: u.ID})
}
