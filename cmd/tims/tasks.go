package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newTasksCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage project tasks",
	}

	cmd.AddCommand(newTasksCreateCmd(timesheetService))
	cmd.AddCommand(newTasksListCmd(timesheetService))
	cmd.AddCommand(newTasksShowCmd(timesheetService))
	cmd.AddCommand(newTasksUpdateCmd(timesheetService))
	cmd.AddCommand(newTasksDeleteCmd(timesheetService))

	return cmd
}

func newTasksCreateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var project, name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task in a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := timesheetService.CreateTask(cmd.Context(), project, name, optionalString(description))
			if err != nil {
				return fmt.Errorf("failed to create task: %w", err)
			}
			fmt.Printf("Created task %s (ID: %s)\n", task.Name, task.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "j", "", "Project ID (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Task name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newTasksListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var project string
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tasks of a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tasks, err := timesheetService.ListTasks(cmd.Context(), project, archived)
			if err != nil {
				return fmt.Errorf("failed to list tasks: %w", err)
			}
			if len(tasks) == 0 {
				fmt.Println("No tasks found.")
				return nil
			}
			for _, t := range tasks {
				printNamed(t.ID, t.Name, t.Description, t.Archived)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "j", "", "Project ID (required)")
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived tasks")
	cmd.MarkFlagRequired("project")

	return cmd
}

func newTasksShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := timesheetService.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printTask(t)
			return nil
		},
	}
}

func newTasksUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Rename a task or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := timesheetService.UpdateTask(cmd.Context(), args[0], service.ProjectUpdate{
				Name:        utils.ChangedString(cmd, "name"),
				Description: utils.ChangedString(cmd, "description"),
			})
			if err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}
			printTask(t)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Task name")
	cmd.Flags().StringP("description", "d", "", "Description, empty to clear")

	return cmd
}

func newTasksDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Archive a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := timesheetService.ArchiveTask(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to archive task: %w", err)
			}
			fmt.Println("Archived task")
			return nil
		},
	}
}

func printTask(t *models.Task) {
	fmt.Printf("Task: %s (ID: %s)\n", t.Name, t.ID)
	fmt.Printf("  Project ID: %s\n", t.ProjectID)
	if t.Description != nil {
		fmt.Printf("  Description: %s\n", *t.Description)
	}
	if t.Archived {
		fmt.Println("  Archived")
	}
}
