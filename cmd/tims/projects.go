package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newProjectsCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage client projects",
	}

	cmd.AddCommand(newProjectsCreateCmd(timesheetService))
	cmd.AddCommand(newProjectsListCmd(timesheetService))
	cmd.AddCommand(newProjectsShowCmd(timesheetService))
	cmd.AddCommand(newProjectsUpdateCmd(timesheetService))
	cmd.AddCommand(newProjectsDeleteCmd(timesheetService))

	return cmd
}

func newProjectsCreateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client, name, description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project for a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			project, err := timesheetService.CreateProject(cmd.Context(), clientID, name, optionalString(description))
			if err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
			fmt.Printf("Created project %s (ID: %s)\n", project.Name, project.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Project name (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProjectsListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			projects, err := timesheetService.ListProjects(cmd.Context(), clientID, archived)
			if err != nil {
				return fmt.Errorf("failed to list projects: %w", err)
			}
			if len(projects) == 0 {
				fmt.Println("No projects found.")
				return nil
			}
			for _, p := range projects {
				printNamed(p.ID, p.Name, p.Description, p.Archived)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID (required)")
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived projects")
	cmd.MarkFlagRequired("client")

	return cmd
}

func newProjectsShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := timesheetService.GetProject(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProject(p)
			return nil
		},
	}
}

func newProjectsUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Rename a project or change its description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := timesheetService.UpdateProject(cmd.Context(), args[0], service.ProjectUpdate{
				Name:        utils.ChangedString(cmd, "name"),
				Description: utils.ChangedString(cmd, "description"),
			})
			if err != nil {
				return fmt.Errorf("failed to update project: %w", err)
			}
			printProject(p)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Project name")
	cmd.Flags().StringP("description", "d", "", "Description, empty to clear")

	return cmd
}

func newProjectsDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Archive a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := timesheetService.ArchiveProject(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to archive project: %w", err)
			}
			fmt.Println("Archived project")
			return nil
		},
	}
}

func printProject(p *models.Project) {
	fmt.Printf("Project: %s (ID: %s)\n", p.Name, p.ID)
	fmt.Printf("  Client ID: %s\n", p.ClientID)
	if p.Description != nil {
		fmt.Printf("  Description: %s\n", *p.Description)
	}
	if p.Archived {
		fmt.Println("  Archived")
	}
}

func printNamed(id, name string, description *string, archived bool) {
	line := id + " - " + name
	if description != nil {
		line += " - " + *description
	}
	if archived {
		line += " (archived)"
	}
	fmt.Println(line)
}
