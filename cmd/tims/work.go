package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newWorkCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "work",
		Short: "Track work periods",
		Long:  "Start and stop work on a task, and review or correct logged periods.",
	}

	cmd.AddCommand(newWorkStartCmd(timesheetService))
	cmd.AddCommand(newWorkStopCmd(timesheetService))
	cmd.AddCommand(newWorkStatusCmd(timesheetService))
	cmd.AddCommand(newWorkListCmd(timesheetService))
	cmd.AddCommand(newWorkUpdateCmd(timesheetService))
	cmd.AddCommand(newWorkDeleteCmd(timesheetService))
	cmd.AddCommand(newWorkExportCmd(timesheetService))

	return cmd
}

func newWorkStartCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var project, task, description string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start working on a task",
		Long:  "Open a work period on a task. Only one period per user and task can be open at a time.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			work, err := timesheetService.StartWork(cmd.Context(), project, task, description)
			if err != nil {
				return err
			}

			fmt.Printf("Started work on %s / %s / %s at %s\n",
				work.ClientName, work.ProjectName, work.TaskName, timesheetService.FormatTime(work.Start))
			if work.Description != "" {
				fmt.Printf("Description: %s\n", work.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "j", "", "Project ID (required)")
	cmd.Flags().StringVar(&task, "task", "", "Task ID (required)")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description of the work")
	cmd.MarkFlagRequired("project")
	cmd.MarkFlagRequired("task")

	return cmd
}

func newWorkStopCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop [work-id]",
		Short: "Stop the open work period",
		Long:  "Close a work period you started. Without an ID, your open period is closed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var workID string
			if len(args) == 1 {
				workID = args[0]
			}

			work, err := timesheetService.EndWork(cmd.Context(), workID, utils.ChangedString(cmd, "description"))
			if err != nil {
				return err
			}

			fmt.Printf("Stopped work period %s at %s (%s)\n",
				work.ID, timesheetService.FormatTime(utils.FromPtr(work.End)), timesheetService.FormatElapsed(work.Elapsed()))
			return nil
		},
	}

	cmd.Flags().StringP("description", "d", "", "Replace the description")

	return cmd
}

func newWorkStatusCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show current work status",
		Long:  "Display your open work period, if any.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			work, err := timesheetService.OpenWork(cmd.Context())
			if err != nil {
				return err
			}

			if work == nil {
				fmt.Println("No open work period.")
				return nil
			}

			elapsed := timesheetService.FormatDuration(timesheetService.Since(work.Start))
			fmt.Printf("Working on %s / %s / %s\n", work.ClientName, work.ProjectName, work.TaskName)
			fmt.Printf("Started: %s (%s ago)\n", timesheetService.FormatTime(work.Start), elapsed)
			if work.Description != "" {
				fmt.Printf("Description: %s\n", work.Description)
			}
			return nil
		},
	}
}

func newWorkListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List logged work periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			rng, err := rf.resolve(timesheetService)
			if err != nil {
				return err
			}
			works, err := timesheetService.ListWorks(cmd.Context(), rng, clientID)
			if err != nil {
				return fmt.Errorf("failed to list work: %w", err)
			}
			printWorks(timesheetService, rng, works)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	rf.register(cmd)

	return cmd
}

func newWorkUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <work-id>",
		Short: "Correct a work period",
		Long:  "Change the description of your own period. Changing times, or another user's period, needs a manager.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := changedTime(cmd, timesheetService, "start")
			if err != nil {
				return err
			}
			end, err := changedTime(cmd, timesheetService, "end")
			if err != nil {
				return err
			}

			work, err := timesheetService.UpdateWork(cmd.Context(), args[0], service.WorkUpdate{
				Start:       start,
				End:         end,
				Description: utils.ChangedString(cmd, "description"),
			})
			if err != nil {
				return fmt.Errorf("failed to update work period: %w", err)
			}

			fmt.Printf("Updated work period %s: %s", work.ID, timesheetService.FormatTime(work.Start))
			if work.End != nil {
				fmt.Printf(" to %s (%s)", timesheetService.FormatTime(*work.End), timesheetService.FormatElapsed(work.Elapsed()))
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().String("start", "", "Start time (YYYY-MM-DD HH:MM or HH:MM)")
	cmd.Flags().String("end", "", "End time (YYYY-MM-DD HH:MM or HH:MM)")
	cmd.Flags().StringP("description", "d", "", "Description")

	return cmd
}

func newWorkDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <work-id>",
		Short: "Delete a work period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := timesheetService.DeleteWork(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete work period: %w", err)
			}
			fmt.Println("Deleted work period")
			return nil
		},
	}
}

func newWorkExportCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client, output string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export work periods to CSV",
		Long:  "Export closed work periods in the range to CSV, with elapsed seconds and billable minutes.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			rng, err := rf.resolve(timesheetService)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer file.Close()
				w = file
			}

			n, err := timesheetService.ExportWorksCSV(cmd.Context(), rng, clientID, w)
			if err != nil {
				return fmt.Errorf("failed to export work: %w", err)
			}
			if output != "" {
				fmt.Printf("Exported %d work periods to %s\n", n, output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	rf.register(cmd)

	return cmd
}

func changedTime(cmd *cobra.Command, timesheetService *service.TimesheetService, name string) (*int64, error) {
	s := utils.ChangedString(cmd, name)
	if s == nil {
		return nil, nil
	}
	t, err := timesheetService.ParseTimeString(*s)
	if err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", name, err)
	}
	return utils.ToPtr(t.Unix()), nil
}

func printWorks(timesheetService *service.TimesheetService, rng database.Range, works []*models.WorkDetail) {
	fmt.Printf("Work %s:\n", describeRange(timesheetService, rng))
	if len(works) == 0 {
		fmt.Println("No work found.")
		return
	}
	var elapsed int64
	for _, w := range works {
		printWork(timesheetService, w)
		elapsed += w.Elapsed()
	}
	fmt.Printf("Total: %s\n", timesheetService.FormatElapsed(elapsed))
}
