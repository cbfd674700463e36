package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/config"
	"github.com/jesses-code-adventures/tims/internal/service"
)

// Commands carrying this annotation run without an acting user.
const anonymousAnnotation = "anonymous"

func anonymous(cmd *cobra.Command) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[anonymousAnnotation] = "true"
	return cmd
}

// needsUser is false for anonymous commands and cobra's own help and
// completion commands.
func needsUser(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[anonymousAnnotation] != "" {
			return false
		}
		switch c.Name() {
		case "help", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd, "completion":
			return false
		}
	}
	return true
}

func newRootCmd(timesheetService *service.TimesheetService, cfg *config.Config) *cobra.Command {
	var actingAs string

	rootCmd := &cobra.Command{
		Use:   "tims",
		Short: "Time tracking and invoicing for small teams",
		Long: `Log work periods against client projects and tasks, then turn them into invoices.
Every command acts as the user given by --as (or TIMS_USER) and is limited to what that user may see.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !needsUser(cmd) {
				return nil
			}
			email := actingAs
			if email == "" {
				email = cfg.ActingUser
			}
			if email == "" {
				return fmt.Errorf("no acting user, pass --as or set TIMS_USER: %w", service.ErrNotSignedIn)
			}
			ctx := cmd.Context()
			userID, err := timesheetService.ResolveUser(ctx, email)
			if err != nil {
				return fmt.Errorf("failed to resolve user '%s': %w", email, err)
			}
			cmd.SetContext(service.WithUser(ctx, userID))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&actingAs, "as", "", "Email of the user to act as (default $TIMS_USER)")
	// Read before the command tree is built, see connectionFlags.
	rootCmd.PersistentFlags().String("db", "", "Database connection string (default $DATABASE_URL)")
	rootCmd.PersistentFlags().String("driver", "", "Database driver: sqlite3, libsql or postgres (default $DATABASE_DRIVER)")

	rootCmd.AddCommand(
		newInstallCmd(timesheetService),
		newSigninCmd(timesheetService),
		newConfigCmd(cfg),
		newAccountCmd(timesheetService),
		newClientsCmd(timesheetService),
		newProjectsCmd(timesheetService),
		newTasksCmd(timesheetService),
		newWorkCmd(timesheetService),
		newInvoicesCmd(timesheetService),
		newPaymentsCmd(timesheetService),
		newCompanyCmd(timesheetService),
		newUsersCmd(timesheetService),
	)

	return rootCmd
}

func newConfigCmd(cfg *config.Config) *cobra.Command {
	return anonymous(&cobra.Command{
		Use:   "config",
		Short: "Show the active configuration",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cfg.Dump()
		},
	})
}
