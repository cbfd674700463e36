package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/service"
)

func newInstallCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var email, password, company string

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Create the first admin user and the company",
		Long:  "Set up an empty database with an admin user and the company that issues invoices. Fails once any user exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := timesheetService.Install(cmd.Context(), email, password, company)
			if err != nil {
				return fmt.Errorf("failed to install: %w", err)
			}
			fmt.Printf("Installed %s with admin %s\n", company, admin.Email)
			fmt.Printf("Run commands with --as %s or export TIMS_USER=%s\n", admin.Email, admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Admin email (required)")
	cmd.Flags().StringVarP(&password, "password", "P", "", "Admin password (required)")
	cmd.Flags().StringVarP(&company, "company", "c", "", "Company name (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	cmd.MarkFlagRequired("company")

	return anonymous(cmd)
}

func newSigninCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Check a user's credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := timesheetService.SignIn(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", u.Email, u.Type)
			fmt.Printf("export TIMS_USER=%s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().StringVarP(&password, "password", "P", "", "Password (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return anonymous(cmd)
}

func newAccountCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your own account",
		Long:  "Finish account setup, verify your email, reset a password, and see your clients, work and balance.",
	}

	cmd.AddCommand(newAccountSetupCmd(timesheetService))
	cmd.AddCommand(newAccountVerifyCmd(timesheetService))
	cmd.AddCommand(newAccountForgotCmd(timesheetService))
	cmd.AddCommand(newAccountResetCmd(timesheetService))
	cmd.AddCommand(newAccountClientsCmd(timesheetService))
	cmd.AddCommand(newAccountWorksCmd(timesheetService))
	cmd.AddCommand(newAccountOwesCmd(timesheetService))

	return cmd
}

func newAccountSetupCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var key, name, password string

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Set a name and password using a setup key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := timesheetService.SetupAccount(cmd.Context(), key, name, password)
			if err != nil {
				return fmt.Errorf("failed to set up account: %w", err)
			}
			fmt.Printf("Account ready for %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Setup key (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&password, "password", "P", "", "New password (required)")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("password")

	return anonymous(cmd)
}

func newAccountVerifyCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify an email address using a verify key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := timesheetService.VerifyAccount(cmd.Context(), key)
			if err != nil {
				return fmt.Errorf("failed to verify account: %w", err)
			}
			fmt.Printf("Verified %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Verify key (required)")
	cmd.MarkFlagRequired("key")

	return anonymous(cmd)
}

func newAccountForgotCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "forgot",
		Short: "Issue a password reset key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := timesheetService.ForgotPassword(cmd.Context(), email)
			if err != nil {
				return fmt.Errorf("failed to issue reset key: %w", err)
			}
			printKey(key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.MarkFlagRequired("email")

	return anonymous(cmd)
}

func newAccountResetCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var key, password string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Set a new password using a reset key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := timesheetService.ResetPassword(cmd.Context(), key, password)
			if err != nil {
				return fmt.Errorf("failed to reset password: %w", err)
			}
			fmt.Printf("Password reset for %s\n", u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "Reset key (required)")
	cmd.Flags().StringVarP(&password, "password", "P", "", "New password (required)")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("password")

	return anonymous(cmd)
}

func newAccountClientsCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "clients",
		Short: "List the clients you can access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := timesheetService.AccountClients(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}
			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}
			for _, c := range clients {
				fmt.Printf("%s - %s\n", c.ID, c.Name)
			}
			return nil
		},
	}
}

func newAccountWorksCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "works",
		Short: "List your own work periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rng, err := rf.resolve(timesheetService)
			if err != nil {
				return err
			}
			works, err := timesheetService.AccountWorks(cmd.Context(), rng)
			if err != nil {
				return fmt.Errorf("failed to list work: %w", err)
			}
			printWorks(timesheetService, rng, works)
			return nil
		},
	}
	rf.register(cmd)

	return cmd
}

func newAccountOwesCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "owes",
		Short: "Show the outstanding balance of a client",
		Long:  "Show invoiced totals less payments. Client users may leave out --client to see their own balance.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			owed, err := timesheetService.Owes(cmd.Context(), clientID)
			if err != nil {
				return fmt.Errorf("failed to calculate balance: %w", err)
			}
			fmt.Printf("Owed: %s\n", timesheetService.FormatMoney(owed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")

	return cmd
}
