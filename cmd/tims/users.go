package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newUsersCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users and their client access",
		Long: `Create users, change their type, and limit them to specific clients.
A user without client access sees every client, except client users, who see none.`,
	}

	cmd.AddCommand(newUsersCreateCmd(timesheetService))
	cmd.AddCommand(newUsersListCmd(timesheetService))
	cmd.AddCommand(newUsersShowCmd(timesheetService))
	cmd.AddCommand(newUsersUpdateCmd(timesheetService))
	cmd.AddCommand(newUsersDeleteCmd(timesheetService))
	cmd.AddCommand(newUsersPasswdCmd(timesheetService))
	cmd.AddCommand(newUsersAccessCmd(timesheetService))

	return cmd
}

// userRef resolves a user given by ID or email.
func userRef(cmd *cobra.Command, timesheetService *service.TimesheetService, ref string) (string, error) {
	if !strings.Contains(ref, "@") {
		return ref, nil
	}
	return timesheetService.ResolveUser(cmd.Context(), ref)
}

func newUsersCreateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var email, name, userType string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user and issue their setup key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			u, key, err := timesheetService.CreateUser(cmd.Context(), email, name, models.UserType(userType))
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Printf("Created user %s (ID: %s)\n", u.Email, u.ID)
			printKey(key)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&userType, "type", "T", string(models.UserWorker), "User type: admin, manager, accounting, worker or client")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newUsersListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := timesheetService.ListUsers(cmd.Context(), archived)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}
			if len(users) == 0 {
				fmt.Println("No users found.")
				return nil
			}
			for _, u := range users {
				line := fmt.Sprintf("%s - %s - %s", u.ID, u.Email, u.Type)
				if u.Archived {
					line += " (archived)"
				}
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived users")

	return cmd
}

func newUsersShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <user>",
		Short: "Show a user by ID or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			u, err := timesheetService.GetUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			printUser(u)
			return nil
		},
	}
}

func newUsersUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <user>",
		Short: "Update a user",
		Long:  "Change a user's details. Changing the email unverifies the account and issues a verify key.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			update := service.UserUpdate{
				Email:  utils.ChangedString(cmd, "email"),
				Name:   utils.ChangedString(cmd, "name"),
				Locale: utils.ChangedString(cmd, "locale"),
			}
			if t := utils.ChangedString(cmd, "type"); t != nil {
				update.Type = utils.ToPtr(models.UserType(*t))
			}

			u, key, err := timesheetService.UpdateUser(cmd.Context(), userID, update)
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			printUser(u)
			printKey(key)
			return nil
		},
	}

	cmd.Flags().StringP("email", "e", "", "Email")
	cmd.Flags().StringP("name", "n", "", "Display name")
	cmd.Flags().StringP("locale", "l", "", "Locale, such as en-US")
	cmd.Flags().StringP("type", "T", "", "User type")

	return cmd
}

func newUsersDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user>",
		Short: "Archive a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			if err := timesheetService.ArchiveUser(cmd.Context(), userID); err != nil {
				return fmt.Errorf("failed to archive user: %w", err)
			}
			fmt.Println("Archived user")
			return nil
		},
	}
}

func newUsersPasswdCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var current, password string

	cmd := &cobra.Command{
		Use:   "passwd <user>",
		Short: "Change a password",
		Long:  "Change a user's password. Changing your own needs the current password; managers can set anyone's.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			if err := timesheetService.ChangePassword(cmd.Context(), userID, current, password); err != nil {
				return fmt.Errorf("failed to change password: %w", err)
			}
			fmt.Println("Password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password")
	cmd.Flags().StringVarP(&password, "password", "P", "", "New password (required)")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newUsersAccessCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Limit users to specific clients",
	}

	cmd.AddCommand(newUsersAccessAddCmd(timesheetService))
	cmd.AddCommand(newUsersAccessRemoveCmd(timesheetService))
	cmd.AddCommand(newUsersAccessListCmd(timesheetService))

	return cmd
}

func newUsersAccessAddCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string

	cmd := &cobra.Command{
		Use:   "add <user>",
		Short: "Give a user access to a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			access, err := timesheetService.AddAccess(cmd.Context(), userID, clientID)
			if err != nil {
				return fmt.Errorf("failed to add access: %w", err)
			}
			fmt.Printf("Added access %s\n", access.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID (required)")
	cmd.MarkFlagRequired("client")

	return cmd
}

func newUsersAccessRemoveCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client, accessID string

	cmd := &cobra.Command{
		Use:   "remove [user]",
		Short: "Remove a user's access to a client",
		Long:  "Remove access either by user and --client, or by --id alone.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if accessID != "" {
				if err := timesheetService.RemoveAccessByID(ctx, accessID); err != nil {
					return fmt.Errorf("failed to remove access: %w", err)
				}
				fmt.Println("Removed access")
				return nil
			}
			if len(args) == 0 || client == "" {
				return fmt.Errorf("give a user and --client, or --id")
			}

			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			if err := timesheetService.RemoveAccess(ctx, userID, clientID); err != nil {
				return fmt.Errorf("failed to remove access: %w", err)
			}
			fmt.Println("Removed access")
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	cmd.Flags().StringVar(&accessID, "id", "", "Access ID")
	cmd.MarkFlagsMutuallyExclusive("client", "id")

	return cmd
}

func newUsersAccessListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "list <user>",
		Short: "List the clients a user can access",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := userRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			access, err := timesheetService.ListAccess(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to list access: %w", err)
			}
			if len(access) == 0 {
				fmt.Println("No client restrictions.")
				return nil
			}
			for _, a := range access {
				fmt.Printf("%s - %s - %s\n", a.ID, a.ClientID, a.ClientName)
			}
			return nil
		},
	}
}
