package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newClientsCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage clients",
		Long:  "Commands for managing clients, including their rates, block policy and billing details.",
	}

	cmd.AddCommand(newClientsCreateCmd(timesheetService))
	cmd.AddCommand(newClientsListCmd(timesheetService))
	cmd.AddCommand(newClientsShowCmd(timesheetService))
	cmd.AddCommand(newClientsUpdateCmd(timesheetService))
	cmd.AddCommand(newClientsDeleteCmd(timesheetService))
	cmd.AddCommand(newClientsWorksCmd(timesheetService))

	return cmd
}

func newClientsCreateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var name, rate string
	var minimum, overflow, due int64
	var taxes bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			hourlyRate, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid --rate: %w", err)
			}
			client, err := timesheetService.CreateClient(cmd.Context(), &models.Client{
				Name:         name,
				Rate:         hourlyRate,
				TaskMinimum:  minimum,
				TaskOverflow: overflow,
				Due:          due,
				Taxes:        taxes,
				Address:      addressFromFlags(cmd),
			})
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			fmt.Printf("Created client %s (ID: %s)\n", client.Name, client.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Client name (required)")
	cmd.Flags().StringVarP(&rate, "rate", "r", "0", "Hourly rate")
	cmd.Flags().Int64Var(&minimum, "minimum", 1, "Minutes per billing block")
	cmd.Flags().Int64Var(&overflow, "overflow", 0, "Minutes past a block before another block is billed")
	cmd.Flags().Int64Var(&due, "due", 14, "Days until invoices are due")
	cmd.Flags().BoolVar(&taxes, "taxes", true, "Apply company taxes to invoices")
	registerAddressFlags(cmd)
	cmd.MarkFlagRequired("name")

	return cmd
}

func newClientsListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var verbose, archived bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List clients with their hourly rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clients, err := timesheetService.ListClients(cmd.Context(), archived)
			if err != nil {
				return fmt.Errorf("failed to list clients: %w", err)
			}

			if len(clients) == 0 {
				fmt.Println("No clients found.")
				return nil
			}

			fmt.Println("Clients:")
			for _, client := range clients {
				if verbose {
					fmt.Println()
					printClient(timesheetService, client)
				} else {
					fmt.Printf("%s - %s - %s/hr\n", client.ID, client.Name, timesheetService.FormatMoney(client.Rate))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show billing details")
	cmd.Flags().BoolVarP(&archived, "archived", "a", false, "Include archived clients")

	return cmd
}

func newClientsShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <client>",
		Short: "Show a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			client, err := timesheetService.GetClient(cmd.Context(), clientID)
			if err != nil {
				return err
			}
			printClient(timesheetService, client)
			return nil
		},
	}
}

func newClientsUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <client>",
		Short: "Update details about a client",
		Long:  "Update attributes of the client. Only the flags given are changed; an empty address flag clears that line.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			rate, err := utils.ChangedDecimal(cmd, "rate")
			if err != nil {
				return err
			}

			client, err := timesheetService.UpdateClient(cmd.Context(), clientID, service.ClientUpdate{
				Name:         utils.ChangedString(cmd, "name"),
				Rate:         rate,
				TaskMinimum:  utils.ChangedInt64(cmd, "minimum"),
				TaskOverflow: utils.ChangedInt64(cmd, "overflow"),
				Due:          utils.ChangedInt64(cmd, "due"),
				Taxes:        utils.ChangedBool(cmd, "taxes"),
				Address:      addressFromFlags(cmd),
			})
			if err != nil {
				return fmt.Errorf("failed to update client: %w", err)
			}

			fmt.Println("Updated client")
			printClient(timesheetService, client)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Client name")
	cmd.Flags().StringP("rate", "r", "", "Hourly rate")
	cmd.Flags().Int64("minimum", 0, "Minutes per billing block")
	cmd.Flags().Int64("overflow", 0, "Minutes past a block before another block is billed")
	cmd.Flags().Int64("due", 0, "Days until invoices are due")
	cmd.Flags().Bool("taxes", false, "Apply company taxes to invoices")
	registerAddressFlags(cmd)

	return cmd
}

func newClientsDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <client>",
		Short: "Archive a client",
		Long:  "Archive a client. Its work and invoices are kept, and it no longer shows in listings.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, args[0])
			if err != nil {
				return err
			}
			if err := timesheetService.ArchiveClient(cmd.Context(), clientID); err != nil {
				return fmt.Errorf("failed to archive client: %w", err)
			}
			fmt.Println("Archived client")
			return nil
		},
	}
}

func newClientsWorksCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "works",
		Short: "Show time logged per task",
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
			totals, err := timesheetService.ClientWorks(cmd.Context(), rng, clientID)
			if err != nil {
				return fmt.Errorf("failed to total work: %w", err)
			}

			fmt.Printf("Work %s:\n", describeRange(timesheetService, rng))
			if len(totals) == 0 {
				fmt.Println("No work found.")
				return nil
			}
			var elapsed int64
			for _, total := range totals {
				fmt.Printf("  %s / %s - %s\n", total.ProjectName, total.TaskName, timesheetService.FormatElapsed(total.Elapsed))
				elapsed += total.Elapsed
			}
			fmt.Printf("Total: %s\n", timesheetService.FormatElapsed(elapsed))
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	rf.register(cmd)

	return cmd
}
