package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
)

func newInvoicesCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "Generate and manage invoices",
		Long:  "Bill a client's closed work periods in a range, with optional cost and discount lines.",
	}

	cmd.AddCommand(newInvoicesGenerateCmd(timesheetService, false))
	cmd.AddCommand(newInvoicesGenerateCmd(timesheetService, true))
	cmd.AddCommand(newInvoicesListCmd(timesheetService))
	cmd.AddCommand(newInvoicesShowCmd(timesheetService))
	cmd.AddCommand(newInvoicesDeleteCmd(timesheetService))

	return cmd
}

// newInvoicesGenerateCmd builds "create", or "preview" which computes the
// same invoice without saving it.
func newInvoicesGenerateCmd(timesheetService *service.TimesheetService, save bool) *cobra.Command {
	var client string
	var additional []string
	var rf rangeFlags

	use, short := "preview", "Preview an invoice without saving it"
	if save {
		use, short = "create", "Create an invoice"
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			rng, err := rf.resolve(timesheetService)
			if err != nil {
				return err
			}

			req := service.InvoiceRequest{ClientID: clientID, Range: rng}
			for _, raw := range additional {
				a, err := parseAdditional(raw)
				if err != nil {
					return err
				}
				req.Additional = append(req.Additional, a)
			}

			var invoice *models.InvoiceDetail
			if save {
				invoice, err = timesheetService.CreateInvoice(ctx, req)
			} else {
				invoice, err = timesheetService.PreviewInvoice(ctx, req)
			}
			if err != nil {
				return fmt.Errorf("failed to %s invoice: %w", use, err)
			}

			if save {
				fmt.Println("Created invoice")
			}
			printInvoice(timesheetService, invoice)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID (required)")
	cmd.Flags().StringArrayVarP(&additional, "additional", "a", nil, "Extra line as type:amount:text, type is cost or discount (repeatable)")
	rf.register(cmd)
	cmd.MarkFlagRequired("client")

	return cmd
}

func newInvoicesListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Long:  "List invoices, optionally only those created within a range.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			rng, err := rf.optional(timesheetService)
			if err != nil {
				return err
			}
			invoices, err := timesheetService.ListInvoices(cmd.Context(), clientID, rng)
			if err != nil {
				return fmt.Errorf("failed to list invoices: %w", err)
			}

			if len(invoices) == 0 {
				fmt.Println("No invoices found.")
				return nil
			}
			for _, inv := range invoices {
				fmt.Printf("%s - %s - %s - %s\n", inv.ID, inv.Identifier,
					timesheetService.FormatTime(inv.Created), timesheetService.FormatMoney(inv.Total))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	rf.register(cmd)

	return cmd
}

func newInvoicesShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice-id>",
		Short: "Show an invoice with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			invoice, err := timesheetService.GetInvoice(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			printInvoice(timesheetService, invoice)
			return nil
		},
	}
}

func newInvoicesDeleteCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <invoice-id>",
		Short: "Delete an invoice and its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := timesheetService.DeleteInvoice(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to delete invoice: %w", err)
			}
			fmt.Println("Deleted invoice")
			return nil
		},
	}
}
