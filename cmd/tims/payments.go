package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
)

func newPaymentsCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payments",
		Short: "Record and list client payments",
	}

	cmd.AddCommand(newPaymentsCreateCmd(timesheetService))
	cmd.AddCommand(newPaymentsListCmd(timesheetService))

	return cmd
}

func newPaymentsCreateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client, transaction, amount, paidAt string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a payment from a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientID, err := clientRef(cmd, timesheetService, client)
			if err != nil {
				return err
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			payment := &models.Payment{ClientID: clientID, Transaction: transaction, Amount: value}
			if paidAt != "" {
				t, err := timesheetService.ParseTimeString(paidAt)
				if err != nil {
					return fmt.Errorf("invalid --paid: %w", err)
				}
				payment.PaidAt = t.Unix()
			}

			payment, err = timesheetService.CreatePayment(cmd.Context(), payment)
			if err != nil {
				return fmt.Errorf("failed to record payment: %w", err)
			}
			fmt.Printf("Recorded payment %s of %s (ID: %s)\n", payment.Transaction,
				timesheetService.FormatMoney(payment.Amount), payment.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID (required)")
	cmd.Flags().StringVarP(&transaction, "transaction", "x", "", "Transaction reference (required)")
	cmd.Flags().StringVarP(&amount, "amount", "m", "", "Amount paid (required)")
	cmd.Flags().StringVar(&paidAt, "paid", "", "When it was paid (YYYY-MM-DD HH:MM or HH:MM, default now)")
	cmd.MarkFlagRequired("client")
	cmd.MarkFlagRequired("transaction")
	cmd.MarkFlagRequired("amount")

	return cmd
}

func newPaymentsListCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var client string
	var rf rangeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments",
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
			payments, err := timesheetService.ListPayments(cmd.Context(), clientID, rng)
			if err != nil {
				return fmt.Errorf("failed to list payments: %w", err)
			}

			if len(payments) == 0 {
				fmt.Println("No payments found.")
				return nil
			}
			total := decimal.Zero
			for _, p := range payments {
				fmt.Printf("%s - %s - %s - %s\n", p.ID, p.Transaction,
					timesheetService.FormatTime(p.PaidAt), timesheetService.FormatMoney(p.Amount))
				total = total.Add(p.Amount)
			}
			fmt.Printf("Total: %s\n", timesheetService.FormatMoney(total))
			return nil
		},
	}

	cmd.Flags().StringVarP(&client, "client", "c", "", "Client name or ID")
	rf.register(cmd)

	return cmd
}
