package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

func newCompanyCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Manage the invoicing company",
	}

	cmd.AddCommand(newCompanyShowCmd(timesheetService))
	cmd.AddCommand(newCompanyUpdateCmd(timesheetService))
	cmd.AddCommand(newCompanyTaxesCmd(timesheetService))

	return cmd
}

func newCompanyShowCmd(timesheetService *service.TimesheetService) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the company and its taxes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			company, err := timesheetService.GetCompany(cmd.Context())
			if err != nil {
				return err
			}
			printCompany(company)
			return nil
		},
	}
}

func newCompanyUpdateCmd(timesheetService *service.TimesheetService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the company name or address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			company, err := timesheetService.UpdateCompany(cmd.Context(), service.CompanyUpdate{
				Name:    utils.ChangedString(cmd, "name"),
				Address: addressFromFlags(cmd),
			})
			if err != nil {
				return fmt.Errorf("failed to update company: %w", err)
			}
			printCompany(company)
			return nil
		},
	}

	cmd.Flags().StringP("name", "n", "", "Company name")
	registerAddressFlags(cmd)

	return cmd
}

func newCompanyTaxesCmd(timesheetService *service.TimesheetService) *cobra.Command {
	var taxes []string
	var clearAll bool

	cmd := &cobra.Command{
		Use:   "taxes",
		Short: "Replace the company's taxes",
		Long:  "Replace every company tax, in the order given. Each tax is taken from the invoice subtotal.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(taxes) == 0 && !clearAll {
				return fmt.Errorf("give at least one --tax, or --clear to remove them all")
			}
			update := service.CompanyUpdate{Taxes: []models.CompanyTax{}}
			for _, raw := range taxes {
				tax, err := parseTax(raw)
				if err != nil {
					return err
				}
				update.Taxes = append(update.Taxes, tax)
			}

			company, err := timesheetService.UpdateCompany(cmd.Context(), update)
			if err != nil {
				return fmt.Errorf("failed to update taxes: %w", err)
			}
			printCompany(company)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&taxes, "tax", nil, "Tax as name=percentage (repeatable)")
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every tax")
	cmd.MarkFlagsMutuallyExclusive("tax", "clear")

	return cmd
}

func printCompany(c *models.Company) {
	fmt.Printf("Company: %s\n", c.Name)
	if addr := formatAddress(c.Address); addr != "" {
		fmt.Printf("  Address: %s\n", addr)
	}
	if len(c.Taxes) == 0 {
		fmt.Println("  No taxes")
	}
	for _, tax := range c.Taxes {
		fmt.Printf("  %s: %s%%\n", tax.Name, tax.Percentage.String())
	}
}
