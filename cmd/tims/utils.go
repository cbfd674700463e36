package main

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/jesses-code-adventures/tims/internal/database"
	"github.com/jesses-code-adventures/tims/internal/models"
	"github.com/jesses-code-adventures/tims/internal/service"
	"github.com/jesses-code-adventures/tims/internal/utils"
)

type rangeFlags struct {
	period string
	date   string
	from   string
	to     string
}

func (r *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&r.period, "period", "p", "", "Period: day, week, fortnight or month (default week)")
	cmd.Flags().StringVarP(&r.date, "date", "D", "", "Date inside the period (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&r.from, "from", "f", "", "Range start (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
	cmd.Flags().StringVarP(&r.to, "to", "t", "", "Range end, exclusive unless a bare date (YYYY-MM-DD or YYYY-MM-DD HH:MM)")
}

func (r *rangeFlags) resolve(timesheetService *service.TimesheetService) (database.Range, error) {
	return timesheetService.ResolveRange(r.period, r.date, r.from, r.to)
}

// optional resolves the range only when one of its flags was given.
func (r *rangeFlags) optional(timesheetService *service.TimesheetService) (*database.Range, error) {
	if r.period == "" && r.date == "" && r.from == "" && r.to == "" {
		return nil, nil
	}
	rng, err := r.resolve(timesheetService)
	if err != nil {
		return nil, err
	}
	return &rng, nil
}

func describeRange(timesheetService *service.TimesheetService, rng database.Range) string {
	switch {
	case rng.Start == 0 && rng.End == 0:
		return "all time"
	case rng.End == 0:
		return "from " + timesheetService.FormatTime(rng.Start)
	case rng.Start == 0:
		return "until " + timesheetService.FormatTime(rng.End)
	}
	return timesheetService.FormatTime(rng.Start) + " to " + timesheetService.FormatTime(rng.End)
}

// clientRef resolves a --client flag that may hold either an ID or a name.
func clientRef(cmd *cobra.Command, timesheetService *service.TimesheetService, ref string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return timesheetService.ResolveClientID(cmd.Context(), ref)
}

func registerAddressFlags(cmd *cobra.Command) {
	cmd.Flags().String("address1", "", "Address line 1")
	cmd.Flags().String("address2", "", "Address line 2")
	cmd.Flags().String("city", "", "City")
	cmd.Flags().String("division", "", "State or other division")
	cmd.Flags().String("country", "", "Country")
	cmd.Flags().String("postal-code", "", "Postal code")
}

// addressFromFlags holds only the address flags that were given; an empty
// value clears the line.
func addressFromFlags(cmd *cobra.Command) models.Address {
	return models.Address{
		Address1:   utils.ChangedString(cmd, "address1"),
		Address2:   utils.ChangedString(cmd, "address2"),
		City:       utils.ChangedString(cmd, "city"),
		Division:   utils.ChangedString(cmd, "division"),
		Country:    utils.ChangedString(cmd, "country"),
		PostalCode: utils.ChangedString(cmd, "postal-code"),
	}
}

func formatAddress(a models.Address) string {
	var parts []string
	for _, p := range []*string{a.Address1, a.Address2, a.City, a.Division, a.PostalCode, a.Country} {
		if p != nil && *p != "" {
			parts = append(parts, *p)
		}
	}
	return strings.Join(parts, ", ")
}

// parseAdditional reads an invoice line given as type:amount:text.
func parseAdditional(raw string) (models.InvoiceAdditional, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return models.InvoiceAdditional{}, fmt.Errorf("invalid additional line '%s', expected type:amount:text", raw)
	}
	amount, err := decimal.NewFromString(parts[1])
	if err != nil {
		return models.InvoiceAdditional{}, fmt.Errorf("invalid additional amount '%s': %w", parts[1], err)
	}
	return models.InvoiceAdditional{
		Type:   models.AdditionalType(strings.ToLower(strings.TrimSpace(parts[0]))),
		Amount: amount,
		Text:   strings.TrimSpace(parts[2]),
	}, nil
}

// parseTax reads a company tax given as name=percentage.
func parseTax(raw string) (models.CompanyTax, error) {
	name, pct, ok := strings.Cut(raw, "=")
	if !ok {
		return models.CompanyTax{}, fmt.Errorf("invalid tax '%s', expected name=percentage", raw)
	}
	percentage, err := decimal.NewFromString(strings.TrimSpace(pct))
	if err != nil {
		return models.CompanyTax{}, fmt.Errorf("invalid tax percentage '%s': %w", pct, err)
	}
	return models.CompanyTax{Name: strings.TrimSpace(name), Percentage: percentage}, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printClient(timesheetService *service.TimesheetService, c *models.Client) {
	fmt.Printf("Client: %s (ID: %s)\n", c.Name, c.ID)
	fmt.Printf("  Rate: %s/hr\n", timesheetService.FormatMoney(c.Rate))
	fmt.Printf("  Task minimum: %d min, overflow: %d min\n", c.TaskMinimum, c.TaskOverflow)
	fmt.Printf("  Due: %d days\n", c.Due)
	fmt.Printf("  Taxes: %t\n", c.Taxes)
	if addr := formatAddress(c.Address); addr != "" {
		fmt.Printf("  Address: %s\n", addr)
	}
	if c.Archived {
		fmt.Println("  Archived")
	}
}

func printUser(u *models.User) {
	fmt.Printf("User: %s <%s> (ID: %s)\n", u.Name, u.Email, u.ID)
	fmt.Printf("  Type: %s\n", u.Type)
	fmt.Printf("  Locale: %s\n", u.Locale)
	fmt.Printf("  Verified: %t\n", u.Verified)
	if u.Archived {
		fmt.Println("  Archived")
	}
}

func printKey(k *models.Key) {
	if k == nil {
		return
	}
	fmt.Printf("%s key: %s\n", k.Type, k.ID)
}

func printWork(timesheetService *service.TimesheetService, w *models.WorkDetail) {
	end := "open"
	if w.End != nil {
		end = timesheetService.FormatTime(*w.End)
	}
	fmt.Printf("%s - %s / %s / %s - %s - %s to %s (%s)",
		w.ID, w.ClientName, w.ProjectName, w.TaskName, w.UserName,
		timesheetService.FormatTime(w.Start), end, timesheetService.FormatElapsed(w.Elapsed()))
	if w.Description != "" {
		fmt.Printf(" - %s", w.Description)
	}
	fmt.Println()
}

func printInvoice(timesheetService *service.TimesheetService, inv *models.InvoiceDetail) {
	fmt.Printf("Invoice %s", inv.Identifier)
	if inv.ID != "" {
		fmt.Printf(" (ID: %s)", inv.ID)
	}
	fmt.Println()
	if inv.Client != nil {
		fmt.Printf("  Client: %s\n", inv.Client.Name)
	}
	if inv.Company != nil {
		fmt.Printf("  From: %s\n", inv.Company.Name)
	}
	fmt.Printf("  Period: %s\n", describeRange(timesheetService, database.Range{Start: inv.Start, End: inv.End}))
	for _, item := range inv.Items {
		name := item.ProjectName
		if name == "" {
			name = item.ProjectID
		}
		fmt.Printf("  %-30s %6d min %12s\n", name, item.Minutes, timesheetService.FormatMoney(item.Amount))
	}
	for _, a := range inv.Additional {
		amount := a.Amount
		if a.Type == models.AdditionalDiscount {
			amount = amount.Neg()
		}
		fmt.Printf("  %-30s %10s %12s\n", a.Text, "", timesheetService.FormatMoney(amount))
	}
	fmt.Printf("  Minutes: %d\n", inv.Minutes)
	fmt.Printf("  Subtotal: %s\n", timesheetService.FormatMoney(inv.Subtotal))
	for _, tax := range inv.Taxes {
		fmt.Printf("  %s: %s\n", tax.Name, timesheetService.FormatMoney(tax.Amount))
	}
	fmt.Printf("  Total: %s\n", timesheetService.FormatMoney(inv.Total))
}
