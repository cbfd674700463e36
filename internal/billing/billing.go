// Package billing turns logged work periods into invoice figures.
//
// Periods are summed per task before rounding, then each task is rounded to
// whole minutes and blocked according to the client's minimum/overflow
// policy. Billed amounts are always rounded up to the cent; taxes use banker's
// rounding and are each taken from the pre-tax subtotal.
package billing

import (
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/tims/internal/models"
)

type Policy struct {
	Rate         decimal.Decimal
	TaskMinimum  int64
	TaskOverflow int64
}

func PolicyFor(c *models.Client) Policy {
	return Policy{Rate: c.Rate, TaskMinimum: c.TaskMinimum, TaskOverflow: c.TaskOverflow}
}

type Period struct {
	ProjectID string
	TaskID    string
	Start     int64
	End       int64
}

type Tax struct {
	Name       string
	Percentage decimal.Decimal
}

type Item struct {
	ProjectID string
	Minutes   int64
	Amount    decimal.Decimal
}

type Result struct {
	Subtotal   decimal.Decimal
	Taxes      models.TaxList
	Total      decimal.Decimal
	Items      []Item
	Additional []models.InvoiceAdditional
}

func (r Result) Minutes() int64 {
	var total int64
	for _, it := range r.Items {
		total += it.Minutes
	}
	return total
}

var sixty = decimal.NewFromInt(60)

// RoundedMinutes converts seconds to minutes, rounding up only when more
// than 15 seconds remain.
func RoundedMinutes(seconds int64) int64 {
	minutes, remainder := seconds/60, seconds%60
	if remainder > 15 {
		minutes++
	}
	return minutes
}

// BlockMinutes applies the client block policy to a task's minutes. An
// overflow of zero always adds a block.
func BlockMinutes(minutes int64, p Policy) int64 {
	if p.TaskMinimum <= 1 {
		return minutes
	}
	blocks, remainder := minutes/p.TaskMinimum, minutes%p.TaskMinimum
	if p.TaskOverflow == 0 || remainder > p.TaskOverflow {
		blocks++
	}
	return blocks * p.TaskMinimum
}

// Amount is rate × minutes / 60, rounded away from zero to the cent.
func Amount(rate decimal.Decimal, minutes int64) decimal.Decimal {
	return rate.Mul(decimal.NewFromInt(minutes)).DivRound(sixty, 16).RoundUp(2)
}

// TaxAmount is subtotal × percentage / 100 with banker's rounding to the cent.
func TaxAmount(subtotal, percentage decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(percentage).Shift(-2).RoundBank(2)
}

// Generate computes the invoice figures. It does no I/O and is shared by
// previews and persisted invoices.
func Generate(p Policy, periods []Period, taxes []Tax, additional []models.InvoiceAdditional) Result {
	type taskBucket struct {
		project string
		elapsed int64
	}
	tasks := make(map[string]*taskBucket)
	var taskOrder []string
	for _, per := range periods {
		elapsed := per.End - per.Start
		if elapsed <= 0 {
			continue
		}
		if b, ok := tasks[per.TaskID]; ok {
			b.elapsed += elapsed
			continue
		}
		tasks[per.TaskID] = &taskBucket{project: per.ProjectID, elapsed: elapsed}
		taskOrder = append(taskOrder, per.TaskID)
	}

	projects := make(map[string]int64)
	var projectOrder []string
	for _, id := range taskOrder {
		b := tasks[id]
		minutes := BlockMinutes(RoundedMinutes(b.elapsed), p)
		if _, ok := projects[b.project]; !ok {
			projectOrder = append(projectOrder, b.project)
		}
		projects[b.project] += minutes
	}

	res := Result{Subtotal: decimal.Zero, Taxes: models.TaxList{}, Additional: additional}
	for _, id := range projectOrder {
		minutes := projects[id]
		if minutes == 0 {
			continue
		}
		amount := Amount(p.Rate, minutes)
		res.Items = append(res.Items, Item{ProjectID: id, Minutes: minutes, Amount: amount})
		res.Subtotal = res.Subtotal.Add(amount)
	}

	for _, a := range additional {
		if a.Type == models.AdditionalCost {
			res.Subtotal = res.Subtotal.Add(a.Amount)
		} else {
			res.Subtotal = res.Subtotal.Sub(a.Amount)
		}
	}

	res.Total = res.Subtotal
	for _, t := range taxes {
		amount := TaxAmount(res.Subtotal, t.Percentage)
		res.Taxes = append(res.Taxes, models.TaxAmount{Name: t.Name, Amount: amount})
		res.Total = res.Total.Add(amount)
	}

	return res
}

// ValidateAdditional checks every additional line before any computation.
func ValidateAdditional(additional []models.InvoiceAdditional) []models.FieldError {
	var errs []models.FieldError
	for i := range additional {
		errs = append(errs, models.Check(&additional[i], "additional."+strconv.Itoa(i))...)
	}
	return errs
}
