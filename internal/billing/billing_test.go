package billing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jesses-code-adventures/tims/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func period(project, task string, seconds int64) Period {
	return Period{ProjectID: project, TaskID: task, Start: 1_700_000_000, End: 1_700_000_000 + seconds}
}

func TestRoundedMinutes(t *testing.T) {
	tests := []struct {
		seconds int64
		want    int64
	}{
		{0, 0},
		{15, 0},
		{16, 1},
		{60, 1},
		{75, 1},
		{76, 2},
		{910, 15},
		{916, 16},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundedMinutes(tt.seconds), "seconds=%d", tt.seconds)
	}
}

func TestBlockMinutes(t *testing.T) {
	tests := []struct {
		name    string
		minutes int64
		policy  Policy
		want    int64
	}{
		{"no blocking", 15, Policy{TaskMinimum: 1}, 15},
		{"remainder within overflow", 35, Policy{TaskMinimum: 30, TaskOverflow: 10}, 30},
		{"remainder equal to overflow", 40, Policy{TaskMinimum: 30, TaskOverflow: 10}, 30},
		{"remainder past overflow", 45, Policy{TaskMinimum: 30, TaskOverflow: 10}, 60},
		{"short task under overflow bills nothing", 5, Policy{TaskMinimum: 30, TaskOverflow: 10}, 0},
		{"zero overflow small remainder", 31, Policy{TaskMinimum: 30}, 60},
		{"zero overflow large remainder", 59, Policy{TaskMinimum: 30}, 60},
		{"zero overflow short task", 1, Policy{TaskMinimum: 30}, 30},
		{"zero overflow exact multiple still adds a block", 60, Policy{TaskMinimum: 30}, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BlockMinutes(tt.minutes, tt.policy))
		})
	}
}

func TestAmountRoundsUpToTheCent(t *testing.T) {
	tests := []struct {
		rate    string
		minutes int64
		want    string
	}{
		{"100", 1, "1.67"},
		{"100", 60, "100"},
		{"85.50", 20, "28.5"},
		{"120", 7, "14"},
		{"99.99", 1, "1.67"},
		{"60", 1, "1"},
		{"30", 10, "5"},
	}
	for _, tt := range tests {
		got := Amount(dec(tt.rate), tt.minutes)
		assert.True(t, got.Equal(dec(tt.want)), "rate=%s minutes=%d got %s", tt.rate, tt.minutes, got)
	}
}

func TestTaxAmountUsesBankersRounding(t *testing.T) {
	assert.True(t, TaxAmount(dec("100.00"), dec("13")).Equal(dec("13.00")))
	assert.True(t, TaxAmount(dec("0.05"), dec("50")).Equal(dec("0.02")))
	assert.True(t, TaxAmount(dec("0.15"), dec("50")).Equal(dec("0.08")))
	assert.True(t, TaxAmount(dec("100.00"), dec("9.975")).Equal(dec("9.98")))
}

func TestGenerateNoBlocking(t *testing.T) {
	res := Generate(Policy{Rate: dec("100"), TaskMinimum: 1}, []Period{period("p1", "t1", 910)}, nil, nil)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(15), res.Items[0].Minutes)
	assert.True(t, res.Items[0].Amount.Equal(dec("25")))
	assert.True(t, res.Subtotal.Equal(dec("25")))
	assert.True(t, res.Total.Equal(dec("25")))
	assert.Empty(t, res.Taxes)
}

func TestGenerateGroupsByTaskBeforeRounding(t *testing.T) {
	periods := []Period{
		period("p1", "t1", 20),
		period("p1", "t1", 20),
		period("p1", "t1", 20),
	}
	res := Generate(Policy{Rate: dec("60"), TaskMinimum: 1}, periods, nil, nil)

	require.Len(t, res.Items, 1)
	assert.Equal(t, int64(1), res.Items[0].Minutes)
	assert.True(t, res.Items[0].Amount.Equal(dec("1")))
}

func TestGenerateSumsTasksIntoProjects(t *testing.T) {
	policy := Policy{Rate: dec("90"), TaskMinimum: 30, TaskOverflow: 10}
	periods := []Period{
		period("p2", "t3", 900),
		period("p1", "t1", 35*60),
		period("p1", "t2", 45*60),
	}
	res := Generate(policy, periods, nil, nil)

	require.Len(t, res.Items, 2)
	assert.Equal(t, "p2", res.Items[0].ProjectID)
	assert.Equal(t, int64(30), res.Items[0].Minutes)
	assert.True(t, res.Items[0].Amount.Equal(dec("45")))

	assert.Equal(t, "p1", res.Items[1].ProjectID)
	assert.Equal(t, int64(90), res.Items[1].Minutes)
	assert.True(t, res.Items[1].Amount.Equal(dec("135")))

	assert.Equal(t, int64(120), res.Minutes())
	assert.True(t, res.Subtotal.Equal(dec("180")))
}

func TestGenerateSkipsProjectsWithoutBillableTime(t *testing.T) {
	periods := []Period{
		period("p1", "t1", 3600),
		period("p2", "t2", 0),
		period("p3", "t3", 10),
	}
	res := Generate(Policy{Rate: dec("100"), TaskMinimum: 1}, periods, nil, nil)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "p1", res.Items[0].ProjectID)
}

func TestGenerateTaxesDoNotCompound(t *testing.T) {
	taxes := []Tax{
		{Name: "GST", Percentage: dec("5")},
		{Name: "QST", Percentage: dec("9.975")},
	}
	res := Generate(Policy{Rate: dec("100"), TaskMinimum: 1}, []Period{period("p1", "t1", 3600)}, taxes, nil)

	require.Len(t, res.Taxes, 2)
	assert.Equal(t, "GST", res.Taxes[0].Name)
	assert.True(t, res.Taxes[0].Amount.Equal(dec("5.00")))
	assert.Equal(t, "QST", res.Taxes[1].Name)
	assert.True(t, res.Taxes[1].Amount.Equal(dec("9.98")))
	assert.True(t, res.Subtotal.Equal(dec("100")))
	assert.True(t, res.Total.Equal(dec("114.98")))
}

func TestGenerateSingleTax(t *testing.T) {
	taxes := []Tax{{Name: "HST", Percentage: dec("13")}}
	res := Generate(Policy{Rate: dec("100"), TaskMinimum: 1}, []Period{period("p1", "t1", 3600)}, taxes, nil)

	require.Len(t, res.Taxes, 1)
	assert.True(t, res.Taxes[0].Amount.Equal(dec("13.00")))
	assert.True(t, res.Total.Equal(dec("113.00")))
}

func TestGenerateAppliesAdditionalBeforeTaxes(t *testing.T) {
	additional := []models.InvoiceAdditional{
		{Text: "Hosting", Type: models.AdditionalCost, Amount: dec("20")},
		{Text: "Loyalty", Type: models.AdditionalDiscount, Amount: dec("20")},
		{Text: "Goodwill", Type: models.AdditionalDiscount, Amount: dec("50")},
	}
	taxes := []Tax{{Name: "HST", Percentage: dec("13")}}
	res := Generate(Policy{Rate: dec("150"), TaskMinimum: 1}, []Period{period("p1", "t1", 3600)}, taxes, additional)

	assert.True(t, res.Subtotal.Equal(dec("100")))
	assert.True(t, res.Taxes[0].Amount.Equal(dec("13")))
	assert.True(t, res.Total.Equal(dec("113")))
	assert.Len(t, res.Additional, 3)
}

func TestGenerateIsDeterministic(t *testing.T) {
	policy := Policy{Rate: dec("87.25"), TaskMinimum: 15, TaskOverflow: 3}
	periods := []Period{period("p1", "t1", 1234), period("p2", "t2", 4321), period("p1", "t3", 77)}
	taxes := []Tax{{Name: "VAT", Percentage: dec("20")}}

	a := Generate(policy, periods, taxes, nil)
	b := Generate(policy, periods, taxes, nil)
	assert.Equal(t, a.Items, b.Items)
	assert.True(t, a.Total.Equal(b.Total))
}

func TestValidateAdditional(t *testing.T) {
	errs := ValidateAdditional([]models.InvoiceAdditional{
		{Text: "Hosting", Type: models.AdditionalCost, Amount: dec("20")},
		{Type: models.AdditionalDiscount, Amount: dec("20")},
	})
	assert.Equal(t, []models.FieldError{{Field: "additional.1.text", Reason: "missing"}}, errs)

	assert.Empty(t, ValidateAdditional(nil))
}

func TestNewIdentifier(t *testing.T) {
	for range 100 {
		id := NewIdentifier()
		require.Len(t, id, IdentifierLength)
		for _, r := range id {
			assert.True(t, strings.ContainsRune(IdentifierAlphabet, r), "unexpected %q in %s", r, id)
		}
		assert.NotContains(t, id, "0")
		assert.NotContains(t, id, "O")
		assert.NotContains(t, id, "I")
	}
}
