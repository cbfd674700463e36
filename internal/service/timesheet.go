package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jesses-code-adventures/tims/internal/billing"
	"github.com/jesses-code-adventures/tims/internal/database"
)

func (s *TimesheetService) FormatDuration(d time.Duration) string {
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// FormatElapsed formats a number of seconds the way FormatDuration does.
func (s *TimesheetService) FormatElapsed(seconds int64) string {
	return s.FormatDuration(time.Duration(seconds) * time.Second)
}

func (s *TimesheetService) FormatMoney(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-$" + amount.Neg().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}

func (s *TimesheetService) FormatTime(epoch int64) string {
	return time.Unix(epoch, 0).In(s.now().Location()).Format(dateTimeLayout)
}

// Since is the time passed from epoch until now.
func (s *TimesheetService) Since(epoch int64) time.Duration {
	return s.now().Sub(time.Unix(epoch, 0))
}

// ExportWorksCSV writes the periods ListWorks would return to w. It returns
// the number of rows written, not counting the header.
func (s *TimesheetService) ExportWorksCSV(ctx context.Context, rng database.Range, clientID string, w io.Writer) (int, error) {
	works, err := s.ListWorks(ctx, rng, clientID)
	if err != nil {
		return 0, err
	}

	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"ID", "Client", "Project", "Task", "User", "Start", "End", "Elapsed (seconds)", "Minutes", "Description",
	}); err != nil {
		return 0, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, work := range works {
		elapsed := work.Elapsed()
		record := []string{
			work.ID,
			work.ClientName,
			work.ProjectName,
			work.TaskName,
			work.UserName,
			s.FormatTime(work.Start),
			s.FormatTime(*work.End),
			strconv.FormatInt(elapsed, 10),
			strconv.FormatInt(billing.RoundedMinutes(elapsed), 10),
			work.Description,
		}
		if err := writer.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush CSV: %w", err)
	}
	return len(works), nil
}
