// Package console renders removal results for the command line.
package console

import (
	"fmt"
	"io"
	"strings"

	"broker-removal/internal/domain/entity"

	"github.com/fatih/color"
)

type Console struct {
	out io.Writer
}

func New(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) ShowBatchStart(userID string) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\n━━━ Removal batch for %s ━━━\n", userID)
}

func (c *Console) ShowOutcome(o entity.Outcome) {
	switch o.Status {
	case entity.StatusInProgress, entity.StatusCompleted:
		color.New(color.FgGreen).Fprintf(c.out, "✓ %s", o.BrokerName)
	case entity.StatusRequiresManual:
		color.New(color.FgYellow).Fprintf(c.out, "✋ %s", o.BrokerName)
	default:
		color.New(color.FgRed).Fprintf(c.out, "❌ %s", o.BrokerName)
	}
	color.New(color.Faint).Fprintf(c.out, " [%s] %s\n", o.Status, truncate(o.Message, 200))
	if o.FallbackURL != "" {
		color.New(color.Faint).Fprintf(c.out, "   manual: %s\n", o.FallbackURL)
	}
}

func (c *Console) ShowBatchError(userID string, err error) {
	color.New(color.FgRed, color.Bold).Fprintf(c.out, "❌ %s: %v\n", userID, err)
}

func (c *Console) ShowSummary(userID string, s *entity.Summary) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\nSummary for %s\n", userID)
	rows := []struct {
		label string
		value int
		attr  color.Attribute
	}{
		{"pending", s.Pending, color.FgWhite},
		{"in progress", s.InProgress, color.FgBlue},
		{"completed", s.Completed, color.FgGreen},
		{"failed", s.Failed, color.FgRed},
		{"requires manual", s.RequiresManual, color.FgYellow},
	}
	for _, row := range rows {
		color.New(row.attr).Fprintf(c.out, "  %-16s %d\n", row.label, row.value)
	}
	fmt.Fprintf(c.out, "  %-16s %d of %d brokers\n", "requests", s.TotalRequests, s.TotalBrokers)
	color.New(color.Bold).Fprintf(c.out, "  %-16s %.1f%%\n", "success rate", s.SuccessRate)
}

func (c *Console) ShowChecklist(list *entity.RemovalChecklist) {
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "\nManual removals for %s: %d brokers, about %s\n",
		list.UserName, list.TotalManualBrokers, list.EstimatedTotalTime)

	for _, b := range list.Brokers {
		color.New(color.FgYellow, color.Bold).Fprintf(c.out, "\n%s", b.BrokerName)
		if b.RemovalURL != "" {
			color.New(color.Faint).Fprintf(c.out, "  %s", b.RemovalURL)
		}
		fmt.Fprintln(c.out)

		if b.Instructions != nil {
			for _, step := range b.Instructions.Steps {
				fmt.Fprintf(c.out, "  %d. %s: %s\n", step.Step, step.Title, step.Description)
			}
		}
		if b.EmailTemplate != nil {
			color.New(color.Faint).Fprintf(c.out, "  email: %s (%s)\n", b.EmailTemplate.Recipient, b.EmailTemplate.Subject)
		}
	}
}

func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len([]rune(s)) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
