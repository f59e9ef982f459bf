package console

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"broker-removal/internal/domain/entity"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func newConsole(t *testing.T) (*Console, *bytes.Buffer) {
	t.Helper()
	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })

	var buf bytes.Buffer
	return New(&buf), &buf
}

func TestShowOutcome(t *testing.T) {
	c, buf := newConsole(t)

	c.ShowOutcome(entity.Outcome{BrokerName: "Spokeo", Status: entity.StatusInProgress, Message: "Removal request submitted"})
	c.ShowOutcome(entity.Outcome{
		BrokerName:  "Intelius",
		Status:      entity.StatusRequiresManual,
		Message:     "no confirmation",
		FallbackURL: "https://www.intelius.com/opt-out",
	})
	c.ShowOutcome(entity.Outcome{BrokerName: "MyLife", Status: entity.StatusFailed, Message: "timeout"})

	out := buf.String()
	assert.Contains(t, out, "✓ Spokeo [in_progress] Removal request submitted")
	assert.Contains(t, out, "✋ Intelius [requires_manual] no confirmation")
	assert.Contains(t, out, "manual: https://www.intelius.com/opt-out")
	assert.Contains(t, out, "❌ MyLife [failed] timeout")
}

func TestShowSummary(t *testing.T) {
	c, buf := newConsole(t)

	c.ShowSummary("u1", &entity.Summary{TotalBrokers: 8, TotalRequests: 8, Completed: 1, Pending: 7, SuccessRate: 12.5})

	out := buf.String()
	assert.Contains(t, out, "Summary for u1")
	assert.Contains(t, out, "8 of 8 brokers")
	assert.Contains(t, out, "12.5%")
}

func TestShowChecklist(t *testing.T) {
	c, buf := newConsole(t)

	c.ShowChecklist(&entity.RemovalChecklist{
		UserName:           "Jane Doe",
		TotalManualBrokers: 1,
		EstimatedTotalTime: "15-25 minutes",
		Brokers: []entity.BrokerChecklist{{
			BrokerName: "FamilyTreeNow",
			RemovalURL: "https://www.familytreenow.com/optout",
			Instructions: &entity.ManualInstructions{Steps: []entity.InstructionStep{
				{Step: 1, Title: "Search", Description: "Find your record"},
			}},
			EmailTemplate: &entity.EmailTemplate{Recipient: "privacy@familytreenow.com", Subject: "Request for Data Removal - Jane Doe"},
		}},
	})

	out := buf.String()
	assert.Contains(t, out, "Jane Doe: 1 brokers, about 15-25 minutes")
	assert.Contains(t, out, "1. Search: Find your record")
	assert.Contains(t, out, "privacy@familytreenow.com")
}

func TestShowBatchError(t *testing.T) {
	c, buf := newConsole(t)
	c.ShowBatchError("u1", errors.New("user not found"))
	assert.Equal(t, "❌ u1: user not found\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b", truncate("a\n  b", 10))
	assert.Equal(t, strings.Repeat("x", 3)+"...", truncate("xxxxx", 3))
}
