// Package notify sends the per-run summary to a Slack-compatible webhook.
//
// Delivery failures are reported as a typed error for the caller to log;
// they must never fail the run.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/yamato-aoki/stockpipe/internal/model"
)

// MaxFailureDetails bounds the failure list included in a notification.
const MaxFailureDetails = 10

// Error is a notification delivery failure. It is logged by the caller and
// never propagated into the run result.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("notify: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Notifier posts run summaries to a webhook.
type Notifier struct {
	client     *resty.Client
	webhookURL string
	logger     *slog.Logger
}

// New creates a Notifier. An empty webhook URL disables delivery.
func New(webhookURL string, timeout time.Duration, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		client:     resty.New().SetTimeout(timeout),
		webhookURL: webhookURL,
		logger:     logger,
	}
}

// webhook attachment payload, Slack-compatible.
type payload struct {
	Attachments []attachment `json:"attachments"`
}

type attachment struct {
	Fallback string  `json:"fallback"`
	Color    string  `json:"color"`
	Fields   []field `json:"fields"`
}

type field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// NotifyRun sends exactly one summary message for the run.
func (n *Notifier) NotifyRun(ctx context.Context, outcome *model.RunOutcome) error {
	if n.webhookURL == "" {
		n.logger.Debug("notifier disabled, skipping summary")
		return nil
	}

	status := outcome.Classify()
	message := FormatMessage(outcome)

	color := "#2eb886" // green
	if status != model.StatusSuccess {
		color = "#ff0000"
	}

	body := payload{
		Attachments: []attachment{{
			Fallback: message,
			Color:    color,
			Fields: []field{{
				Title: "stockpipe-etl",
				Value: message,
			}},
		}},
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(n.webhookURL)
	if err != nil {
		return &Error{Err: err}
	}
	if resp.IsError() {
		return &Error{Err: fmt.Errorf("webhook status %d", resp.StatusCode())}
	}

	n.logger.Info("run summary delivered", "status", status)
	return nil
}

// FormatMessage renders the run outcome as the notification text.
func FormatMessage(outcome *model.RunOutcome) string {
	status := outcome.Classify()

	icon := "✅"
	if status != model.StatusSuccess {
		icon = "❌"
	}

	lines := []string{
		fmt.Sprintf("%s ETL run %s (%s)", icon, status, outcome.Operation),
		fmt.Sprintf("range: %s ~ %s", outcome.Start, outcome.End),
		fmt.Sprintf("units: total=%d succeeded=%d failed=%d",
			outcome.Total, outcome.Succeeded, outcome.Failed),
		fmt.Sprintf("run id: %s", outcome.RunID),
	}

	for i, f := range outcome.Failures {
		if i == MaxFailureDetails {
			lines = append(lines, fmt.Sprintf("... and %d more", len(outcome.Failures)-MaxFailureDetails))
			break
		}
		lines = append(lines, fmt.Sprintf("failed %s [%s]: %v", f.Unit, f.Kind, f.Err))
	}

	return strings.Join(lines, "\n")
}
