package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
)

// Mailgun sends receipts through the Mailgun messages API
// (POST /v3/<domain>/messages with from, to, subject and html).
type Mailgun struct {
	mg      *mailgun.MailgunImpl
	from    string
	company string
	logger  *slog.Logger
}

// compile-time check that *Mailgun implements Notifier
var _ Notifier = (*Mailgun)(nil)

type MailgunConfig struct {
	BaseURL string
	APIKey  string
	Domain  string
	From    string
	Company string
}

// NewMailgun creates a Mailgun client. BaseURL is the API host without the
// version path, normally https://api.mailgun.net.
func NewMailgun(cfg MailgunConfig, logger *slog.Logger) *Mailgun {
	mg := mailgun.NewMailgun(cfg.Domain, cfg.APIKey)
	mg.SetAPIBase(strings.TrimRight(cfg.BaseURL, "/") + "/v3")
	mg.SetClient(&http.Client{Timeout: 30 * time.Second})
	return &Mailgun{
		mg:      mg,
		from:    cfg.From,
		company: cfg.Company,
		logger:  logger,
	}
}

// SendReceipt renders the receipt and queues it with Mailgun. The returned id
// is Mailgun's message id.
func (m *Mailgun) SendReceipt(ctx context.Context, r Receipt) (string, error) {
	html, err := RenderReceipt(m.company, r)
	if err != nil {
		return "", err
	}

	msg := m.mg.NewMessage(fmt.Sprintf("%s <%s>", m.company, m.from), Subject(m.company, r.OrderID), "", r.To)
	msg.SetHtml(html)

	_, id, err := m.mg.Send(ctx, msg)
	if err != nil {
		if status := mailgun.GetStatusFromErr(err); status > 0 {
			return "", fmt.Errorf("notify: mailgun returned HTTP %d for order %s: %w", status, r.OrderID, err)
		}
		return "", fmt.Errorf("notify: sending receipt for order %s: %w", r.OrderID, err)
	}
	if id == "" {
		return "", fmt.Errorf("notify: mailgun response has no message id")
	}

	m.logger.Debug("receipt queued",
		slog.String("order_id", r.OrderID),
		slog.String("delivery_id", id),
	)
	return id, nil
}
