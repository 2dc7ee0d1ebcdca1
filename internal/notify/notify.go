// Package notify delivers order receipts to customers.
package notify

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/rs/xid"
)

// ReceiptItem is one line of a receipt.
type ReceiptItem struct {
	Name     string
	Size     string
	Price    float64
	Quantity int
}

// Subtotal is Price x Quantity.
func (i ReceiptItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// Receipt is everything needed to tell a customer what they paid for.
type Receipt struct {
	To        string
	OrderID   string
	FirstName string
	LastName  string
	Items     []ReceiptItem
	Amount    float64
	PaidAt    time.Time
}

// Notifier is the notification collaborator. It returns a delivery id.
type Notifier interface {
	SendReceipt(ctx context.Context, r Receipt) (string, error)
}

//go:embed receipt.html
var receiptHTML string

var receiptTmpl = template.Must(template.New("receipt").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$ %.2f", v) },
}).Parse(receiptHTML))

// RenderReceipt renders the HTML receipt body. Customer-supplied fields are
// escaped by html/template.
func RenderReceipt(company string, r Receipt) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Company string
		Receipt
	}{company, r}
	if err := receiptTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: rendering receipt for order %s: %w", r.OrderID, err)
	}
	return buf.String(), nil
}

// Subject is the receipt email subject line.
func Subject(company, orderID string) string {
	return fmt.Sprintf("Your order receipt from %s - #%s", company, orderID)
}

// LogNotifier writes receipts to the log instead of sending them. It is used
// when no mail provider is configured.
type LogNotifier struct {
	logger *slog.Logger
}

// compile-time check that *LogNotifier implements Notifier
var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) SendReceipt(ctx context.Context, r Receipt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := "log-" + xid.New().String()
	n.logger.Info("receipt not emailed (no mail provider configured)",
		slog.String("delivery_id", id),
		slog.String("to", r.To),
		slog.String("order_id", r.OrderID),
		slog.Int("items", len(r.Items)),
		slog.Float64("amount", r.Amount),
	)
	return id, nil
}
