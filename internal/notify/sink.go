package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/order"
)

// Sink queues notifications onto a buffered channel drained by a single
// background worker, decoupling email latency and failures from request
// handling. Enqueueing never blocks: when the buffer is full the notification
// is dropped with a log entry.
type Sink struct {
	sender    Sender
	lg        *zap.Logger
	storeName string
	queue     chan Email
}

// NewSink creates a Sink with the given buffer size. Run must be started for
// queued notifications to be delivered.
func NewSink(sender Sender, lg *zap.Logger, storeName string, buffer int) *Sink {
	if buffer <= 0 {
		buffer = 64
	}
	return &Sink{
		sender:    sender,
		lg:        lg,
		storeName: storeName,
		queue:     make(chan Email, buffer),
	}
}

// Run drains the queue until ctx is cancelled. Send failures are logged and
// dropped.
func (s *Sink) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-s.queue:
			if err := s.sender.Send(e); err != nil {
				s.lg.Warn("notification send failed",
					zap.String("to", e.To),
					zap.String("subject", e.Subject),
					zap.Error(err),
				)
			}
		}
	}
}

// OrderPlaced implements order.Notifier: it queues an order confirmation
// email without blocking the caller.
func (s *Sink) OrderPlaced(o *order.Order, email string) {
	if email == "" {
		return
	}

	e := Email{
		To:      email,
		Subject: fmt.Sprintf("%s order confirmation #%s", s.storeName, shortID(o.ID)),
		HTML:    confirmationHTML(s.storeName, o),
	}

	select {
	case s.queue <- e:
	default:
		s.lg.Warn("notification queue full, dropping order confirmation",
			zap.String("order_id", o.ID),
		)
	}
}

// shortID returns the first segment of a UUID for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

// confirmationHTML renders the order confirmation body.
func confirmationHTML(storeName string, o *order.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Thanks for your order!</h2>")
	fmt.Fprintf(&b, "<p>Order <strong>%s</strong> has been received and is %s.</p>",
		html.EscapeString(o.ID), html.EscapeString(string(o.Status)))

	b.WriteString("<table><tr><th>Item</th><th>Qty</th><th>Price</th></tr>")
	for _, it := range o.Items {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%s</td></tr>",
			html.EscapeString(it.Name), it.Qty, it.Price.StringFixed(2))
	}
	b.WriteString("</table>")

	fmt.Fprintf(&b, "<p>Subtotal: %s<br>Shipping: %s<br>Tax: %s<br>",
		o.Subtotal.StringFixed(2), o.Shipping.StringFixed(2), o.Tax.StringFixed(2))
	if o.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s<br>", o.Discount.StringFixed(2))
	}
	fmt.Fprintf(&b, "<strong>Total: %s</strong></p>", o.Total.StringFixed(2))

	fmt.Fprintf(&b, "<p>Shipping to: %s, %s, %s</p>",
		html.EscapeString(o.ShipTo.Recipient),
		html.EscapeString(o.ShipTo.Line1),
		html.EscapeString(o.ShipTo.City))

	fmt.Fprintf(&b, "<p>— %s</p>", html.EscapeString(storeName))
	return b.String()
}
