package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/storefront-api/internal/domain/address"
	"github.com/xenking/storefront-api/internal/domain/order"
)

type recordingSender struct {
	mu     sync.Mutex
	emails []Email
	err    error
}

func (r *recordingSender) Send(e Email) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.emails = append(r.emails, e)
	return nil
}

func (r *recordingSender) sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Email(nil), r.emails...)
}

func testOrder() *order.Order {
	return &order.Order{
		ID:     "aaaa1111-0000-0000-0000-000000000000",
		UserID: "u1",
		Items: []order.Item{
			{ProductID: "p1", Qty: 2, Price: decimal.RequireFromString("500.00"), Name: "Widget"},
		},
		Subtotal: decimal.RequireFromString("1000.00"),
		Total:    decimal.RequireFromString("1000.00"),
		Status:   order.StatusPending,
		ShipTo:   address.Address{Recipient: "Jo Doe", Line1: "1 Main St", City: "Springfield"},
	}
}

func TestSink_DeliversConfirmation(t *testing.T) {
	sender := &recordingSender{}
	sink := NewSink(sender, zap.NewNop(), "Teakspice", 8)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = sink.Run(ctx)
		close(done)
	}()

	sink.OrderPlaced(testOrder(), "jo@example.com")

	require.Eventually(t, func() bool {
		return len(sender.sent()) == 1
	}, time.Second, 10*time.Millisecond)

	e := sender.sent()[0]
	assert.Equal(t, "jo@example.com", e.To)
	assert.Contains(t, e.Subject, "aaaa1111")
	assert.Contains(t, e.HTML, "Widget")
	assert.Contains(t, e.HTML, "1000.00")

	cancel()
	<-done
}

func TestSink_SendFailureIsSwallowed(t *testing.T) {
	sender := &recordingSender{err: errors.New("smtp down")}
	sink := NewSink(sender, zap.NewNop(), "Teakspice", 8)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	// Enqueue must not block or panic even though every send fails.
	sink.OrderPlaced(testOrder(), "jo@example.com")
	_ = sink.Run(ctx)
}

func TestSink_FullQueueDrops(t *testing.T) {
	sender := &recordingSender{}
	sink := NewSink(sender, zap.NewNop(), "Teakspice", 1)

	// No worker running; second enqueue overflows the buffer and is dropped
	// without blocking.
	sink.OrderPlaced(testOrder(), "jo@example.com")
	sink.OrderPlaced(testOrder(), "jo@example.com")
}

func TestSink_EmptyEmailSkipped(t *testing.T) {
	sender := &recordingSender{}
	sink := NewSink(sender, zap.NewNop(), "Teakspice", 1)

	sink.OrderPlaced(testOrder(), "")
	assert.Empty(t, sink.queue)
}
