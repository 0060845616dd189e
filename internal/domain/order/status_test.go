package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to Status }{
		{StatusPending, StatusProcessing},
		{StatusProcessing, StatusShipped},
		{StatusShipped, StatusDelivered},
		{StatusPending, StatusCancelled},
		{StatusProcessing, StatusCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to Status }{
		{StatusShipped, StatusCancelled},
		{StatusDelivered, StatusCancelled},
		{StatusCancelled, StatusProcessing},
		{StatusDelivered, StatusShipped},
		{StatusPending, StatusDelivered},
		{StatusPending, StatusShipped},
		{StatusCancelled, StatusCancelled},
	}
	for _, tr := range denied {
		assert.False(t, CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid())
	}
	assert.False(t, Status("refunded").Valid())
	assert.False(t, Status("").Valid())
}
