//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
)

// racePlacements fires the same order placement from n goroutines and returns
// how many responded with each status code.
func racePlacements(t *testing.T, n int, order orderRequest) map[int]int {
	t.Helper()

	body, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("marshal order: %v", err)
	}

	statuses := make(chan int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req, err := http.NewRequestWithContext(context.Background(),
				http.MethodPost, baseURL+"/api/orders", bytes.NewReader(body))
			if err != nil {
				t.Errorf("create request: %v", err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("api_key", customerKey)

			resp, err := httpClient.Do(req)
			if err != nil {
				t.Errorf("place order: %v", err)
				return
			}
			resp.Body.Close()
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	got := make(map[int]int)
	for s := range statuses {
		got[s]++
	}
	return got
}

// Every racer tries to buy the product's entire remaining stock, so at most
// one placement can be covered. The conditional decrement must let exactly
// one commit and reject the rest.
func TestPlaceOrder_ConcurrentLastStock(t *testing.T) {
	remaining := getStock(t, "creme-brulee")
	if remaining <= 0 {
		t.Fatalf("need stock to race over, got %d", remaining)
	}

	const racers = 8
	statuses := racePlacements(t, racers, orderRequest{
		Items:         []orderItemRequest{{ProductID: "creme-brulee", Qty: remaining}},
		Address:       shipTo(),
		PaymentMethod: "card",
	})

	if statuses[http.StatusCreated] != 1 {
		t.Fatalf("expected exactly one winner, got %v", statuses)
	}
	if statuses[http.StatusUnprocessableEntity] != racers-1 {
		t.Fatalf("expected %d stock rejections, got %v", racers-1, statuses)
	}
	if after := getStock(t, "creme-brulee"); after != 0 {
		t.Fatalf("expected stock 0 after the race, got %d", after)
	}
}

// FIRST5 is seeded with a usage limit of 1. Concurrent placements all carry
// it; the conditional usage_count increment must redeem it exactly once and
// roll back every losing order, stock included.
func TestPlaceOrder_ConcurrentCouponLimit(t *testing.T) {
	before := getStock(t, "macaron-mix")

	const racers = 6
	statuses := racePlacements(t, racers, orderRequest{
		Items:         []orderItemRequest{{ProductID: "macaron-mix", Qty: 1}},
		Address:       shipTo(),
		PaymentMethod: "card",
		CouponCode:    "FIRST5",
	})

	if statuses[http.StatusCreated] != 1 {
		t.Fatalf("expected exactly one redemption, got %v", statuses)
	}
	if statuses[http.StatusUnprocessableEntity] != racers-1 {
		t.Fatalf("expected %d limit rejections, got %v", racers-1, statuses)
	}
	if after := getStock(t, "macaron-mix"); after != before-1 {
		t.Fatalf("losing orders must not consume stock: want %d, got %d", before-1, after)
	}
}
