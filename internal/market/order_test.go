package market

import (
	"reflect"
	"testing"

	"cryptotools/internal/models"
)

func quoteIDs(coins []models.CoinQuote) []string {
	ids := make([]string, len(coins))
	for i, coin := range coins {
		ids[i] = coin.ID
	}
	return ids
}

func TestReorderByPriority(t *testing.T) {
	coins := []models.CoinQuote{
		{ID: "dogecoin"}, {ID: "bitcoin"}, {ID: "tether"}, {ID: "smlo"}, {ID: "nano"},
	}
	priority := []string{"smlo", "bitcoin", "solana", "nano"}

	got := quoteIDs(ReorderByPriority(coins, priority))
	want := []string{"smlo", "bitcoin", "nano", "dogecoin", "tether"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("reorder = %v, want %v", got, want)
	}
}

func TestReorderByPriorityIdempotent(t *testing.T) {
	coins := []models.CoinQuote{
		{ID: "tether"}, {ID: "smlo"}, {ID: "bitcoin"},
	}
	priority := []string{"smlo", "bitcoin"}

	once := ReorderByPriority(coins, priority)
	twice := ReorderByPriority(once, priority)
	if !reflect.DeepEqual(quoteIDs(once), quoteIDs(twice)) {
		t.Fatalf("reorder not idempotent: %v vs %v", quoteIDs(once), quoteIDs(twice))
	}
}

func TestReorderByPriorityEmpty(t *testing.T) {
	if got := ReorderByPriority(nil, []string{"smlo"}); len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	coins := []models.CoinQuote{{ID: "bitcoin"}}
	if got := ReorderByPriority(coins, nil); !reflect.DeepEqual(got, coins) {
		t.Fatalf("empty priority must keep order, got %v", got)
	}
}

func TestMergeCoinsDeduplicates(t *testing.T) {
	mine := []models.CoinQuote{{ID: "smlo"}, {ID: "bitcoin", PriceUSD: 1}}
	top := []models.CoinQuote{{ID: "bitcoin", PriceUSD: 2}, {ID: "tether"}}

	merged := MergeCoins(mine, top, nil)
	got := quoteIDs(merged)
	want := []string{"smlo", "bitcoin", "tether"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("merge = %v, want %v", got, want)
	}
	// First occurrence wins.
	if merged[1].PriceUSD != 1 {
		t.Fatalf("duplicate kept the wrong record: %+v", merged[1])
	}
}

func TestMergeCoinsEnrichesWebsites(t *testing.T) {
	merged := MergeCoins(
		[]models.CoinQuote{{ID: "bitcoin"}},
		[]models.CoinQuote{{ID: "tether"}},
		map[string]string{"bitcoin": "https://bitcoin.org"},
	)
	if merged[0].Website != "https://bitcoin.org" {
		t.Errorf("website not filled in: %+v", merged[0])
	}
	if merged[1].Website != "" {
		t.Errorf("unknown id must keep empty website: %+v", merged[1])
	}
}

func TestMood(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	cases := []struct {
		change *float64
		want   string
	}{
		{nil, "Unknown"},
		{f(7.2), "Hype"},
		{f(5), "Hype"},
		{f(1), "Positive"},
		{f(0), "Calm"},
		{f(-0.5), "Calm"},
		{f(-1), "Caution"},
		{f(-5), "Fear"},
		{f(-12), "Fear"},
	}
	for _, tc := range cases {
		if got := Mood(tc.change); got != tc.want {
			t.Errorf("Mood(%v) = %q, want %q", tc.change, got, tc.want)
		}
	}
}
