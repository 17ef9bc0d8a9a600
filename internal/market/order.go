package market

import (
	"cryptotools/internal/models"
)

// ReorderByPriority places the priority identifiers first, in priority
// order, skipping ones not present, then the remaining coins in their
// original relative order. Every list surface goes through this one
// routine so the display order cannot drift between pages.
func ReorderByPriority(coins []models.CoinQuote, priority []string) []models.CoinQuote {
	if len(coins) == 0 || len(priority) == 0 {
		return coins
	}

	byID := make(map[string]models.CoinQuote, len(coins))
	for _, coin := range coins {
		if _, ok := byID[coin.ID]; !ok {
			byID[coin.ID] = coin
		}
	}

	prioritized := make(map[string]bool, len(priority))
	ordered := make([]models.CoinQuote, 0, len(coins))
	for _, id := range priority {
		if coin, ok := byID[id]; ok {
			ordered = append(ordered, coin)
			prioritized[id] = true
		}
	}
	for _, coin := range coins {
		if !prioritized[coin.ID] {
			ordered = append(ordered, coin)
		}
	}
	return ordered
}

// MergeCoins concatenates primary before secondary, dropping duplicate
// identifiers (first occurrence wins), and fills in the project website
// for identifiers present in the lookup table.
func MergeCoins(primary, secondary []models.CoinQuote, websites map[string]string) []models.CoinQuote {
	merged := make([]models.CoinQuote, 0, len(primary)+len(secondary))
	seen := make(map[string]bool, len(primary)+len(secondary))
	for _, list := range [][]models.CoinQuote{primary, secondary} {
		for _, coin := range list {
			if coin.ID != "" && seen[coin.ID] {
				continue
			}
			seen[coin.ID] = true
			if url, ok := websites[coin.ID]; ok && coin.Website == "" {
				coin.Website = url
			}
			merged = append(merged, coin)
		}
	}
	return merged
}
