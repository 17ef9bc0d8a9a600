package models

// FearGreedIndex is the current market sentiment reading, value 0-100.
type FearGreedIndex struct {
	Value          int    `json:"value"`
	Classification string `json:"classification"`
}
