package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"cryptotools/config"
	"cryptotools/internal/models"
	"cryptotools/logger"
)

// FearGreed reads the current crypto fear & greed reading from
// alternative.me.
type FearGreed struct {
	httpReader
	url string
	log *logger.Log
}

func NewFearGreed(cfg config.FearGreedConfig, timeout time.Duration, userAgent string, log *logger.Log) *FearGreed {
	return &FearGreed{
		httpReader: httpReader{
			client:    &http.Client{Timeout: timeout},
			userAgent: userAgent,
		},
		url: cfg.URL,
		log: log,
	}
}

// Current fetches the latest reading. The API reports value as a string.
func (f *FearGreed) Current(ctx context.Context) (*models.FearGreedIndex, error) {
	var payload struct {
		Data []struct {
			Value          string `json:"value"`
			Classification string `json:"value_classification"`
		} `json:"data"`
	}
	if err := f.getJSON(ctx, "fear_greed", f.url, nil, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) == 0 {
		return nil, fmt.Errorf("fear/greed response had no data")
	}

	value, err := strconv.Atoi(payload.Data[0].Value)
	if err != nil {
		value = 0
	}
	return &models.FearGreedIndex{
		Value:          value,
		Classification: payload.Data[0].Classification,
	}, nil
}
