package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/astra-quant/recallbot/internal/types"
	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
)

// PolygonProvider downloads aggregates from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
	writer CandleWriter
}

// NewPolygonProvider creates an authenticated Polygon candle provider.
func NewPolygonProvider(apiKey string) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("polygon api key is required")
	}

	return &PolygonProvider{
		client: polygon.New(apiKey),
	}, nil
}

func (p *PolygonProvider) ConfigWriter(w CandleWriter) {
	p.writer = w
}

// Backfill iterates the aggregates endpoint and writes each bar.
func (p *PolygonProvider) Backfill(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan, onProgress OnProgress) (string, error) {
	if p.writer == nil {
		return "", fmt.Errorf("no writer configured")
	}

	if err := p.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)
	total := end.Sub(start).Seconds()
	written := 0

	for iter.Next() {
		agg := iter.Item()

		candle := types.Candle{
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		}

		if err := p.writer.Write(symbol, candle); err != nil {
			return "", fmt.Errorf("failed to write candle: %w", err)
		}

		written++

		if onProgress != nil && written%1000 == 0 {
			onProgress(time.Time(agg.Timestamp).Sub(start).Seconds(), total, fmt.Sprintf("downloading %s aggregates", symbol))
		}
	}

	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("error iterating aggregates: %w", err)
	}

	path, err := p.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return path, nil
}
