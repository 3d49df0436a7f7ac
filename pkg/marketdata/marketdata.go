// Package marketdata backfills historical candles from Binance or Polygon
// into a local DuckDB-backed parquet file, used to warm indicator history
// before the bots start trading.
package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/polygon-io/client-go/rest/models"
)

// ProviderType selects the candle source.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// OnProgress reports backfill progress in [0, total] units with a message.
type OnProgress = func(current, total float64, message string)

// Provider downloads candles for a symbol and hands them to a writer.
type Provider interface {
	// ConfigWriter sets the destination for downloaded candles.
	ConfigWriter(w CandleWriter)
	// Backfill downloads candles for the symbol across the date range and
	// writes them through the configured writer. Returns the output path.
	Backfill(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan, onProgress OnProgress) (string, error)
}

// CandleWriter persists candles during a backfill.
type CandleWriter interface {
	Initialize() error
	Write(symbol string, candle types.Candle) error
	// Finalize flushes and returns the output path.
	Finalize() (string, error)
	Close() error
}

// ClientConfig configures a backfill client.
type ClientConfig struct {
	ProviderType  ProviderType `validate:"required,oneof=binance polygon"`
	DataPath      string       `validate:"required"`
	PolygonAPIKey string       `validate:"required_if=ProviderType polygon"`
}

// BackfillParams is one backfill request.
type BackfillParams struct {
	Symbol     string          `validate:"required"`
	StartDate  time.Time       `validate:"required"`
	EndDate    time.Time       `validate:"required,gtfield=StartDate"`
	Multiplier int             `validate:"required,min=1"`
	Timespan   models.Timespan `validate:"required"`
}

// Client wires a provider to a DuckDB writer.
type Client struct {
	provider   Provider
	config     ClientConfig
	validate   *validator.Validate
	onProgress OnProgress
}

// NewClient creates a backfill client.
func NewClient(config ClientConfig, onProgress OnProgress) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}

	var provider Provider

	var err error

	switch config.ProviderType {
	case ProviderBinance:
		provider = NewBinanceProvider()
	case ProviderPolygon:
		provider, err = NewPolygonProvider(config.PolygonAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create polygon provider: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", config.ProviderType)
	}

	return &Client{
		provider:   provider,
		config:     config,
		validate:   validate,
		onProgress: onProgress,
	}, nil
}

// Backfill validates the request and runs the download.
func (c *Client) Backfill(ctx context.Context, params BackfillParams) (string, error) {
	if err := c.validate.Struct(params); err != nil {
		return "", fmt.Errorf("invalid backfill parameters: %w", err)
	}

	if err := os.MkdirAll(c.config.DataPath, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	outputName := fmt.Sprintf("%s_%s_%s_%d_%s.parquet",
		params.Symbol,
		params.StartDate.Format("2006-01-02"),
		params.EndDate.Format("2006-01-02"),
		params.Multiplier,
		params.Timespan)

	w := NewDuckDBWriter(filepath.Join(c.config.DataPath, outputName))

	defer func() {
		_ = w.Close()
	}()

	c.provider.ConfigWriter(w)

	path, err := c.provider.Backfill(ctx, params.Symbol, params.StartDate, params.EndDate, params.Multiplier, params.Timespan, c.onProgress)
	if err != nil {
		return "", fmt.Errorf("backfill failed: %w", err)
	}

	return path, nil
}
