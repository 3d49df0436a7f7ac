package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/polygon-io/client-go/rest/models"
)

// binancePageSize is the kline page limit enforced by the Binance API.
const binancePageSize = 500

// BinanceProvider downloads klines from the public Binance API. No
// credentials are needed for historical candles.
type BinanceProvider struct {
	client *binance.Client
	writer CandleWriter
}

// NewBinanceProvider creates an unauthenticated Binance candle provider.
func NewBinanceProvider() *BinanceProvider {
	return &BinanceProvider{
		client: binance.NewClient("", ""),
	}
}

func (p *BinanceProvider) ConfigWriter(w CandleWriter) {
	p.writer = w
}

// Backfill pages through klines until the end of the range, writing each
// page as it arrives.
func (p *BinanceProvider) Backfill(ctx context.Context, symbol string, start, end time.Time, multiplier int, timespan models.Timespan, onProgress OnProgress) (string, error) {
	if p.writer == nil {
		return "", fmt.Errorf("no writer configured")
	}

	interval, err := binanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if err := p.writer.Initialize(); err != nil {
		return "", fmt.Errorf("failed to initialize writer: %w", err)
	}

	startMillis := start.UnixMilli()
	endMillis := end.UnixMilli()
	current := startMillis

	for {
		klines, err := p.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(current).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to fetch klines: %w", err)
		}

		if onProgress != nil {
			onProgress(float64(current-startMillis), float64(endMillis-startMillis), fmt.Sprintf("downloading %s klines", symbol))
		}

		if err := p.writeKlines(symbol, klines); err != nil {
			return "", err
		}

		// A short page is the last page.
		if len(klines) < binancePageSize {
			break
		}

		// Resume just past the last candle to avoid duplicates.
		current = klines[len(klines)-1].CloseTime + 1
		if current >= endMillis {
			break
		}
	}

	path, err := p.writer.Finalize()
	if err != nil {
		return "", fmt.Errorf("failed to finalize writer: %w", err)
	}

	return path, nil
}

func (p *BinanceProvider) writeKlines(symbol string, klines []*binance.Kline) error {
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		candle := types.Candle{
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}

		if err := p.writer.Write(symbol, candle); err != nil {
			return fmt.Errorf("failed to write candle: %w", err)
		}
	}

	return nil
}

// binanceInterval maps the timespan/multiplier pair onto a Binance interval
// string (1m, 1h, 1d, 1w, 1M).
func binanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", fmt.Errorf("unsupported weekly multiplier: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", fmt.Errorf("unsupported monthly multiplier: %d", multiplier)
	default:
		return "", fmt.Errorf("unsupported timespan: %s", timespan)
	}
}
