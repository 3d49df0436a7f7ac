package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"
)

type MarketDataTestSuite struct {
	suite.Suite
}

func TestMarketDataSuite(t *testing.T) {
	suite.Run(t, new(MarketDataTestSuite))
}

func (suite *MarketDataTestSuite) TestClientConfigValidation() {
	_, err := NewClient(ClientConfig{ProviderType: ProviderBinance}, nil)
	suite.Error(err)

	_, err = NewClient(ClientConfig{ProviderType: ProviderPolygon, DataPath: suite.T().TempDir()}, nil)
	suite.Error(err)

	_, err = NewClient(ClientConfig{ProviderType: ProviderBinance, DataPath: suite.T().TempDir()}, nil)
	suite.NoError(err)
}

func (suite *MarketDataTestSuite) TestBackfillParamsValidation() {
	client, err := NewClient(ClientConfig{ProviderType: ProviderBinance, DataPath: suite.T().TempDir()}, nil)
	suite.Require().NoError(err)

	// End before start.
	_, err = client.Backfill(context.Background(), BackfillParams{
		Symbol:     "ETHUSDT",
		StartDate:  time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Multiplier: 1,
		Timespan:   models.Day,
	})
	suite.Error(err)
}

func (suite *MarketDataTestSuite) TestBinanceInterval() {
	interval, err := binanceInterval(models.Minute, 15)
	suite.NoError(err)
	suite.Equal("15m", interval)

	interval, err = binanceInterval(models.Day, 1)
	suite.NoError(err)
	suite.Equal("1d", interval)

	_, err = binanceInterval(models.Week, 2)
	suite.Error(err)
}

func (suite *MarketDataTestSuite) TestDuckDBWriterRoundTrip() {
	path := filepath.Join(suite.T().TempDir(), "candles.parquet")

	w := NewDuckDBWriter(path)
	suite.Require().NoError(w.Initialize())

	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		suite.NoError(w.Write("ETHUSDT", types.Candle{
			Time: base.Add(time.Duration(i) * time.Hour),
			Open: 2500, High: 2550, Low: 2480, Close: 2520, Volume: 1000,
		}))
	}

	out, err := w.Finalize()
	suite.NoError(err)
	suite.Equal(path, out)
	suite.NoError(w.Close())

	info, err := os.Stat(path)
	suite.NoError(err)
	suite.Positive(info.Size())
}

func (suite *MarketDataTestSuite) TestWriterRejectsWritesBeforeInitialize() {
	w := NewDuckDBWriter(filepath.Join(suite.T().TempDir(), "candles.parquet"))

	suite.Error(w.Write("ETHUSDT", types.Candle{}))

	_, err := w.Finalize()
	suite.Error(err)
}
