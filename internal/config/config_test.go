package config

import (
	"testing"
	"time"

	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const validYAML = `
log_level: debug
store:
  path: /tmp/positions.json
recall:
  api_key: ${RECALL_API_KEY}
oracle:
  url: https://advisor.example.com/chat
strategies:
  - name: eth-momentum
    kind: momentum
    quote:
      symbol: USDC
      address: "0xusdc"
      chain: evm
    tokens:
      - symbol: WETH
        coingecko_id: ethereum
        address: "0xweth"
        chain: evm
        specific_chain: eth
    scan_interval: 10m
    confidence_threshold: 0.7
    sizing:
      amount_usd: 250
    exit:
      stop_loss_pct: 0.05
      take_profit_pct: 0.15
`

func (suite *ConfigTestSuite) TestParseValid() {
	suite.T().Setenv("RECALL_API_KEY", "secret-key")

	cfg, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)

	suite.Equal("debug", cfg.LogLevel)
	suite.Equal("secret-key", cfg.Recall.APIKey)
	suite.Len(cfg.Strategies, 1)

	s := cfg.Strategies[0]
	suite.Equal("momentum", s.Kind)
	suite.Equal(10*time.Minute, s.ScanInterval.Std())
	suite.Equal("ethereum", s.Tokens[0].CoinGeckoID)
	suite.InDelta(0.05, s.Exit.StopLossPct, 1e-9)
}

func (suite *ConfigTestSuite) TestDefaultsApplied() {
	suite.T().Setenv("RECALL_API_KEY", "secret-key")

	cfg, err := Parse([]byte(validYAML))
	suite.Require().NoError(err)

	s := cfg.Strategies[0]
	suite.Equal(DefaultMonitorInterval, s.MonitorInterval.Std())
	suite.Equal(DefaultMaxPositions, s.MaxPositions)
}

func (suite *ConfigTestSuite) TestUnknownStrategyKindRejected() {
	suite.T().Setenv("RECALL_API_KEY", "secret-key")

	bad := []byte(`
store:
  path: /tmp/positions.json
recall:
  api_key: k
oracle:
  url: https://advisor.example.com/chat
strategies:
  - name: x
    kind: scalping
    quote:
      symbol: USDC
      address: "0xusdc"
`)

	_, err := Parse(bad)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestMissingStrategiesRejected() {
	bad := []byte(`
store:
  path: /tmp/positions.json
recall:
  api_key: k
oracle:
  url: https://advisor.example.com/chat
strategies: []
`)

	_, err := Parse(bad)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *ConfigTestSuite) TestBadDurationRejected() {
	bad := []byte(`
store:
  path: /tmp/positions.json
recall:
  api_key: k
oracle:
  url: https://advisor.example.com/chat
strategies:
  - name: x
    kind: momentum
    quote:
      symbol: USDC
      address: "0xusdc"
    scan_interval: soon
`)

	_, err := Parse(bad)
	suite.Error(err)
}
