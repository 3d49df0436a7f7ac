// Package config loads and validates the bot configuration from YAML.
// Secrets are referenced as ${ENV_VAR} in the file and expanded at load time.
package config

import (
	"os"
	"time"

	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// Std returns the underlying time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TokenConfig identifies one tradeable token across the data and execution
// venues. The CoinGecko ID keys market data while the address keys Recall.
type TokenConfig struct {
	Symbol        string `yaml:"symbol" json:"symbol" jsonschema:"title=Symbol" validate:"required"`
	CoinGeckoID   string `yaml:"coingecko_id" json:"coingeckoId" jsonschema:"title=CoinGecko ID"`
	Address       string `yaml:"address" json:"address" jsonschema:"title=Token Address" validate:"required"`
	Chain         string `yaml:"chain" json:"chain" jsonschema:"title=Chain"`
	SpecificChain string `yaml:"specific_chain" json:"specificChain" jsonschema:"title=Specific Chain"`
}

// SizingConfig decides the notional of each entry. Exactly one of the fields
// should be set; AmountUSD wins when both are.
type SizingConfig struct {
	AmountUSD    float64            `yaml:"amount_usd" json:"amountUsd" jsonschema:"title=Fixed Notional USD" validate:"gte=0"`
	PortfolioPct float64            `yaml:"portfolio_pct" json:"portfolioPct" jsonschema:"title=Percent of Portfolio" validate:"gte=0,lte=1"`
	PerToken     map[string]float64 `yaml:"per_token" json:"perToken,omitempty" jsonschema:"title=Per-Token Notional USD"`
}

// ExitConfig holds exit thresholds as positive fractions (0.05 = 5%).
// Zero disables the corresponding rule.
type ExitConfig struct {
	StopLossPct     float64 `yaml:"stop_loss_pct" json:"stopLossPct" jsonschema:"title=Stop Loss Fraction" validate:"gte=0,lte=1"`
	TakeProfitPct   float64 `yaml:"take_profit_pct" json:"takeProfitPct" jsonschema:"title=Take Profit Fraction" validate:"gte=0"`
	TrailingStopPct float64 `yaml:"trailing_stop_pct" json:"trailingStopPct" jsonschema:"title=Trailing Stop Fraction" validate:"gte=0,lte=1"`
}

// StrategyConfig configures one bot instance.
type StrategyConfig struct {
	Name                string             `yaml:"name" json:"name" jsonschema:"title=Name" validate:"required"`
	Kind                string             `yaml:"kind" json:"kind" jsonschema:"title=Kind,enum=momentum,enum=pullback,enum=meanrevert,enum=meme,enum=rebalance" validate:"required,oneof=momentum pullback meanrevert meme rebalance"`
	Tokens              []TokenConfig      `yaml:"tokens" json:"tokens" jsonschema:"title=Instrument Universe" validate:"dive"`
	Quote               TokenConfig        `yaml:"quote" json:"quote" jsonschema:"title=Quote Token" validate:"required"`
	ScanInterval        Duration           `yaml:"scan_interval" json:"scanInterval" jsonschema:"title=Scan Interval"`
	MonitorInterval     Duration           `yaml:"monitor_interval" json:"monitorInterval" jsonschema:"title=Monitor Interval"`
	MaxPositions        int                `yaml:"max_positions" json:"maxPositions" jsonschema:"title=Max Concurrent Positions" validate:"gte=0"`
	ConfidenceThreshold float64            `yaml:"confidence_threshold" json:"confidenceThreshold" jsonschema:"title=Oracle Confidence Threshold" validate:"gte=0,lte=1"`
	ConfidenceOverride  bool               `yaml:"confidence_override" json:"confidenceOverride" jsonschema:"title=Oracle Overrides Predicate"`
	Sizing              SizingConfig       `yaml:"sizing" json:"sizing" jsonschema:"title=Sizing"`
	Exit                ExitConfig         `yaml:"exit" json:"exit" jsonschema:"title=Exit Rules"`
	Params              map[string]float64 `yaml:"params" json:"params,omitempty" jsonschema:"title=Strategy Parameters"`
	Chain               string             `yaml:"chain" json:"chain,omitempty" jsonschema:"title=Discovery Chain"`
	MinLiquidityUSD     float64            `yaml:"min_liquidity_usd" json:"minLiquidityUsd,omitempty" jsonschema:"title=Min Pair Liquidity USD" validate:"gte=0"`
	TargetWeights       map[string]float64 `yaml:"target_weights" json:"targetWeights,omitempty" jsonschema:"title=Rebalance Target Weights"`
	DriftTolerance      float64            `yaml:"drift_tolerance" json:"driftTolerance,omitempty" jsonschema:"title=Rebalance Drift Tolerance" validate:"gte=0,lte=1"`
}

// StoreConfig locates the open-position file.
type StoreConfig struct {
	Path string `yaml:"path" json:"path" jsonschema:"title=Position File Path" validate:"required"`
}

// MarketConfig holds market-data credentials.
type MarketConfig struct {
	CoinGeckoAPIKey string `yaml:"coingecko_api_key" json:"coingeckoApiKey" jsonschema:"title=CoinGecko API Key"`
}

// RecallConfig holds execution-venue credentials.
type RecallConfig struct {
	APIKey  string `yaml:"api_key" json:"apiKey" jsonschema:"title=Recall API Key" validate:"required"`
	BaseURL string `yaml:"base_url" json:"baseUrl,omitempty" jsonschema:"title=Recall Base URL"`
}

// OracleConfig holds the LLM advisor endpoint.
type OracleConfig struct {
	URL    string `yaml:"url" json:"url" jsonschema:"title=Advisor URL" validate:"required,url"`
	APIKey string `yaml:"api_key" json:"apiKey,omitempty" jsonschema:"title=Advisor API Key"`
}

// JournalConfig locates the trade journal database. Empty disables it.
type JournalConfig struct {
	Path string `yaml:"path" json:"path,omitempty" jsonschema:"title=Journal DB Path"`
}

// MetricsConfig configures the ops HTTP server. Empty listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen" json:"listen,omitempty" jsonschema:"title=Metrics Listen Address"`
}

// Config is the root configuration document.
type Config struct {
	LogLevel   string           `yaml:"log_level" json:"logLevel,omitempty" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error"`
	Store      StoreConfig      `yaml:"store" json:"store" validate:"required"`
	Market     MarketConfig     `yaml:"market" json:"market"`
	Recall     RecallConfig     `yaml:"recall" json:"recall" validate:"required"`
	Oracle     OracleConfig     `yaml:"oracle" json:"oracle" validate:"required"`
	Journal    JournalConfig    `yaml:"journal" json:"journal"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Strategies []StrategyConfig `yaml:"strategies" json:"strategies" validate:"required,min=1,dive"`
}

// Defaults applied after decoding.
const (
	DefaultScanInterval    = 5 * time.Minute
	DefaultMonitorInterval = time.Minute
	DefaultMaxPositions    = 5
)

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	for i := range c.Strategies {
		s := &c.Strategies[i]

		if s.ScanInterval == 0 {
			s.ScanInterval = Duration(DefaultScanInterval)
		}

		if s.MonitorInterval == 0 {
			s.MonitorInterval = Duration(DefaultMonitorInterval)
		}

		if s.MaxPositions == 0 {
			s.MaxPositions = DefaultMaxPositions
		}
	}
}

// Parse decodes, defaults and validates a YAML document. ${ENV_VAR}
// references are expanded before decoding.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}
