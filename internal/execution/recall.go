package execution

import (
	"context"
	"strconv"
	"time"

	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	defaultRecallBaseURL = "https://api.competitions.recall.network"
	recallReadTimeout    = 10 * time.Second
	// Trade submission gets a longer window than reads. The venue routes the
	// swap on-chain before acknowledging.
	recallExecuteTimeout = 30 * time.Second
)

// RecallClient implements Gateway against the Recall Network competition API.
type RecallClient struct {
	client   *resty.Client
	validate *validator.Validate
	log      *logger.Logger
}

// RecallOption customizes the client.
type RecallOption func(*resty.Client)

// WithRecallBaseURL overrides the API base URL. Used by tests.
func WithRecallBaseURL(baseURL string) RecallOption {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// NewRecallClient creates a Recall execution client. The API key is required;
// every endpoint is authenticated.
func NewRecallClient(apiKey string, log *logger.Logger, opts ...RecallOption) (*RecallClient, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingCredential, "recall api key is required")
	}

	// No client-level timeout: reads and trade submission get different
	// per-call deadlines via context.
	client := resty.New().
		SetBaseURL(defaultRecallBaseURL).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json")

	for _, opt := range opts {
		opt(client)
	}

	return &RecallClient{
		client:   client,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.Named("recall"),
	}, nil
}

func (c *RecallClient) get(ctx context.Context, code errors.ErrorCode, path string, query map[string]string, result any) error {
	ctx, cancel := context.WithTimeout(ctx, recallReadTimeout)
	defer cancel()

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		SetResult(result).
		Get(path)
	if err != nil {
		return errors.Wrapf(code, err, "GET %s failed", path)
	}

	if resp.IsError() {
		return errors.Newf(code, "recall returned status %d for %s: %s", resp.StatusCode(), path, resp.String())
	}

	return nil
}

// GetPortfolio returns the full account snapshot.
func (c *RecallClient) GetPortfolio(ctx context.Context) (Portfolio, error) {
	var out Portfolio
	if err := c.get(ctx, errors.ErrCodePortfolioFailed, "/api/agent/portfolio", nil, &out); err != nil {
		return Portfolio{}, err
	}

	return out, nil
}

// GetBalances returns the token holdings.
func (c *RecallClient) GetBalances(ctx context.Context) ([]Balance, error) {
	var out struct {
		Balances []Balance `json:"balances"`
	}

	if err := c.get(ctx, errors.ErrCodeBalanceFailed, "/api/agent/balances", nil, &out); err != nil {
		return nil, err
	}

	return out.Balances, nil
}

// GetPrice returns the venue's USD price for the token address.
func (c *RecallClient) GetPrice(ctx context.Context, asset types.Asset) (float64, error) {
	var out struct {
		Price float64 `json:"price"`
	}

	query := map[string]string{
		"token": asset.Address,
	}

	if asset.Chain != "" {
		query["chain"] = asset.Chain
	}

	if asset.SpecificChain != "" {
		query["specificChain"] = asset.SpecificChain
	}

	if err := c.get(ctx, errors.ErrCodePriceNotFound, "/api/price", query, &out); err != nil {
		return 0, err
	}

	if out.Price <= 0 {
		return 0, errors.Newf(errors.ErrCodePriceNotFound, "recall has no price for %s", asset.Address)
	}

	return out.Price, nil
}

// GetTradeQuote prices a prospective trade without executing it.
func (c *RecallClient) GetTradeQuote(ctx context.Context, fromToken, toToken string, amount float64) (Quote, error) {
	if amount <= 0 {
		return Quote{}, errors.Newf(errors.ErrCodeInvalidTradeRequest, "quote amount must be positive, got %f", amount)
	}

	var out Quote

	err := c.get(ctx, errors.ErrCodeQuoteFailed, "/api/trade/quote", map[string]string{
		"fromToken": fromToken,
		"toToken":   toToken,
		"amount":    formatAmount(amount),
	}, &out)
	if err != nil {
		return Quote{}, err
	}

	return out, nil
}

// ExecuteTrade submits the trade and returns the acknowledged result.
func (c *RecallClient) ExecuteTrade(ctx context.Context, req TradeRequest) (TradeResult, error) {
	if err := c.validate.Struct(req); err != nil {
		return TradeResult{}, errors.Wrap(errors.ErrCodeInvalidTradeRequest, "trade request failed validation", err)
	}

	ctx, cancel := context.WithTimeout(ctx, recallExecuteTimeout)
	defer cancel()

	var out struct {
		Success     bool        `json:"success"`
		Transaction TradeResult `json:"transaction"`
		Error       string      `json:"error"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetHeader("Content-Type", "application/json").
		Post("/api/trade/execute")
	if err != nil {
		return TradeResult{}, errors.Wrapf(errors.ErrCodeTradeFailed, err, "POST /api/trade/execute failed")
	}

	if resp.IsError() {
		return TradeResult{}, errors.Newf(errors.ErrCodeTradeFailed, "recall rejected trade with status %d: %s", resp.StatusCode(), resp.String())
	}

	if !out.Success {
		return TradeResult{}, errors.Newf(errors.ErrCodeTradeFailed, "trade not executed: %s", out.Error)
	}

	c.log.Info("trade executed",
		zap.String("id", out.Transaction.ID),
		zap.String("fromToken", req.FromToken),
		zap.String("toToken", req.ToToken),
		zap.Float64("amount", req.Amount),
		zap.Float64("toAmount", out.Transaction.ToAmount))

	return out.Transaction, nil
}

func formatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

// GetTradeHistory returns past trades, newest first.
func (c *RecallClient) GetTradeHistory(ctx context.Context) ([]TradeRecord, error) {
	var out struct {
		Trades []TradeRecord `json:"trades"`
	}

	if err := c.get(ctx, errors.ErrCodeTradeFailed, "/api/agent/trades", nil, &out); err != nil {
		return nil, err
	}

	return out.Trades, nil
}
