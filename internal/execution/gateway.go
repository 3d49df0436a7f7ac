// Package execution wraps the Recall Network competition API: portfolio and
// balance reads, price quotes and trade execution.
package execution

import (
	"context"

	"github.com/astra-quant/recallbot/internal/types"
)

// TradeRequest describes a spot trade to submit. Reason is mandatory on the
// Recall side and must carry enough text to be meaningful in the audit log.
type TradeRequest struct {
	FromToken     string  `json:"fromToken" validate:"required"`
	ToToken       string  `json:"toToken" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Reason        string  `json:"reason" validate:"required,min=10"`
	FromChain     string  `json:"fromChain,omitempty"`
	FromSpecific  string  `json:"fromSpecificChain,omitempty"`
	ToChain       string  `json:"toChain,omitempty"`
	ToSpecific    string  `json:"toSpecificChain,omitempty"`
	SlippageTolPc string  `json:"slippageTolerance,omitempty"`
}

// TradeResult is the acknowledged execution.
type TradeResult struct {
	ID         string  `json:"id"`
	FromAmount float64 `json:"fromAmount"`
	ToAmount   float64 `json:"toAmount"`
	Price      float64 `json:"price"`
	Success    bool    `json:"success"`
	Timestamp  string  `json:"timestamp"`
}

// Balance is one token holding in the competition portfolio.
type Balance struct {
	TokenAddress  string  `json:"tokenAddress"`
	Symbol        string  `json:"symbol"`
	Amount        float64 `json:"amount"`
	Chain         string  `json:"chain"`
	SpecificChain string  `json:"specificChain"`
	ValueUSD      float64 `json:"value"`
}

// Portfolio is the aggregate account snapshot.
type Portfolio struct {
	AgentID       string    `json:"agentId"`
	TotalValueUSD float64   `json:"totalValue"`
	Balances      []Balance `json:"tokens"`
}

// TradeRecord is one historical trade from the competition ledger.
type TradeRecord struct {
	ID              string  `json:"id"`
	FromTokenSymbol string  `json:"fromTokenSymbol"`
	ToTokenSymbol   string  `json:"toTokenSymbol"`
	FromAmount      float64 `json:"fromAmount"`
	ToAmount        float64 `json:"toAmount"`
	Price           float64 `json:"price"`
	Success         bool    `json:"success"`
	Reason          string  `json:"reason"`
	Timestamp       string  `json:"timestamp"`
}

// Quote is a dry-run pricing of a prospective trade.
type Quote struct {
	FromToken  string  `json:"fromToken"`
	ToToken    string  `json:"toToken"`
	FromAmount float64 `json:"fromAmount"`
	ToAmount   float64 `json:"toAmount"`
	Price      float64 `json:"price"`
}

// Gateway is the trade-execution surface the engine consumes.
type Gateway interface {
	// GetPortfolio returns the full account snapshot.
	GetPortfolio(ctx context.Context) (Portfolio, error)
	// GetBalances returns the token holdings.
	GetBalances(ctx context.Context) ([]Balance, error)
	// GetPrice returns the venue's USD price for the token address.
	GetPrice(ctx context.Context, asset types.Asset) (float64, error)
	// GetTradeQuote prices a prospective trade without executing it.
	GetTradeQuote(ctx context.Context, fromToken, toToken string, amount float64) (Quote, error)
	// ExecuteTrade submits the trade and returns the acknowledged result.
	ExecuteTrade(ctx context.Context, req TradeRequest) (TradeResult, error)
	// GetTradeHistory returns past trades, newest first.
	GetTradeHistory(ctx context.Context) ([]TradeRecord, error)
}
