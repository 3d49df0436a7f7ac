// Package oracle asks an LLM advisor for a trade confidence score. The
// oracle is advisory only: any failure, transport or parse, degrades to a
// zero-confidence verdict instead of an error so the engine keeps cycling.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/astra-quant/recallbot/internal/logger"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/go-resty/resty/v2"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
)

const oracleTimeout = 60 * time.Second

// Candidate is the trade under consideration, bundled for the advisor.
type Candidate struct {
	Symbol   string
	Strategy string
	Side     types.TradeSide
	Price    float64
	Snapshot types.IndicatorSnapshot
}

// Verdict is the advisor's answer.
type Verdict struct {
	// Confidence is the parsed score, 0 when the advisor failed or could
	// not be parsed. The value is reported as-is, without clamping.
	Confidence float64
	// Reason is the advisor's free-text rationale with score tags removed.
	Reason string
}

// Oracle scores trade candidates.
type Oracle interface {
	Score(ctx context.Context, candidate Candidate) Verdict
}

// Client implements Oracle against a simple chat-completion style endpoint
// that accepts {"userMessage": ...} and answers {"response": ...}.
type Client struct {
	client *resty.Client
	log    *logger.Logger
}

// Option customizes the client.
type Option func(*resty.Client)

// WithBaseURL overrides the advisor endpoint. Used by tests.
func WithBaseURL(baseURL string) Option {
	return func(c *resty.Client) {
		c.SetBaseURL(baseURL)
	}
}

// New creates an oracle client for the given advisor endpoint.
func New(baseURL, apiKey string, log *logger.Logger, opts ...Option) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(oracleTimeout).
		SetHeader("Content-Type", "application/json")

	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	for _, opt := range opts {
		opt(client)
	}

	return &Client{
		client: client,
		log:    log.Named("oracle"),
	}
}

// Score asks the advisor about the candidate. It never returns an error:
// transport failures, bad statuses and unparseable answers all map to a
// zero-confidence verdict, logged at warn.
func (c *Client) Score(ctx context.Context, candidate Candidate) Verdict {
	var out struct {
		Response string `json:"response"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"userMessage": BuildPrompt(candidate)}).
		SetResult(&out).
		Post("")
	if err != nil {
		c.log.Warn("oracle request failed, treating as zero confidence",
			zap.String("symbol", candidate.Symbol),
			zap.Error(err))

		return Verdict{}
	}

	if resp.IsError() {
		c.log.Warn("oracle returned error status, treating as zero confidence",
			zap.String("symbol", candidate.Symbol),
			zap.Int("status", resp.StatusCode()))

		return Verdict{}
	}

	verdict, err := ParseVerdict(out.Response)
	if err != nil {
		c.log.Warn("oracle answer unparseable, treating as zero confidence",
			zap.String("symbol", candidate.Symbol),
			zap.Error(err))

		return Verdict{Reason: strings.TrimSpace(out.Response)}
	}

	return verdict
}

// BuildPrompt renders the advisor prompt for a candidate. Indicators without
// enough data are listed as unavailable rather than omitted so the advisor
// knows the gap exists.
func BuildPrompt(candidate Candidate) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a crypto trading advisor. Evaluate the following %s entry candidate ", candidate.Side)
	fmt.Fprintf(&b, "for the %q strategy and answer with a confidence score between 0 and 1 ", candidate.Strategy)
	b.WriteString("wrapped in <score></score> tags, followed by a one-paragraph rationale.\n\n")

	fmt.Fprintf(&b, "Token: %s\n", candidate.Symbol)
	fmt.Fprintf(&b, "Current price: %.8f USD\n", candidate.Price)

	writeIndicator(&b, "SMA(20)", candidate.Snapshot.SMA)
	writeIndicator(&b, "EMA(20)", candidate.Snapshot.EMA)
	writeIndicator(&b, "RSI(14)", candidate.Snapshot.RSI)

	if macd, err := candidate.Snapshot.MACD.Take(); err == nil {
		fmt.Fprintf(&b, "MACD: line=%.6f signal=%.6f\n", macd.Line, macd.Signal)
	} else {
		b.WriteString("MACD: unavailable\n")
	}

	writeIndicator(&b, "ATR(14)", candidate.Snapshot.ATR)

	if bb, err := candidate.Snapshot.Bollinger.Take(); err == nil {
		fmt.Fprintf(&b, "Bollinger(20,2): upper=%.6f middle=%.6f lower=%.6f\n", bb.Upper, bb.Middle, bb.Lower)
	} else {
		b.WriteString("Bollinger(20,2): unavailable\n")
	}

	return b.String()
}

func writeIndicator(b *strings.Builder, name string, value optional.Option[float64]) {
	if v, err := value.Take(); err == nil {
		fmt.Fprintf(b, "%s: %.6f\n", name, v)

		return
	}

	fmt.Fprintf(b, "%s: unavailable\n", name)
}
