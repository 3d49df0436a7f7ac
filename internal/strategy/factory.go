package strategy

import (
	"github.com/astra-quant/recallbot/internal/config"
	"github.com/astra-quant/recallbot/internal/types"
	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/moznion/go-optional"
)

// Strategy kinds accepted by the factory.
const (
	KindMomentum   = "momentum"
	KindPullback   = "pullback"
	KindMeanRevert = "meanrevert"
	KindMeme       = "meme"
	KindRebalance  = "rebalance"
)

func instrumentFromConfig(tc config.TokenConfig) Instrument {
	return Instrument{
		Asset: types.Asset{
			Address:       tc.Address,
			Symbol:        tc.Symbol,
			Chain:         tc.Chain,
			SpecificChain: tc.SpecificChain,
		},
		CoinGeckoID: tc.CoinGeckoID,
	}
}

func exitRulesFromConfig(ec config.ExitConfig) ExitRules {
	var rules ExitRules

	if ec.StopLossPct > 0 {
		rules.StopLoss = optional.Some(ec.StopLossPct)
	}

	if ec.TakeProfitPct > 0 {
		rules.TakeProfit = optional.Some(ec.TakeProfitPct)
	}

	if ec.TrailingStopPct > 0 {
		rules.TrailingStop = optional.Some(ec.TrailingStopPct)
	}

	return rules
}

// FromConfig assembles a runnable policy from one strategy config block.
func FromConfig(sc config.StrategyConfig) (*Policy, error) {
	policy := &Policy{
		Name:                sc.Name,
		Kind:                sc.Kind,
		Quote:               instrumentFromConfig(sc.Quote),
		ScanInterval:        sc.ScanInterval.Std(),
		MonitorInterval:     sc.MonitorInterval.Std(),
		MaxPositions:        sc.MaxPositions,
		ConfidenceThreshold: sc.ConfidenceThreshold,
		ConfidenceOverride:  sc.ConfidenceOverride,
		Sizing: Sizing{
			AmountUSD:    sc.Sizing.AmountUSD,
			PortfolioPct: sc.Sizing.PortfolioPct,
			PerToken:     sc.Sizing.PerToken,
		},
		Exit:            exitRulesFromConfig(sc.Exit),
		Params:          sc.Params,
		Chain:           sc.Chain,
		MinLiquidityUSD: sc.MinLiquidityUSD,
		TargetWeights:   sc.TargetWeights,
		DriftTolerance:  sc.DriftTolerance,
	}

	for _, tc := range sc.Tokens {
		policy.Instruments = append(policy.Instruments, instrumentFromConfig(tc))
	}

	switch sc.Kind {
	case KindMomentum:
		policy.Entry = MomentumEntry(sc.Params["atr_floor"])
	case KindPullback:
		policy.Entry = PullbackEntry()
	case KindMeanRevert:
		policy.Entry = MeanRevertEntry(sc.Params["rsi_oversold"])
	case KindMeme:
		// Meme entries are driven by pair discovery, not indicator
		// snapshots; the engine handles them separately.
		policy.Entry = nil
	case KindRebalance:
		policy.Entry = nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnsupportedStrategy, "unknown strategy kind %q", sc.Kind)
	}

	return policy, nil
}

// FromConfigs assembles all configured policies.
func FromConfigs(scs []config.StrategyConfig) ([]*Policy, error) {
	policies := make([]*Policy, 0, len(scs))

	for _, sc := range scs {
		policy, err := FromConfig(sc)
		if err != nil {
			return nil, err
		}

		policies = append(policies, policy)
	}

	return policies, nil
}
