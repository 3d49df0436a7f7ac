package strategy

import (
	"testing"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type ExitTestSuite struct {
	suite.Suite
}

func TestExitSuite(t *testing.T) {
	suite.Run(t, new(ExitTestSuite))
}

func (suite *ExitTestSuite) position() *types.OpenPosition {
	return &types.OpenPosition{
		ID:         "pos-1",
		EntryPrice: 100,
		ToAmount:   1,
	}
}

func (suite *ExitTestSuite) rules() ExitRules {
	return ExitRules{
		StopLoss:     optional.Some(0.05),
		TakeProfit:   optional.Some(0.15),
		TrailingStop: optional.Some(0.10),
	}
}

func (suite *ExitTestSuite) TestTakeProfitTriggersAtThreshold() {
	decision := EvaluateExit(suite.position(), 115, suite.rules())
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonTakeProfit, decision.Reason)
	suite.InDelta(0.15, decision.Return, 1e-9)
}

func (suite *ExitTestSuite) TestStopLossTriggersAtThreshold() {
	decision := EvaluateExit(suite.position(), 94, suite.rules())
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonStopLoss, decision.Reason)
	suite.InDelta(-0.06, decision.Return, 1e-9)
}

func (suite *ExitTestSuite) TestStopLossExactBoundary() {
	decision := EvaluateExit(suite.position(), 95, suite.rules())
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonStopLoss, decision.Reason)
}

func (suite *ExitTestSuite) TestHoldInsideBand() {
	decision := EvaluateExit(suite.position(), 104, suite.rules())
	suite.False(decision.Exit)
	suite.InDelta(0.04, decision.Return, 1e-9)
}

func (suite *ExitTestSuite) TestTrailingStopUsesHighWaterMark() {
	p := suite.position()
	p.HighWaterMark = 120

	// 108 is +8% from entry but -10% from the high.
	decision := EvaluateExit(p, 108, suite.rules())
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonTrailingStop, decision.Reason)
}

func (suite *ExitTestSuite) TestTrailingStopDefaultsHighToEntry() {
	p := suite.position()

	rules := ExitRules{TrailingStop: optional.Some(0.10)}

	decision := EvaluateExit(p, 90, rules)
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonTrailingStop, decision.Reason)
}

func (suite *ExitTestSuite) TestAbsentRulesNeverTrigger() {
	decision := EvaluateExit(suite.position(), 20, ExitRules{})
	suite.False(decision.Exit)
	suite.InDelta(-0.8, decision.Return, 1e-9)
}

func (suite *ExitTestSuite) TestStopLossWinsOverTrailingStop() {
	p := suite.position()
	p.HighWaterMark = 120

	decision := EvaluateExit(p, 90, suite.rules())
	suite.True(decision.Exit)
	suite.Equal(types.ExitReasonStopLoss, decision.Reason)
}
