package types

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type PositionTestSuite struct {
	suite.Suite
}

func TestPositionSuite(t *testing.T) {
	suite.Run(t, new(PositionTestSuite))
}

func (suite *PositionTestSuite) position() OpenPosition {
	return OpenPosition{
		ID:         "pos-1",
		FromAsset:  Asset{Address: "0xusdc", Symbol: "USDC", Chain: "evm", SpecificChain: "eth"},
		FromAmount: 100,
		ToAsset:    Asset{Address: "0xweth", Symbol: "WETH", Chain: "evm", SpecificChain: "eth"},
		ToAmount:   0.05,
		EntryPrice: 100,
	}
}

func (suite *PositionTestSuite) TestReturn() {
	p := suite.position()

	suite.InDelta(0.15, p.Return(115), 1e-9)
	suite.InDelta(-0.06, p.Return(94), 1e-9)
	suite.InDelta(0, p.Return(100), 1e-9)
}

func (suite *PositionTestSuite) TestReturnZeroEntry() {
	p := suite.position()
	p.EntryPrice = 0

	suite.Equal(0.0, p.Return(50))
}

func (suite *PositionTestSuite) TestUnrealizedPnL() {
	p := suite.position()

	suite.InDelta(0.75, p.UnrealizedPnL(115), 1e-9)
	suite.InDelta(-0.3, p.UnrealizedPnL(94), 1e-9)
}

func (suite *PositionTestSuite) TestHighWaterMarkDefaultsToEntry() {
	p := suite.position()

	suite.Equal(100.0, p.EffectiveHighWaterMark())

	p.HighWaterMark = 120
	suite.Equal(120.0, p.EffectiveHighWaterMark())
}

func (suite *PositionTestSuite) TestDrawdownFromHigh() {
	p := suite.position()
	p.HighWaterMark = 120

	suite.InDelta(0.1, p.DrawdownFromHigh(108), 1e-9)
	suite.InDelta(0, p.DrawdownFromHigh(120), 1e-9)
}
