package indicator

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type MACDTestSuite struct {
	suite.Suite
}

func TestMACDSuite(t *testing.T) {
	suite.Run(t, new(MACDTestSuite))
}

func (suite *MACDTestSuite) TestMACDInsufficientData() {
	suite.Nil(MACD(ascendingSeries(25), 12, 26, 9))
	suite.Nil(MACD(nil, 12, 26, 9))
}

func (suite *MACDTestSuite) TestMACDAlignedLengths() {
	result := MACD(ascendingSeries(40), 12, 26, 9)

	suite.NotNil(result)
	suite.Equal(len(result.Line), len(result.Signal))
	suite.NotEmpty(result.Line)
}

func (suite *MACDTestSuite) TestMACDUptrendIsPositive() {
	result := MACD(ascendingSeries(60), 12, 26, 9)

	suite.NotNil(result)
	// In a steady uptrend the short EMA sits above the long EMA.
	suite.Greater(result.Line[len(result.Line)-1], 0.0)
}

func (suite *MACDTestSuite) TestCrossedAbove() {
	// Flat series then a sharp rally: the MACD line starts at/below its
	// signal and crosses above once the rally kicks in.
	series := make([]float64, 0, 46)
	for i := 0; i < 40; i++ {
		series = append(series, 100)
	}
	for i := 0; i < 6; i++ {
		series = append(series, 100+float64(i+1)*4)
	}

	result := MACD(series, 12, 26, 9)

	suite.NotNil(result)
	suite.True(result.Bullish())
}

func (suite *MACDTestSuite) TestConfig() {
	macd := NewMACD()
	macdImpl := macd.(*MACDIndicator)

	suite.Equal(12, macdImpl.shortPeriod)
	suite.Equal(26, macdImpl.longPeriod)
	suite.Equal(9, macdImpl.signalPeriod)

	suite.NoError(macd.Config(5, 10, 3))
	suite.Equal(5, macdImpl.shortPeriod)

	suite.Error(macd.Config(10, 5, 3))
	suite.Error(macd.Config(1, 2))
	suite.Error(macd.Config(0, 10, 3))
}
