package indicator

import (
	"testing"

	"github.com/astra-quant/recallbot/internal/types"
	"github.com/stretchr/testify/suite"
)

type MATestSuite struct {
	suite.Suite
}

func TestMASuite(t *testing.T) {
	suite.Run(t, new(MATestSuite))
}

func (suite *MATestSuite) TestSMAKnownValues() {
	values := SMA([]float64{1, 2, 3, 4, 5}, 3)

	suite.Equal([]float64{2, 3, 4}, values)
}

func (suite *MATestSuite) TestSMAInsufficientData() {
	suite.Empty(SMA([]float64{1, 2}, 3))
	suite.Empty(SMA(nil, 3))
	suite.Empty(SMA([]float64{1, 2, 3}, 0))
}

func (suite *MATestSuite) TestSMAExactPeriod() {
	values := SMA([]float64{3, 6, 9}, 3)

	suite.Equal([]float64{6}, values)
}

func (suite *MATestSuite) TestSMADoesNotMutateInput() {
	series := []float64{5, 4, 3, 2, 1}
	_ = SMA(series, 2)

	suite.Equal([]float64{5, 4, 3, 2, 1}, series)
}

func (suite *MATestSuite) TestConfig() {
	ma := NewMA()
	maImpl := ma.(*MA)

	suite.Equal(20, maImpl.period)

	suite.NoError(ma.Config(10))
	suite.Equal(10, maImpl.period)

	suite.Error(ma.Config())
	suite.Error(ma.Config("ten"))
	suite.Error(ma.Config(-3))
}

func (suite *MATestSuite) TestApplyRecordsLastValue() {
	ma := NewMA()
	suite.NoError(ma.Config(3))

	var snapshot types.IndicatorSnapshot

	ma.Apply(Input{Prices: []float64{1, 2, 3, 4, 5}}, &snapshot)

	suite.True(snapshot.SMA.IsSome())
	suite.InDelta(4.0, snapshot.SMA.Unwrap(), 1e-9)
}

func (suite *MATestSuite) TestApplySkipsOnShortSeries() {
	ma := NewMA()
	suite.NoError(ma.Config(10))

	var snapshot types.IndicatorSnapshot

	ma.Apply(Input{Prices: []float64{1, 2, 3}}, &snapshot)

	suite.True(snapshot.SMA.IsNone())
}
