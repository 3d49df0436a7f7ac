package oracle

import (
	"testing"

	"github.com/astra-quant/recallbot/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type ParseVerdictTestSuite struct {
	suite.Suite
}

func TestParseVerdictSuite(t *testing.T) {
	suite.Run(t, new(ParseVerdictTestSuite))
}

func (suite *ParseVerdictTestSuite) TestScoreTag() {
	verdict, err := ParseVerdict("<score>0.42</score> looks risky")
	suite.NoError(err)
	suite.InDelta(0.42, verdict.Confidence, 1e-9)
	suite.Equal("looks risky", verdict.Reason)
}

func (suite *ParseVerdictTestSuite) TestScoreTagInsideProse() {
	verdict, err := ParseVerdict("Momentum is strong.\n<score>0.85</score>\nVolume confirms the move.")
	suite.NoError(err)
	suite.InDelta(0.85, verdict.Confidence, 1e-9)
	suite.Equal("Momentum is strong.\n\nVolume confirms the move.", verdict.Reason)
}

func (suite *ParseVerdictTestSuite) TestScoreTagCaseInsensitive() {
	verdict, err := ParseVerdict("<SCORE> 0.7 </SCORE> steady uptrend")
	suite.NoError(err)
	suite.InDelta(0.7, verdict.Confidence, 1e-9)
	suite.Equal("steady uptrend", verdict.Reason)
}

func (suite *ParseVerdictTestSuite) TestPhraseFallback() {
	verdict, err := ParseVerdict("I would assign a confidence score of 0.63 given mixed signals.")
	suite.NoError(err)
	suite.InDelta(0.63, verdict.Confidence, 1e-9)
	suite.Contains(verdict.Reason, "mixed signals")
}

func (suite *ParseVerdictTestSuite) TestTagWinsOverPhrase() {
	verdict, err := ParseVerdict("confidence score of 0.2 earlier, but final answer: <score>0.9</score>")
	suite.NoError(err)
	suite.InDelta(0.9, verdict.Confidence, 1e-9)
}

func (suite *ParseVerdictTestSuite) TestUnclampedScore() {
	verdict, err := ParseVerdict("<score>1.5</score> overwhelming momentum")
	suite.NoError(err)
	suite.InDelta(1.5, verdict.Confidence, 1e-9)
}

func (suite *ParseVerdictTestSuite) TestNoScoreFails() {
	_, err := ParseVerdict("I cannot evaluate this token.")
	suite.True(errors.HasCode(err, errors.ErrCodeOracleParseFailed))
}
