package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewAndError() {
	err := New(ErrCodeInvalidParameter, "bad value")
	suite.Equal("[100] bad value", err.Error())
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestWrapPreservesCause() {
	cause := fmt.Errorf("disk full")
	err := Wrap(ErrCodeStoreWriteFailed, "failed to persist positions", cause)

	suite.Contains(err.Error(), "disk full")
	suite.Equal(cause, err.Unwrap())
	suite.True(HasCode(err, ErrCodeStoreWriteFailed))
}

func (suite *ErrorTestSuite) TestGetCodeOnForeignError() {
	suite.Equal(ErrCodeUnknown, GetCode(fmt.Errorf("plain error")))
}

func (suite *ErrorTestSuite) TestWrappedCodeSurvivesChain() {
	inner := New(ErrCodePriceNotFound, "no price")
	outer := fmt.Errorf("cycle: %w", inner)

	suite.True(HasCode(outer, ErrCodePriceNotFound))
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataError(14, 5, "BTC", "need 14 points, have 5")
	suite.True(IsInsufficientDataError(err))
	suite.Equal("need 14 points, have 5", err.Error())
	suite.False(IsInsufficientDataError(fmt.Errorf("other")))
}
