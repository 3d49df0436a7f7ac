package schema

import (
	"encoding/json"
	"testing"

	"github.com/astra-quant/recallbot/internal/config"
	"github.com/stretchr/testify/suite"
)

type SchemaTestSuite struct {
	suite.Suite
}

func TestSchemaSuite(t *testing.T) {
	suite.Run(t, new(SchemaTestSuite))
}

func (suite *SchemaTestSuite) TestConfigSchemaIsValidJSON() {
	out, err := ToJSONSchema(config.Config{})
	suite.Require().NoError(err)

	var doc map[string]any
	suite.NoError(json.Unmarshal([]byte(out), &doc))
	suite.Contains(out, "strategies")
	suite.Contains(out, "momentum")
}

func (suite *SchemaTestSuite) TestStrategySchemaCarriesTitles() {
	out, err := ToJSONSchema(config.StrategyConfig{})
	suite.Require().NoError(err)
	suite.Contains(out, "Oracle Confidence Threshold")
}
