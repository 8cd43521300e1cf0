package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rxtech-lab/argo-ta/mocks"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type CLITestSuite struct {
	suite.Suite
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func TestCLISuite(t *testing.T) {
	suite.Run(t, new(CLITestSuite))
}

func (suite *CLITestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.stdout = &bytes.Buffer{}
	suite.stderr = &bytes.Buffer{}

	cfg := mocks.DefaultConfig()
	cfg.Count = 120

	var sb strings.Builder
	sb.WriteString("time,open,high,low,close,volume\n")

	for _, c := range mocks.NewDataGenerator(42).Generate(cfg) {
		fmt.Fprintf(&sb, "%d,%g,%g,%g,%g,%g\n", c.Timestamp(), c.Open(), c.High(), c.Low(), c.Close(), c.Volume())
	}

	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, "candles.csv"), []byte(sb.String()), 0o600))
}

func (suite *CLITestSuite) writeConfig(body string) string {
	path := filepath.Join(suite.dir, "config.yaml")
	suite.Require().NoError(os.WriteFile(path, []byte("data: candles.csv\n"+body), 0o600))

	return path
}

func (suite *CLITestSuite) run(args ...string) error {
	app := newApp()
	app.Writer = suite.stdout
	app.ErrWriter = suite.stderr

	return app.Run(context.Background(), append([]string{"argo-ta"}, args...))
}

const requestsYAML = `requests:
  - name: sma5
    indicator: ma
    params: {period: 5}
  - name: macd
    indicator: macd
`

func (suite *CLITestSuite) TestComputeToStdout() {
	path := suite.writeConfig("precision: 2\n" + requestsYAML)

	suite.Require().NoError(suite.run("compute", "--config", path, "--quiet"))

	records, err := csv.NewReader(suite.stdout).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 121)
	suite.Equal([]string{"time", "sma5", "macd_hist", "macd_macd", "macd_signal"}, records[0])

	suite.Equal("", records[1][1])
	suite.NotEmpty(records[5][1])
}

func (suite *CLITestSuite) TestComputeLatest() {
	path := suite.writeConfig(requestsYAML)

	suite.Require().NoError(suite.run("compute", "-c", path, "--latest", "-q"))

	records, err := csv.NewReader(suite.stdout).ReadAll()
	suite.Require().NoError(err)
	suite.Len(records, 2)
}

func (suite *CLITestSuite) TestComputeTimeRangeOnEpochData() {
	path := suite.writeConfig("start_time: 2024-01-01T09:40:00Z\nend_time: 2024-01-01T09:49:00Z\n" + requestsYAML)

	suite.Require().NoError(suite.run("compute", "--config", path, "--quiet"))

	records, err := csv.NewReader(suite.stdout).ReadAll()
	suite.Require().NoError(err)
	suite.Require().Len(records, 11)
	suite.Equal("2024-01-01T09:40:00Z", records[1][0])
	suite.Equal("2024-01-01T09:49:00Z", records[10][0])
}

func (suite *CLITestSuite) TestExitCodes() {
	badPeriod := suite.writeConfig(`requests:
  - name: bad
    indicator: ma
    params: {period: 0}
`)
	suite.Equal(exitInvalidInput, exitCode(suite.run("compute", "--config", badPeriod, "--quiet")))

	badFamily := suite.writeConfig(`requests:
  - name: bad
    indicator: kdj
    params: {slowk_matype: vwma}
`)
	suite.Equal(exitInvalidInput, exitCode(suite.run("compute", "--config", badFamily, "--quiet")))

	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, "config.yaml"),
		[]byte("data: missing.parquet\n"+requestsYAML), 0o600))
	err := suite.run("compute", "--config", filepath.Join(suite.dir, "config.yaml"), "--quiet")
	suite.Require().Error(err)
	suite.Equal(exitFailure, exitCode(err))
}

func (suite *CLITestSuite) TestComputeToParquet() {
	path := suite.writeConfig(requestsYAML)
	out := filepath.Join(suite.dir, "results", "out.parquet")

	suite.Require().NoError(suite.run("compute", "--config", path, "--output", out, "--quiet"))

	info, err := os.Stat(out)
	suite.Require().NoError(err)
	suite.Positive(info.Size())
	suite.Empty(suite.stdout.String())
}

func (suite *CLITestSuite) TestComputeInvalidRequest() {
	path := suite.writeConfig(`requests:
  - name: bad
    indicator: rsi
    params: {period: 0}
`)

	err := suite.run("compute", "--config", path, "--quiet")
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPeriod), "got %v", err)
}

func (suite *CLITestSuite) TestComputeMissingConfig() {
	err := suite.run("compute", "--config", filepath.Join(suite.dir, "nope.yaml"), "--quiet")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *CLITestSuite) TestFamilies() {
	suite.Require().NoError(suite.run("families"))

	out := suite.stdout.String()
	suite.Contains(out, "CODE")
	suite.Contains(out, "ema")
	suite.Contains(out, "vwap")
	suite.NotContains(out, "family(7)")
}

func (suite *CLITestSuite) TestIndicators() {
	suite.Require().NoError(suite.run("indicators"))

	suite.Equal(strings.Join([]string{
		"kdj: fastk_period, slowk_period, slowk_matype, slowd_period, slowd_matype",
		"ma: period, matype, source",
		"macd: fast_period, slow_period, signal_period, source",
		"rsi: period, source",
	}, "\n")+"\n", suite.stdout.String())
}

func (suite *CLITestSuite) TestSchema() {
	suite.Require().NoError(suite.run("schema"))

	var schema map[string]any
	suite.Require().NoError(json.Unmarshal(suite.stdout.Bytes(), &schema))
	suite.Equal("argo-ta-config", schema["title"])
}
