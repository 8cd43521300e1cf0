package runner

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/internal/config"
	"github.com/rxtech-lab/argo-ta/internal/datasource"
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/mocks"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/indicator"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RunnerTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	candles ta.Candles
	runner  *Runner
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerTestSuite))
}

func (suite *RunnerTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())

	cfg := mocks.DefaultConfig()
	cfg.Count = 300
	suite.candles = mocks.NewDataGenerator(42).Generate(cfg)
	suite.runner = NewRunner(indicator.NewDefaultRegistry(), nil, 4)
}

func defaultRequests() []config.Request {
	return []config.Request{
		{Name: "ema10", Indicator: types.IndicatorTypeMA, Params: map[string]any{"period": 10, "matype": "ema"}},
		{Name: "rsi14", Indicator: types.IndicatorTypeRSI},
		{Name: "macd", Indicator: types.IndicatorTypeMACD},
		{Name: "kdj", Indicator: types.IndicatorTypeKDJ, Params: map[string]any{"fastk_period": 5}},
	}
}

func (suite *RunnerTestSuite) TestRunSequential() {
	var (
		mu    sync.Mutex
		calls []int
	)

	onProgress := OnProgressCallback(func(done, total int) {
		mu.Lock()
		defer mu.Unlock()

		suite.Equal(4, total)
		calls = append(calls, done)
	})

	report, err := suite.runner.Run(context.Background(), suite.candles, defaultRequests(), ta.Sequential, optional.Some(onProgress))
	suite.Require().NoError(err)

	_, err = uuid.Parse(report.RunID)
	suite.NoError(err)
	suite.Equal(ta.Sequential, report.Mode)
	suite.Len(report.Times, len(suite.candles))
	suite.Equal(suite.candles[0].Timestamp(), report.Times[0])

	suite.Require().Len(report.Results, 4)
	suite.Equal("ema10", report.Results[0].Name)
	suite.Equal("rsi14", report.Results[1].Name)
	suite.Equal("macd", report.Results[2].Name)
	suite.Equal("kdj", report.Results[3].Name)

	suite.Equal([]string{"ma"}, report.Results[0].Output.Names())
	suite.Equal([]string{"rsi"}, report.Results[1].Output.Names())
	suite.Equal([]string{"hist", "macd", "signal"}, report.Results[2].Output.Names())
	suite.Equal([]string{"d", "j", "k"}, report.Results[3].Output.Names())

	for _, res := range report.Results {
		for name, line := range res.Output {
			suite.Len(line, len(suite.candles), "%s.%s", res.Name, name)
		}
	}

	suite.ElementsMatch([]int{1, 2, 3, 4}, calls)
}

func (suite *RunnerTestSuite) TestRunMatchesDirectComputation() {
	report, err := suite.runner.Run(context.Background(), suite.candles, defaultRequests(), ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	rsi, err := indicator.RSI(suite.candles, 14, ta.SourceClose, ta.Sequential)
	suite.Require().NoError(err)
	suite.Equal(rsi, report.Results[1].Output["rsi"])

	macd, err := indicator.MACD(suite.candles, 12, 26, 9, ta.SourceClose, ta.Sequential)
	suite.Require().NoError(err)
	suite.Equal(macd.Hist, report.Results[2].Output["hist"])
}

// Latest mode reads a trailing window of the table, so recursive lines only
// agree with the full run up to their decayed warm-up.
func (suite *RunnerTestSuite) TestRunLatest() {
	sequential, err := suite.runner.Run(context.Background(), suite.candles, defaultRequests(), ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	latest, err := suite.runner.Run(context.Background(), suite.candles, defaultRequests(), ta.Latest, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	suite.Equal([]int64{suite.candles[len(suite.candles)-1].Timestamp()}, latest.Times)

	for i, res := range latest.Results {
		for name, line := range res.Output {
			suite.Require().Len(line, 1, "%s.%s", res.Name, name)
			suite.InDelta(sequential.Results[i].Output[name].Last(), line[0], 1e-4, "%s.%s", res.Name, name)
		}
	}
}

func (suite *RunnerTestSuite) TestParallelMatchesSerial() {
	requests := make([]config.Request, 0, 20)
	for p := 2; p < 22; p++ {
		requests = append(requests, config.Request{
			Name:      fmt.Sprintf("wma%d", p),
			Indicator: types.IndicatorTypeMA,
			Params:    map[string]any{"period": p, "matype": "wma"},
		})
	}

	serial, err := NewRunner(indicator.NewDefaultRegistry(), nil, 1).
		Run(context.Background(), suite.candles, requests, ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	parallel, err := NewRunner(indicator.NewDefaultRegistry(), nil, 8).
		Run(context.Background(), suite.candles, requests, ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)

	suite.Equal(serial.Results, parallel.Results)
}

func (suite *RunnerTestSuite) TestInvalidRequestFailsBeforeCompute() {
	requests := []config.Request{
		{Name: "ok", Indicator: types.IndicatorTypeRSI},
		{Name: "bad", Indicator: types.IndicatorTypeMA, Params: map[string]any{"window": 3}},
	}

	called := false
	onProgress := OnProgressCallback(func(int, int) { called = true })

	_, err := suite.runner.Run(context.Background(), suite.candles, requests, ta.Sequential, optional.Some(onProgress))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter), "got %v", err)
	suite.Contains(err.Error(), "request bad")
	suite.False(called)
}

func (suite *RunnerTestSuite) TestInvalidFamilyFailsBeforeCompute() {
	requests := []config.Request{
		{Name: "kdj", Indicator: types.IndicatorTypeKDJ, Params: map[string]any{"slowk_matype": "vwap"}},
	}

	_, err := suite.runner.Run(context.Background(), suite.candles, requests, ta.Sequential, optional.None[OnProgressCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeFamilyNotAllowed), "got %v", err)
}

func (suite *RunnerTestSuite) TestUnknownIndicator() {
	registry := indicator.NewIndicatorRegistry()
	runner := NewRunner(registry, nil, 2)

	_, err := runner.Run(context.Background(), suite.candles, defaultRequests(), ta.Sequential, optional.None[OnProgressCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorNotFound), "got %v", err)
}

func (suite *RunnerTestSuite) TestNoRequests() {
	_, err := suite.runner.Run(context.Background(), suite.candles, nil, ta.Sequential, optional.None[OnProgressCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeMissingParameter))
}

func (suite *RunnerTestSuite) TestComputeErrorPropagates() {
	failing := mocks.NewMockIndicator(suite.ctrl)
	failing.EXPECT().Name().Return(types.IndicatorType("failing")).AnyTimes()
	failing.EXPECT().Clone().Return(failing)
	failing.EXPECT().Params().Return([]string{})
	failing.EXPECT().Config().Return(nil)
	failing.EXPECT().Compute(gomock.Any(), ta.Sequential).
		Return(nil, errors.New(errors.ErrCodeIndicatorCalculation, "boom"))

	registry := indicator.NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(failing))

	runner := NewRunner(registry, nil, 1)

	_, err := runner.Run(context.Background(), suite.candles,
		[]config.Request{{Name: "f", Indicator: "failing"}}, ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeIndicatorCalculation))
	suite.Contains(err.Error(), "request f")
}

func (suite *RunnerTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.runner.Run(ctx, suite.candles, defaultRequests(), ta.Sequential, optional.None[OnProgressCallback]())
	suite.True(stderrors.Is(err, context.Canceled), "got %v", err)
}

func (suite *RunnerTestSuite) TestEmptyCandles() {
	report, err := suite.runner.Run(context.Background(), ta.Candles{}, defaultRequests(), ta.Sequential, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)
	suite.Empty(report.Times)

	for _, res := range report.Results {
		for _, line := range res.Output {
			suite.Empty(line)
		}
	}
}

func (suite *RunnerTestSuite) TestRunConfig() {
	cfg := &config.Config{
		Data:      "candles.parquet",
		Symbol:    optional.Some("BTCUSDT"),
		Start:     optional.None[time.Time](),
		End:       optional.None[time.Time](),
		Latest:    true,
		Requests:  defaultRequests(),
		Precision: config.DefaultPrecision,
	}

	ds := mocks.NewMockDataSource(suite.ctrl)
	ds.EXPECT().ReadCandles(datasource.Query{Symbol: cfg.Symbol, Start: cfg.Start, End: cfg.End}).
		Return(suite.candles, nil)

	report, err := suite.runner.RunConfig(context.Background(), cfg, ds, optional.None[OnProgressCallback]())
	suite.Require().NoError(err)
	suite.Equal(ta.Latest, report.Mode)
	suite.Len(report.Results, 4)
}

func (suite *RunnerTestSuite) TestRunConfigReadError() {
	cfg := &config.Config{Requests: defaultRequests()}

	ds := mocks.NewMockDataSource(suite.ctrl)
	ds.EXPECT().ReadCandles(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeDataNotFound, "no candles match the query"))

	_, err := suite.runner.RunConfig(context.Background(), cfg, ds, optional.None[OnProgressCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
