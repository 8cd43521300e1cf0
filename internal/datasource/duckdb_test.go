package datasource

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// DuckDBTestSuite is a test suite for DuckDBDataSource
type DuckDBTestSuite struct {
	suite.Suite
	dir     string
	parquet string
	ds      *DuckDBDataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBTestSuite))
}

var fixtureStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func (suite *DuckDBTestSuite) SetupSuite() {
	suite.dir = suite.T().TempDir()
	suite.parquet = writeParquetFixture(suite.T(), suite.dir)
}

// writeParquetFixture writes ten one-minute candles for two symbols into
// dir/candles.parquet using DuckDB itself.
func writeParquetFixture(t *testing.T, dir string) string {
	path := filepath.Join(dir, "candles.parquet")

	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE market_data_source (
		time TIMESTAMP,
		symbol TEXT,
		open DOUBLE,
		high DOUBLE,
		low DOUBLE,
		close DOUBLE,
		volume DOUBLE
	)`)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		ts := fixtureStart.Add(time.Duration(i) * time.Minute)
		for j, symbol := range []string{"BTCUSDT", "ETHUSDT"} {
			price := float64(100*(j+1) + i)
			_, err = db.Exec(`INSERT INTO market_data_source VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				ts, symbol, price, price+1, price-1, price+0.5, float64(1000+i))
			require.NoError(t, err)
		}
	}

	_, err = db.Exec(fmt.Sprintf(`COPY market_data_source TO '%s' (FORMAT PARQUET)`, path))
	require.NoError(t, err)

	return path
}

func (suite *DuckDBTestSuite) SetupTest() {
	ds, err := NewDuckDBDataSource(":memory:", nil)
	suite.Require().NoError(err)
	suite.Require().NoError(ds.Initialize(suite.parquet))
	suite.ds = ds
}

func (suite *DuckDBTestSuite) TearDownTest() {
	if suite.ds != nil {
		suite.NoError(suite.ds.Close())
	}
}

func (suite *DuckDBTestSuite) TestReadCandlesBySymbol() {
	candles, err := suite.ds.ReadCandles(Query{Symbol: optional.Some("ETHUSDT")})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 10)

	first := candles[0]
	suite.Equal(fixtureStart.UnixMilli(), first.Timestamp())
	suite.Equal(200.0, first.Open())
	suite.Equal(200.5, first.Close())
	suite.Equal(201.0, first.High())
	suite.Equal(199.0, first.Low())
	suite.Equal(1000.0, first.Volume())

	for i := 1; i < len(candles); i++ {
		suite.Greater(candles[i].Timestamp(), candles[i-1].Timestamp())
	}
}

func (suite *DuckDBTestSuite) TestReadCandlesTimeRange() {
	q := Query{
		Symbol: optional.Some("BTCUSDT"),
		Start:  optional.Some(fixtureStart.Add(2 * time.Minute)),
		End:    optional.Some(fixtureStart.Add(5 * time.Minute)),
	}

	candles, err := suite.ds.ReadCandles(q)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 4)
	suite.Equal(102.5, candles[0].Close())
	suite.Equal(105.5, candles[3].Close())

	count, err := suite.ds.Count(q)
	suite.Require().NoError(err)
	suite.Equal(4, count)
}

func (suite *DuckDBTestSuite) TestReadCandlesNoMatch() {
	_, err := suite.ds.ReadCandles(Query{Symbol: optional.Some("DOGEUSDT")})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *DuckDBTestSuite) TestSymbolsAndCount() {
	symbols, err := suite.ds.Symbols()
	suite.Require().NoError(err)
	suite.Equal([]string{"BTCUSDT", "ETHUSDT"}, symbols)

	count, err := suite.ds.Count(Query{})
	suite.Require().NoError(err)
	suite.Equal(20, count)
}

func (suite *DuckDBTestSuite) TestInitializeCSVWithEpochMillis() {
	path := filepath.Join(suite.dir, "epoch.csv")
	content := "time,open,high,low,close,volume\n" +
		"1704103200000,1,2,0.5,1.5,10\n" +
		"1704103260000,1.5,2.5,1,2,20\n"
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	suite.Require().NoError(suite.ds.Initialize(path))

	candles, err := suite.ds.ReadCandles(Query{})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 2)
	suite.Equal(int64(1704103200000), candles[0].Timestamp())
	suite.Equal(2.0, candles[1].Close())
}

// writeCSV writes six one-minute candles whose time column is rendered by
// format, closing at 1, 2, ... 6.
func (suite *DuckDBTestSuite) writeCSV(name string, format func(time.Time) string) string {
	var sb strings.Builder
	sb.WriteString("time,open,high,low,close,volume\n")

	for i := 0; i < 6; i++ {
		ts := fixtureStart.Add(time.Duration(i) * time.Minute)
		fmt.Fprintf(&sb, "%s,%d,%d,%d,%d,%d\n", format(ts), i, i+2, i, i+1, 10*(i+1))
	}

	path := filepath.Join(suite.dir, name)
	suite.Require().NoError(os.WriteFile(path, []byte(sb.String()), 0o600))

	return path
}

func (suite *DuckDBTestSuite) TestTimeRangeOnEpochMillisCSV() {
	path := suite.writeCSV("epoch_range.csv", func(t time.Time) string {
		return fmt.Sprintf("%d", t.UnixMilli())
	})
	suite.Require().NoError(suite.ds.Initialize(path))
	suite.True(suite.ds.epochTime)

	q := Query{
		Start: optional.Some(fixtureStart.Add(1 * time.Minute)),
		End:   optional.Some(fixtureStart.Add(3 * time.Minute)),
	}

	candles, err := suite.ds.ReadCandles(q)
	suite.Require().NoError(err)
	suite.Require().Len(candles, 3)
	suite.Equal(fixtureStart.Add(time.Minute).UnixMilli(), candles[0].Timestamp())
	suite.Equal(2.0, candles[0].Close())
	suite.Equal(4.0, candles[2].Close())

	count, err := suite.ds.Count(q)
	suite.Require().NoError(err)
	suite.Equal(3, count)

	_, err = suite.ds.ReadCandles(Query{Start: optional.Some(fixtureStart.Add(time.Hour))})
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound), "got %v", err)
}

func (suite *DuckDBTestSuite) TestTimeRangeOnTimestampCSV() {
	path := suite.writeCSV("timestamp_range.csv", func(t time.Time) string {
		return t.Format("2006-01-02 15:04:05")
	})
	suite.Require().NoError(suite.ds.Initialize(path))
	suite.False(suite.ds.epochTime)

	candles, err := suite.ds.ReadCandles(Query{Start: optional.Some(fixtureStart.Add(4 * time.Minute))})
	suite.Require().NoError(err)
	suite.Require().Len(candles, 2)
	suite.Equal(fixtureStart.Add(4*time.Minute).UnixMilli(), candles[0].Timestamp())
	suite.Equal(6.0, candles[1].Close())
}

func (suite *DuckDBTestSuite) TestInitializeWithoutTimeColumn() {
	path := filepath.Join(suite.dir, "no_time.csv")
	suite.Require().NoError(os.WriteFile(path, []byte("open,high,low,close,volume\n1,2,0.5,1.5,10\n"), 0o600))

	err := suite.ds.Initialize(path)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound), "got %v", err)
}

func (suite *DuckDBTestSuite) TestInitializeErrors() {
	tests := []struct {
		name string
		path string
		code errors.ErrorCode
	}{
		{"unsupported extension", filepath.Join(suite.dir, "candles.json"), errors.ErrCodeInvalidParameter},
		{"missing parquet", filepath.Join(suite.dir, "nonexistent.parquet"), errors.ErrCodeDataNotFound},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := suite.ds.Initialize(tc.path)
			suite.Require().Error(err)
			suite.True(errors.HasCode(err, tc.code), "got %v", err)
		})
	}
}
