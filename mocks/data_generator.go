package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ta/pkg/ta"
	"github.com/shopspring/decimal"
)

// DataGenerator generates realistic candle tables for tests and benchmarks.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// StartTime is the timestamp of the first candle
	StartTime time.Time
	// Interval is the duration between candles
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement per candle (0.01 = 1%)
	Volatility float64
	// Trend is the total drift spread across the table
	Trend float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
	// FlatVolume makes every candle trade zero volume
	FlatVolume bool
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartTime:      time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          10000,
		InitialPrice:   100.0,
		Volatility:     0.002, // 0.2% per bar
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a candle table following a geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) ta.Candles {
	candles := make(ta.Candles, config.Count)
	price := config.InitialPrice
	ts := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := price

		// Box-Muller transform for a standard normal sample
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		closing := open * (1 + config.Volatility*z + drift)
		if closing <= 0 {
			closing = open * 0.99
		}

		high := math.Max(open, closing) + math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		low := math.Min(open, closing) - math.Abs(g.rng.Float64()*config.Volatility*open*0.5)
		if low <= 0 {
			low = math.Min(open, closing) * 0.99
		}

		volume := config.VolumeBase * (1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		if config.FlatVolume {
			volume = 0
		}

		candles[i] = ta.NewCandle(
			ts.UnixMilli(),
			round(open, 4),
			round(closing, 4),
			round(high, 4),
			round(low, 4),
			round(volume, 2),
		)

		price = closing
		ts = ts.Add(config.Interval)
	}

	return candles
}

// GenerateMultiSymbol generates one table per symbol with slightly varied
// starting price and volatility.
func (g *DataGenerator) GenerateMultiSymbol(symbols []string, baseConfig GeneratorConfig) map[string]ta.Candles {
	tables := make(map[string]ta.Candles, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)

		tables[symbol] = g.Generate(config)
	}

	return tables
}

// Generate10K returns 10,000 candles with default settings and a fixed seed.
func Generate10K() ta.Candles {
	gen := NewDataGenerator(42)
	config := DefaultConfig()
	config.Count = 10000

	return gen.Generate(config)
}

// GenerateCloses returns only the close prices of n generated candles.
func GenerateCloses(seed int64, n int) ta.Series {
	config := DefaultConfig()
	config.Count = n

	return NewDataGenerator(seed).Generate(config).Column(ta.ColClose)
}

func round(val float64, places int32) float64 {
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}
