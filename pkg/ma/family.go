package ma

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

// Family is the integer code selecting a moving average algorithm. Codes
// are stable: callers persist them in configs.
type Family int

const (
	SMA                Family = 0
	EMA                Family = 1
	WMA                Family = 2
	DEMA               Family = 3
	TEMA               Family = 4
	TRIMA              Family = 5
	KAMA               Family = 6
	FWMA               Family = 9
	HMA                Family = 10
	LinearReg          Family = 11
	Wilders            Family = 12
	SinWMA             Family = 13
	SuperSmoother      Family = 14
	SuperSmoother3Pole Family = 15
	Gauss              Family = 16
	HighPass           Family = 17
	HighPass2Pole      Family = 18
	JMA                Family = 20
	Reflex             Family = 21
	TrendFlex          Family = 22
	SMMA               Family = 23
	VWMA               Family = 24
	PWMA               Family = 25
	SWMA               Family = 26
	ALMA               Family = 27
	HWMA               Family = 28
	VWAP               Family = 29
	NMA                Family = 30
	EDCF               Family = 31
	MWDX               Family = 32
	MAAQ               Family = 33
	SRWMA              Family = 34
	SQWMA              Family = 35
	VPWMA              Family = 36
	CWMA               Family = 37
	JSA                Family = 38
	EPMA               Family = 39
)

// seriesFunc smooths a flat series. Implementations never mutate s and
// always return a series of len(s).
type seriesFunc func(s ta.Series, period int) ta.Series

// candlesFunc smooths using more than one candle column.
type candlesFunc func(c ta.Candles, period int, src ta.SourceType) (ta.Series, error)

// algorithm is one family variant. Exactly one of series or candles is set.
type algorithm struct {
	name          string
	parameterless bool
	series        seriesFunc
	candles       candlesFunc
}

// needsCandles reports whether the family reads the volume column and so
// cannot run on a flattened series.
func (a algorithm) needsCandles() bool { return a.candles != nil }

var algorithms = map[Family]algorithm{
	SMA:                {name: "sma", series: sma},
	EMA:                {name: "ema", series: ema},
	WMA:                {name: "wma", series: wma},
	DEMA:               {name: "dema", series: dema},
	TEMA:               {name: "tema", series: tema},
	TRIMA:              {name: "trima", series: trima},
	KAMA:               {name: "kama", series: kama},
	FWMA:               {name: "fwma", series: fwma},
	HMA:                {name: "hma", series: hma},
	LinearReg:          {name: "linearreg", series: linearReg},
	Wilders:            {name: "wilders", series: wilders},
	SinWMA:             {name: "sinwma", series: sinWMA},
	SuperSmoother:      {name: "supersmoother", series: superSmoother},
	SuperSmoother3Pole: {name: "supersmoother_3_pole", series: superSmoother3Pole},
	Gauss:              {name: "gauss", series: gauss},
	HighPass:           {name: "high_pass", series: highPass},
	HighPass2Pole:      {name: "high_pass_2_pole", series: highPass2Pole},
	JMA:                {name: "jma", series: jma},
	Reflex:             {name: "reflex", series: reflex},
	TrendFlex:          {name: "trendflex", series: trendFlex},
	SMMA:               {name: "smma", series: smma},
	VWMA:               {name: "vwma", candles: vwma},
	PWMA:               {name: "pwma", series: pwma},
	SWMA:               {name: "swma", series: swma},
	ALMA:               {name: "alma", series: alma},
	HWMA:               {name: "hwma", parameterless: true, series: hwma},
	VWAP:               {name: "vwap", parameterless: true, candles: vwap},
	NMA:                {name: "nma", series: nma},
	EDCF:               {name: "edcf", series: edcf},
	MWDX:               {name: "mwdx", parameterless: true, series: mwdx},
	MAAQ:               {name: "maaq", series: maaq},
	SRWMA:              {name: "srwma", series: srwma},
	SQWMA:              {name: "sqwma", series: sqwma},
	VPWMA:              {name: "vpwma", series: vpwma},
	CWMA:               {name: "cwma", series: cwma},
	JSA:                {name: "jsa", series: jsa},
	EPMA:               {name: "epma", series: epma},
}

// String returns the lowercase family name, or "family(<code>)" for codes
// without an algorithm.
func (f Family) String() string {
	if alg, ok := algorithms[f]; ok {
		return alg.name
	}

	return "family(" + strconv.Itoa(int(f)) + ")"
}

// Supported reports whether f has an algorithm. Reserved codes 7, 8 and 19
// and anything outside 0..39 are unsupported.
func (f Family) Supported() bool {
	_, ok := algorithms[f]

	return ok
}

// RequiresCandles reports whether f needs a full candle table.
func (f Family) RequiresCandles() bool {
	return algorithms[f].needsCandles()
}

// Parameterless reports whether f ignores the period argument.
func (f Family) Parameterless() bool {
	return algorithms[f].parameterless
}

// Families lists every supported family in code order.
func Families() []Family {
	out := make([]Family, 0, len(algorithms))
	for f := range algorithms {
		out = append(out, f)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ParseFamily accepts a family name ("ema") or its integer code ("1").
func ParseFamily(s string) (Family, error) {
	s = strings.ToLower(strings.TrimSpace(s))

	if code, err := strconv.Atoi(s); err == nil {
		f := Family(code)
		if err := ValidateFamily(f); err != nil {
			return 0, err
		}

		return f, nil
	}

	for f, alg := range algorithms {
		if alg.name == s {
			return f, nil
		}
	}

	return 0, errors.Newf(errors.ErrCodeUnsupportedFamily, "unsupported family code %q", s)
}

// MarshalText encodes the family by name.
func (f Family) MarshalText() ([]byte, error) {
	if !f.Supported() {
		return nil, errors.Newf(errors.ErrCodeUnsupportedFamily, "unsupported family code %d", int(f))
	}

	return []byte(f.String()), nil
}

// UnmarshalText decodes a family from its name or code.
func (f *Family) UnmarshalText(text []byte) error {
	parsed, err := ParseFamily(string(text))
	if err != nil {
		return err
	}

	*f = parsed

	return nil
}
