package types

// IndicatorType names an indicator in the registry and in request configs.
type IndicatorType string

const (
	IndicatorTypeMA   IndicatorType = "ma"
	IndicatorTypeRSI  IndicatorType = "rsi"
	IndicatorTypeMACD IndicatorType = "macd"
	IndicatorTypeKDJ  IndicatorType = "kdj"
)

// IndicatorTypes lists the built-in indicator types.
func IndicatorTypes() []IndicatorType {
	return []IndicatorType{IndicatorTypeMA, IndicatorTypeRSI, IndicatorTypeMACD, IndicatorTypeKDJ}
}
