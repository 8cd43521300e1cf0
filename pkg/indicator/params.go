package indicator

import (
	"math"
	"strings"

	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/ma"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
)

func unknownParam(ind types.IndicatorType, name string, known []string) error {
	return errors.Newf(errors.ErrCodeInvalidParameter,
		"%s has no parameter %q (expected one of %s)", ind, name, strings.Join(known, ", "))
}

func tooManyParams(ind types.IndicatorType, got int, known []string) error {
	return errors.Newf(errors.ErrCodeInvalidParameter,
		"%s accepts at most %d parameters (%s), got %d", ind, len(known), strings.Join(known, ", "), got)
}

// intParam accepts any integral number decoded from Go, YAML or JSON.
func intParam(name string, v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int32:
		return int(t), nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, errors.Newf(errors.ErrCodeInvalidType, "%s must be an integer, got %v", name, t)
		}

		return int(t), nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int, got %T", name, v)
	}
}

func periodParam(name string, v any) (int, error) {
	period, err := intParam(name, v)
	if err != nil {
		return 0, err
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
	}

	return period, nil
}

// familyParam accepts a ma.Family, its integer code or its name.
func familyParam(name string, v any) (ma.Family, error) {
	var f ma.Family

	switch t := v.(type) {
	case ma.Family:
		f = t
	case string:
		return ma.ParseFamily(t)
	default:
		code, err := intParam(name, v)
		if err != nil {
			return 0, err
		}

		f = ma.Family(code)
	}

	if err := ma.ValidateFamily(f); err != nil {
		return 0, err
	}

	return f, nil
}

// sourceParam accepts a ta.SourceType or its name.
func sourceParam(name string, v any) (ta.SourceType, error) {
	switch t := v.(type) {
	case ta.SourceType:
		return ta.ParseSourceType(string(t))
	case string:
		return ta.ParseSourceType(t)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected string, got %T", name, v)
	}
}
