package evaluation

import (
	"fmt"
	"strings"
	"time"

	"github.com/aurahq/aura-backend/internal/data/metrics"
	types "github.com/aurahq/aura-backend/internal/domain"
	"github.com/aurahq/aura-backend/internal/pkg/apperr"
)

// Normalizer converts a raw metric reading into the comparable unit for
// its value kind, and converts configured thresholds into that same unit.
// One implementation per value kind; selection is by the definition's
// value_kind tag.
type Normalizer interface {
	Normalize(v metrics.Value) (float64, error)
	ConvertThreshold(threshold float64) float64
}

func NormalizerFor(kind string) (Normalizer, error) {
	switch kind {
	case types.ValueKindNumeric, types.ValueKindCumulative:
		return numericNormalizer{}, nil
	case types.ValueKindOrdinalRisk:
		return ordinalRiskNormalizer{}, nil
	case types.ValueKindTimeOfDay:
		return timeOfDayNormalizer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown value kind %q", apperr.ErrInvalidArgument, kind)
	}
}

type numericNormalizer struct{}

func (numericNormalizer) Normalize(v metrics.Value) (float64, error) {
	if v.Number == nil {
		return 0, fmt.Errorf("%w: numeric metric without number", apperr.ErrInvalidArgument)
	}
	return *v.Number, nil
}

func (numericNormalizer) ConvertThreshold(threshold float64) float64 { return threshold }

type ordinalRiskNormalizer struct{}

func (ordinalRiskNormalizer) Normalize(v metrics.Value) (float64, error) {
	if v.Text == nil {
		return 0, fmt.Errorf("%w: ordinal metric without text", apperr.ErrInvalidArgument)
	}
	switch strings.ToLower(strings.TrimSpace(*v.Text)) {
	case "none":
		return 0, nil
	case "low":
		return 1, nil
	case "medium", "moderate":
		return 2, nil
	case "high":
		return 3, nil
	default:
		return 0, fmt.Errorf("%w: unknown risk level %q", apperr.ErrInvalidArgument, *v.Text)
	}
}

func (ordinalRiskNormalizer) ConvertThreshold(threshold float64) float64 { return threshold }

type timeOfDayNormalizer struct{}

// Normalize maps a clock time to minutes since midnight, shifting times
// before noon forward by 24h so a 01:00 bedtime sorts after a 23:00 one.
func (timeOfDayNormalizer) Normalize(v metrics.Value) (float64, error) {
	var hour, minute int
	switch {
	case v.Timestamp != nil:
		hour, minute = v.Timestamp.Hour(), v.Timestamp.Minute()
	case v.Text != nil:
		parsed, err := parseClock(*v.Text)
		if err != nil {
			return 0, err
		}
		hour, minute = parsed.Hour(), parsed.Minute()
	default:
		return 0, fmt.Errorf("%w: time-of-day metric without timestamp", apperr.ErrInvalidArgument)
	}
	mins := float64(hour*60 + minute)
	if hour < 12 {
		mins += 24 * 60
	}
	return mins, nil
}

// ConvertThreshold takes a threshold in clock hours (e.g. 23.5 for 23:30)
// to minutes, with the same before-noon shift as Normalize.
func (timeOfDayNormalizer) ConvertThreshold(threshold float64) float64 {
	mins := threshold * 60
	if threshold < 12 {
		mins += 24 * 60
	}
	return mins
}

func parseClock(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable clock value %q", apperr.ErrInvalidArgument, raw)
}
