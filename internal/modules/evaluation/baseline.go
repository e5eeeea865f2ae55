package evaluation

import (
	"math"
	"sort"

	types "github.com/aurahq/aura-backend/internal/domain"
)

// MinBaselineSamples is the sample floor below which the statistical
// check is skipped for the day.
const MinBaselineSamples = 7

// DeviationLimit is the firing bound: a value more than this many
// deviation units beyond the baseline in the definition's direction fires.
const DeviationLimit = 2.0

// Strategy turns a trailing history plus today's value into a signed
// deviation in sigma-equivalent units. ok is false when the history is too
// short or degenerate to judge.
type Strategy interface {
	Name() string
	Deviation(history []float64, value float64) (dev float64, ok bool)
}

func StrategyFor(name string) Strategy {
	if name == types.BaselineRobust {
		return robustStrategy{}
	}
	return classicStrategy{}
}

type classicStrategy struct{}

func (classicStrategy) Name() string { return types.BaselineClassic }

func (classicStrategy) Deviation(history []float64, value float64) (float64, bool) {
	if len(history) < MinBaselineSamples {
		return 0, false
	}
	mean, std := meanStdDev(history)
	if std == 0 {
		return 0, false
	}
	return (value - mean) / std, true
}

type robustStrategy struct{}

func (robustStrategy) Name() string { return types.BaselineRobust }

// Deviation uses median and MAD, which one bad day cannot drag the way it
// drags a mean. A zero MAD (more than half the window identical) falls
// back to the classic estimate.
func (robustStrategy) Deviation(history []float64, value float64) (float64, bool) {
	if len(history) < MinBaselineSamples {
		return 0, false
	}
	med := median(history)
	mad := median(absDeviations(history, med))
	if mad == 0 {
		return classicStrategy{}.Deviation(history, value)
	}
	return (value - med) / (1.4826 * mad), true
}

// RobustSignal blends the robust and classic deviations through a logistic
// squash into a 0-100 severity input signal. It feeds severity context
// into event notes; it does not replace the decay scoring.
func RobustSignal(history []float64, value float64) (float64, bool) {
	rdev, rok := robustStrategy{}.Deviation(history, value)
	cdev, cok := classicStrategy{}.Deviation(history, value)
	if !rok || !cok {
		return 0, false
	}
	blend := 0.7*logistic(rdev) + 0.3*logistic(cdev)
	return math.Round(blend * 100), true
}

func logistic(z float64) float64 {
	return 1 / (1 + math.Exp(-0.75*z))
}

// meanStdDev returns the mean and population standard deviation.
func meanStdDev(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))
	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func absDeviations(xs []float64, center float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, x := range xs {
		out = append(out, math.Abs(x-center))
	}
	return out
}
