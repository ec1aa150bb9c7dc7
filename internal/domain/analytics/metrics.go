// Package analytics provides the pure numeric primitives shared by every
// scoring and forecasting component. All functions are total: they never
// panic and return 0 for empty input.
package analytics

import "math"

// MovingAverage returns the arithmetic mean of values.
func MovingAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance returns the mean squared deviation from the moving average.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := MovingAverage(values)
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return sum / float64(len(values))
}

// StdDev returns the standard deviation of values.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// LinearRegression fits ordinary least squares against index positions
// 0..n-1 and returns the slope and intercept. With fewer than two points
// the slope is 0 and the intercept is the single value (or 0 when empty).
func LinearRegression(values []float64) (slope, intercept float64) {
	n := len(values)
	if n == 0 {
		return 0, 0
	}
	if n == 1 {
		return 0, values[0]
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / fn
	}
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept
}

// LinearForecast projects the regression line one step past the series.
func LinearForecast(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	slope, intercept := LinearRegression(values)
	return intercept + slope*float64(len(values))
}

// ExponentialSmoothing applies recursive smoothing seeded by the first
// value. Alpha outside (0, 1) is a caller error; the function still
// terminates and returns a finite value.
func ExponentialSmoothing(values []float64, alpha float64) float64 {
	if len(values) == 0 {
		return 0
	}
	smoothed := values[0]
	for _, v := range values[1:] {
		smoothed = alpha*v + (1-alpha)*smoothed
	}
	return smoothed
}

// PercentileValue returns the value at the given fraction of a series
// sorted in descending order, via floor(n * fraction) index lookup. Used
// for population thresholds such as top 10% of spenders.
func PercentileValue(sortedDesc []float64, fraction float64) float64 {
	n := len(sortedDesc)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * fraction))
	if idx < 0 {
		idx = 0
	}
	if idx >= n {
		idx = n - 1
	}
	return sortedDesc[idx]
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
