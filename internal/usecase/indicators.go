package usecase

import "math"

// Indicator functions derive a same-length series from an ordered close
// series. Positions before the rolling window is full are NaN, never
// zero, so chart layers can leave them blank.

// SMA computes the simple moving average over a trailing window.
func SMA(prices []float64, window int) []float64 {
	out := nanSlice(len(prices))
	if window <= 0 || len(prices) < window {
		return out
	}
	sum := 0.0
	for i, p := range prices {
		sum += p
		if i >= window {
			sum -= prices[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing factor
// 2/(window+1), seeded with the first value. Unlike the window-gated
// indicators it is defined from position 0: early values are a biased
// estimate that converges as the series grows, not NaN.
func EMA(prices []float64, window int) []float64 {
	out := nanSlice(len(prices))
	if window <= 0 || len(prices) == 0 {
		return out
	}
	alpha := 2.0 / float64(window+1)
	ema := prices[0]
	out[0] = ema
	for i := 1; i < len(prices); i++ {
		ema = alpha*prices[i] + (1-alpha)*ema
		out[i] = ema
	}
	return out
}

// RSI computes the Relative Strength Index over a trailing window of
// per-step deltas. A window with zero average loss yields 100 by
// definition; results are always within [0, 100].
func RSI(prices []float64, window int) []float64 {
	out := nanSlice(len(prices))
	if window <= 0 || len(prices) < window+1 {
		return out
	}
	gains := make([]float64, len(prices))
	losses := make([]float64, len(prices))
	for i := 1; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}
	var gainSum, lossSum float64
	for i := 1; i < len(prices); i++ {
		gainSum += gains[i]
		lossSum += losses[i]
		if i > window {
			gainSum -= gains[i-window]
			lossSum -= losses[i-window]
		}
		if i < window {
			continue
		}
		avgGain := gainSum / float64(window)
		avgLoss := lossSum / float64(window)
		if avgLoss == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain / avgLoss
		rsi := 100 - 100/(1+rs)
		out[i] = math.Max(0, math.Min(100, rsi))
	}
	return out
}

// MACD computes the MACD line (fast EMA minus slow EMA) and its signal
// line (EMA of the MACD line), both aligned to the input length.
func MACD(prices []float64, fast, slow, signal int) (macd, signalLine []float64) {
	macd = nanSlice(len(prices))
	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	for i := range prices {
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = EMA(macd, signal)
	return macd, signalLine
}

// BollingerBands returns the upper, middle and lower bands: the SMA of
// the window plus/minus numStd rolling standard deviations.
func BollingerBands(prices []float64, window int, numStd float64) (upper, middle, lower []float64) {
	middle = SMA(prices, window)
	upper = nanSlice(len(prices))
	lower = nanSlice(len(prices))
	if window <= 0 || len(prices) < window {
		return upper, middle, lower
	}
	for i := window - 1; i < len(prices); i++ {
		mean := middle[i]
		var variance float64
		for j := i - window + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(window))
		upper[i] = mean + numStd*std
		lower[i] = mean - numStd*std
	}
	return upper, middle, lower
}

// StepChanges returns the percent change between consecutive prices,
// NaN at the first position.
func StepChanges(prices []float64) []float64 {
	out := nanSlice(len(prices))
	for i := 1; i < len(prices); i++ {
		out[i] = pctChange(prices[i-1], prices[i])
	}
	return out
}

// pctChange is the percent change from prev to cur. A zero previous
// value is defined as 0% change rather than a division fault.
func pctChange(prev, cur float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
