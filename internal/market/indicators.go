// internal/market/indicators.go
package market

import (
	"errors"
	"math"

	"forex-signal-bot/internal/types"
)

// Периоды индикаторов
const (
	ATRPeriod  = 14
	RSIPeriod  = 14
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
)

// ErrNotEnoughData - в серии недостаточно свечей для расчёта индикатора
var ErrNotEnoughData = errors.New("not enough data for indicator")

// ATR считает Average True Range по Уайлдеру за period свечей
func ATR(candles []types.Candle, period int) (float64, error) {
	if len(candles) < period+1 {
		return 0, ErrNotEnoughData
	}

	trs := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		trs = append(trs, tr)
	}

	// Первое значение — простое среднее, дальше сглаживание Уайлдера
	atr := 0.0
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)

	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}

	return atr, nil
}

// RSI считает Relative Strength Index по Уайлдеру за period свечей.
// При нулевых потерях возвращает 100.
func RSI(closes []float64, period int) (float64, error) {
	if len(closes) < period+1 {
		return 0, ErrNotEnoughData
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs), nil
}

// MACD считает линию MACD, сигнальную линию и гистограмму
func MACD(closes []float64, fast, slow, signal int) (line, sig, hist float64, err error) {
	if len(closes) < slow+signal {
		return 0, 0, 0, ErrNotEnoughData
	}

	fastEMA := emaSeries(closes, fast)
	slowEMA := emaSeries(closes, slow)

	// Линия MACD определена начиная с точки, где готова медленная EMA
	macdLine := make([]float64, 0, len(closes)-slow+1)
	for i := slow - 1; i < len(closes); i++ {
		macdLine = append(macdLine, fastEMA[i]-slowEMA[i])
	}

	signalSeries := emaSeries(macdLine, signal)

	line = macdLine[len(macdLine)-1]
	sig = signalSeries[len(signalSeries)-1]
	hist = line - sig
	return line, sig, hist, nil
}

// emaSeries возвращает EMA по всей серии; первые period-1 точек
// заполняются значением стартовой SMA
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) < period {
		copy(out, values)
		return out
	}

	sma := 0.0
	for _, v := range values[:period] {
		sma += v
	}
	sma /= float64(period)

	for i := 0; i < period; i++ {
		out[i] = sma
	}

	k := 2.0 / float64(period+1)
	for i := period; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}
