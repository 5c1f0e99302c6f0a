package market

import (
	"errors"
	"math"
	"testing"

	"forex-signal-bot/internal/types"
)

func flatCandles(n int, price float64) []types.Candle {
	out := make([]types.Candle, n)
	for i := range out {
		out[i] = types.Candle{Open: price, High: price, Low: price, Close: price}
	}
	return out
}

func TestATRNotEnoughData(t *testing.T) {
	_, err := ATR(flatCandles(ATRPeriod, 1.1), ATRPeriod)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("ожидали ErrNotEnoughData, получили %v", err)
	}
}

func TestATRFlatSeries(t *testing.T) {
	atr, err := ATR(flatCandles(50, 1.1), ATRPeriod)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if atr != 0 {
		t.Errorf("ATR плоской серии должен быть 0, получили %v", atr)
	}
}

func TestATRConstantRange(t *testing.T) {
	// Каждая свеча с диапазоном 0.010 и тем же закрытием: TR всегда 0.010
	candles := make([]types.Candle, 40)
	for i := range candles {
		candles[i] = types.Candle{Open: 1.1, High: 1.105, Low: 1.095, Close: 1.1}
	}
	atr, err := ATR(candles, ATRPeriod)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if math.Abs(atr-0.010) > 1e-9 {
		t.Errorf("ожидали ATR 0.010, получили %v", atr)
	}
}

func TestRSINotEnoughData(t *testing.T) {
	closes := make([]float64, RSIPeriod)
	_, err := RSI(closes, RSIPeriod)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("ожидали ErrNotEnoughData, получили %v", err)
	}
}

func TestRSIMonotonicRise(t *testing.T) {
	// Только рост: средняя потеря нулевая, RSI по определению 100
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 1.0 + float64(i)*0.001
	}
	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rsi != 100 {
		t.Errorf("ожидали RSI 100, получили %v", rsi)
	}
}

func TestRSIMonotonicFall(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 2.0 - float64(i)*0.001
	}
	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rsi != 0 {
		t.Errorf("ожидали RSI 0 при сплошном падении, получили %v", rsi)
	}
}

func TestRSIWithinBounds(t *testing.T) {
	closes := []float64{
		1.10, 1.11, 1.09, 1.12, 1.10, 1.13, 1.11, 1.14,
		1.12, 1.15, 1.13, 1.16, 1.14, 1.17, 1.15, 1.18,
		1.16, 1.15, 1.17, 1.14,
	}
	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if rsi < 0 || rsi > 100 {
		t.Errorf("RSI вне диапазона [0,100]: %v", rsi)
	}
}

func TestMACDNotEnoughData(t *testing.T) {
	closes := make([]float64, MACDSlow+MACDSignal-1)
	_, _, _, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if !errors.Is(err, ErrNotEnoughData) {
		t.Fatalf("ожидали ErrNotEnoughData, получили %v", err)
	}
}

func TestMACDFlatSeries(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 1.1
	}
	line, sig, hist, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	// Арифметика EMA оставляет остаток ~1e-16, сравниваем с допуском
	for name, v := range map[string]float64{"line": line, "signal": sig, "hist": hist} {
		if math.Abs(v) > 1e-9 {
			t.Errorf("на плоской серии компонент %s должен быть ~0, получили %v", name, v)
		}
	}
}

func TestMACDUptrendBullish(t *testing.T) {
	// Ускоряющийся рост: быстрая EMA выше медленной, линия выше сигнальной
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 1.0 + 0.0001*float64(i)*float64(i)
	}
	line, sig, hist, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if line <= 0 {
		t.Errorf("на ускоряющемся росте линия MACD должна быть > 0, получили %v", line)
	}
	if hist != line-sig {
		t.Errorf("гистограмма должна равняться line-sig, получили %v при %v-%v", hist, line, sig)
	}
	if line <= sig {
		t.Errorf("на ускоряющемся росте линия выше сигнальной, получили %v <= %v", line, sig)
	}
}
