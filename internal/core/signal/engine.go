// internal/core/signal/engine.go
package signal

import (
	"forex-signal-bot/internal/types"
)

// Классификации индикаторов
const (
	RSIOversold   = "OVERSOLD"
	RSINeutral    = "NEUTRAL"
	RSIOverbought = "OVERBOUGHT"

	MACDBullish = "BULLISH"
	MACDBearish = "BEARISH"
)

// Levels - уровни входа и выхода, считаются только при включенном ATR
type Levels struct {
	SafeBuy          float64
	AggressiveBuy    float64
	StopConservative float64
	StopModerate     float64
	TakeProfit1      float64
	TakeProfit2      float64
}

// Result - итог синтеза сигнала: уровни, классификации, рекомендация
type Result struct {
	Symbol     string
	Price      float64
	Support    float64
	Resistance float64

	Levels    *Levels // nil, если ATR выключен
	RSIState  string  // "", если RSI выключен
	MACDState string  // "", если MACD выключен

	Recommendation string
}

// коэффициенты риска по аппетиту
var riskFactors = map[string]float64{
	"low":    0.3,
	"medium": 0.5,
	"high":   0.7,
}

// RiskFactor возвращает коэффициент риска; неизвестный аппетит — 0.5
func RiskFactor(appetite string) float64 {
	if f, ok := riskFactors[appetite]; ok {
		return f
	}
	return 0.5
}

// ClassifyRSI - ступенчатая функция от значения RSI.
// Границы 30 и 70 относятся к NEUTRAL.
func ClassifyRSI(rsi float64) string {
	switch {
	case rsi < 30:
		return RSIOversold
	case rsi > 70:
		return RSIOverbought
	default:
		return RSINeutral
	}
}

// ClassifyMACD сравнивает линию MACD с сигнальной
func ClassifyMACD(line, sig float64) string {
	if line > sig {
		return MACDBullish
	}
	return MACDBearish
}

// Evaluate - чистая функция: (снапшот, настройки) → рекомендация.
// Никакого I/O и состояния; одинаковый вход — одинаковый выход.
func Evaluate(snap types.Snapshot, settings types.UserSettings) Result {
	res := Result{
		Symbol:     snap.Symbol,
		Price:      snap.Price,
		Support:    min(snap.H1Low, snap.H4Low),
		Resistance: max(snap.H1High, snap.H4High),
	}

	hasATR := settings.HasIndicator("ATR")
	hasRSI := settings.HasIndicator("RSI")
	hasMACD := settings.HasIndicator("MACD")

	if hasATR {
		rf := RiskFactor(settings.RiskAppetite)
		res.Levels = &Levels{
			SafeBuy:          res.Support - snap.ATR*rf,
			AggressiveBuy:    res.Support - snap.ATR*rf*0.5,
			StopConservative: res.Support - snap.ATR*1.5,
			StopModerate:     res.Support - snap.ATR,
			TakeProfit1:      snap.Price + snap.ATR*2,
			TakeProfit2:      res.Resistance,
		}
	}
	if hasRSI {
		res.RSIState = ClassifyRSI(snap.RSI)
	}
	if hasMACD {
		res.MACDState = ClassifyMACD(snap.MACD, snap.MACDSignal)
	}

	res.Recommendation = recommend(res, hasRSI, hasATR, hasMACD) + riskSuffix(settings.RiskAppetite)
	return res
}

// recommend применяет правила в фиксированном порядке приоритета,
// первое совпавшее выигрывает
func recommend(res Result, hasRSI, hasATR, hasMACD bool) string {
	if hasRSI && hasATR {
		switch {
		case res.Price <= res.Levels.SafeBuy && res.RSIState == RSIOversold:
			return "STRONG BUY"
		case res.Price >= res.Resistance && res.RSIState == RSIOverbought:
			return "SELL"
		case res.Price <= res.Levels.AggressiveBuy:
			return "BUY"
		}
	}
	if hasMACD {
		return res.MACDState
	}
	return "NEUTRAL"
}

// riskSuffix: для medium суффикса нет
func riskSuffix(appetite string) string {
	switch appetite {
	case "low":
		return " (Low Risk)"
	case "high":
		return " (High Risk)"
	default:
		return ""
	}
}
