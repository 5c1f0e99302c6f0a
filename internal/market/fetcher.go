// internal/market/fetcher.go
package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"forex-signal-bot/internal/types"
	"forex-signal-bot/pkg/logger"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
)

// ErrNoData - провайдер вернул пустую серию или индикаторы не посчитались.
// Для вызывающего это "нет данных", а не фатальная ошибка.
var ErrNoData = errors.New("no market data")

// Provider отдаёт свежий снапшот по отображаемому имени инструмента
type Provider interface {
	Fetch(ctx context.Context, symbol string) (types.Snapshot, error)
}

// YahooProvider - провайдер рыночных данных поверх Yahoo Finance:
// часовые свечи за lookback дней + индикаторы по всей серии
type YahooProvider struct {
	lookback time.Duration
}

// NewYahooProvider создает провайдер с глубиной истории в днях
func NewYahooProvider(lookbackDays int) *YahooProvider {
	return &YahooProvider{lookback: time.Duration(lookbackDays) * 24 * time.Hour}
}

// Fetch загружает часовую серию и собирает полный снапшот.
// Снапшот либо заполнен целиком, либо возвращается ErrNoData.
func (p *YahooProvider) Fetch(ctx context.Context, symbol string) (types.Snapshot, error) {
	providerSymbol, ok := ProviderSymbol(symbol)
	if !ok {
		return types.Snapshot{}, fmt.Errorf("unknown symbol %q", symbol)
	}

	if err := ctx.Err(); err != nil {
		return types.Snapshot{}, err
	}

	end := time.Now().UTC()
	start := end.Add(-p.lookback)

	params := &chart.Params{
		Symbol:   providerSymbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneHour,
	}

	iter := chart.Get(params)

	var candles []types.Candle
	for iter.Next() {
		b := iter.Bar()
		candles = append(candles, types.Candle{
			Timestamp: time.Unix(int64(b.Timestamp), 0).UTC(),
			Open:      b.Open.InexactFloat64(),
			High:      b.High.InexactFloat64(),
			Low:       b.Low.InexactFloat64(),
			Close:     b.Close.InexactFloat64(),
		})
	}
	if err := iter.Err(); err != nil {
		logger.Warn("⚠️ [Market] Ошибка загрузки %s (%s): %v", symbol, providerSymbol, err)
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}
	if len(candles) == 0 {
		logger.Warn("⚠️ [Market] Пустая серия для %s (%s)", symbol, providerSymbol)
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	// Базовая цена - закрытие последней свечи; котировка поверх неё,
	// если провайдер её отдал (часовой бар может отставать от рынка)
	price := candles[len(candles)-1].Close
	if q, err := quote.Get(providerSymbol); err == nil && q != nil && q.RegularMarketPrice > 0 {
		price = q.RegularMarketPrice
	}

	snapshot, err := buildSnapshot(symbol, price, candles)
	if err != nil {
		logger.Warn("⚠️ [Market] Индикаторы не посчитались для %s: %v", symbol, err)
		return types.Snapshot{}, fmt.Errorf("%w: %s", ErrNoData, symbol)
	}

	logger.Debug("📥 [Market] %s: %d свечей, цена %.5f", symbol, len(candles), price)
	return snapshot, nil
}

// buildSnapshot собирает снапшот из серии: диапазоны по четырём окнам
// и индикаторы. Любая ошибка индикатора бракует весь снапшот.
func buildSnapshot(symbol string, price float64, candles []types.Candle) (types.Snapshot, error) {
	last := candles[len(candles)-1].Timestamp

	weekHigh, weekLow := rangeSince(candles, last.Add(-7*24*time.Hour))
	dayHigh, dayLow := rangeSince(candles, last.Add(-24*time.Hour))
	h4High, h4Low := rangeSince(candles, last.Add(-4*time.Hour))
	h1High, h1Low := rangeSince(candles, last.Add(-1*time.Hour))

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	atr, err := ATR(candles, ATRPeriod)
	if err != nil {
		return types.Snapshot{}, err
	}
	rsi, err := RSI(closes, RSIPeriod)
	if err != nil {
		return types.Snapshot{}, err
	}
	macdLine, macdSig, macdHist, err := MACD(closes, MACDFast, MACDSlow, MACDSignal)
	if err != nil {
		return types.Snapshot{}, err
	}

	change1h := 0.0
	if len(candles) >= 2 {
		prev := candles[len(candles)-2].Close
		if prev != 0 {
			change1h = (price - prev) / prev * 100
		}
	}

	snap := types.Snapshot{
		Symbol:     symbol,
		Price:      price,
		Open:       candles[len(candles)-1].Open,
		Change1h:   change1h,
		WeekHigh:   weekHigh,
		WeekLow:    weekLow,
		DayHigh:    dayHigh,
		DayLow:     dayLow,
		H4High:     h4High,
		H4Low:      h4Low,
		H1High:     h1High,
		H1Low:      h1Low,
		ATR:        atr,
		RSI:        rsi,
		MACD:       macdLine,
		MACDSignal: macdSig,
		MACDHist:   macdHist,
	}

	if !snapshotFinite(snap) {
		return types.Snapshot{}, fmt.Errorf("non-finite values in snapshot for %s", symbol)
	}
	return snap, nil
}

// rangeSince возвращает high/low по свечам не старше since.
// Если окно пустое, берётся последняя свеча.
func rangeSince(candles []types.Candle, since time.Time) (high, low float64) {
	high = math.Inf(-1)
	low = math.Inf(1)
	found := false

	for _, c := range candles {
		if c.Timestamp.Before(since) {
			continue
		}
		found = true
		if c.High > high {
			high = c.High
		}
		if c.Low < low {
			low = c.Low
		}
	}

	if !found {
		last := candles[len(candles)-1]
		return last.High, last.Low
	}
	return high, low
}

func snapshotFinite(s types.Snapshot) bool {
	for _, v := range []float64{
		s.Price, s.Open, s.Change1h,
		s.WeekHigh, s.WeekLow, s.DayHigh, s.DayLow,
		s.H4High, s.H4Low, s.H1High, s.H1Low,
		s.ATR, s.RSI, s.MACD, s.MACDSignal, s.MACDHist,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
