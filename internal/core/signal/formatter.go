// internal/core/signal/formatter.go
package signal

import (
	"fmt"
	"strings"
	"time"

	"forex-signal-bot/internal/types"
)

// FormatUpdate собирает HTML-сообщение для одного инструмента:
// диапазоны, индикаторы, ключевые уровни, зоны и рекомендация.
// Время печатается в часовом поясе пользователя.
func FormatUpdate(snap types.Snapshot, res Result, settings types.UserSettings) string {
	loc, err := time.LoadLocation(settings.Timezone)
	if err != nil {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>%s</b> — %s\n", snap.Symbol, fp(snap.Price))
	fmt.Fprintf(&b, "🕒 %s\n\n", now.Format("2006-01-02 15:04 MST"))

	b.WriteString("📈 <b>Ranges</b>\n")
	fmt.Fprintf(&b, "Weekly: %s – %s\n", fp(snap.WeekLow), fp(snap.WeekHigh))
	fmt.Fprintf(&b, "Daily: %s – %s\n", fp(snap.DayLow), fp(snap.DayHigh))
	fmt.Fprintf(&b, "4H: %s – %s\n", fp(snap.H4Low), fp(snap.H4High))
	fmt.Fprintf(&b, "1H: %s – %s\n\n", fp(snap.H1Low), fp(snap.H1High))

	fmt.Fprintf(&b, "Δ1H: %+.2f%%", snap.Change1h)
	if pos, ok := dayRangePosition(snap); ok {
		fmt.Fprintf(&b, " | Day range: %.0f%%", pos)
	}
	b.WriteString("\n\n")

	b.WriteString("🧭 <b>Indicators</b>\n")
	if res.RSIState != "" {
		fmt.Fprintf(&b, "%s RSI(14): %.1f — %s\n", rsiIcon(res.RSIState), snap.RSI, res.RSIState)
	}
	if settings.HasIndicator("ATR") {
		fmt.Fprintf(&b, "📏 ATR(14): %s\n", fp(snap.ATR))
	}
	if res.MACDState != "" {
		fmt.Fprintf(&b, "%s MACD: %s / %s — %s\n", macdIcon(res.MACDState), fp(snap.MACD), fp(snap.MACDSignal), res.MACDState)
	}
	b.WriteString("\n")

	b.WriteString("🔑 <b>Key Levels</b>\n")
	fmt.Fprintf(&b, "Support: %s | Resistance: %s\n\n", fp(res.Support), fp(res.Resistance))

	if res.Levels != nil {
		b.WriteString("🟢 <b>Buy Zones</b>\n")
		fmt.Fprintf(&b, "Safe: %s | Aggressive: %s\n\n", fp(res.Levels.SafeBuy), fp(res.Levels.AggressiveBuy))

		b.WriteString("🛑 <b>Stop Loss</b>\n")
		fmt.Fprintf(&b, "Conservative: %s | Moderate: %s\n\n", fp(res.Levels.StopConservative), fp(res.Levels.StopModerate))

		b.WriteString("🎯 <b>Take Profit</b>\n")
		fmt.Fprintf(&b, "TP1: %s | TP2: %s\n\n", fp(res.Levels.TakeProfit1), fp(res.Levels.TakeProfit2))
	}

	fmt.Fprintf(&b, "💡 <b>Recommendation: %s</b>", res.Recommendation)
	return b.String()
}

// FormatAlertFired собирает уведомление о сработавшем алерте
func FormatAlertFired(alert types.Alert, firedPrice float64) string {
	direction := "rose above"
	if alert.Type == types.AlertBelow {
		direction = "fell below"
	}
	return fmt.Sprintf("🚨 <b>Alert triggered!</b>\n\n%s %s %s\nCurrent price: %s",
		alert.Symbol, direction, fp(alert.Price), fp(firedPrice))
}

// FormatAlertList рендерит список алертов чата для меню
func FormatAlertList(alerts []types.Alert) string {
	if len(alerts) == 0 {
		return "🔔 <b>Alerts</b>\n\nNo alerts yet. Use ➕ New Alert to create one."
	}

	var b strings.Builder
	b.WriteString("🔔 <b>Alerts</b>\n\n")
	for i, a := range alerts {
		status := "ACTIVE"
		if !a.Active {
			status = "TRIGGERED"
		}
		fmt.Fprintf(&b, "%d. %s %s %s (%s)\n", i+1, a.Symbol, strings.ToUpper(string(a.Type)), fp(a.Price), status)
	}
	return b.String()
}

// FormatSettings рендерит текущие эффективные настройки чата
func FormatSettings(settings types.UserSettings) string {
	notif := "on"
	if !settings.Notifications {
		notif = "off"
	}
	var b strings.Builder
	b.WriteString("⚙️ <b>Settings</b>\n\n")
	fmt.Fprintf(&b, "1. Timezone: %s\n", settings.Timezone)
	fmt.Fprintf(&b, "2. Frequency: %d min\n", settings.UpdateFreq)
	fmt.Fprintf(&b, "3. Indicators: %s\n", strings.Join(settings.Indicators, ", "))
	fmt.Fprintf(&b, "4. Risk: %s\n", settings.RiskAppetite)
	fmt.Fprintf(&b, "5. Notifications: %s\n", notif)
	fmt.Fprintf(&b, "6. Symbols: %s", strings.Join(settings.Symbols, ", "))
	return b.String()
}

// fp печатает цену: форекс-пары с пятью знаками, золото — с двумя
func fp(v float64) string {
	if v >= 100 || v <= -100 {
		return fmt.Sprintf("%.2f", v)
	}
	return fmt.Sprintf("%.5f", v)
}

// dayRangePosition - положение цены в дневном диапазоне, %
func dayRangePosition(snap types.Snapshot) (float64, bool) {
	span := snap.DayHigh - snap.DayLow
	if span <= 0 {
		return 0, false
	}
	return (snap.Price - snap.DayLow) / span * 100, true
}

func rsiIcon(state string) string {
	switch state {
	case RSIOversold:
		return "🟢"
	case RSIOverbought:
		return "🔴"
	default:
		return "⚪"
	}
}

func macdIcon(state string) string {
	if state == MACDBullish {
		return "📈"
	}
	return "📉"
}
