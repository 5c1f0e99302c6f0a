// internal/types/types.go
package types

import "time"

// Candle - одна часовая свеча OHLC от провайдера рыночных данных
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
}

// Snapshot - срез рынка по одному инструменту: цена, диапазоны
// за четыре окна и значения индикаторов. Снапшот либо заполнен
// полностью, либо не сохраняется вовсе.
type Snapshot struct {
	Symbol   string  `json:"symbol"`
	Price    float64 `json:"price"`
	Open     float64 `json:"open"`
	Change1h float64 `json:"change_1h"` // изменение за час, %

	WeekHigh float64 `json:"week_high"`
	WeekLow  float64 `json:"week_low"`
	DayHigh  float64 `json:"day_high"`
	DayLow   float64 `json:"day_low"`
	H4High   float64 `json:"h4_high"`
	H4Low    float64 `json:"h4_low"`
	H1High   float64 `json:"h1_high"`
	H1Low    float64 `json:"h1_low"`

	ATR        float64 `json:"atr"`
	RSI        float64 `json:"rsi"`
	MACD       float64 `json:"macd"`
	MACDSignal float64 `json:"macd_signal"`
	MACDHist   float64 `json:"macd_hist"`
}

// AlertType - направление срабатывания алерта
type AlertType string

const (
	AlertAbove AlertType = "above"
	AlertBelow AlertType = "below"
)

// Alert - пороговый алерт пользователя. Сработавший алерт переходит
// в active=false ровно один раз и остаётся в истории до явного удаления.
type Alert struct {
	Symbol  string    `json:"symbol"`
	Type    AlertType `json:"type"`
	Price   float64   `json:"price"`
	Created time.Time `json:"created"`
	Active  bool      `json:"active"`
}

// Matches проверяет условие срабатывания по наблюдаемой цене
func (a Alert) Matches(price float64) bool {
	switch a.Type {
	case AlertAbove:
		return price >= a.Price
	case AlertBelow:
		return price <= a.Price
	default:
		return false
	}
}

// UserSettings - эффективные настройки чата (дефолты + переопределения)
type UserSettings struct {
	Timezone      string
	UpdateFreq    int // минуты, 15..1440
	Indicators    []string
	Notifications bool
	RiskAppetite  string
	Symbols       []string
}

// HasIndicator проверяет, включен ли индикатор
func (s UserSettings) HasIndicator(name string) bool {
	for _, ind := range s.Indicators {
		if ind == name {
			return true
		}
	}
	return false
}

// SettingsOverride - частичная запись настроек: присутствуют только
// явно установленные пользователем поля, остальные падают в дефолты
type SettingsOverride struct {
	Timezone      *string  `json:"timezone,omitempty"`
	UpdateFreq    *int     `json:"update_freq,omitempty"`
	Indicators    []string `json:"indicators,omitempty"`
	Notifications *bool    `json:"notifications,omitempty"`
	RiskAppetite  *string  `json:"risk_appetite,omitempty"`
	Symbols       []string `json:"symbols,omitempty"`
}

// Apply накладывает переопределения на базовую запись поле за полем
func (o SettingsOverride) Apply(base UserSettings) UserSettings {
	out := base
	if o.Timezone != nil {
		out.Timezone = *o.Timezone
	}
	if o.UpdateFreq != nil {
		out.UpdateFreq = *o.UpdateFreq
	}
	if len(o.Indicators) > 0 {
		out.Indicators = append([]string(nil), o.Indicators...)
	}
	if o.Notifications != nil {
		out.Notifications = *o.Notifications
	}
	if o.RiskAppetite != nil {
		out.RiskAppetite = *o.RiskAppetite
	}
	if len(o.Symbols) > 0 {
		out.Symbols = append([]string(nil), o.Symbols...)
	}
	return out
}
