// internal/market/symbols.go
package market

import "strings"

// Таблица инструментов: отображаемое имя → символ провайдера (Yahoo Finance)
var instruments = map[string]string{
	"EUR/USD": "EURUSD=X",
	"GBP/USD": "GBPUSD=X",
	"USD/JPY": "USDJPY=X",
	"USD/CHF": "USDCHF=X",
	"AUD/USD": "AUDUSD=X",
	"NZD/USD": "NZDUSD=X",
	"USD/CAD": "USDCAD=X",
	"XAU/USD": "GC=F",
}

// Порядок для клавиатур и списков
var instrumentOrder = []string{
	"EUR/USD", "GBP/USD", "USD/JPY", "USD/CHF",
	"AUD/USD", "NZD/USD", "USD/CAD", "XAU/USD",
}

// AllSymbols возвращает все известные инструменты в фиксированном порядке
func AllSymbols() []string {
	return append([]string(nil), instrumentOrder...)
}

// ProviderSymbol возвращает символ провайдера для отображаемого имени
func ProviderSymbol(symbol string) (string, bool) {
	ps, ok := instruments[symbol]
	return ps, ok
}

// IsKnownSymbol проверяет, есть ли инструмент в таблице
func IsKnownSymbol(symbol string) bool {
	_, ok := instruments[symbol]
	return ok
}

// ParseSymbols разбирает пользовательский ввод: список через запятую,
// пробелы обрезаются, регистр приводится к верхнему, неизвестные
// инструменты молча отбрасываются
func ParseSymbols(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		if IsKnownSymbol(symbol) {
			out = append(out, symbol)
		}
	}
	return out
}
