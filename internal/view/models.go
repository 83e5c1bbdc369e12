package view

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"tradedash/clients/backend"

	"github.com/shopspring/decimal"
)

// Placeholder texts for empty regions.
const (
	NoOpenPositions = "No open positions"
	NoClosedTrades  = "No closed trades"
	NoLogs          = "No logs available"
)

// Bot status labels.
const (
	StatusRunning = "Running"
	StatusStopped = "Stopped"
)

// StatsView is the rendered stats panel.
type StatsView struct {
	Portfolio       string `json:"portfolio"`
	PortfolioChange string `json:"portfolio_change"`
	ROI             string `json:"roi"`
	ROIClass        string `json:"roi_class"`
	Balance         string `json:"balance"`
	TotalTrades     int    `json:"total_trades"`
	WinRate         string `json:"win_rate"`
	TotalPnL        string `json:"total_pnl"`
	TotalPnLClass   string `json:"total_pnl_class"`

	Wins          int    `json:"wins"`
	Losses        int    `json:"losses"`
	AvgWin        string `json:"avg_win"`
	AvgLoss       string `json:"avg_loss"`
	BestTrade     string `json:"best_trade"`
	WorstTrade    string `json:"worst_trade"`
	Unrealized    string `json:"unrealized"`
	UnrealizedCls string `json:"unrealized_class"`
	OpenPositions int    `json:"open_positions"`
	AvgDuration   string `json:"avg_duration"`
}

// BuildStats formats a stats snapshot.
func BuildStats(s *backend.Stats) StatsView {
	return StatsView{
		Portfolio:       FormatCurrency(s.PortfolioValue()),
		PortfolioChange: FormatPercent(s.ROI),
		ROI:             FormatPercent(s.ROI),
		ROIClass:        PnLClassFloat(s.ROI),
		Balance:         FormatCurrency(s.CurrentBalance),
		TotalTrades:     s.TotalTrades,
		WinRate:         fmt.Sprintf("%.1f%%", s.WinRate),
		TotalPnL:        FormatCurrency(s.TotalPnL),
		TotalPnLClass:   PnLClass(s.TotalPnL),

		Wins:          s.Wins,
		Losses:        s.Losses,
		AvgWin:        FormatCurrency(s.AvgWin),
		AvgLoss:       FormatCurrency(s.AvgLoss),
		BestTrade:     FormatCurrency(s.BestTrade),
		WorstTrade:    FormatCurrency(s.WorstTrade),
		Unrealized:    FormatCurrency(s.UnrealizedPnL),
		UnrealizedCls: PnLClass(s.UnrealizedPnL),
		OpenPositions: s.OpenPositions,
		AvgDuration:   ClosedDuration(s.AvgTradeDuration),
	}
}

// OpenRow is one row of the open positions table. When Placeholder is set
// the row is a spanning "empty" row and every other field is blank.
type OpenRow struct {
	Placeholder string `json:"placeholder,omitempty"`

	Symbol     string `json:"symbol,omitempty"`
	Side       string `json:"side,omitempty"`
	Entry      string `json:"entry,omitempty"`
	Current    string `json:"current,omitempty"`
	Target     string `json:"target,omitempty"`
	Stop       string `json:"stop,omitempty"`
	Size       string `json:"size,omitempty"`
	Leverage   string `json:"leverage,omitempty"`
	PnL        string `json:"pnl,omitempty"`
	PnLPercent string `json:"pnl_percent,omitempty"`
	PnLClass   string `json:"pnl_class,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Link       string `json:"link,omitempty"`
}

// HistoryRow is one row of the closed trades table.
type HistoryRow struct {
	Placeholder string `json:"placeholder,omitempty"`

	ClosedAt   string `json:"closed_at,omitempty"`
	Symbol     string `json:"symbol,omitempty"`
	Side       string `json:"side,omitempty"`
	Entry      string `json:"entry,omitempty"`
	Exit       string `json:"exit,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Size       string `json:"size,omitempty"`
	Leverage   string `json:"leverage,omitempty"`
	PnL        string `json:"pnl,omitempty"`
	PnLPercent string `json:"pnl_percent,omitempty"`
	PnLClass   string `json:"pnl_class,omitempty"`
	Duration   string `json:"duration,omitempty"`
	Link       string `json:"link,omitempty"`
}

// PositionsView holds both position tables.
type PositionsView struct {
	OpenCount int          `json:"open_count"`
	Open      []OpenRow    `json:"open"`
	History   []HistoryRow `json:"history"`
}

// BuildPositions formats the position lists. History is rendered most
// recent first, i.e. the reverse of the input order. The input is not
// modified.
func BuildPositions(p *backend.Positions, linkTemplate string, now time.Time) PositionsView {
	v := PositionsView{OpenCount: len(p.Open)}

	if len(p.Open) == 0 {
		v.Open = []OpenRow{{Placeholder: NoOpenPositions}}
	} else {
		v.Open = make([]OpenRow, 0, len(p.Open))
		for i := range p.Open {
			v.Open = append(v.Open, buildOpenRow(&p.Open[i], linkTemplate, now))
		}
	}

	if len(p.Closed) == 0 {
		v.History = []HistoryRow{{Placeholder: NoClosedTrades}}
	} else {
		v.History = make([]HistoryRow, 0, len(p.Closed))
		for i := len(p.Closed) - 1; i >= 0; i-- {
			v.History = append(v.History, buildHistoryRow(&p.Closed[i], linkTemplate))
		}
	}

	return v
}

func buildOpenRow(pos *backend.Position, linkTemplate string, now time.Time) OpenRow {
	return OpenRow{
		Symbol:     pos.Symbol,
		Side:       pos.Type,
		Entry:      FormatPrice(pos.EntryPrice, 4),
		Current:    FormatPrice(pos.CurrentPrice, 4),
		Target:     FormatPrice(pos.TargetPrice, 4),
		Stop:       FormatPrice(pos.StopPrice, 4),
		Size:       FormatPrice(pos.SizeUSDT, 2),
		Leverage:   FormatLeverage(pos.LeverageValue()),
		PnL:        FormatCurrency(pos.PnLUSDT),
		PnLPercent: FormatPercentDecimal(pos.PnLPercentValue()),
		PnLClass:   PnLClass(pos.PnLUSDT),
		Duration:   OpenDuration(pos.OpenedAt.Time, now),
		Link:       ExchangeLink(linkTemplate, pos.Symbol),
	}
}

func buildHistoryRow(pos *backend.Position, linkTemplate string) HistoryRow {
	return HistoryRow{
		ClosedAt:   FormatTimestamp(pos.ClosedAt.Time),
		Symbol:     pos.Symbol,
		Side:       pos.Type,
		Entry:      FormatPrice(pos.EntryPrice, 4),
		Exit:       FormatPrice(pos.ExitPrice, 4),
		Reason:     CloseReasonIcon(string(pos.CloseReason)) + " " + string(pos.CloseReason),
		Size:       FormatPrice(pos.SizeUSDT, 2),
		Leverage:   FormatLeverage(pos.LeverageValue()),
		PnL:        FormatCurrency(pos.PnLUSDT),
		PnLPercent: FormatPercentDecimal(pos.PnLPercentValue()),
		PnLClass:   PnLClass(pos.PnLUSDT),
		Duration:   ClosedDuration(pos.DurationHours),
		Link:       ExchangeLink(linkTemplate, pos.Symbol),
	}
}

// BotStatusView drives the status badge and the two exclusive controls.
type BotStatusView struct {
	Running      bool   `json:"running"`
	Label        string `json:"label"`
	Class        string `json:"class"`
	StartEnabled bool   `json:"start_enabled"`
	StopEnabled  bool   `json:"stop_enabled"`
}

func BuildBotStatus(s *backend.BotStatus) BotStatusView {
	if s.Running {
		return BotStatusView{Running: true, Label: StatusRunning, Class: "running", StopEnabled: true}
	}
	return BotStatusView{Label: StatusStopped, Class: "stopped", StartEnabled: true}
}

// Field is a labelled value of the config panel.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section groups config fields under a heading.
type Section struct {
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// ConfigView is the read-only config panel.
type ConfigView struct {
	Sections []Section `json:"sections"`
}

func BuildConfig(c *backend.TradingConfig) ConfigView {
	pt := c.PaperTrading
	hours := c.TradingHours

	return ConfigView{Sections: []Section{
		{
			Title: "Trading",
			Fields: []Field{
				{"Symbols", strings.Join(c.Symbols, ", ")},
				{"Timeframe", c.Timeframe},
				{"Check interval", fmt.Sprintf("%d min", c.CheckIntervalMinutes)},
				{"Min score", FormatNumber(c.MinConfidenceScore)},
				{"Min R:R", "1:" + FormatNumber(c.MinRiskReward)},
			},
		},
		{
			Title: "Paper trading",
			Fields: []Field{
				{"Enabled", YesNo(pt.Enabled)},
				{"Initial balance", FormatCurrency(pt.InitialBalance)},
				{"Position size", FormatNumber(pt.PositionSizePercent) + "%"},
				{"Max positions", fmt.Sprintf("%d", pt.MaxPositions)},
				{"Leverage", FormatLeverage(pt.Leverage)},
				{"Trailing stop", YesNo(pt.TrailingStop)},
				{"Fixed TP", YesNo(pt.FixedTP)},
				{"Trailing TP", YesNo(pt.TrailingTP)},
			},
		},
		{
			Title: "Trading hours",
			Fields: []Field{
				{"Enabled", YesNo(hours.Enabled)},
				{"Window", fmt.Sprintf("%dh - %dh", hours.Start, hours.End)},
				{"Days", DayNames(hours.Days)},
			},
		},
	}}
}

// LogsView holds trimmed log lines, or a placeholder when there are none.
type LogsView struct {
	Lines       []string `json:"lines,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
}

func BuildLogs(l *backend.Logs) LogsView {
	if len(l.Lines) == 0 {
		return LogsView{Placeholder: NoLogs}
	}
	lines := make([]string, len(l.Lines))
	for i, line := range l.Lines {
		lines[i] = strings.TrimSpace(line)
	}
	return LogsView{Lines: lines}
}

// SymbolSummary aggregates closed trades of one pair.
type SymbolSummary struct {
	Symbol string
	Trades int
	Wins   int
	PnL    decimal.Decimal
}

// WinRate is the percentage of winning trades.
func (s SymbolSummary) WinRate() float64 {
	if s.Trades == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Trades) * 100
}

// BySymbol groups closed trades per pair, sorted by PnL descending. Ties
// keep first-seen order.
func BySymbol(closed []backend.Position) []SymbolSummary {
	index := map[string]int{}
	var out []SymbolSummary
	for _, pos := range closed {
		i, ok := index[pos.Symbol]
		if !ok {
			i = len(out)
			index[pos.Symbol] = i
			out = append(out, SymbolSummary{Symbol: pos.Symbol})
		}
		out[i].Trades++
		if pos.PnLUSDT.IsPositive() {
			out[i].Wins++
		}
		out[i].PnL = out[i].PnL.Add(pos.PnLUSDT)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].PnL.GreaterThan(out[j].PnL) })
	return out
}
