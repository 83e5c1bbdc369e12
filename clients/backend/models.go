package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---- API types (fields mirror the trading bot's JSON) ----

// Stats is the portfolio snapshot returned by /api/stats.
type Stats struct {
	TotalPortfolioValue decimal.Decimal `json:"total_portfolio_value"`
	CurrentBalance      decimal.Decimal `json:"current_balance"`
	InitialBalance      decimal.Decimal `json:"initial_balance"`
	ROI                 float64         `json:"roi"`

	TotalTrades     int             `json:"total_trades"`
	Wins            int             `json:"wins"`
	Losses          int             `json:"losses"`
	WinRate         float64         `json:"win_rate"`
	TotalPnL        decimal.Decimal `json:"total_pnl"`
	TotalPnLPercent float64         `json:"total_pnl_percent"`

	AvgWin     decimal.Decimal `json:"avg_win"`
	AvgLoss    decimal.Decimal `json:"avg_loss"`
	BestTrade  decimal.Decimal `json:"best_trade"`
	WorstTrade decimal.Decimal `json:"worst_trade"`

	OpenPositions      int             `json:"open_positions"`
	OpenPositionsValue decimal.Decimal `json:"open_positions_value"`
	UnrealizedPnL      decimal.Decimal `json:"unrealized_pnl"`
	AvgTradeDuration   float64         `json:"avg_trade_duration"` // hours
}

// PortfolioValue returns the total portfolio value, falling back to the
// free balance when the backend did not report one.
func (s *Stats) PortfolioValue() decimal.Decimal {
	if !s.TotalPortfolioValue.IsZero() {
		return s.TotalPortfolioValue
	}
	return s.CurrentBalance
}

// CloseReason is why a position left the open set.
type CloseReason string

const (
	CloseReasonTargetHit  CloseReason = "TP_HIT"
	CloseReasonStopHit    CloseReason = "SL_HIT"
	CloseReasonLiquidated CloseReason = "LIQUIDATED"
)

// Position is an open or closed paper trading position.
type Position struct {
	ID           string          `json:"id"`
	Symbol       string          `json:"symbol"`
	Type         string          `json:"type"` // LONG or SHORT
	EntryPrice   decimal.Decimal `json:"entry_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	ExitPrice    decimal.Decimal `json:"exit_price"`
	TargetPrice  decimal.Decimal `json:"tp"`
	StopPrice    decimal.Decimal `json:"sl"`
	SizeUSDT     decimal.Decimal `json:"size_usdt"`
	MarginUSDT   decimal.Decimal `json:"margin_usdt"`
	Leverage     float64         `json:"leverage"`

	PnLUSDT            decimal.Decimal     `json:"pnl_usdt"`
	PnLPercent         decimal.NullDecimal `json:"pnl_percent"`
	PnLPercentOnMargin decimal.NullDecimal `json:"pnl_percent_on_margin"`

	OpenedAt      Timestamp   `json:"opened_at"`
	ClosedAt      Timestamp   `json:"closed_at"`
	CloseReason   CloseReason `json:"close_reason"`
	DurationHours float64     `json:"duration_hours"`
}

// PnLPercentValue returns the percentage shown for a position: the
// margin-relative figure when present and non-zero, otherwise the
// price-relative figure when present and non-zero, otherwise zero.
func (p *Position) PnLPercentValue() decimal.Decimal {
	if p.PnLPercentOnMargin.Valid && !p.PnLPercentOnMargin.Decimal.IsZero() {
		return p.PnLPercentOnMargin.Decimal
	}
	if p.PnLPercent.Valid && !p.PnLPercent.Decimal.IsZero() {
		return p.PnLPercent.Decimal
	}
	return decimal.Zero
}

// LeverageValue returns the position leverage, 1 when unset.
func (p *Position) LeverageValue() float64 {
	if p.Leverage == 0 {
		return 1
	}
	return p.Leverage
}

// Positions is the /api/positions payload.
type Positions struct {
	Open   []Position `json:"open"`
	Closed []Position `json:"closed"`
}

// BotStatus is the /api/bot/status payload.
type BotStatus struct {
	Running              bool     `json:"running"`
	PaperTradingEnabled  bool     `json:"paper_trading_enabled"`
	Symbols              []string `json:"symbols"`
	Timeframe            string   `json:"timeframe"`
	CheckIntervalMinutes int      `json:"check_interval"`
}

// ActionResult is returned by the start and stop endpoints.
type ActionResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TradingConfig is the read-only /api/config mirror.
type TradingConfig struct {
	Symbols              []string           `json:"symbols"`
	Timeframe            string             `json:"timeframe"`
	CheckIntervalMinutes int                `json:"check_interval"`
	MinConfidenceScore   float64            `json:"min_confidence_score"`
	MinRiskReward        float64            `json:"min_risk_reward"`
	PaperTrading         PaperTradingConfig `json:"paper_trading"`
	TradingHours         TradingHoursConfig `json:"trading_hours"`
}

// PaperTradingConfig holds the simulated trading parameters.
type PaperTradingConfig struct {
	Enabled             bool            `json:"enabled"`
	InitialBalance      decimal.Decimal `json:"initial_balance"`
	PositionSizePercent float64         `json:"position_size_percent"`
	MaxPositions        int             `json:"max_positions"`
	Leverage            float64         `json:"leverage"`
	TrailingStop        bool            `json:"trailing_stop"`
	FixedTP             bool            `json:"fixed_tp"`
	TrailingTP          bool            `json:"trailing_tp"`
}

// TradingHoursConfig is the trading window. Days use 0=Monday .. 6=Sunday.
type TradingHoursConfig struct {
	Enabled bool  `json:"enabled"`
	Start   int   `json:"start"`
	End     int   `json:"end"`
	Days    []int `json:"days"`
}

// Logs is the /api/logs payload.
type Logs struct {
	Lines []string `json:"logs"`
}

// CSVExport is a successful trades export.
type CSVExport struct {
	ContentType string
	Data        []byte
}

// ExportError is returned when the backend refuses an export. Message is
// the text to show the user.
type ExportError struct {
	StatusCode int
	Message    string
}

func (e *ExportError) Error() string {
	return e.Message
}

// Timestamp accepts RFC 3339 and the naive ISO form Python's
// datetime.isoformat() produces (interpreted in local time).
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range naiveLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}
