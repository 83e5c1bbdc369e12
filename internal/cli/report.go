package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
	"tradedash/clients/backend"
	"tradedash/config"
	"tradedash/internal/view"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const reportHistoryRows = 10

var (
	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	reportBorderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#374151"))

	reportCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

func newReportCmd(logger *zap.Logger, cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print a one-shot performance report",
		RunE: func(cmd *cobra.Command, args []string) error {
			api := backend.NewBackendClient(logger, cfg)

			var stats *backend.Stats
			var positions *backend.Positions
			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				var err error
				stats, err = api.GetStats(gctx)
				return err
			})
			g.Go(func() error {
				var err error
				positions, err = api.GetPositions(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return err
			}

			writeReport(cmd.OutOrStdout(), stats, positions, time.Now())
			return nil
		},
	}
}

// writeReport prints the summary, the open positions, the most recent
// closed trades and a per-pair breakdown.
func writeReport(out io.Writer, stats *backend.Stats, positions *backend.Positions, now time.Time) {
	s := view.BuildStats(stats)

	fmt.Fprintln(out, sectionStyle.Render("Summary"))
	fmt.Fprintf(out, "  Portfolio:  %s (ROI %s)\n", s.Portfolio, s.ROI)
	fmt.Fprintf(out, "  Balance:    %s\n", s.Balance)
	fmt.Fprintf(out, "  Total PnL:  %s\n", s.TotalPnL)
	fmt.Fprintf(out, "  Unrealized: %s\n", s.Unrealized)
	fmt.Fprintf(out, "  Trades:     %d (%dW / %dL, win rate %s)\n", s.TotalTrades, s.Wins, s.Losses, s.WinRate)
	fmt.Fprintf(out, "  Best/Worst: %s / %s\n", s.BestTrade, s.WorstTrade)
	fmt.Fprintf(out, "  Avg hold:   %s\n", s.AvgDuration)

	p := view.BuildPositions(positions, "", now)

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Render(fmt.Sprintf("Open positions (%d)", p.OpenCount)))
	if p.OpenCount == 0 {
		fmt.Fprintln(out, "  "+view.NoOpenPositions)
	} else {
		rows := make([][]string, 0, len(p.Open))
		for _, r := range p.Open {
			rows = append(rows, []string{r.Symbol, r.Side, r.Entry, r.Current, r.Leverage, r.PnL + " (" + r.PnLPercent + ")", r.Duration})
		}
		fmt.Fprintln(out, reportTable([]string{"Symbol", "Side", "Entry", "Current", "Lev", "PnL", "Open for"}, rows))
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Render("Recent closed trades"))
	if len(positions.Closed) == 0 {
		fmt.Fprintln(out, "  "+view.NoClosedTrades)
		return
	}
	history := p.History
	if len(history) > reportHistoryRows {
		history = history[:reportHistoryRows]
	}
	rows := make([][]string, 0, len(history))
	for _, r := range history {
		rows = append(rows, []string{r.ClosedAt, r.Symbol, r.Side, r.Reason, r.PnL + " (" + r.PnLPercent + ")", r.Duration})
	}
	fmt.Fprintln(out, reportTable([]string{"Closed", "Symbol", "Side", "Reason", "PnL", "Held"}, rows))

	fmt.Fprintln(out)
	fmt.Fprintln(out, sectionStyle.Render("By pair"))
	summaries := view.BySymbol(positions.Closed)
	rows = make([][]string, 0, len(summaries))
	for _, sum := range summaries {
		rows = append(rows, []string{
			sum.Symbol,
			fmt.Sprintf("%d", sum.Trades),
			fmt.Sprintf("%.1f%%", sum.WinRate()),
			view.FormatCurrency(sum.PnL),
		})
	}
	fmt.Fprintln(out, reportTable([]string{"Pair", "Trades", "Win rate", "PnL"}, rows))
}

func reportTable(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(reportBorderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return reportCellStyle.Bold(true)
			}
			return reportCellStyle
		})
	return strings.TrimRight(t.Render(), "\n")
}
