package display

import (
	"tradedash/clients/notifier"
	"tradedash/internal/view"

	"github.com/charmbracelet/lipgloss"
)

// Terminal styles
var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Background(lipgloss.Color("#1F2937")).
		Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6"))

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	mutedStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280")).
		Italic(true)

	positiveStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	negativeStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	warningStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	infoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6"))

	runningBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#10B981")).
		Padding(0, 1)

	stoppedBadge = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#EF4444")).
		Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#F9FAFB")).
		Background(lipgloss.Color("#374151")).
		Padding(0, 1)

	disabledButtonStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#4B5563")).
		Background(lipgloss.Color("#1F2937")).
		Padding(0, 1)

	toastStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1).
		Width(48)

	tableBorderStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#374151"))

	tableHeaderStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#9CA3AF")).
		Padding(0, 1)

	tableCellStyle = lipgloss.NewStyle().
		Padding(0, 1)
)

// pnlStyle picks the color for a PnL class.
func pnlStyle(class string) lipgloss.Style {
	if class == view.ClassNegative {
		return negativeStyle
	}
	return positiveStyle
}

func categoryStyle(c notifier.Category) lipgloss.Style {
	switch c {
	case notifier.CategorySuccess:
		return positiveStyle
	case notifier.CategoryError:
		return negativeStyle
	case notifier.CategoryWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

func categoryBorder(c notifier.Category) lipgloss.Color {
	switch c {
	case notifier.CategorySuccess:
		return lipgloss.Color("#10B981")
	case notifier.CategoryError:
		return lipgloss.Color("#EF4444")
	case notifier.CategoryWarning:
		return lipgloss.Color("#F59E0B")
	default:
		return lipgloss.Color("#3B82F6")
	}
}
