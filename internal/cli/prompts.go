package cli

import (
	"errors"
	"tradedash/internal/app"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// SurveyPrompter asks for notification permission on the terminal.
type SurveyPrompter struct{}

var _ app.Prompter = SurveyPrompter{}

func (SurveyPrompter) AskNotificationPermission() (bool, error) {
	allow := false
	prompt := &survey.Confirm{
		Message: "Enable system notifications for closed positions and bot events?",
		Help:    "Notifications are delivered to the configured Discord/Telegram channels while the dashboard is not focused",
		Default: true,
	}

	if err := survey.AskOne(prompt, &allow); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return false, app.ErrPromptDismissed
		}
		return false, err
	}
	return allow, nil
}
