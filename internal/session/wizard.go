package session

import "time"

// WizardTimeout is the inactivity window after which a wizard is considered
// abandoned. Checked lazily on the next interaction.
const WizardTimeout = 2 * time.Minute

// SetWizard moves the wizard to the given stage, refreshing the activity
// timestamp.
func (s *Session) SetWizard(stage Stage, attempts int) {
	s.Wizard = &Wizard{
		Stage:     stage,
		UpdatedAt: time.Now().UnixMilli(),
		Attempts:  attempts,
	}
}

// ClearWizard drops any active wizard.
func (s *Session) ClearWizard() {
	s.Wizard = nil
}

// Expired reports whether the wizard has been inactive longer than
// WizardTimeout as of now.
func (w *Wizard) Expired(now time.Time) bool {
	return now.UnixMilli()-w.UpdatedAt > WizardTimeout.Milliseconds()
}
