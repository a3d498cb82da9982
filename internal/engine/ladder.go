package engine

import (
	"time"

	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/models"
)

// ladderStep is one rung of an escalation ladder: the action issued when the
// step is reached, and how long to wait (unacknowledged) before the next.
// A zero nextDelay marks the final step.
type ladderStep struct {
	action    models.ActionKind
	nextDelay time.Duration
}

// ladderFor returns the escalation ladder for a scenario kind. Fire and
// intrusion escalate in a single immediate step and have no ladder; fall and
// suspicious walk a timed sequence cancelled by acknowledgment.
func ladderFor(kind models.ScenarioKind, tuning config.Tuning) []ladderStep {
	switch kind {
	case models.ScenarioFall:
		return []ladderStep{
			{action: models.ActionCheckInPrompt, nextDelay: tuning.FallCheckInDelay},
			{action: models.ActionNotifyContact, nextDelay: tuning.FallNotifyDelay},
			{action: models.ActionCall911},
		}
	case models.ScenarioSuspicious:
		return []ladderStep{
			{action: models.ActionNotifyContact, nextDelay: tuning.SuspiciousAlertDelay},
			{action: models.ActionCall911},
		}
	default:
		return nil
	}
}

// immediateActions returns the actions issued on the transition into
// CONFIRMED for single-step scenarios.
func immediateActions(kind models.ScenarioKind) []models.ActionKind {
	switch kind {
	case models.ScenarioFire:
		return []models.ActionKind{models.ActionCall911, models.ActionEvacuationAlert}
	case models.ScenarioIntrusion:
		return []models.ActionKind{models.ActionCall911}
	default:
		return nil
	}
}
