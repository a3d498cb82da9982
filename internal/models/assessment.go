package models

import "time"

// ScenarioKind names a threat pattern the correlation engine watches for.
type ScenarioKind string

const (
	ScenarioFire       ScenarioKind = "fire"
	ScenarioIntrusion  ScenarioKind = "intrusion"
	ScenarioFall       ScenarioKind = "fall"
	ScenarioSuspicious ScenarioKind = "suspicious"
)

// ScenarioKinds lists all scenarios in fixed priority order. Severity
// ranking for tie-breaks: fire > intrusion > fall > suspicious.
var ScenarioKinds = []ScenarioKind{
	ScenarioFire,
	ScenarioIntrusion,
	ScenarioFall,
	ScenarioSuspicious,
}

// scenarioRank is the fixed severity ranking used for tie-breaks between
// simultaneously active scenarios.
var scenarioRank = map[ScenarioKind]int{
	ScenarioFire:       4,
	ScenarioIntrusion:  3,
	ScenarioFall:       2,
	ScenarioSuspicious: 1,
}

// Rank returns the scenario's position in the fixed severity ranking.
func (k ScenarioKind) Rank() int {
	return scenarioRank[k]
}

// Valid reports whether k is a known scenario kind.
func (k ScenarioKind) Valid() bool {
	_, ok := scenarioRank[k]
	return ok
}

// Level maps a scenario kind to the threat level it contributes while at or
// above SUSPECTED. Fire and intrusion are life-safety critical, a confirmed
// fall is high, suspicious activity is medium.
func (k ScenarioKind) Level() ThreatLevel {
	switch k {
	case ScenarioFire, ScenarioIntrusion:
		return LevelCritical
	case ScenarioFall:
		return LevelHigh
	case ScenarioSuspicious:
		return LevelMedium
	default:
		return LevelNone
	}
}

// ScenarioStatus is a scenario state machine position. Transitions only move
// forward (NONE -> SUSPECTED -> CONFIRMED -> ESCALATED -> RESOLVED) and reset
// to NONE only from RESOLVED.
type ScenarioStatus string

const (
	StatusNone      ScenarioStatus = "NONE"
	StatusSuspected ScenarioStatus = "SUSPECTED"
	StatusConfirmed ScenarioStatus = "CONFIRMED"
	StatusEscalated ScenarioStatus = "ESCALATED"
	StatusResolved  ScenarioStatus = "RESOLVED"
)

// statusOrder positions statuses along the forward-only path.
var statusOrder = map[ScenarioStatus]int{
	StatusNone:      0,
	StatusSuspected: 1,
	StatusConfirmed: 2,
	StatusEscalated: 3,
	StatusResolved:  4,
}

// Order returns the status position on the forward-only transition path.
func (s ScenarioStatus) Order() int {
	return statusOrder[s]
}

// Active reports whether the status contributes to the session threat level.
func (s ScenarioStatus) Active() bool {
	return s == StatusSuspected || s == StatusConfirmed || s == StatusEscalated
}

// ScenarioState is the engine-owned state for one (session, scenario) pair.
type ScenarioState struct {
	Kind             ScenarioKind   `json:"kind"`
	Status           ScenarioStatus `json:"status"`
	LastTransitionAt time.Time      `json:"last_transition_at,omitempty"`
	// Evidence holds record ids supporting the current status, deduplicated
	// and sorted.
	Evidence []string `json:"evidence,omitempty"`
	// LadderStep is the last escalation ladder step issued (0 = none).
	LadderStep int `json:"ladder_step,omitempty"`
}

// ActionKind names an escalation intent emitted to notifier consumers.
// call_911 and evacuation_alert are immediate, non-debounced signals;
// check_in_prompt and notify_contact are advisory.
type ActionKind string

const (
	ActionCheckInPrompt   ActionKind = "check_in_prompt"
	ActionNotifyContact   ActionKind = "notify_contact"
	ActionCall911         ActionKind = "call_911"
	ActionEvacuationAlert ActionKind = "evacuation_alert"
	ActionLogOnly         ActionKind = "log_only"
)

// EscalationAction is one escalation intent tied to a scenario.
type EscalationAction struct {
	Kind     ActionKind   `json:"kind"`
	Scenario ScenarioKind `json:"scenario_kind"`
	IssuedAt time.Time    `json:"issued_at"`
}

// ThreatAssessment is the output of one correlation evaluation cycle that
// changed scenario state, or of an escalation ladder step firing.
type ThreatAssessment struct {
	ID          string             `json:"id"`
	SessionID   string             `json:"session_id"`
	EvaluatedAt time.Time          `json:"evaluated_at"`
	ThreatLevel ThreatLevel        `json:"threat_level"`
	Reasoning   string             `json:"reasoning"`
	Degraded    bool               `json:"degraded,omitempty"`
	Evidence    []string           `json:"evidence,omitempty"`
	Actions     []EscalationAction `json:"actions,omitempty"`
	Scenarios   []ScenarioState    `json:"scenarios,omitempty"`
}
