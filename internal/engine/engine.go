// Package engine implements the threat correlation engine: per-session
// evaluation of insight records against scenario state machines, with
// timer-driven escalation ladders.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hearthwatch/hearthwatch/internal/config"
	"github.com/hearthwatch/hearthwatch/internal/metrics"
	"github.com/hearthwatch/hearthwatch/internal/models"
)

// RecordSource is the slice of the temporal store the engine reads. The
// engine never writes records.
type RecordSource interface {
	QueryByTimeRange(sessionID, sourceID string, start, end float64) []models.InsightRecord
	LatestTimestamp(sessionID string) (float64, bool)
}

// AssessmentFunc receives emitted threat assessments. Subscribers are called
// synchronously in emission order for a session and must not block.
type AssessmentFunc func(models.ThreatAssessment)

// Engine owns all ScenarioState and produces ThreatAssessments. One engine
// serves all sessions; evaluation is strictly serialized within a session
// and fully parallel across sessions.
type Engine struct {
	source RecordSource
	tuning config.Tuning
	clock  Clock
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEngine

	subsMu sync.RWMutex
	subs   []AssessmentFunc

	collector *metrics.Collector
}

// sessionEngine holds one session's scenario states and evaluation
// scheduling.
type sessionEngine struct {
	id string

	// trigMu guards the coalescing flags: at most one evaluation in flight,
	// at most one follow-up pending.
	trigMu  sync.Mutex
	running bool
	pending bool

	// stateMu serializes evaluation cycles, ladder timer callbacks,
	// acknowledgments, and close, keeping scenario transitions linearizable.
	stateMu   sync.Mutex
	closed    bool
	scenarios map[models.ScenarioKind]*scenarioState
}

// scenarioState is the engine-internal state for one (session, scenario).
type scenarioState struct {
	models.ScenarioState
	timer          Timer
	lastEvidenceTS float64
	ladder         []ladderStep
}

// New creates an engine reading from source. A nil clock means wall time.
func New(source RecordSource, tuning config.Tuning, clock Clock, logger *slog.Logger) *Engine {
	if clock == nil {
		clock = NewClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		source:   source,
		tuning:   tuning,
		clock:    clock,
		logger:   logger,
		sessions: make(map[string]*sessionEngine),
	}
}

// SetCollector attaches an in-memory stats collector for evaluation timings.
func (e *Engine) SetCollector(c *metrics.Collector) {
	e.collector = c
}

// Subscribe registers a consumer of emitted assessments.
func (e *Engine) Subscribe(fn AssessmentFunc) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	e.subs = append(e.subs, fn)
}

func (e *Engine) emit(a models.ThreatAssessment) {
	e.subsMu.RLock()
	subs := e.subs
	e.subsMu.RUnlock()
	for _, fn := range subs {
		fn(a)
	}
}

// Trigger requests an evaluation for a session. A trigger arriving while an
// evaluation runs is coalesced into exactly one follow-up; triggers are
// never queued unboundedly.
func (e *Engine) Trigger(sessionID string) {
	sess := e.sessionEngine(sessionID)

	sess.trigMu.Lock()
	if sess.running {
		sess.pending = true
		sess.trigMu.Unlock()
		return
	}
	sess.running = true
	sess.trigMu.Unlock()

	go e.runLoop(sess)
}

func (e *Engine) runLoop(sess *sessionEngine) {
	for {
		e.evaluate(sess)

		sess.trigMu.Lock()
		if sess.pending {
			sess.pending = false
			sess.trigMu.Unlock()
			continue
		}
		sess.running = false
		sess.trigMu.Unlock()
		return
	}
}

func (e *Engine) sessionEngine(id string) *sessionEngine {
	e.mu.Lock()
	defer e.mu.Unlock()
	sess, ok := e.sessions[id]
	if !ok {
		sess = &sessionEngine{
			id:        id,
			scenarios: make(map[models.ScenarioKind]*scenarioState),
		}
		for _, kind := range models.ScenarioKinds {
			sess.scenarios[kind] = &scenarioState{
				ScenarioState: models.ScenarioState{Kind: kind, Status: models.StatusNone},
			}
		}
		e.sessions[id] = sess
	}
	return sess
}

// evaluate runs one evaluation cycle for a session.
func (e *Engine) evaluate(sess *sessionEngine) {
	started := time.Now()
	defer func() {
		metrics.EvaluateDuration.Observe(time.Since(started).Seconds())
		if e.collector != nil {
			e.collector.RecordTiming(metrics.OpEvaluate, time.Since(started))
		}
	}()

	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()

	if sess.closed {
		return
	}

	sessionNow, ok := e.source.LatestTimestamp(sess.id)
	if !ok {
		return
	}
	windowStart := math.Max(0, sessionNow-e.tuning.WindowSeconds)
	win := e.source.QueryByTimeRange(sess.id, "", windowStart, math.MaxFloat64)

	env := ruleEnv{
		subWindow:            e.tuning.IntrusionSubWindowSeconds,
		outsideExpectedHours: e.outsideExpectedHours(),
	}

	changed := false
	degraded := false
	var notes []string
	var actions []models.EscalationAction

	for _, rule := range scenarioRules {
		st := sess.scenarios[rule.kind]

		// RESOLVED resets to NONE at the start of the next cycle; this is
		// the only backward transition.
		if st.Status == models.StatusResolved {
			st.Status = models.StatusNone
			st.Evidence = nil
			st.LadderStep = 0
			st.lastEvidenceTS = 0
		}

		result, err := e.runRule(rule, win, st.Status, env)
		if err != nil {
			// A faulty rule never blocks the others; its prior state holds.
			degraded = true
			notes = append(notes, fmt.Sprintf("%s evaluation degraded: %v", rule.kind, err))
			e.logger.Warn("scenario predicate failed",
				"session", sess.id, "scenario", rule.kind, "error", err)
			continue
		}

		if result.status.Active() && result.status.Order() > st.Status.Order() {
			prev := st.Status
			st.Status = result.status
			st.Evidence = result.evidence
			st.LastTransitionAt = e.clock.Now()
			st.lastEvidenceTS = result.evidenceTS
			changed = true
			metrics.ScenarioTransitions.WithLabelValues(string(rule.kind), string(st.Status)).Inc()
			notes = append(notes, fmt.Sprintf("%s %s: %s", rule.kind, strings.ToLower(string(result.status)), result.note))
			e.logger.Info("scenario transition",
				"session", sess.id, "scenario", rule.kind,
				"from", prev, "to", st.Status)

			if st.Status == models.StatusConfirmed {
				actions = append(actions, e.onConfirmed(sess, st)...)
			}
		} else if result.status.Active() && st.Status.Active() {
			// Same or lower status with fresh evidence: keep the cooldown
			// window open.
			st.lastEvidenceTS = math.Max(st.lastEvidenceTS, result.evidenceTS)
			if len(result.evidence) > 0 {
				st.Evidence = mergeEvidence(st.Evidence, result.evidence)
			}
		}

		// Cooldown: all supporting evidence out of the window for longer
		// than the cooldown resolves the scenario.
		if st.Status.Active() && sessionNow-e.tuning.WindowSeconds-st.lastEvidenceTS > e.tuning.Cooldown() {
			e.resolveLocked(sess, st)
			changed = true
			notes = append(notes, fmt.Sprintf("%s resolved: no supporting evidence for %.0fs", rule.kind, e.tuning.Cooldown()))
		}
	}

	if !changed && !degraded {
		return
	}

	assessment := e.buildAssessment(sess, notes, actions, degraded)
	e.logger.Info("assessment emitted",
		"session", sess.id,
		"threat_level", assessment.ThreatLevel,
		"actions", len(assessment.Actions),
		"degraded", degraded)
	e.emit(assessment)
}

// runRule isolates predicate panics into errors.
func (e *Engine) runRule(rule scenarioRule, win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (result ruleResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("predicate panic: %v", r)
		}
	}()
	return rule.evaluate(win, current, env)
}

// onConfirmed issues the scenario's immediate actions or starts its
// escalation ladder. Caller holds stateMu.
func (e *Engine) onConfirmed(sess *sessionEngine, st *scenarioState) []models.EscalationAction {
	now := e.clock.Now()

	if imm := immediateActions(st.Kind); imm != nil {
		out := make([]models.EscalationAction, 0, len(imm))
		for _, kind := range imm {
			out = append(out, models.EscalationAction{Kind: kind, Scenario: st.Kind, IssuedAt: now})
		}
		return out
	}

	ladder := ladderFor(st.Kind, e.tuning)
	if len(ladder) == 0 {
		return nil
	}
	st.ladder = ladder
	st.LadderStep = 1
	step := ladder[0]
	e.scheduleStep(sess, st, step.nextDelay)
	return []models.EscalationAction{{Kind: step.action, Scenario: st.Kind, IssuedAt: now}}
}

// scheduleStep arms the timer for the next ladder step. Caller holds stateMu.
func (e *Engine) scheduleStep(sess *sessionEngine, st *scenarioState, delay time.Duration) {
	kind := st.Kind
	st.timer = e.clock.AfterFunc(delay, func() {
		e.ladderStep(sess, kind)
	})
}

// ladderStep fires when a ladder timer elapses without acknowledgment.
func (e *Engine) ladderStep(sess *sessionEngine, kind models.ScenarioKind) {
	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()

	st := sess.scenarios[kind]
	if sess.closed || !st.Status.Active() || st.LadderStep == 0 || st.LadderStep >= len(st.ladder) {
		return
	}

	st.LadderStep++
	step := st.ladder[st.LadderStep-1]
	st.Status = models.StatusEscalated
	st.LastTransitionAt = e.clock.Now()
	metrics.ScenarioTransitions.WithLabelValues(string(kind), string(st.Status)).Inc()
	if step.nextDelay > 0 {
		e.scheduleStep(sess, st, step.nextDelay)
	} else {
		st.timer = nil
	}

	action := models.EscalationAction{Kind: step.action, Scenario: kind, IssuedAt: e.clock.Now()}
	note := fmt.Sprintf("%s unacknowledged: escalating to %s", kind, step.action)
	e.logger.Warn("escalation ladder step",
		"session", sess.id, "scenario", kind, "step", st.LadderStep, "action", step.action)

	assessment := e.buildAssessment(sess, []string{note}, []models.EscalationAction{action}, false)
	e.emit(assessment)
}

// Acknowledge cancels a scenario's pending escalation and resolves it.
// Only CONFIRMED and ESCALATED scenarios can be acknowledged; anything
// else, including a merely SUSPECTED one, is a no-op.
func (e *Engine) Acknowledge(sessionID string, kind models.ScenarioKind) bool {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return false
	}

	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()

	st, ok := sess.scenarios[kind]
	if !ok || (st.Status != models.StatusConfirmed && st.Status != models.StatusEscalated) {
		return false
	}

	e.resolveLocked(sess, st)
	e.logger.Info("scenario acknowledged", "session", sessionID, "scenario", kind)

	assessment := e.buildAssessment(sess,
		[]string{fmt.Sprintf("%s acknowledged: escalation cancelled", kind)},
		[]models.EscalationAction{{Kind: models.ActionLogOnly, Scenario: kind, IssuedAt: e.clock.Now()}},
		false)
	e.emit(assessment)
	return true
}

// CloseSession cancels all pending ladder timers for a session and resolves
// all scenario states without emitting further actions.
func (e *Engine) CloseSession(sessionID string) {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return
	}

	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()
	sess.closed = true
	for _, st := range sess.scenarios {
		if st.Status.Active() {
			e.resolveLocked(sess, st)
		}
	}
	e.logger.Info("engine session closed", "session", sessionID)
}

// resolveLocked moves a scenario to RESOLVED, cancelling its timer and
// clearing evidence. Caller holds stateMu.
func (e *Engine) resolveLocked(sess *sessionEngine, st *scenarioState) {
	if st.timer != nil {
		st.timer.Stop()
		st.timer = nil
	}
	st.Status = models.StatusResolved
	st.LastTransitionAt = e.clock.Now()
	st.Evidence = nil
	st.LadderStep = 0
	st.ladder = nil
}

// PinnedEvidence implements store.Pinner: evidence of unresolved scenarios
// must survive retention.
func (e *Engine) PinnedEvidence(sessionID string) map[string]bool {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()

	pinned := make(map[string]bool)
	for _, st := range sess.scenarios {
		if !st.Status.Active() {
			continue
		}
		for _, id := range st.Evidence {
			pinned[id] = true
		}
	}
	return pinned
}

// ScenarioStates returns a snapshot of a session's scenario states.
func (e *Engine) ScenarioStates(sessionID string) []models.ScenarioState {
	e.mu.Lock()
	sess, ok := e.sessions[sessionID]
	e.mu.Unlock()
	if !ok {
		return nil
	}

	sess.stateMu.Lock()
	defer sess.stateMu.Unlock()
	return sess.snapshotLocked()
}

func (sess *sessionEngine) snapshotLocked() []models.ScenarioState {
	out := make([]models.ScenarioState, 0, len(sess.scenarios))
	for _, kind := range models.ScenarioKinds {
		st := sess.scenarios[kind]
		copied := st.ScenarioState
		copied.Evidence = append([]string(nil), st.Evidence...)
		out = append(out, copied)
	}
	return out
}

// buildAssessment assembles the emitted assessment from current state.
// Caller holds stateMu.
func (e *Engine) buildAssessment(sess *sessionEngine, notes []string, actions []models.EscalationAction, degraded bool) models.ThreatAssessment {
	level := models.LevelNone
	var evidence []string
	for _, kind := range models.ScenarioKinds {
		st := sess.scenarios[kind]
		if !st.Status.Active() {
			continue
		}
		level = level.Max(kind.Level())
		evidence = mergeEvidence(evidence, st.Evidence)
	}

	reasoning := strings.Join(notes, "; ")
	if reasoning == "" {
		reasoning = "no active scenarios"
	}

	return models.ThreatAssessment{
		ID:          uuid.New().String(),
		SessionID:   sess.id,
		EvaluatedAt: e.clock.Now(),
		ThreatLevel: level,
		Reasoning:   reasoning,
		Degraded:    degraded,
		Evidence:    evidence,
		Actions:     actions,
		Scenarios:   sess.snapshotLocked(),
	}
}

// outsideExpectedHours reports whether the current wall-clock hour falls
// outside the configured expected-activity hours.
func (e *Engine) outsideExpectedHours() bool {
	hour := e.clock.Now().Hour()
	start, end := e.tuning.ExpectedHoursStart, e.tuning.ExpectedHoursEnd
	if start == end {
		return false // all hours expected
	}
	if start < end {
		return hour < start || hour >= end
	}
	// Overnight range, e.g. 22-7.
	return hour < start && hour >= end
}

func mergeEvidence(existing, extra []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}
	for _, id := range extra {
		if !seen[id] {
			existing = append(existing, id)
			seen[id] = true
		}
	}
	sort.Strings(existing)
	return existing
}
