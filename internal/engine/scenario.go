package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// ruleEnv carries the per-evaluation context a predicate may consult.
type ruleEnv struct {
	// subWindow is the intrusion correlation sub-window in session seconds.
	subWindow float64
	// outsideExpectedHours is true when the evaluation happens outside the
	// configured expected-activity hours.
	outsideExpectedHours bool
}

// ruleResult is a predicate's proposal for one scenario. A status below the
// scenario's current status is ignored by the engine (states never regress).
type ruleResult struct {
	status     models.ScenarioStatus
	evidence   []string
	evidenceTS float64 // newest supporting timestamp, for cooldown tracking
	note       string
}

// scenarioRule binds a scenario kind to its transition predicate. The rules
// form a fixed table evaluated in priority order (fire, intrusion, fall,
// suspicious); each operates only on the sliding window and the scenario's
// current status.
type scenarioRule struct {
	kind     models.ScenarioKind
	evaluate func(win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (ruleResult, error)
}

// scenarioRules is the full rule table in fixed priority order. Rules are
// independent: evidence matched by a higher-priority rule never suppresses a
// lower one.
var scenarioRules = []scenarioRule{
	{kind: models.ScenarioFire, evaluate: evaluateFire},
	{kind: models.ScenarioIntrusion, evaluate: evaluateIntrusion},
	{kind: models.ScenarioFall, evaluate: evaluateFall},
	{kind: models.ScenarioSuspicious, evaluate: evaluateSuspicious},
}

// evaluateFire confirms a fire when any two of three independent signals
// appear in the window: a sensor smoke reading, an audio alarm, or visual
// smoke from a camera. Fire has no SUSPECTED stage.
func evaluateFire(win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (ruleResult, error) {
	var smokeSensor, audioAlarm, visualSmoke []string
	var newest float64

	for _, r := range win {
		matched := false
		if r.Has(models.DetectionSmoke) {
			if r.Modality == models.ModalityVision {
				visualSmoke = append(visualSmoke, r.ID)
			} else {
				smokeSensor = append(smokeSensor, r.ID)
			}
			matched = true
		}
		if r.Has(models.DetectionAudioAlarm) {
			audioAlarm = append(audioAlarm, r.ID)
			matched = true
		}
		if matched {
			newest = math.Max(newest, r.Timestamp)
		}
	}

	signals := 0
	var names []string
	var evidence []string
	for _, sig := range []struct {
		name string
		ids  []string
	}{
		{"smoke sensor", smokeSensor},
		{"audio alarm", audioAlarm},
		{"visual smoke", visualSmoke},
	} {
		if len(sig.ids) > 0 {
			signals++
			names = append(names, sig.name)
			evidence = append(evidence, sig.ids...)
		}
	}

	if signals < 2 {
		return ruleResult{status: models.StatusNone}, nil
	}
	return ruleResult{
		status:     models.StatusConfirmed,
		evidence:   evidence,
		evidenceTS: newest,
		note:       "fire signals: " + strings.Join(names, " + "),
	}, nil
}

// evaluateIntrusion confirms an intrusion when a weapon and an unfamiliar
// face are sighted within the correlation sub-window of each other. Both
// present but further apart, or a weapon sighting alone, is only SUSPECTED.
func evaluateIntrusion(win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (ruleResult, error) {
	var weapons, faces []models.InsightRecord
	for _, r := range win {
		if r.Has(models.DetectionWeapon) {
			weapons = append(weapons, r)
		}
		if r.Has(models.DetectionUnfamiliarFace) {
			faces = append(faces, r)
		}
	}
	if len(weapons) == 0 {
		return ruleResult{status: models.StatusNone}, nil
	}

	for _, w := range weapons {
		for _, f := range faces {
			delta := math.Abs(w.Timestamp - f.Timestamp)
			if delta <= env.subWindow {
				return ruleResult{
					status:     models.StatusConfirmed,
					evidence:   []string{w.ID, f.ID},
					evidenceTS: math.Max(w.Timestamp, f.Timestamp),
					note:       fmt.Sprintf("weapon and unfamiliar face %.1fs apart", delta),
				}, nil
			}
		}
	}

	// Weapon sighted, but no correlated unknown person.
	result := ruleResult{
		status:     models.StatusSuspected,
		evidenceTS: weapons[len(weapons)-1].Timestamp,
		note:       "weapon sighted without correlated unknown person",
	}
	for _, w := range weapons {
		result.evidence = append(result.evidence, w.ID)
	}
	for _, f := range faces {
		result.evidence = append(result.evidence, f.ID)
	}
	return result, nil
}

// evaluateFall suspects a fall on an accelerometer spike or vital anomaly,
// and confirms it when vision additionally reports a person on the ground
// within the window.
func evaluateFall(win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (ruleResult, error) {
	var triggers, ground []models.InsightRecord
	for _, r := range win {
		if r.Has(models.DetectionAccelerometerSpike) || r.Has(models.DetectionVitalAnomaly) {
			triggers = append(triggers, r)
		}
		if r.Modality == models.ModalityVision && r.Has(models.DetectionPersonOnGround) {
			ground = append(ground, r)
		}
	}

	suspected := len(triggers) > 0 || current == models.StatusSuspected
	if !suspected {
		return ruleResult{status: models.StatusNone}, nil
	}

	var evidence []string
	var newest float64
	for _, r := range triggers {
		evidence = append(evidence, r.ID)
		newest = math.Max(newest, r.Timestamp)
	}

	if len(ground) > 0 {
		for _, r := range ground {
			evidence = append(evidence, r.ID)
			newest = math.Max(newest, r.Timestamp)
		}
		return ruleResult{
			status:     models.StatusConfirmed,
			evidence:   evidence,
			evidenceTS: newest,
			note:       "fall impact confirmed by person on ground",
		}, nil
	}
	if len(triggers) == 0 {
		return ruleResult{status: models.StatusNone}, nil
	}
	return ruleResult{
		status:     models.StatusSuspected,
		evidence:   evidence,
		evidenceTS: newest,
		note:       "possible fall: wearable or vitals anomaly",
	}, nil
}

// evaluateSuspicious suspects tampering-plus-unknown-person activity outside
// expected hours. A first match is SUSPECTED; continued evidence on a later
// cycle confirms and starts the owner-alert ladder.
func evaluateSuspicious(win []models.InsightRecord, current models.ScenarioStatus, env ruleEnv) (ruleResult, error) {
	if !env.outsideExpectedHours {
		return ruleResult{status: models.StatusNone}, nil
	}

	var tamper, unknown []models.InsightRecord
	for _, r := range win {
		if r.Has(models.DetectionCameraTamper) {
			tamper = append(tamper, r)
		}
		if r.Has(models.DetectionUnfamiliarFace) {
			unknown = append(unknown, r)
		}
	}
	if len(tamper) == 0 || len(unknown) == 0 {
		return ruleResult{status: models.StatusNone}, nil
	}

	var evidence []string
	var newest float64
	for _, r := range append(tamper, unknown...) {
		evidence = append(evidence, r.ID)
		newest = math.Max(newest, r.Timestamp)
	}

	status := models.StatusSuspected
	note := "camera tamper and unknown person outside expected hours"
	if current == models.StatusSuspected {
		status = models.StatusConfirmed
		note = "suspicious activity persisting"
	}
	return ruleResult{
		status:     status,
		evidence:   evidence,
		evidenceTS: newest,
		note:       note,
	}, nil
}
