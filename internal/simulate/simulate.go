// Package simulate generates scripted observation streams for exercising the
// monitoring pipeline without real cameras or sensors.
package simulate

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// Scenario names a scripted event sequence.
type Scenario string

const (
	ScenarioBaseline  Scenario = "baseline"
	ScenarioFire      Scenario = "fire"
	ScenarioIntrusion Scenario = "intrusion"
	ScenarioFall      Scenario = "fall"
	ScenarioLoiterer  Scenario = "loiterer"
)

// Scenarios lists all known scenario names.
func Scenarios() []Scenario {
	return []Scenario{ScenarioBaseline, ScenarioFire, ScenarioIntrusion, ScenarioFall, ScenarioLoiterer}
}

// Appender receives simulated records. Satisfied by the HTTP client.
type Appender interface {
	AppendInsight(ctx context.Context, rec models.InsightRecord) (string, error)
}

// Stream builds the scripted record sequence for a scenario. Records are
// ordered by session time; seed fixes the jitter so runs are reproducible.
func Stream(scenario Scenario, sessionID string, seed int64) ([]models.InsightRecord, error) {
	rng := rand.New(rand.NewSource(seed))
	switch scenario {
	case ScenarioBaseline:
		return baseline(sessionID, rng), nil
	case ScenarioFire:
		return fire(sessionID, rng), nil
	case ScenarioIntrusion:
		return intrusion(sessionID, rng), nil
	case ScenarioFall:
		return fall(sessionID, rng), nil
	case ScenarioLoiterer:
		return loiterer(sessionID, rng), nil
	default:
		return nil, fmt.Errorf("unknown scenario %q", scenario)
	}
}

// Run feeds records to the appender, sleeping out the session-time gaps
// divided by speed. speed <= 0 sends everything immediately.
func Run(ctx context.Context, app Appender, records []models.InsightRecord, speed float64) error {
	prev := 0.0
	for _, rec := range records {
		if speed > 0 && rec.Timestamp > prev {
			delay := time.Duration((rec.Timestamp - prev) / speed * float64(time.Second))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		prev = rec.Timestamp
		if _, err := app.AppendInsight(ctx, rec); err != nil {
			return fmt.Errorf("append at t=%.1f: %w", rec.Timestamp, err)
		}
	}
	return nil
}

// baseline is thirty seconds of an empty, quiet home.
func baseline(sessionID string, rng *rand.Rand) []models.InsightRecord {
	var out []models.InsightRecord
	for t := 0.0; t < 30; t += 2 {
		out = append(out, models.InsightRecord{
			SessionID:   sessionID,
			SourceID:    "cam-1",
			Modality:    models.ModalityVision,
			Timestamp:   t + jitter(rng, 0.2),
			ThreatLevel: models.LevelNone,
			Detections:  []models.Detection{models.DetectionPersonCount},
			Description: "empty living room, no movement",
			PeopleCount: 0,
		})
	}
	for t := 1.0; t < 30; t += 5 {
		out = append(out, models.InsightRecord{
			SessionID:   sessionID,
			SourceID:    "wearable-1",
			Modality:    models.ModalitySensor,
			Timestamp:   t + jitter(rng, 0.2),
			ThreatLevel: models.LevelNone,
			Description: fmt.Sprintf("resting vitals, heart rate %d bpm", 60+rng.Intn(20)),
		})
	}
	return sortByTime(out)
}

// fire raises smoke on the detector, then the audible alarm, then visible
// smoke on camera. The detector and alarm land well inside one correlation
// window.
func fire(sessionID string, rng *rand.Rand) []models.InsightRecord {
	quiet := baseline(sessionID, rng)[:5]
	events := []models.InsightRecord{
		{
			SessionID:   sessionID,
			SourceID:    "smoke-1",
			Modality:    models.ModalitySensor,
			Timestamp:   12.0,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionSmoke},
			Description: fmt.Sprintf("smoke level %.0f ppm, temperature rising", 150+rng.Float64()*350),
		},
		{
			SessionID:   sessionID,
			SourceID:    "mic-1",
			Modality:    models.ModalitySensor,
			Timestamp:   13.5,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionAudioAlarm},
			Description: "continuous alarm tone around 3 kHz",
		},
		{
			SessionID:   sessionID,
			SourceID:    "cam-2",
			Modality:    models.ModalityVision,
			Timestamp:   15.0,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionSmoke},
			Description: "grey smoke spreading across the kitchen ceiling",
		},
	}
	return sortByTime(append(quiet, events...))
}

// intrusion shows an unfamiliar person with a weapon, the two sightings
// separated by under the intrusion sub-window, plus breaking glass.
func intrusion(sessionID string, rng *rand.Rand) []models.InsightRecord {
	quiet := baseline(sessionID, rng)[:5]
	events := []models.InsightRecord{
		{
			SessionID:   sessionID,
			SourceID:    "mic-1",
			Modality:    models.ModalitySensor,
			Timestamp:   10.0,
			ThreatLevel: models.LevelMedium,
			Detections:  []models.Detection{models.DetectionGlassBreaking},
			Description: "sharp glass breaking sound near the back door",
		},
		{
			SessionID:   sessionID,
			SourceID:    "cam-1",
			Modality:    models.ModalityVision,
			Timestamp:   11.0,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionUnfamiliarFace, models.DetectionPersonCount},
			Description: "unrecognized person entering through the back door",
			PeopleCount: 1,
		},
		{
			SessionID:   sessionID,
			SourceID:    "cam-1",
			Modality:    models.ModalityVision,
			Timestamp:   12.5,
			ThreatLevel: models.LevelCritical,
			Detections:  []models.Detection{models.DetectionWeapon, models.DetectionUnfamiliarFace},
			Description: "person holding a knife in the hallway",
			WeaponType:  "knife",
			PeopleCount: 1,
		},
	}
	return sortByTime(append(quiet, events...))
}

// fall drops a person on camera with a matching accelerometer spike and a
// vitals anomaly shortly after.
func fall(sessionID string, rng *rand.Rand) []models.InsightRecord {
	quiet := baseline(sessionID, rng)[:5]
	events := []models.InsightRecord{
		{
			SessionID:   sessionID,
			SourceID:    "wearable-1",
			Modality:    models.ModalitySensor,
			Timestamp:   14.0,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionAccelerometerSpike},
			Description: fmt.Sprintf("downward acceleration spike, magnitude %.1f m/s2", 15+rng.Float64()*10),
		},
		{
			SessionID:   sessionID,
			SourceID:    "cam-3",
			Modality:    models.ModalityVision,
			Timestamp:   15.0,
			ThreatLevel: models.LevelHigh,
			Detections:  []models.Detection{models.DetectionPersonOnGround, models.DetectionPersonCount},
			Description: "person lying motionless on the bathroom floor",
			PeopleCount: 1,
		},
		{
			SessionID:   sessionID,
			SourceID:    "wearable-1",
			Modality:    models.ModalitySensor,
			Timestamp:   18.0,
			ThreatLevel: models.LevelMedium,
			Detections:  []models.Detection{models.DetectionVitalAnomaly},
			Description: fmt.Sprintf("heart rate dropped to %d bpm, SpO2 %.0f%%", 45+rng.Intn(15), 85+rng.Float64()*7),
		},
	}
	return sortByTime(append(quiet, events...))
}

// loiterer repeats unfamiliar-face sightings for long enough that the
// suspicious-activity rule sees persistence across the window.
func loiterer(sessionID string, rng *rand.Rand) []models.InsightRecord {
	var out []models.InsightRecord
	for t := 5.0; t <= 25; t += 4 {
		out = append(out, models.InsightRecord{
			SessionID:   sessionID,
			SourceID:    "cam-1",
			Modality:    models.ModalityVision,
			Timestamp:   t + jitter(rng, 0.3),
			ThreatLevel: models.LevelMedium,
			Detections:  []models.Detection{models.DetectionUnfamiliarFace, models.DetectionPersonCount},
			Description: "unrecognized person lingering by the front window",
			PeopleCount: 1,
		})
	}
	return sortByTime(out)
}

func jitter(rng *rand.Rand, max float64) float64 {
	return rng.Float64() * max
}

func sortByTime(records []models.InsightRecord) []models.InsightRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp < records[j].Timestamp
	})
	return records
}
