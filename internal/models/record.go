// Package models defines the shared data contracts between insight
// producers, the temporal store, and the correlation engine.
package models

import "time"

// Modality identifies the kind of producer an insight came from.
type Modality string

const (
	ModalityVision Modality = "vision"
	ModalitySensor Modality = "sensor"
)

// ThreatLevel is the producer-local (or engine-computed) severity of an
// observation or assessment.
type ThreatLevel string

const (
	LevelNone     ThreatLevel = "none"
	LevelLow      ThreatLevel = "low"
	LevelMedium   ThreatLevel = "medium"
	LevelHigh     ThreatLevel = "high"
	LevelCritical ThreatLevel = "critical"
)

// levelRank orders threat levels for comparison.
var levelRank = map[ThreatLevel]int{
	LevelNone:     0,
	LevelLow:      1,
	LevelMedium:   2,
	LevelHigh:     3,
	LevelCritical: 4,
}

// Rank returns the numeric severity of a level (unknown levels rank as none).
func (l ThreatLevel) Rank() int {
	return levelRank[l]
}

// Max returns the more severe of two levels.
func (l ThreatLevel) Max(other ThreatLevel) ThreatLevel {
	if other.Rank() > l.Rank() {
		return other
	}
	return l
}

// Valid reports whether l is a known threat level.
func (l ThreatLevel) Valid() bool {
	_, ok := levelRank[l]
	return ok
}

// Detection is a tagged observation produced by a vision or sensor analyzer.
type Detection string

const (
	DetectionWeapon             Detection = "weapon"
	DetectionUnfamiliarFace     Detection = "unfamiliar_face"
	DetectionPersonOnGround     Detection = "person_on_ground"
	DetectionSmoke              Detection = "smoke"
	DetectionAudioAlarm         Detection = "audio_alarm"
	DetectionAccelerometerSpike Detection = "accelerometer_spike"
	DetectionVitalAnomaly       Detection = "vital_anomaly"
	DetectionCameraTamper       Detection = "camera_tamper"
	DetectionPersonCount        Detection = "person_count"
	DetectionGlassBreaking      Detection = "glass_breaking"
	DetectionScream             Detection = "scream"
)

// InsightRecord is one immutable, timestamped, classified observation from a
// single source. Timestamps are seconds on the session's media clock,
// producer-supplied, and may arrive out of order across sources.
type InsightRecord struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	SourceID    string      `json:"source_id"`
	Modality    Modality    `json:"modality"`
	Timestamp   float64     `json:"timestamp"`
	ThreatLevel ThreatLevel `json:"threat_level"`
	Detections  []Detection `json:"detections,omitempty"`
	Description string      `json:"description,omitempty"`
	PeopleCount int         `json:"people_count,omitempty"`
	WeaponType  string      `json:"weapon_type,omitempty"`

	// Embedding is absent when the embedding service was unavailable at
	// append time; semantic queries fall back to keyword matching.
	Embedding []float32 `json:"embedding,omitempty"`

	StoredAt time.Time `json:"stored_at,omitempty"`
}

// Has reports whether the record carries the given detection tag.
func (r *InsightRecord) Has(d Detection) bool {
	for _, got := range r.Detections {
		if got == d {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the record. Stored records are immutable;
// the store hands out clones so callers can never mutate indexed state.
func (r *InsightRecord) Clone() InsightRecord {
	out := *r
	if r.Detections != nil {
		out.Detections = append([]Detection(nil), r.Detections...)
	}
	if r.Embedding != nil {
		out.Embedding = append([]float32(nil), r.Embedding...)
	}
	return out
}

// SessionStatus is the lifecycle state of a monitored session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// Session is one continuous monitoring context (a home being monitored)
// spanning multiple cameras and sensors.
type Session struct {
	ID        string        `json:"id"`
	StartedAt time.Time     `json:"started_at"`
	Sources   []string      `json:"sources"`
	Status    SessionStatus `json:"status"`
	Records   int           `json:"records"`
}
