package embedding

import (
	"testing"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSearchableText(t *testing.T) {
	r := models.InsightRecord{
		ThreatLevel: models.LevelCritical,
		Detections:  []models.Detection{models.DetectionWeapon, models.DetectionUnfamiliarFace},
		WeaponType:  "knife",
		PeopleCount: 2,
		Description: "person holding knife near front door",
	}

	got := SearchableText(r)
	assert.Equal(t,
		"Threat level: critical | Detections: weapon, unfamiliar face | Weapon detected: knife | People count: 2 | Scene: person holding knife near front door",
		got)
}

func TestSearchableTextSparseRecord(t *testing.T) {
	r := models.InsightRecord{ThreatLevel: models.LevelNone}
	assert.Equal(t, "Threat level: none", SearchableText(r))
}
