package simulate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

type recordingAppender struct {
	records []models.InsightRecord
}

func (a *recordingAppender) AppendInsight(_ context.Context, rec models.InsightRecord) (string, error) {
	a.records = append(a.records, rec)
	return rec.ID, nil
}

func TestStreamsAreOrderedAndTagged(t *testing.T) {
	for _, scenario := range Scenarios() {
		t.Run(string(scenario), func(t *testing.T) {
			records, err := Stream(scenario, "home-1", 42)
			require.NoError(t, err)
			require.NotEmpty(t, records)

			for i, rec := range records {
				assert.Equal(t, "home-1", rec.SessionID)
				assert.NotEmpty(t, rec.SourceID)
				assert.NotEmpty(t, rec.Modality)
				if i > 0 {
					assert.GreaterOrEqual(t, rec.Timestamp, records[i-1].Timestamp)
				}
			}
		})
	}
}

func TestStreamIsReproducible(t *testing.T) {
	a, err := Stream(ScenarioFire, "home-1", 7)
	require.NoError(t, err)
	b, err := Stream(ScenarioFire, "home-1", 7)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnknownScenario(t *testing.T) {
	_, err := Stream(Scenario("volcano"), "home-1", 1)
	require.Error(t, err)
}

// The fire script must put the smoke detector and the audible alarm inside
// one correlation window so the scenario confirms.
func TestFireScriptCorrelates(t *testing.T) {
	records, err := Stream(ScenarioFire, "home-1", 42)
	require.NoError(t, err)

	var smokeAt, alarmAt float64 = -1, -1
	for _, rec := range records {
		if rec.Has(models.DetectionSmoke) && smokeAt < 0 {
			smokeAt = rec.Timestamp
		}
		if rec.Has(models.DetectionAudioAlarm) {
			alarmAt = rec.Timestamp
		}
	}
	require.GreaterOrEqual(t, smokeAt, 0.0)
	require.GreaterOrEqual(t, alarmAt, 0.0)
	assert.Less(t, alarmAt-smokeAt, 30.0)
}

// The intrusion script keeps the weapon and unfamiliar-face sightings inside
// the tight sub-window.
func TestIntrusionScriptCorrelates(t *testing.T) {
	records, err := Stream(ScenarioIntrusion, "home-1", 42)
	require.NoError(t, err)

	var faceAt, weaponAt float64 = -1, -1
	for _, rec := range records {
		if rec.Has(models.DetectionUnfamiliarFace) && faceAt < 0 {
			faceAt = rec.Timestamp
		}
		if rec.Has(models.DetectionWeapon) {
			weaponAt = rec.Timestamp
			assert.NotEmpty(t, rec.WeaponType)
		}
	}
	require.GreaterOrEqual(t, faceAt, 0.0)
	require.GreaterOrEqual(t, weaponAt, 0.0)
	assert.Less(t, weaponAt-faceAt, 5.0)
}

func TestRunDeliversEverything(t *testing.T) {
	records, err := Stream(ScenarioFall, "home-2", 42)
	require.NoError(t, err)

	sink := &recordingAppender{}
	require.NoError(t, Run(context.Background(), sink, records, 0))
	assert.Equal(t, records, sink.records)
}
