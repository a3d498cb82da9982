//go:build integration

// Integration tests for the SurrealDB archive. Run with:
//
//	go test -tags integration ./internal/archive/
package archive

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testDimension = 8

var testClient *Client
var testContainer testcontainers.Container

func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testClient, err = NewClient(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testClient.InitSchema(ctx, testDimension); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testClient.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func testEmbedding(seed float32) []float32 {
	embedding := make([]float32, testDimension)
	for i := range embedding {
		embedding[i] = seed + float32(i)/testDimension
	}
	return embedding
}

func testRecord(id, session string, ts float64, level models.ThreatLevel) models.InsightRecord {
	return models.InsightRecord{
		ID:          id,
		SessionID:   session,
		SourceID:    "cam-1",
		Modality:    models.ModalityVision,
		Timestamp:   ts,
		ThreatLevel: level,
		Detections:  []models.Detection{models.DetectionPersonCount},
		Description: "archived observation",
		Embedding:   testEmbedding(float32(ts)),
		StoredAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestArchiveAndQueryByTimeRange(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	for i, ts := range []float64{1.0, 5.0, 9.0} {
		rec := testRecord(fmt.Sprintf("tr-%d", i), "sess-range", ts, models.LevelLow)
		require.NoError(t, testClient.ArchiveInsight(ctx, rec))
	}

	got, err := testClient.InsightsByTimeRange(ctx, "sess-range", 2.0, 10.0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tr-1", got[0].ID)
	assert.Equal(t, "tr-2", got[1].ID)
	assert.Equal(t, models.ModalityVision, got[0].Modality)
	assert.Equal(t, []models.Detection{models.DetectionPersonCount}, got[0].Detections)
}

func TestArchiveInsightIdempotent(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	rec := testRecord("dup-1", "sess-dup", 3.0, models.LevelMedium)
	require.NoError(t, testClient.ArchiveInsight(ctx, rec))
	require.NoError(t, testClient.ArchiveInsight(ctx, rec))

	got, err := testClient.InsightsByTimeRange(ctx, "sess-dup", 0, 100)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestInsightsByThreatLevel(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("lv-1", "sess-lv", 1.0, models.LevelCritical)))
	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("lv-2", "sess-lv", 2.0, models.LevelNone)))
	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("lv-3", "sess-lv", 3.0, models.LevelCritical)))

	got, err := testClient.InsightsByThreatLevel(ctx, "sess-lv", models.LevelCritical)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "lv-1", got[0].ID)
	assert.Equal(t, "lv-3", got[1].ID)
}

func TestSemanticSearchReturnsNeighbours(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	for i := range 5 {
		rec := testRecord(fmt.Sprintf("sem-%d", i), "sess-sem", float64(i), models.LevelLow)
		require.NoError(t, testClient.ArchiveInsight(ctx, rec))
	}

	got, err := testClient.SemanticSearch(ctx, "sess-sem", testEmbedding(0), 3)
	require.NoError(t, err)
	assert.NotEmpty(t, got)
	assert.LessOrEqual(t, len(got), 3)
}

func TestArchiveAssessmentRoundTrip(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	a := models.ThreatAssessment{
		ID:          "as-1",
		SessionID:   "sess-as",
		EvaluatedAt: time.Now().UTC().Truncate(time.Millisecond),
		ThreatLevel: models.LevelCritical,
		Reasoning:   "fire signals: smoke sensor + audio alarm",
		Evidence:    []string{"r1", "r2"},
		Actions: []models.EscalationAction{
			{Kind: models.ActionCall911, Scenario: models.ScenarioFire, IssuedAt: time.Now().UTC().Truncate(time.Millisecond)},
		},
		Scenarios: []models.ScenarioState{
			{Kind: models.ScenarioFire, Status: models.StatusConfirmed, Evidence: []string{"r1", "r2"}},
		},
	}
	require.NoError(t, testClient.ArchiveAssessment(ctx, a))
	require.NoError(t, testClient.ArchiveAssessment(ctx, a)) // idempotent

	got, err := testClient.AssessmentsBySession(ctx, "sess-as")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.LevelCritical, got[0].ThreatLevel)
	assert.Equal(t, []string{"r1", "r2"}, got[0].Evidence)
	require.Len(t, got[0].Actions, 1)
	assert.Equal(t, models.ActionCall911, got[0].Actions[0].Kind)
}

func TestThreatDistribution(t *testing.T) {
	ctx := context.Background()
	defer testClient.WipeData(ctx)

	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("d-1", "sess-dist", 1.0, models.LevelHigh)))
	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("d-2", "sess-dist", 2.0, models.LevelHigh)))
	require.NoError(t, testClient.ArchiveInsight(ctx, testRecord("d-3", "sess-dist", 3.0, models.LevelNone)))

	got, err := testClient.ThreatDistribution(ctx, "sess-dist")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "high", got[0].ThreatLevel)
	assert.Equal(t, 2, got[0].Count)
}
