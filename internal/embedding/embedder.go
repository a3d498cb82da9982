// Package embedding generates text embeddings for insight records with
// multiple backend support via langchaingo.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// Embedder is the interface for embedding providers. The monitor treats the
// embedder as optional: when it is nil or failing, records are stored without
// vectors and semantic queries fall back to keyword matching.
type Embedder interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Model returns the embedding model name.
	Model() string

	// Dimension returns the embedding vector dimension.
	Dimension() int
}

// SearchableText flattens a record into the text that gets embedded and
// matched: threat level, detections, weapon, people count, and the scene
// description, pipe-separated.
func SearchableText(r models.InsightRecord) string {
	parts := []string{fmt.Sprintf("Threat level: %s", r.ThreatLevel)}

	if len(r.Detections) > 0 {
		tags := make([]string, len(r.Detections))
		for i, d := range r.Detections {
			tags[i] = strings.ReplaceAll(string(d), "_", " ")
		}
		parts = append(parts, "Detections: "+strings.Join(tags, ", "))
	}
	if r.WeaponType != "" && r.WeaponType != "none" {
		parts = append(parts, "Weapon detected: "+r.WeaponType)
	}
	if r.PeopleCount > 0 {
		parts = append(parts, fmt.Sprintf("People count: %d", r.PeopleCount))
	}
	if r.Description != "" {
		parts = append(parts, "Scene: "+r.Description)
	}

	return strings.Join(parts, " | ")
}
