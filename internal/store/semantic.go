package store

import (
	"math"
	"sort"
	"strings"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// SemanticMatch is one semantic search result with its similarity score.
// For vector matches the score is cosine similarity in [-1, 1]; for keyword
// fallback it is the fraction of query terms matched.
type SemanticMatch struct {
	Record models.InsightRecord `json:"record"`
	Score  float64              `json:"score"`
}

// QueryBySemantic ranks a session's records by cosine similarity to queryVec,
// descending, returning at most topK. When no record in scope carries an
// embedding (or the query has no vector because the embedding service is
// down), it degrades to keyword containment over description and detections
// and reports fellBack=true. Availability over strict recall.
func (s *Store) QueryBySemantic(sessionID string, queryVec []float32, queryText string, topK int) (matches []SemanticMatch, fellBack bool) {
	sess := s.session(sessionID)
	if sess == nil {
		return nil, false
	}
	if topK <= 0 {
		topK = 5
	}

	if len(queryVec) > 0 {
		sess.embMu.RLock()
		candidates := make([]*models.InsightRecord, len(sess.embedded))
		copy(candidates, sess.embedded)
		sess.embMu.RUnlock()

		if len(candidates) > 0 {
			for _, r := range candidates {
				score, ok := cosine(queryVec, r.Embedding)
				if !ok {
					continue
				}
				matches = append(matches, SemanticMatch{Record: r.Clone(), Score: score})
			}
			sortMatches(matches)
			if len(matches) > topK {
				matches = matches[:topK]
			}
			return matches, false
		}
	}

	s.logger.Debug("semantic query degraded to keyword match",
		"session", sessionID, "error", ErrEmbeddingUnavailable)
	return s.keywordFallback(sess, queryText, topK), true
}

// keywordFallback scores records by how many query terms their description
// or detection tags contain.
func (s *Store) keywordFallback(sess *sessionLog, queryText string, topK int) []SemanticMatch {
	terms := strings.Fields(strings.ToLower(queryText))
	if len(terms) == 0 {
		return nil
	}

	sess.mu.RLock()
	defer sess.mu.RUnlock()

	var matches []SemanticMatch
	for _, r := range sess.records {
		haystack := strings.ToLower(r.Description)
		for _, d := range r.Detections {
			haystack += " " + strings.ReplaceAll(string(d), "_", " ")
		}

		hits := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		matches = append(matches, SemanticMatch{
			Record: r.Clone(),
			Score:  float64(hits) / float64(len(terms)),
		})
	}
	sortMatches(matches)
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func sortMatches(matches []SemanticMatch) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		// Equal scores: earlier observation first.
		return matches[i].Record.Timestamp < matches[j].Record.Timestamp
	})
}

// cosine returns the cosine similarity of two vectors, or ok=false when
// dimensions differ or either vector is zero.
func cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
