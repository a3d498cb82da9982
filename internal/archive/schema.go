package archive

import "fmt"

// schemaSQL builds the archive schema. The HNSW index dimension must match
// the embedding model, so the schema is parameterized on it.
func schemaSQL(dimension int) string {
	return fmt.Sprintf(`
    -- ==========================================================================
    -- INSIGHT TABLE (archived observations)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS insight SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS record_id ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS session_id ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS source_id ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS modality ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS timestamp ON insight TYPE float;
    DEFINE FIELD IF NOT EXISTS threat_level ON insight TYPE string;
    DEFINE FIELD IF NOT EXISTS detections ON insight TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS description ON insight TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS people_count ON insight TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS weapon_type ON insight TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS embedding ON insight TYPE option<array<float>>;
    DEFINE FIELD IF NOT EXISTS stored_at ON insight TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS insight_record ON insight FIELDS record_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS insight_session ON insight FIELDS session_id;
    DEFINE INDEX IF NOT EXISTS insight_session_time ON insight FIELDS session_id, timestamp;
    DEFINE INDEX IF NOT EXISTS insight_threat ON insight FIELDS session_id, threat_level;
    DEFINE INDEX IF NOT EXISTS insight_embedding ON insight FIELDS embedding HNSW DIMENSION %d DIST COSINE TYPE F32;
    DEFINE ANALYZER IF NOT EXISTS insight_analyzer TOKENIZERS class FILTERS lowercase, ascii, snowball(english);
    DEFINE INDEX IF NOT EXISTS insight_description_ft ON insight FIELDS description FULLTEXT ANALYZER insight_analyzer BM25;

    -- ==========================================================================
    -- ASSESSMENT TABLE (archived engine output)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS assessment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS assessment_id ON assessment TYPE string;
    DEFINE FIELD IF NOT EXISTS session_id ON assessment TYPE string;
    DEFINE FIELD IF NOT EXISTS evaluated_at ON assessment TYPE datetime;
    DEFINE FIELD IF NOT EXISTS threat_level ON assessment TYPE string;
    DEFINE FIELD IF NOT EXISTS reasoning ON assessment TYPE string;
    DEFINE FIELD IF NOT EXISTS degraded ON assessment TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS evidence ON assessment TYPE array<string>;
    DEFINE FIELD IF NOT EXISTS actions ON assessment TYPE array<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS scenarios ON assessment TYPE array<object> FLEXIBLE;

    DEFINE INDEX IF NOT EXISTS assessment_unique ON assessment FIELDS assessment_id UNIQUE;
    DEFINE INDEX IF NOT EXISTS assessment_session ON assessment FIELDS session_id;
    DEFINE INDEX IF NOT EXISTS assessment_session_time ON assessment FIELDS session_id, evaluated_at;
`, dimension)
}
