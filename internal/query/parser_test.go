package query

import (
	"testing"

	"github.com/hearthwatch/hearthwatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseTimePatterns(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Parsed
	}{
		{
			name: "between seconds",
			text: "what happened between 15 and 20 seconds?",
			want: Parsed{Kind: KindTimeRange, Start: 15, End: 20},
		},
		{
			name: "first seconds",
			text: "show me the first 30 seconds",
			want: Parsed{Kind: KindTimeRange, Start: 0, End: 30},
		},
		{
			name: "last seconds is relative",
			text: "anything in the last 10 seconds?",
			want: Parsed{Kind: KindTimeRange, End: 10, Relative: true},
		},
		{
			name: "from to",
			text: "events from 5 to 12",
			want: Parsed{Kind: KindTimeRange, Start: 5, End: 12},
		},
		{
			name: "at becomes a five second window",
			text: "what was at 10 seconds",
			want: Parsed{Kind: KindTimeRange, Start: 7.5, End: 12.5},
		},
		{
			name: "at near zero clamps",
			text: "at 1 second",
			want: Parsed{Kind: KindTimeRange, Start: 0, End: 3.5},
		},
		{
			name: "minute second format",
			text: "from 1:15 to 1:45",
			want: Parsed{Kind: KindTimeRange, Start: 75, End: 105},
		},
		{
			name: "camera extraction with range",
			text: "what happened in camera 2 between 15 and 20 seconds?",
			want: Parsed{Kind: KindTimeRange, Start: 15, End: 20, SourceID: "cam-2"},
		},
		{
			name: "cam shorthand",
			text: "cam 3 first 10 seconds",
			want: Parsed{Kind: KindTimeRange, Start: 0, End: 10, SourceID: "cam-3"},
		},
		{
			name: "threat level keyword",
			text: "show me all critical threats",
			want: Parsed{Kind: KindThreatLevel, Level: models.LevelCritical},
		},
		{
			name: "threat level with events",
			text: "any high events?",
			want: Parsed{Kind: KindThreatLevel, Level: models.LevelHigh},
		},
		{
			name: "bare level keyword",
			text: "critical",
			want: Parsed{Kind: KindThreatLevel, Level: models.LevelCritical},
		},
		{
			name: "bare level keyword with whitespace",
			text: "  High ",
			want: Parsed{Kind: KindThreatLevel, Level: models.LevelHigh},
		},
		{
			name: "level word inside a sentence stays semantic",
			text: "was the music too loud at high volume?",
			want: Parsed{Kind: KindSemantic},
		},
		{
			name: "free text is semantic",
			text: "when was the weapon detected?",
			want: Parsed{Kind: KindSemantic},
		},
		{
			name: "semantic keeps camera filter",
			text: "was anyone in camera 1?",
			want: Parsed{Kind: KindSemantic, SourceID: "cam-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text))
		})
	}
}

func TestParseTimeRangeWinsOverLevelKeyword(t *testing.T) {
	// "critical" appearing alongside an explicit range: the range wins.
	got := Parse("critical threats between 0 and 5 seconds")
	assert.Equal(t, KindTimeRange, got.Kind)
	assert.Equal(t, 0.0, got.Start)
	assert.Equal(t, 5.0, got.End)
}
