package query

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/hearthwatch/hearthwatch/internal/models"
)

// Kind classifies how a query text was interpreted.
type Kind string

const (
	KindTimeRange   Kind = "time_range"
	KindThreatLevel Kind = "threat_level"
	KindSemantic    Kind = "semantic"
)

// Parsed is the structured form of a query text. For KindTimeRange with
// Relative set, End is a duration to anchor against the session's latest
// timestamp rather than an absolute position.
type Parsed struct {
	Kind     Kind
	Start    float64
	End      float64
	Relative bool
	Level    models.ThreatLevel
	SourceID string
}

var (
	cameraRe  = regexp.MustCompile(`(?:camera|cam|video)\s*(\d+)`)
	betweenRe = regexp.MustCompile(`between\s+(\d+)\s+and\s+(\d+)\s+seconds?`)
	firstRe   = regexp.MustCompile(`first\s+(\d+)\s+seconds?`)
	lastRe    = regexp.MustCompile(`last\s+(\d+)\s+seconds?`)
	fromToRe  = regexp.MustCompile(`from\s+(\d+)\s+to\s+(\d+)`)
	atRe      = regexp.MustCompile(`at\s+(\d+)\s+seconds?`)
	clockRe   = regexp.MustCompile(`(\d+):(\d+)\s+to\s+(\d+):(\d+)`)
	levelRe   = regexp.MustCompile(`(critical|high|medium|low)[-\s]+(?:threat|event|alert)`)
	// A level keyword on its own is a threat-level query too; anchored so a
	// level word inside a longer sentence still reads as semantic.
	bareLevelRe = regexp.MustCompile(`^\s*(critical|high|medium|low)\s*$`)
)

// Parse interprets a query text. Patterns are tried in a fixed order and the
// first match wins; text matching none of them is a semantic query.
func Parse(text string) Parsed {
	lower := strings.ToLower(text)

	p := Parsed{SourceID: sourceFrom(lower)}

	if m := betweenRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindTimeRange
		p.Start, p.End = num(m[1]), num(m[2])
		return p
	}
	if m := firstRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindTimeRange
		p.Start, p.End = 0, num(m[1])
		return p
	}
	if m := lastRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindTimeRange
		p.End = num(m[1])
		p.Relative = true
		return p
	}
	if m := clockRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindTimeRange
		p.Start = num(m[1])*60 + num(m[2])
		p.End = num(m[3])*60 + num(m[4])
		return p
	}
	if m := fromToRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindTimeRange
		p.Start, p.End = num(m[1]), num(m[2])
		return p
	}
	if m := atRe.FindStringSubmatch(lower); m != nil {
		// A point in time reads as a 5-second window around it.
		t := num(m[1])
		p.Kind = KindTimeRange
		p.Start, p.End = math.Max(0, t-2.5), t+2.5
		return p
	}
	if m := levelRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindThreatLevel
		p.Level = models.ThreatLevel(m[1])
		return p
	}
	if m := bareLevelRe.FindStringSubmatch(lower); m != nil {
		p.Kind = KindThreatLevel
		p.Level = models.ThreatLevel(m[1])
		return p
	}

	p.Kind = KindSemantic
	return p
}

// sourceFrom extracts a "camera N" / "cam N" / "video N" mention as the
// canonical source id, or "" when the query names no source.
func sourceFrom(lower string) string {
	m := cameraRe.FindStringSubmatch(lower)
	if m == nil {
		return ""
	}
	return "cam-" + m[1]
}

func num(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
