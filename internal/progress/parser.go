// Package progress converts raw, tool-specific output lines into
// normalized progress records. It tolerates the large amount of
// diagnostic text both tools emit: anything unrecognized yields nil.
package progress

import (
	"regexp"
	"strconv"
	"strings"
)

// Phase names reported on updates
const (
	PhaseDownload    = "download"
	PhaseMerge       = "merge"
	PhasePostprocess = "postprocess"
	PhaseConvert     = "convert"
)

// Limits and defaults
const (
	MaxPercent  = 100.0
	UnknownETA  = -1
	microPerSec = 1_000_000.0
)

// Update is a normalized progress record extracted from one output line.
type Update struct {
	Percent float64 // clamped to [0,100]
	ETASec  int     // UnknownETA if the line carried no usable ETA
	Speed   string  // human readable, empty if unknown
	Phase   string
}

// Known yt-dlp line patterns. The percent line appears both with and
// without size/speed/ETA fields depending on the downloader state.
var (
	downloadPercentRe = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%(?:\s+of\s+~?\s*(\S+))?(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)
	destinationRe     = regexp.MustCompile(`^\[download\] Destination: `)
	mergerRe          = regexp.MustCompile(`^\[(?:Merger|ffmpeg)\] `)
	postprocessRe     = regexp.MustCompile(`^\[(?:ExtractAudio|VideoConvertor|FixupM3u8|Fixup\w+)\] `)
)

// ffmpeg -progress key=value prefixes
const (
	outTimeUsPrefix   = "out_time_us="
	outTimeMsPrefix   = "out_time_ms="
	outTimePrefix     = "out_time="
	progressEndMarker = "progress=end"
)

// Parser accumulates per-job parsing state: the current phase and the
// last percent yielded for that phase. Progress within a phase is
// monotonically non-decreasing; a new phase legitimately resets to zero
// and is detected from phase-marker lines, never from the numbers alone.
type Parser struct {
	phase         string
	lastPercent   float64
	totalDuration float64 // seconds, used to scale ffmpeg time offsets
	yielded       bool
}

// NewDownloadParser creates a parser for yt-dlp output.
func NewDownloadParser() *Parser {
	return &Parser{phase: PhaseDownload}
}

// NewConvertParser creates a parser for ffmpeg -progress output. The
// total input duration in seconds is needed to turn time offsets into
// percentages.
func NewConvertParser(totalDuration float64) *Parser {
	return &Parser{phase: PhaseConvert, totalDuration: totalDuration}
}

// Phase returns the phase the parser is currently in.
func (p *Parser) Phase() string {
	return p.phase
}

// ParseLine extracts a progress update from one output line. It returns
// nil for unrecognized lines and for stale percentages that would move
// progress backwards within the current phase.
func (p *Parser) ParseLine(line string) *Update {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	switch p.phase {
	case PhaseConvert:
		return p.parseFFmpegLine(line)
	default:
		return p.parseYTDLPLine(line)
	}
}

func (p *Parser) parseYTDLPLine(line string) *Update {
	// Phase markers first: a new destination restarts the download phase
	// (multi-format downloads fetch video and audio separately), merger
	// and postprocessor lines start their own phases at zero.
	if destinationRe.MatchString(line) {
		return p.enterPhase(PhaseDownload)
	}
	if mergerRe.MatchString(line) {
		return p.enterPhase(PhaseMerge)
	}
	if postprocessRe.MatchString(line) {
		return p.enterPhase(PhasePostprocess)
	}

	m := downloadPercentRe.FindStringSubmatch(line)
	if m == nil {
		return nil
	}

	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return nil
	}
	percent = clampPercent(percent)
	if percent < p.lastPercent {
		return nil
	}

	update := &Update{
		Percent: percent,
		ETASec:  UnknownETA,
		Phase:   p.phase,
	}
	if speed := m[3]; speed != "" && !strings.EqualFold(speed, "unknown") {
		update.Speed = speed
	}
	if eta := m[4]; eta != "" {
		if seconds, ok := ParseClock(eta); ok {
			update.ETASec = int(seconds)
		}
	}

	p.lastPercent = percent
	p.yielded = true
	return update
}

func (p *Parser) parseFFmpegLine(line string) *Update {
	if strings.HasPrefix(line, progressEndMarker) {
		p.lastPercent = MaxPercent
		return &Update{Percent: MaxPercent, ETASec: 0, Phase: p.phase}
	}

	var seconds float64
	switch {
	case strings.HasPrefix(line, outTimeUsPrefix):
		us, err := strconv.ParseInt(strings.TrimPrefix(line, outTimeUsPrefix), 10, 64)
		if err != nil {
			return nil
		}
		seconds = float64(us) / microPerSec
	case strings.HasPrefix(line, outTimeMsPrefix):
		// ffmpeg historically reports microseconds under this key too
		us, err := strconv.ParseInt(strings.TrimPrefix(line, outTimeMsPrefix), 10, 64)
		if err != nil {
			return nil
		}
		seconds = float64(us) / microPerSec
	case strings.HasPrefix(line, outTimePrefix):
		var ok bool
		seconds, ok = ParseClock(strings.TrimPrefix(line, outTimePrefix))
		if !ok {
			return nil
		}
	default:
		return nil
	}

	if p.totalDuration <= 0 {
		return nil
	}

	percent := clampPercent(seconds / p.totalDuration * 100)
	if percent < p.lastPercent {
		return nil
	}

	remaining := p.totalDuration - seconds
	eta := UnknownETA
	if remaining >= 0 {
		eta = int(remaining)
	}

	p.lastPercent = percent
	p.yielded = true
	return &Update{Percent: percent, ETASec: eta, Phase: p.phase}
}

// enterPhase switches to a new phase and resets the monotonicity floor.
// The first destination line is still part of the initial download phase
// and yields no update.
func (p *Parser) enterPhase(phase string) *Update {
	if phase == p.phase && !p.yielded {
		return nil
	}
	p.phase = phase
	p.lastPercent = 0
	p.yielded = false
	return &Update{Percent: 0, ETASec: UnknownETA, Phase: phase}
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}

var (
	destinationPathRe = regexp.MustCompile(`^\[download\] Destination: (.+)$`)
	mergerPathRe      = regexp.MustCompile(`^\[Merger\] Merging formats into "(.+)"$`)
)

// ExtractDestination pulls the output file path out of yt-dlp
// destination and merger lines. The merged file supersedes the
// per-stream destinations.
func ExtractDestination(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if m := mergerPathRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	if m := destinationPathRe.FindStringSubmatch(line); m != nil {
		return m[1], true
	}
	return "", false
}

// ParseClock parses a duration given as "H:MM:SS", "MM:SS" or a bare
// (possibly fractional) seconds value into seconds. The second return
// value is false when no part of the string is a usable time.
func ParseClock(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}
