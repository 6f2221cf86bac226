// Package segment splits raw transcript text into ordered speaker-tagged
// utterances.
//
// Attribution is regex-driven: each configured role carries an ordered
// pattern list, roles are tried in configuration order, and the first match
// wins. A line matching no pattern is kept: it continues the current turn if
// one is open, otherwise it becomes an unknown-speaker utterance.
package segment

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/BCVRaj/Emitrr/pkg/types"
)

// role is one compiled entry of the speaker pattern table.
type role struct {
	speaker  types.Speaker
	patterns []*regexp.Regexp
}

// Segmenter turns raw transcript text into utterances.
type Segmenter struct {
	roles         []role
	fillers       []*regexp.Regexp
	removeFillers bool
}

// whitespaceRE collapses runs of spaces and tabs left by transcription tools.
var whitespaceRE = regexp.MustCompile(`[ \t]+`)

// New compiles the configured speaker patterns. Pattern syntax errors are
// configuration errors and fail before any transcript is processed.
func New(cfg types.SegmenterConfig) (*Segmenter, error) {
	s := &Segmenter{removeFillers: cfg.RemoveFillers}

	for _, rp := range cfg.Speakers {
		r := role{speaker: rp.Role}
		for _, p := range rp.Patterns {
			re, err := regexp.Compile(`(?i)^\s*` + p)
			if err != nil {
				return nil, &types.ConfigError{
					Field:  "segmenter.speakers",
					Reason: fmt.Sprintf("role %q pattern %q: %v", rp.Role, p, err),
				}
			}
			r.patterns = append(r.patterns, re)
		}
		s.roles = append(s.roles, r)
	}

	if cfg.RemoveFillers {
		for _, w := range cfg.FillerWords {
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
			if err != nil {
				return nil, &types.ConfigError{
					Field:  "segmenter.filler_words",
					Reason: fmt.Sprintf("word %q: %v", w, err),
				}
			}
			s.fillers = append(s.fillers, re)
		}
	}

	return s, nil
}

// Segment splits text into ordered utterances. Consecutive lines belonging
// to the same uninterrupted turn are concatenated into one utterance. If no
// line matches any configured role, Segment returns ErrNoSpeakerMatch: the
// transcript format and the pattern table disagree, and downstream
// extraction would silently run without speaker attribution.
func (s *Segmenter) Segment(text string) ([]types.Utterance, error) {
	var (
		utts    []types.Utterance
		current *types.Utterance
		matched bool
	)

	flush := func() {
		if current != nil && current.Text != "" {
			current.Order = len(utts)
			utts = append(utts, *current)
		}
		current = nil
	}
	appendText := func(u *types.Utterance, text string) {
		if u.Text == "" {
			u.Text = text
			return
		}
		u.Text += " " + text
	}

	for _, line := range strings.Split(text, "\n") {
		line = s.normalize(line)
		if line == "" {
			continue
		}

		speaker, rest, ok := s.matchRole(line)
		if ok {
			matched = true
			if current != nil && current.Speaker == speaker {
				if rest != "" {
					appendText(current, rest)
				}
				continue
			}
			// A bare tag still interrupts the open turn: the new speaker's
			// text arrives on the following untagged lines.
			flush()
			current = &types.Utterance{Speaker: speaker, Text: rest}
			continue
		}

		// Untagged line: continuation of the open turn, or unknown speaker.
		if current != nil {
			appendText(current, line)
			continue
		}
		current = &types.Utterance{Speaker: types.SpeakerUnknown, Text: line}
	}
	flush()

	if !matched {
		return nil, fmt.Errorf("segmenting transcript: %w", types.ErrNoSpeakerMatch)
	}
	return utts, nil
}

// matchRole tries every role in order and returns the attributed speaker and
// the line with the speaker tag stripped.
func (s *Segmenter) matchRole(line string) (types.Speaker, string, bool) {
	for _, r := range s.roles {
		for _, re := range r.patterns {
			if loc := re.FindStringIndex(line); loc != nil {
				return r.speaker, strings.TrimSpace(line[loc[1]:]), true
			}
		}
	}
	return types.SpeakerUnknown, "", false
}

// normalize collapses whitespace, strips control characters, and optionally
// removes filler words.
func (s *Segmenter) normalize(line string) string {
	line = strings.Map(func(r rune) rune {
		if r < ' ' && r != '\t' {
			return -1
		}
		return r
	}, line)
	if s.removeFillers {
		for _, re := range s.fillers {
			line = re.ReplaceAllString(line, "")
		}
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(line, " "))
}

// FullText joins utterance texts in transcript order. This is the input
// handed to the entity extractor and to generative prompts.
func FullText(utts []types.Utterance) string {
	parts := make([]string, 0, len(utts))
	for _, u := range utts {
		parts = append(parts, u.Text)
	}
	return strings.Join(parts, "\n")
}

// SpeakerText joins the texts of one speaker in transcript order.
func SpeakerText(utts []types.Utterance, speaker types.Speaker) []string {
	var lines []string
	for _, u := range utts {
		if u.Speaker == speaker {
			lines = append(lines, u.Text)
		}
	}
	return lines
}

// Stats summarizes speaker attribution for a segmented transcript.
func Stats(utts []types.Utterance, sourceLen int) types.TranscriptStats {
	st := types.TranscriptStats{TotalCharacters: sourceLen}
	for _, u := range utts {
		switch u.Speaker {
		case types.SpeakerDoctor:
			st.DoctorTurns++
		case types.SpeakerPatient:
			st.PatientTurns++
		default:
			st.UnknownTurns++
		}
	}
	st.TotalTurns = st.DoctorTurns + st.PatientTurns
	return st
}
