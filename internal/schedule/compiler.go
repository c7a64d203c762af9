package schedule

import (
	"math/rand/v2"
	"time"

	"github.com/scorewire/telecast/internal/directory"
	"github.com/scorewire/telecast/internal/timing"
)

// Compiler expands a timing template into concrete dated schedule entries
// for a match. The random source is injectable so tests can make jitter
// deterministic.
type Compiler struct {
	rng *rand.Rand
	now func() time.Time
}

// NewCompiler creates a compiler. rng and now may be nil for production
// defaults (PCG seeded from the clock, time.Now).
func NewCompiler(rng *rand.Rand, now func() time.Time) *Compiler {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	if now == nil {
		now = time.Now
	}
	return &Compiler{rng: rng, now: now}
}

// Compile resolves the match's timing template and expands it across the
// given languages. Languages without target channels produce nothing.
// Content windows that have already passed are never scheduled. An empty
// result is a normal steady state, not an error.
func (c *Compiler) Compile(
	match *directory.Match,
	languages []string,
	channelsByLanguage map[string][]int64,
	templateOverride string,
) []Entry {
	tmpl := timing.Resolve(match.ImportanceScore, templateOverride)
	if tmpl == nil {
		return nil
	}

	now := c.now()
	var entries []Entry

	for _, lang := range languages {
		channels := channelsByLanguage[lang]
		if len(channels) == 0 {
			continue
		}

		for _, rule := range tmpl.ContentSchedule {
			offset := rule.OffsetMinutes()
			jitter := c.rng.IntN(2*maxJitterMinutes+1) - maxJitterMinutes

			scheduledFor := match.Kickoff.Add(time.Duration(offset+jitter) * time.Minute)
			if !scheduledFor.After(now) {
				continue
			}

			priority := rule.Priority
			if priority == 0 {
				priority = DefaultPriority
			}

			entries = append(entries, Entry{
				MatchID:        match.ID,
				ContentType:    rule.ContentType,
				ContentSubtype: rule.Subtype,
				ScheduledFor:   scheduledFor,
				OffsetMinutes:  offset,
				JitterMinutes:  jitter,
				Priority:       priority,
				Language:       lang,
				TargetChannels: channels,
				Status:         StatusPending,
			})
		}
	}
	return entries
}
