// Package timing maps a match's importance score to a named timing template
// describing which content types to generate at which offsets from kickoff.
// Templates are read-only reference data, registered in-code.
package timing

import "github.com/scorewire/telecast/internal/config"

// ContentRule is one scheduled content item within a template. Exactly one
// of the offset fields is meaningful; AtKickoff wins when set.
type ContentRule struct {
	ContentType          string
	Subtype              string
	HoursBeforeKickoff   int
	HoursAfterKickoff    int
	MinutesBeforeKickoff int
	AtKickoff            bool
	Priority             int
}

// OffsetMinutes returns the signed offset from kickoff in minutes.
func (r ContentRule) OffsetMinutes() int {
	switch {
	case r.AtKickoff:
		return 0
	case r.HoursBeforeKickoff > 0:
		return -r.HoursBeforeKickoff * 60
	case r.MinutesBeforeKickoff > 0:
		return -r.MinutesBeforeKickoff
	case r.HoursAfterKickoff > 0:
		return r.HoursAfterKickoff * 60
	}
	return 0
}

// Template groups content rules for a closed importance-score range.
type Template struct {
	Name               string
	MinImportanceScore int
	MaxImportanceScore int
	ContentSchedule    []ContentRule
}

// Contains reports whether score falls in the template's closed range.
func (t *Template) Contains(score int) bool {
	return score >= t.MinImportanceScore && score <= t.MaxImportanceScore
}

// Registry holds the built-in templates. Ranges overlap on purpose: a derby
// is also a big match, and Resolve prefers the most specific tier.
var Registry = []Template{
	{
		Name:               "derby",
		MinImportanceScore: 80,
		MaxImportanceScore: 100,
		ContentSchedule: []ContentRule{
			{ContentType: config.ContentAnalysis, HoursBeforeKickoff: 24, Priority: 7},
			{ContentType: config.ContentNews, Subtype: "preview", HoursBeforeKickoff: 6, Priority: 6},
			{ContentType: config.ContentBettingTip, HoursBeforeKickoff: 3, Priority: 8},
			{ContentType: config.ContentPoll, HoursBeforeKickoff: 2, Priority: 5},
			{ContentType: config.ContentLiveUpdate, AtKickoff: true, Priority: 9},
			{ContentType: config.ContentSummary, HoursAfterKickoff: 2, Priority: 7},
		},
	},
	{
		Name:               "big_match",
		MinImportanceScore: 50,
		MaxImportanceScore: 100,
		ContentSchedule: []ContentRule{
			{ContentType: config.ContentNews, Subtype: "preview", HoursBeforeKickoff: 6, Priority: 5},
			{ContentType: config.ContentBettingTip, HoursBeforeKickoff: 3, Priority: 7},
			{ContentType: config.ContentPoll, MinutesBeforeKickoff: 90, Priority: 4},
			{ContentType: config.ContentSummary, HoursAfterKickoff: 2, Priority: 6},
		},
	},
	{
		Name:               "standard",
		MinImportanceScore: 20,
		MaxImportanceScore: 100,
		ContentSchedule: []ContentRule{
			{ContentType: config.ContentBettingTip, HoursBeforeKickoff: 3, Priority: 5},
			{ContentType: config.ContentSummary, HoursAfterKickoff: 2, Priority: 4},
		},
	},
}

// Resolve picks the template for an importance score. When nameOverride is
// non-empty the lookup is by exact name. Otherwise the template whose range
// contains the score wins, ties broken by the highest MinImportanceScore
// (the most specific tier). Returns nil when nothing matches; callers treat
// nil as "do not schedule anything for this match", not an error.
func Resolve(importanceScore int, nameOverride string) *Template {
	if nameOverride != "" {
		for i := range Registry {
			if Registry[i].Name == nameOverride {
				return &Registry[i]
			}
		}
		return nil
	}

	var best *Template
	for i := range Registry {
		t := &Registry[i]
		if !t.Contains(importanceScore) {
			continue
		}
		if best == nil || t.MinImportanceScore > best.MinImportanceScore {
			best = t
		}
	}
	return best
}
