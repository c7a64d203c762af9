package automation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed>>1))
}

// fakeRuleStore holds rules in memory and applies run results the way the
// real store does: success sets last_run, failure only bumps the counter.
type fakeRuleStore struct {
	rules []Rule
}

func (s *fakeRuleStore) EnabledRules(ctx context.Context) ([]Rule, error) {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

func (s *fakeRuleStore) UpdateRunResult(ctx context.Context, id int64, success bool, ranAt time.Time) error {
	for i := range s.rules {
		if s.rules[i].ID != id {
			continue
		}
		if success {
			t := ranAt
			s.rules[i].LastRun = &t
			s.rules[i].SuccessCount++
		} else {
			s.rules[i].ErrorCount++
		}
	}
	return nil
}

type completedLog struct {
	status          string
	langsSucceeded  int
	channelsUpdated int
	errDetail       string
}

type fakeLogStore struct {
	nextID    int64
	pending   int
	completed map[int64]completedLog
}

func newFakeLogStore() *fakeLogStore {
	return &fakeLogStore{completed: map[int64]completedLog{}}
}

func (s *fakeLogStore) InsertPendingLog(ctx context.Context, runID uuid.UUID, ruleName, contentType string, scheduledTime time.Time) (int64, error) {
	s.nextID++
	s.pending++
	return s.nextID, nil
}

func (s *fakeLogStore) CompleteLog(ctx context.Context, id int64, status string, executedAt time.Time, duration time.Duration, langsSucceeded, channelsUpdated int, errDetail string) error {
	s.pending--
	s.completed[id] = completedLog{status, langsSucceeded, channelsUpdated, errDetail}
	return nil
}

type approval struct {
	ruleID   int64
	language string
}

type fakeApprovalStore struct {
	approvals []approval
}

func (s *fakeApprovalStore) InsertApproval(ctx context.Context, ruleID int64, language, contentType string, content *generator.Content, confidence float64) error {
	s.approvals = append(s.approvals, approval{ruleID, language})
	return nil
}

// fakeGen fails configured languages; panicLang panics to exercise the
// per-rule boundary.
type fakeGen struct {
	failLangs map[string]bool
	panicLang string
}

func (g *fakeGen) Generate(ctx context.Context, contentType, language string, channelID int64, opts generator.Options) (*generator.Content, error) {
	if language == g.panicLang {
		panic("generator crashed")
	}
	if g.failLangs[language] {
		return nil, fmt.Errorf("no data for %s", language)
	}
	return &generator.Content{Title: contentType, Body: "body"}, nil
}

type fakeSender struct {
	calls int
}

func (s *fakeSender) Send(ctx context.Context, content *generator.Content, language string, channelIDs []int64, mode string) (*distribution.Result, error) {
	s.calls++
	return &distribution.Result{
		Success:      true,
		ChannelsSent: len(channelIDs),
	}, nil
}

func scheduledRule(id int64, times ...string) Rule {
	return Rule{
		ID:             id,
		Name:           fmt.Sprintf("rule-%d", id),
		Enabled:        true,
		ExecutionMode:  ModeFullAuto,
		AutomationType: TypeScheduled,
		ContentType:    "news",
		Schedule:       ScheduleSpec{Frequency: FreqDaily, Times: times},
		Languages:      []string{"en"},
		Channels:       []int64{1, 2},
	}
}

func newTestEngine(rules *fakeRuleStore, logs *fakeLogStore, approvals *fakeApprovalStore, gen generator.Generator, sender distribution.Sender, now func() time.Time) *Engine {
	return NewEngine(rules, logs, approvals, gen, sender, testRNG(1), now, time.Minute, discardLogger())
}

func TestScheduledRuleFiresOnceForItsSlot(t *testing.T) {
	current := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC) // Monday 09:00:30
	rules := &fakeRuleStore{rules: []Rule{scheduledRule(1, "09:00")}}
	logs := newFakeLogStore()
	sender := &fakeSender{}
	e := newTestEngine(rules, logs, &fakeApprovalStore{}, &fakeGen{}, sender, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesDue)
	assert.Equal(t, 1, res.RulesSucceeded)
	assert.Equal(t, 1, sender.calls)
	require.NotNil(t, rules.rules[0].LastRun)

	// Same slot seen again a few ticks later must not refire.
	current = time.Date(2026, 3, 2, 9, 0, 45, 0, time.UTC)
	res, err = e.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.RulesDue)

	// Well past the slot: also not due.
	current = time.Date(2026, 3, 2, 9, 5, 0, 0, time.UTC)
	res, err = e.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.RulesDue)

	// Next day the slot is eligible again.
	current = time.Date(2026, 3, 3, 9, 0, 10, 0, time.UTC)
	res, err = e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesDue)
}

func TestScheduledRuleOutsideGranularityNotDue(t *testing.T) {
	current := time.Date(2026, 3, 2, 9, 2, 0, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{scheduledRule(1, "09:00")}}
	e := newTestEngine(rules, newFakeLogStore(), &fakeApprovalStore{}, &fakeGen{}, &fakeSender{}, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.RulesDue)
}

func TestWeeklyRuleRespectsDays(t *testing.T) {
	rule := scheduledRule(1, "09:00")
	rule.Schedule.Frequency = FreqWeekly
	rule.Schedule.Days = []string{"mon", "Friday"}

	monday := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)
	tuesday := time.Date(2026, 3, 3, 9, 0, 30, 0, time.UTC)
	friday := time.Date(2026, 3, 6, 9, 0, 30, 0, time.UTC)

	for _, tc := range []struct {
		name string
		now  time.Time
		due  bool
	}{
		{"monday matches short name", monday, true},
		{"tuesday not listed", tuesday, false},
		{"friday matches full name", friday, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rules := &fakeRuleStore{rules: []Rule{rule}}
			now := tc.now
			e := newTestEngine(rules, newFakeLogStore(), &fakeApprovalStore{}, &fakeGen{}, &fakeSender{}, func() time.Time { return now })
			res, err := e.Tick(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.due, res.RulesDue == 1)
		})
	}
}

func TestNoContentGeneratedFailsRuleAndKeepsSlotEligible(t *testing.T) {
	current := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{scheduledRule(1, "09:00")}}
	logs := newFakeLogStore()
	gen := &fakeGen{failLangs: map[string]bool{"en": true}}
	e := newTestEngine(rules, logs, &fakeApprovalStore{}, gen, &fakeSender{}, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesFailed)
	assert.Nil(t, rules.rules[0].LastRun, "failed run must not consume the slot")
	assert.Equal(t, 1, rules.rules[0].ErrorCount)

	log := logs.completed[1]
	assert.Equal(t, LogFailed, log.status)
	assert.Equal(t, "no content generated", log.errDetail)

	// The slot stays eligible on the next tick.
	current = current.Add(15 * time.Second)
	res, err = e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesDue)
}

func TestPerLanguageFailureIsolation(t *testing.T) {
	rule := scheduledRule(1, "09:00")
	rule.Languages = []string{"en", "am", "sw"}
	current := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{rule}}
	logs := newFakeLogStore()
	gen := &fakeGen{failLangs: map[string]bool{"am": true}}
	sender := &fakeSender{}
	e := newTestEngine(rules, logs, &fakeApprovalStore{}, gen, sender, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesSucceeded)
	assert.Equal(t, 2, sender.calls, "surviving languages still send")

	log := logs.completed[1]
	assert.Equal(t, LogCompleted, log.status)
	assert.Equal(t, 2, log.langsSucceeded)
	assert.Contains(t, log.errDetail, "am:")
}

func TestManualApprovalQueuesInsteadOfSending(t *testing.T) {
	rule := scheduledRule(1, "09:00")
	rule.ExecutionMode = ModeManualApproval
	rule.Languages = []string{"en", "am"}
	current := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{rule}}
	approvals := &fakeApprovalStore{}
	sender := &fakeSender{}
	e := newTestEngine(rules, newFakeLogStore(), approvals, &fakeGen{}, sender, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesSucceeded)
	assert.Zero(t, sender.calls, "manual approval must not auto-send")
	require.Len(t, approvals.approvals, 2)
	assert.Equal(t, int64(1), approvals.approvals[0].ruleID)
}

func TestEventDrivenRuleAlwaysDue(t *testing.T) {
	rule := scheduledRule(1)
	rule.AutomationType = TypeEventDriven
	rule.Schedule = ScheduleSpec{}
	current := time.Date(2026, 3, 2, 14, 37, 0, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{rule}}
	e := newTestEngine(rules, newFakeLogStore(), &fakeApprovalStore{}, &fakeGen{}, &fakeSender{}, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.RulesDue)
}

func TestContinuousRuleFiresProbabilistically(t *testing.T) {
	rule := scheduledRule(1)
	rule.AutomationType = TypeContinuous
	rule.Schedule = ScheduleSpec{}
	current := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{rule}}
	e := newTestEngine(rules, newFakeLogStore(), &fakeApprovalStore{}, &fakeGen{}, &fakeSender{}, func() time.Time { return current })

	fired := 0
	const ticks = 500
	for i := 0; i < ticks; i++ {
		res, err := e.Tick(context.Background())
		require.NoError(t, err)
		fired += res.RulesDue
	}
	// Expected rate is ~10%; the point is "sometimes, not always".
	assert.Greater(t, fired, 0)
	assert.Less(t, fired, ticks)
}

func TestPanicInOneRuleDoesNotBlockOthers(t *testing.T) {
	crashing := scheduledRule(1, "09:00")
	crashing.Languages = []string{"am"}
	healthy := scheduledRule(2, "09:00")

	current := time.Date(2026, 3, 2, 9, 0, 30, 0, time.UTC)
	rules := &fakeRuleStore{rules: []Rule{crashing, healthy}}
	logs := newFakeLogStore()
	gen := &fakeGen{panicLang: "am"}
	e := newTestEngine(rules, logs, &fakeApprovalStore{}, gen, &fakeSender{}, func() time.Time { return current })

	res, err := e.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.RulesDue)
	assert.Equal(t, 1, res.RulesFailed)
	assert.Equal(t, 1, res.RulesSucceeded)
	assert.Contains(t, logs.completed[1].errDetail, "panic")
}
