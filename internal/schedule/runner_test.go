package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
	"github.com/scorewire/telecast/internal/smartpush"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeEntryStore is an in-memory EntryStore tracking status transitions.
type fakeEntryStore struct {
	due        []Entry
	statuses   map[int64]string
	results    map[int64]string
	deliveries map[int64][]distribution.ChannelResult
	claimed    map[int64]bool // pre-claimed elsewhere
}

func newFakeEntryStore(due ...Entry) *fakeEntryStore {
	s := &fakeEntryStore{
		due:        due,
		statuses:   map[int64]string{},
		results:    map[int64]string{},
		deliveries: map[int64][]distribution.ChannelResult{},
		claimed:    map[int64]bool{},
	}
	for _, e := range due {
		s.statuses[e.ID] = StatusPending
	}
	return s
}

func (s *fakeEntryStore) DueEntries(ctx context.Context, now time.Time, lookback time.Duration) ([]Entry, error) {
	return s.due, nil
}

func (s *fakeEntryStore) MarkExecuting(ctx context.Context, id int64) error {
	if s.claimed[id] || s.statuses[id] != StatusPending {
		return ErrNotClaimed
	}
	s.statuses[id] = StatusExecuting
	return nil
}

func (s *fakeEntryStore) MarkCompleted(ctx context.Context, id int64, result string) error {
	s.statuses[id] = StatusCompleted
	s.results[id] = result
	return nil
}

func (s *fakeEntryStore) MarkFailed(ctx context.Context, id int64, errMsg string) error {
	s.statuses[id] = StatusFailed
	s.results[id] = errMsg
	return nil
}

func (s *fakeEntryStore) RecordDelivery(ctx context.Context, entryID int64, res distribution.ChannelResult) error {
	s.deliveries[entryID] = append(s.deliveries[entryID], res)
	return nil
}

// fakeGenerator returns canned content or an error per content type.
type fakeGenerator struct {
	failTypes map[string]bool
}

func (g *fakeGenerator) Generate(ctx context.Context, contentType, language string, channelID int64, opts generator.Options) (*generator.Content, error) {
	if g.failTypes[contentType] {
		return nil, fmt.Errorf("generator unavailable for %s", contentType)
	}
	return &generator.Content{Title: contentType, Body: "body " + language}, nil
}

// fakeSender delivers to every channel except those in failChannels.
type fakeSender struct {
	failChannels map[int64]bool
	sendErr      error
	calls        int
}

func (s *fakeSender) Send(ctx context.Context, content *generator.Content, language string, channelIDs []int64, mode string) (*distribution.Result, error) {
	s.calls++
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	res := &distribution.Result{}
	for _, id := range channelIDs {
		ok := !s.failChannels[id]
		res.PerChannelResults = append(res.PerChannelResults, distribution.ChannelResult{
			ChannelID: id, Success: ok,
		})
		if ok {
			res.ChannelsSent++
		}
	}
	res.Success = res.ChannelsSent > 0
	return res, nil
}

// fakePush records follow-up triggers.
type fakePush struct {
	triggers []smartpush.Trigger
}

func (p *fakePush) Enqueue(ctx context.Context, trigger smartpush.Trigger) (*smartpush.EnqueueResult, error) {
	p.triggers = append(p.triggers, trigger)
	return &smartpush.EnqueueResult{SkipReason: "probability draw declined"}, nil
}

func dueEntry(id int64, contentType string) Entry {
	return Entry{
		ID:             id,
		MatchID:        42,
		ContentType:    contentType,
		ScheduledFor:   time.Now().Add(-time.Minute),
		Priority:       5,
		Language:       "en",
		TargetChannels: []int64{1, 2, 3},
		Status:         StatusPending,
	}
}

func TestRunnerPartialChannelSuccessCompletes(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "betting_tip"))
	sender := &fakeSender{failChannels: map[int64]bool{3: true}}
	r := NewRunner(store, &fakeGenerator{}, sender, nil, 0, discardLogger())

	res, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, StatusCompleted, store.statuses[1])
	assert.Equal(t, "sent to 2/3 channels", store.results[1])
	require.Len(t, store.deliveries[1], 3)
}

func TestRunnerAllChannelsFailedMarksFailed(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "news"))
	sender := &fakeSender{failChannels: map[int64]bool{1: true, 2: true, 3: true}}
	r := NewRunner(store, &fakeGenerator{}, sender, nil, 0, discardLogger())

	res, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, StatusFailed, store.statuses[1])
	assert.Equal(t, "no channels delivered", store.results[1])
}

func TestRunnerGenerationFailureMarksFailed(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "poll"))
	sender := &fakeSender{}
	r := NewRunner(store, &fakeGenerator{failTypes: map[string]bool{"poll": true}}, sender, nil, 0, discardLogger())

	res, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, StatusFailed, store.statuses[1])
	assert.Contains(t, store.results[1], "generation failed")
	assert.Zero(t, sender.calls, "nothing to send when generation fails")
}

func TestRunnerSkipsEntriesClaimedElsewhere(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "news"), dueEntry(2, "news"))
	store.claimed[1] = true
	r := NewRunner(store, &fakeGenerator{}, &fakeSender{}, nil, 0, discardLogger())

	res, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, StatusPending, store.statuses[1], "claimed entry left alone")
	assert.Equal(t, StatusCompleted, store.statuses[2])
}

func TestRunnerFiresFollowUpTriggerAfterDelivery(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "betting_tip"))
	push := &fakePush{}
	r := NewRunner(store, &fakeGenerator{}, &fakeSender{}, push, 0, discardLogger())

	_, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)

	require.Len(t, push.triggers, 1)
	trig := push.triggers[0]
	assert.Equal(t, smartpush.TriggerAfterContent, trig.Type)
	assert.Equal(t, "betting_tip", trig.PrimaryContentType)
	assert.Equal(t, "en", trig.Language)
	assert.Equal(t, []int64{1, 2, 3}, trig.ChannelIDs)
}

func TestRunnerNoFollowUpOnFailure(t *testing.T) {
	store := newFakeEntryStore(dueEntry(1, "news"))
	push := &fakePush{}
	sender := &fakeSender{sendErr: fmt.Errorf("relay down")}
	r := NewRunner(store, &fakeGenerator{}, sender, push, 0, discardLogger())

	_, err := r.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Empty(t, push.triggers)
	assert.Equal(t, StatusFailed, store.statuses[1])
}
