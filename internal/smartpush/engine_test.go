package smartpush

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scorewire/telecast/internal/distribution"
	"github.com/scorewire/telecast/internal/generator"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeQueueStore is an in-memory QueueStore.
type fakeQueueStore struct {
	nextID     int64
	items      map[int64]*Item
	due        []Item
	claimed    map[int64]bool
	failures   map[int64]string
	deliveries map[int64]int
}

func newFakeQueueStore() *fakeQueueStore {
	return &fakeQueueStore{
		items:      map[int64]*Item{},
		claimed:    map[int64]bool{},
		failures:   map[int64]string{},
		deliveries: map[int64]int{},
	}
}

func (s *fakeQueueStore) InsertItem(ctx context.Context, item *Item) (int64, error) {
	s.nextID++
	stored := *item
	stored.ID = s.nextID
	s.items[s.nextID] = &stored
	return s.nextID, nil
}

func (s *fakeQueueStore) DueItems(ctx context.Context, now time.Time) ([]Item, error) {
	return s.due, nil
}

func (s *fakeQueueStore) MarkProcessing(ctx context.Context, id int64) error {
	if s.claimed[id] {
		return ErrNotClaimed
	}
	s.claimed[id] = true
	return nil
}

func (s *fakeQueueStore) MarkCompleted(ctx context.Context, id int64) error {
	if item, ok := s.items[id]; ok {
		item.Status = StatusCompleted
	} else {
		s.items[id] = &Item{ID: id, Status: StatusCompleted}
	}
	return nil
}

func (s *fakeQueueStore) MarkFailed(ctx context.Context, id int64, reason string) error {
	s.failures[id] = reason
	return nil
}

func (s *fakeQueueStore) RecordDelivery(ctx context.Context, itemID int64, res distribution.ChannelResult) error {
	s.deliveries[itemID]++
	return nil
}

// fakeSelector returns canned follow-up content, nothing, or an error.
type fakeSelector struct {
	content  *generator.Content
	couponID string
	err      error
}

func (s *fakeSelector) SelectFollowUp(ctx context.Context, primaryContentType, language string) (*generator.Content, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	return s.content, s.couponID, nil
}

type fakeSender struct {
	failChannels map[int64]bool
	calls        int
}

func (s *fakeSender) Send(ctx context.Context, content *generator.Content, language string, channelIDs []int64, mode string) (*distribution.Result, error) {
	s.calls++
	res := &distribution.Result{}
	for _, id := range channelIDs {
		ok := !s.failChannels[id]
		res.PerChannelResults = append(res.PerChannelResults, distribution.ChannelResult{ChannelID: id, Success: ok})
		if ok {
			res.ChannelsSent++
		}
	}
	res.Success = res.ChannelsSent > 0
	return res, nil
}

func followUpContent() *generator.Content {
	return &generator.Content{Title: "Coupon of the day", Body: "odds inside"}
}

func newTestEngine(store QueueStore, selector generator.Selector, sender distribution.Sender, seed uint64, now time.Time) *Engine {
	return NewEngine(store, selector, sender,
		rand.New(rand.NewPCG(seed, seed>>1)),
		func() time.Time { return now },
		time.UTC, discardLogger())
}

func afterContentTrigger() Trigger {
	return Trigger{
		Type:               TriggerAfterContent,
		PrimaryContentID:   "entry-1",
		PrimaryContentType: "betting_tip",
		Language:           "en",
		ChannelIDs:         []int64{1, 2},
	}
}

func TestEnqueueSkipsOutsideActiveHours(t *testing.T) {
	for _, hour := range []int{0, 3, 5, 23} {
		now := time.Date(2026, 3, 2, hour, 30, 0, 0, time.UTC)
		store := newFakeQueueStore()
		e := newTestEngine(store, &fakeSelector{content: followUpContent()}, &fakeSender{}, 1, now)

		trigger := afterContentTrigger()
		trigger.ForceSend = true // even forced sends respect quiet hours
		res, err := e.Enqueue(context.Background(), trigger)
		require.NoError(t, err)
		assert.Equal(t, "outside active hours", res.SkipReason, "hour %d", hour)
		assert.Empty(t, store.items)
	}
}

func TestEnqueueProbabilityDraw(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	e := newTestEngine(store, &fakeSelector{content: followUpContent(), couponID: "c-9"}, &fakeSender{}, 42, now)

	queued, skipped := 0, 0
	for i := 0; i < 200; i++ {
		res, err := e.Enqueue(context.Background(), afterContentTrigger())
		require.NoError(t, err)
		switch {
		case res.Item != nil:
			queued++
			assert.GreaterOrEqual(t, res.Item.DelayMinutes, minDelayMinutes)
			assert.LessOrEqual(t, res.Item.DelayMinutes, maxDelayMinutes)
			want := now.Add(time.Duration(res.Item.DelayMinutes) * time.Minute)
			assert.True(t, res.Item.ScheduledAt.Equal(want))
			assert.Equal(t, "c-9", res.Item.SelectedCouponID)
			assert.Equal(t, StatusPending, res.Item.Status)
		case res.Skipped():
			skipped++
			assert.Equal(t, "probability draw declined", res.SkipReason)
		}
	}
	// betting_tip attaches a follow-up ~80% of the time; both outcomes must
	// appear over 200 draws.
	assert.Greater(t, queued, 0)
	assert.Greater(t, skipped, 0)
	assert.Greater(t, queued, skipped)
}

func TestEnqueueHonorsExplicitDelay(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	e := newTestEngine(store, &fakeSelector{content: followUpContent()}, &fakeSender{}, 1, now)

	trigger := afterContentTrigger()
	trigger.DelayMinutes = 45

	// The draw can decline; retry until it queues.
	for i := 0; i < 100; i++ {
		res, err := e.Enqueue(context.Background(), trigger)
		require.NoError(t, err)
		if res.Item == nil {
			continue
		}
		assert.Equal(t, 45, res.Item.DelayMinutes)
		assert.True(t, res.Item.ScheduledAt.Equal(now.Add(45*time.Minute)))
		return
	}
	t.Fatal("trigger never queued in 100 draws")
}

func TestEnqueueForcedManualSendsImmediately(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	sender := &fakeSender{}
	e := newTestEngine(store, &fakeSelector{content: followUpContent()}, sender, 1, now)

	res, err := e.Enqueue(context.Background(), Trigger{
		Type:               TriggerManual,
		PrimaryContentType: "poll",
		Language:           "en",
		ChannelIDs:         []int64{7},
		ForceSend:          true,
	})
	require.NoError(t, err)
	assert.True(t, res.SentNow)
	assert.Equal(t, 1, sender.calls)
	assert.Empty(t, store.items, "forced sends bypass the queue")
}

func TestEnqueueSkipsWhenNoFollowUpExists(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	e := newTestEngine(newFakeQueueStore(), &fakeSelector{}, &fakeSender{}, 1, now)

	trigger := afterContentTrigger()
	trigger.ForceSend = true // bypass the draw; selection is the variable here
	res, err := e.Enqueue(context.Background(), trigger)
	require.NoError(t, err)
	assert.Equal(t, "no suitable follow-up content", res.SkipReason)
}

func TestProcessQueuePartialChannelSuccessCompletes(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	store.items[1] = &Item{ID: 1, Status: StatusPending}
	store.due = []Item{{
		ID: 1, PrimaryContentType: "betting_tip", Language: "en",
		ChannelIDs: []int64{1, 2, 3}, Status: StatusPending,
	}}
	sender := &fakeSender{failChannels: map[int64]bool{3: true}}
	e := newTestEngine(store, &fakeSelector{content: followUpContent()}, sender, 1, now)

	res, err := e.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Successful)
	assert.Equal(t, StatusCompleted, store.items[1].Status)
	assert.Equal(t, 3, store.deliveries[1], "every channel outcome recorded")
}

func TestProcessQueueSkipsItemsClaimedElsewhere(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	store.due = []Item{
		{ID: 1, PrimaryContentType: "news", Language: "en", ChannelIDs: []int64{1}},
		{ID: 2, PrimaryContentType: "news", Language: "en", ChannelIDs: []int64{1}},
	}
	store.claimed[1] = true
	e := newTestEngine(store, &fakeSelector{content: followUpContent()}, &fakeSender{}, 1, now)

	res, err := e.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Successful)
}

func TestProcessQueueFailsWhenContentGone(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	store.due = []Item{{ID: 1, PrimaryContentType: "poll", Language: "en", ChannelIDs: []int64{1}}}
	e := newTestEngine(store, &fakeSelector{}, &fakeSender{}, 1, now)

	res, err := e.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "follow-up content no longer available", store.failures[1])
}

func TestProcessQueueSelectorErrorFailsItem(t *testing.T) {
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	store := newFakeQueueStore()
	store.due = []Item{{ID: 1, PrimaryContentType: "poll", Language: "en", ChannelIDs: []int64{1}}}
	e := newTestEngine(store, &fakeSelector{err: fmt.Errorf("selector down")}, &fakeSender{}, 1, now)

	res, err := e.ProcessQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, "selector down", store.failures[1])
}
