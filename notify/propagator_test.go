package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnqbao/gau-docgen-orchestrator/config"
	"github.com/tnqbao/gau-docgen-orchestrator/infra"
)

type fakeStream struct {
	msgs chan string
}

func (s *fakeStream) Messages() <-chan string { return s.msgs }
func (s *fakeStream) Close() error            { return nil }

type fakeSource struct {
	mu       sync.Mutex
	failures int
	streams  []*fakeStream
}

func (f *fakeSource) Subscribe(_ context.Context, _ string) (EventStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("broker unavailable")
	}
	stream := &fakeStream{msgs: make(chan string, 8)}
	f.streams = append(f.streams, stream)
	return stream, nil
}

func (f *fakeSource) current() *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

func (f *fakeSource) streamCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.streams)
}

func testPropagator(source EventSource) *Propagator {
	logger := infra.InitLoggerClient(&config.EnvConfig{})
	return NewPropagator(source, logger, time.Millisecond)
}

func encode(t *testing.T, event ChangeEvent) string {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return string(raw)
}

func waitForEvent(t *testing.T, events <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change event")
		return ChangeEvent{}
	}
}

func waitForStreams(t *testing.T, source *fakeSource, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for source.streamCount() < want {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d subscriptions", want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestPropagatorDeliversEvents(t *testing.T) {
	source := &fakeSource{}
	p := testPropagator(source)
	ownerID := uuid.New()

	received := make(chan ChangeEvent, 8)
	sub := p.Subscribe(ownerID, func(event ChangeEvent) { received <- event })
	defer sub.Unsubscribe()

	waitForStreams(t, source, 1)

	sent := ChangeEvent{JobID: uuid.New(), OwnerID: ownerID, Change: ChangeUpdate, Status: "PROCESSING"}
	source.current().msgs <- encode(t, sent)

	got := waitForEvent(t, received)
	assert.Equal(t, sent, got)

	select {
	case extra := <-received:
		t.Fatalf("unexpected extra event: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPropagatorNoRecoveryOnCleanSubscribe(t *testing.T) {
	source := &fakeSource{}
	p := testPropagator(source)

	received := make(chan ChangeEvent, 8)
	sub := p.Subscribe(uuid.New(), func(event ChangeEvent) { received <- event })
	defer sub.Unsubscribe()

	waitForStreams(t, source, 1)

	select {
	case event := <-received:
		t.Fatalf("no event expected after a clean first subscribe, got %+v", event)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPropagatorRecoveryAfterFailedSubscribe(t *testing.T) {
	source := &fakeSource{failures: 2}
	p := testPropagator(source)
	ownerID := uuid.New()

	received := make(chan ChangeEvent, 8)
	sub := p.Subscribe(ownerID, func(event ChangeEvent) { received <- event })
	defer sub.Unsubscribe()

	got := waitForEvent(t, received)
	assert.Equal(t, ChangeRecovery, got.Change)
	assert.Equal(t, ownerID, got.OwnerID)
}

func TestPropagatorReconnectsAfterDrop(t *testing.T) {
	source := &fakeSource{}
	p := testPropagator(source)
	ownerID := uuid.New()

	received := make(chan ChangeEvent, 8)
	sub := p.Subscribe(ownerID, func(event ChangeEvent) { received <- event })
	defer sub.Unsubscribe()

	waitForStreams(t, source, 1)

	// Drop the channel; the propagator must resubscribe and flag the gap
	// with exactly one recovery event.
	close(source.current().msgs)
	waitForStreams(t, source, 2)

	got := waitForEvent(t, received)
	assert.Equal(t, ChangeRecovery, got.Change)

	sent := ChangeEvent{JobID: uuid.New(), OwnerID: ownerID, Change: ChangeInsert, Status: "PENDING"}
	source.current().msgs <- encode(t, sent)
	assert.Equal(t, sent, waitForEvent(t, received))
}

func TestPropagatorDropsMalformedPayload(t *testing.T) {
	source := &fakeSource{}
	p := testPropagator(source)
	ownerID := uuid.New()

	received := make(chan ChangeEvent, 8)
	sub := p.Subscribe(ownerID, func(event ChangeEvent) { received <- event })
	defer sub.Unsubscribe()

	waitForStreams(t, source, 1)

	source.current().msgs <- "{not json"
	sent := ChangeEvent{JobID: uuid.New(), OwnerID: ownerID, Change: ChangeDelete}
	source.current().msgs <- encode(t, sent)

	assert.Equal(t, sent, waitForEvent(t, received), "malformed payloads are skipped, not fatal")
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	p := testPropagator(source)

	sub := p.Subscribe(uuid.New(), func(ChangeEvent) {})
	waitForStreams(t, source, 1)

	done := make(chan struct{})
	go func() {
		sub.Unsubscribe()
		close(done)
	}()
	sub.Unsubscribe()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent Unsubscribe did not return")
	}
}
