package transportboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/miaucl/swiss-transport-board/opendata"
)

const departureLayout = "2006-01-02T15:04:05-0700"

type fakeClient struct {
	mu      sync.Mutex
	conns   []opendata.Connection
	from    string
	to      string
	err     error
	fetches int
}

func (f *fakeClient) Fetch(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return f.err
}

func (f *fakeClient) Latest() ([]opendata.Connection, string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conns, f.from, f.to
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

var testNow = time.Date(2024, 1, 6, 18, 0, 0, 0, time.UTC)

func departureAt(offset time.Duration) string {
	return testNow.Add(offset).Format(departureLayout)
}

func newTestCoordinator(client TransportClient) *Coordinator {
	c := NewCoordinator(client)
	c.now = func() time.Time { return testNow }
	return c
}

func sensorByKey(t *testing.T, key string) SensorDescriptor {
	t.Helper()
	for _, d := range Sensors() {
		if d.Key == key {
			return d
		}
	}
	t.Fatalf("no sensor with key %q", key)
	return SensorDescriptor{}
}

func TestRefreshOnce_PublishesResultSet(t *testing.T) {
	client := &fakeClient{
		conns: []opendata.Connection{
			{Departure: departureAt(2 * time.Minute), DurationSeconds: 600, Platform: "31", Number: "IC 1", Delay: 0},
			{Departure: departureAt(10 * time.Minute), DurationSeconds: 720, Platform: "32", Number: "IC 8", Delay: 1, Transfers: 1},
			{Departure: departureAt(25 * time.Minute), DurationSeconds: 660, Platform: "7", Number: "IR 16", Delay: 0},
		},
		from: "Zürich HB",
		to:   "Bern",
	}
	c := newTestCoordinator(client)

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}

	rs := c.Data()
	if len(rs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(rs))
	}
	for i, conn := range rs {
		if conn.Departure == nil {
			t.Fatalf("record %d has nil departure", i)
		}
		if conn.Start != "Zürich HB" || conn.Destination != "Bern" {
			t.Errorf("record %d names: %q -> %q", i, conn.Start, conn.Destination)
		}
	}

	// delay view, slot 1
	delayView := sensorByKey(t, "delay")
	delayView.Index = 1
	v, ok := delayView.Read(rs)
	if !ok {
		t.Fatal("delay view should exist for slot 1")
	}
	if v != 1 {
		t.Errorf("delay view for slot 1 = %v, expected 1", v)
	}

	// departure0 equals the first record's timestamp
	dep0 := sensorByKey(t, "departure0")
	v, ok = dep0.Read(rs)
	if !ok {
		t.Fatal("departure0 should exist")
	}
	ts, isTime := v.(time.Time)
	if !isTime {
		t.Fatalf("departure0 value is %T, expected time.Time", v)
	}
	if !ts.Equal(*rs[0].Departure) {
		t.Errorf("departure0 = %v, record 0 departure = %v", ts, *rs[0].Departure)
	}

	// remaining time for the first record is ~2 minutes
	if rs[0].RemainingTime == nil {
		t.Fatal("record 0 remaining time is nil")
	}
	if diff := *rs[0].RemainingTime - 2*time.Minute; diff < -time.Second || diff > time.Second {
		t.Errorf("remaining time = %v, expected ~2m", *rs[0].RemainingTime)
	}
}

func TestRefreshOnce_TruncatesToMaxConnections(t *testing.T) {
	conns := make([]opendata.Connection, 5)
	for i := range conns {
		conns[i] = opendata.Connection{Departure: departureAt(time.Duration(i+1) * time.Minute)}
	}
	c := newTestCoordinator(&fakeClient{conns: conns})

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	if len(c.Data()) != MaxConnections {
		t.Errorf("expected %d records, got %d", MaxConnections, len(c.Data()))
	}
}

func TestRefreshOnce_FewerThanMax(t *testing.T) {
	c := newTestCoordinator(&fakeClient{conns: []opendata.Connection{
		{Departure: departureAt(5 * time.Minute)},
	}})

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	if len(c.Data()) != 1 {
		t.Errorf("expected 1 record (no padding), got %d", len(c.Data()))
	}
}

func TestRefreshOnce_EmptyUpstream(t *testing.T) {
	c := newTestCoordinator(&fakeClient{})

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	rs := c.Data()
	if len(rs) != 0 {
		t.Fatalf("expected empty result set, got %d records", len(rs))
	}
	for _, d := range Sensors() {
		if d.Exists(rs) {
			t.Errorf("sensor %q should not exist on an empty result set", d.Key)
		}
	}
}

func TestRefreshOnce_UnparseableDeparture(t *testing.T) {
	c := newTestCoordinator(&fakeClient{conns: []opendata.Connection{
		{Departure: "soon", Platform: "4"},
	}})

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	rs := c.Data()
	if len(rs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(rs))
	}
	if rs[0].Departure != nil {
		t.Errorf("unparseable departure should be nil, got %v", rs[0].Departure)
	}
	if rs[0].RemainingTime != nil {
		t.Errorf("remaining time should be nil for unparseable departure, got %v", rs[0].RemainingTime)
	}

	v, ok := sensorByKey(t, "departure0").Read(rs)
	if !ok {
		t.Fatal("departure0 view should exist, the slot is present")
	}
	if v != nil {
		t.Errorf("departure0 value should be nil, got %v", v)
	}
}

func TestRefreshOnce_RemainingTimeFiveMinutes(t *testing.T) {
	c := newTestCoordinator(&fakeClient{conns: []opendata.Connection{
		{Departure: departureAt(5 * time.Minute)},
	}})

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	rs := c.Data()
	if rs[0].RemainingTime == nil {
		t.Fatal("remaining time is nil")
	}
	if diff := *rs[0].RemainingTime - 5*time.Minute; diff < -time.Second || diff > time.Second {
		t.Errorf("remaining time = %v, expected ~5m", *rs[0].RemainingTime)
	}
}

func TestRefreshOnce_FailureKeepsLastKnownGood(t *testing.T) {
	client := &fakeClient{conns: []opendata.Connection{
		{Departure: departureAt(2 * time.Minute), Platform: "31"},
	}}
	c := newTestCoordinator(client)

	if err := c.RefreshOnce(context.Background()); err != nil {
		t.Fatalf("RefreshOnce() err=%v", err)
	}
	if !c.Healthy() {
		t.Fatal("coordinator should be healthy after a success")
	}

	updates, unsubscribe := c.Subscribe()
	defer unsubscribe()

	// Wait for the startup refresh so the next update is our failed poll.
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no startup update received")
	}

	client.mu.Lock()
	client.err = errors.New("boom")
	client.mu.Unlock()

	if err := c.RefreshOnce(context.Background()); err == nil {
		t.Fatal("expected update-failed error, got nil")
	}

	rs := c.Data()
	if len(rs) != 1 || rs[0].Platform != "31" {
		t.Errorf("previous result set must stay published, got %+v", rs)
	}
	if c.Healthy() {
		t.Error("coordinator should be unhealthy after a failed poll")
	}
	if c.LastError() == nil {
		t.Error("LastError should be set after a failed poll")
	}

	select {
	case u := <-updates:
		if u.Err == nil {
			t.Error("subscriber should receive an update-failed signal")
		}
	case <-time.After(time.Second):
		t.Error("no update-failed signal delivered")
	}
}

func TestSubscribe_StartsAndStopsRefreshLoop(t *testing.T) {
	client := &fakeClient{}
	c := NewCoordinator(client)
	c.interval = 10 * time.Millisecond

	_, unsubscribe := c.Subscribe()

	deadline := time.After(2 * time.Second)
	for client.fetchCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("refresh loop did not run, fetches=%d", client.fetchCount())
		case <-time.After(5 * time.Millisecond):
		}
	}

	unsubscribe()

	stopped := client.fetchCount()
	time.Sleep(50 * time.Millisecond)
	if got := client.fetchCount(); got != stopped {
		t.Errorf("refresh loop kept polling after last unsubscribe: %d -> %d", stopped, got)
	}
}

func TestSubscribe_SecondUnsubscribeKeepsLoop(t *testing.T) {
	client := &fakeClient{}
	c := NewCoordinator(client)
	c.interval = 10 * time.Millisecond

	_, unsub1 := c.Subscribe()
	_, unsub2 := c.Subscribe()
	defer unsub1()

	unsub2()

	before := client.fetchCount()
	deadline := time.After(2 * time.Second)
	for client.fetchCount() <= before {
		select {
		case <-deadline:
			t.Fatal("refresh loop stopped although a subscriber remains")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestUnsubscribe_ClosesUpdateChannel(t *testing.T) {
	client := &fakeClient{conns: []opendata.Connection{
		{Departure: departureAt(2 * time.Minute)},
	}}
	c := newTestCoordinator(client)
	c.interval = 10 * time.Millisecond

	updates, unsubscribe := c.Subscribe()

	// A ranging consumer, as the MQTT publisher runs one.
	finished := make(chan struct{})
	go func() {
		for range updates {
		}
		close(finished)
	}()

	unsubscribe()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("updates channel never closed, ranging consumer still blocked after unsubscribe")
	}

	// Unsubscribing twice must not close the channel again.
	unsubscribe()
}
