package jobs

import "testing"

// TestEventBusSequencesAndTrims checks ordering and bounded history.
func TestEventBusSequencesAndTrims(t *testing.T) {
	bus := NewEventBus(3)

	for i := 0; i < 5; i++ {
		event := bus.Publish(Event{JobID: "job-1", Type: EventTypeProgress, Progress: i * 20})
		if event.Seq != int64(i+1) {
			t.Fatalf("seq = %d, want %d", event.Seq, i+1)
		}
		if event.Timestamp.IsZero() {
			t.Fatal("timestamp not assigned")
		}
	}

	all := bus.Since(0)
	if len(all) != 3 {
		t.Fatalf("retained events = %d, want 3", len(all))
	}
	if all[0].Seq != 3 || all[2].Seq != 5 {
		t.Fatalf("retained seqs = %d..%d, want 3..5", all[0].Seq, all[2].Seq)
	}
}

// TestEventBusSinceFiltersStrictly checks incremental reads.
func TestEventBusSinceFiltersStrictly(t *testing.T) {
	bus := NewEventBus(10)
	bus.Publish(Event{JobID: "a", Type: EventTypeStatus})
	bus.Publish(Event{JobID: "a", Type: EventTypeResult, Text: "done"})

	got := bus.Since(1)
	if len(got) != 1 || got[0].Type != EventTypeResult {
		t.Fatalf("Since(1) = %+v", got)
	}
	if len(bus.Since(2)) != 0 {
		t.Fatal("Since(last) should be empty")
	}
}
