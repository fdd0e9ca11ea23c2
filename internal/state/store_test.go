package state

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestStore_RecordSuccess(t *testing.T) {
	var s Store

	before := time.Now()
	s.Record(nil)

	snap := s.Snapshot()
	if snap.LastUpdated.Before(before) || snap.LastSuccess.Before(before) {
		t.Fatalf("timestamps = %v/%v, want >= %v", snap.LastUpdated, snap.LastSuccess, before)
	}
	if snap.LastError != nil {
		t.Fatalf("LastError = %v, want nil", snap.LastError)
	}
	if snap.Requests != 1 {
		t.Fatalf("Requests = %d, want 1", snap.Requests)
	}
}

func TestStore_RecordErrorKeepsLastSuccess(t *testing.T) {
	var s Store

	s.Record(nil)
	prev := s.Snapshot()

	origErr := errors.New("boom")
	s.Record(origErr)

	snap := s.Snapshot()
	if !snap.LastSuccess.Equal(prev.LastSuccess) {
		t.Fatalf("LastSuccess changed on error: got %v want %v", snap.LastSuccess, prev.LastSuccess)
	}
	if snap.LastError == nil || snap.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", snap.LastError)
	}
	if !errors.Is(snap.LastError, origErr) {
		t.Fatal("LastError should wrap the recorded error")
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Snapshot should clone error instance")
	}
}

func TestStore_ConsecutiveFailures(t *testing.T) {
	var s Store

	snap := s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("fresh store = %+v, want online", snap)
	}

	s.Record(errors.New("fail 1"))
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 1 {
		t.Fatalf("ConsecutiveFailures = %d, want 1", snap.ConsecutiveFailures)
	}
	if snap.IsOffline() {
		t.Fatal("IsOffline() = true, want false with 1 failure")
	}

	s.Record(errors.New("fail 2"))
	snap = s.Snapshot()
	if !snap.IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	s.Record(errors.New("fail 3"))
	if got := s.Snapshot().ConsecutiveFailures; got != 3 {
		t.Fatalf("ConsecutiveFailures = %d, want 3", got)
	}

	s.Record(nil)
	snap = s.Snapshot()
	if snap.ConsecutiveFailures != 0 || snap.IsOffline() {
		t.Fatalf("after success = %+v, want online", snap)
	}
}
