package jobs

import (
	"errors"
	"testing"

	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// TestManagerCreateAndLifecycle checks the happy-path state sequence.
func TestManagerCreateAndLifecycle(t *testing.T) {
	m := NewManager()
	job, err := m.Create("job-1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if job.Status != domain.JobStatusCreated {
		t.Fatalf("status = %s, want created", job.Status)
	}

	for _, status := range []domain.JobStatus{
		domain.JobStatusValidating,
		domain.JobStatusSpawning,
		domain.JobStatusRunning,
		domain.JobStatusDone,
	} {
		if err := m.Transition("job-1", status); err != nil {
			t.Fatalf("Transition(%s) error = %v", status, err)
		}
	}

	got, ok := m.Get("job-1")
	if !ok || got.Status != domain.JobStatusDone {
		t.Fatalf("job = %+v ok = %v", got, ok)
	}
}

// TestManagerCacheHitSkipsSpawn checks validating -> done directly.
func TestManagerCacheHitSkipsSpawn(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("job-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Transition("job-1", domain.JobStatusValidating); err != nil {
		t.Fatalf("Transition(validating) error = %v", err)
	}
	if err := m.Transition("job-1", domain.JobStatusDone); err != nil {
		t.Fatalf("Transition(done) error = %v", err)
	}
}

// TestManagerRejectsInvalidTransitions checks edges outside the machine.
func TestManagerRejectsInvalidTransitions(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("job-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := m.Transition("job-1", domain.JobStatusRunning); err == nil {
		t.Fatal("created -> running should be rejected")
	}

	if err := m.Transition("job-1", domain.JobStatusValidating); err != nil {
		t.Fatalf("Transition(validating) error = %v", err)
	}
	if err := m.Transition("job-1", domain.JobStatusRejected); err != nil {
		t.Fatalf("Transition(rejected) error = %v", err)
	}
	if err := m.Transition("job-1", domain.JobStatusRunning); err == nil {
		t.Fatal("terminal state should accept no transitions")
	}
}

// TestManagerFailureEdgesLandTerminal checks that every stage can reach a
// terminal status, so a failed job is never stuck mid-machine.
func TestManagerFailureEdgesLandTerminal(t *testing.T) {
	m := NewManager()

	if _, err := m.Create("validate-err"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := m.Transition("validate-err", domain.JobStatusValidating); err != nil {
		t.Fatalf("Transition(validating) error = %v", err)
	}
	if err := m.Transition("validate-err", domain.JobStatusErrored); err != nil {
		t.Fatalf("validating -> errored should be allowed: %v", err)
	}

	if _, err := m.Create("spawn-fail"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	for _, status := range []domain.JobStatus{domain.JobStatusValidating, domain.JobStatusSpawning} {
		if err := m.Transition("spawn-fail", status); err != nil {
			t.Fatalf("Transition(%s) error = %v", status, err)
		}
	}
	if err := m.Transition("spawn-fail", domain.JobStatusFailed); err != nil {
		t.Fatalf("spawning -> failed should be allowed: %v", err)
	}
}

// TestManagerUnknownJob checks the missing-ID error.
func TestManagerUnknownJob(t *testing.T) {
	m := NewManager()
	if err := m.Transition("ghost", domain.JobStatusValidating); !errors.Is(err, ErrUnknownJob) {
		t.Fatalf("err = %v, want ErrUnknownJob", err)
	}
}

// TestManagerTracksConcurrentJobsIndependently checks multi-job registry.
func TestManagerTracksConcurrentJobsIndependently(t *testing.T) {
	m := NewManager()
	for _, id := range []string{"a", "b"} {
		if _, err := m.Create(id); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
		if err := m.Transition(id, domain.JobStatusValidating); err != nil {
			t.Fatalf("Transition(%s) error = %v", id, err)
		}
	}

	if err := m.Transition("a", domain.JobStatusSpawning); err != nil {
		t.Fatalf("Transition(a) error = %v", err)
	}
	b, _ := m.Get("b")
	if b.Status != domain.JobStatusValidating {
		t.Fatalf("job b status = %s, want validating", b.Status)
	}
}

// TestManagerProgressAndRemove checks progress tracking and cleanup rules.
func TestManagerProgressAndRemove(t *testing.T) {
	m := NewManager()
	if _, err := m.Create("job-1"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	m.SetProgress("job-1", 42)

	job, _ := m.Get("job-1")
	if job.Progress != 42 {
		t.Fatalf("progress = %d, want 42", job.Progress)
	}

	// Active jobs are not removable.
	m.Remove("job-1")
	if _, ok := m.Get("job-1"); !ok {
		t.Fatal("active job should not be removed")
	}

	for _, status := range []domain.JobStatus{domain.JobStatusValidating, domain.JobStatusRejected} {
		if err := m.Transition("job-1", status); err != nil {
			t.Fatalf("Transition(%s) error = %v", status, err)
		}
	}
	m.Remove("job-1")
	if _, ok := m.Get("job-1"); ok {
		t.Fatal("terminal job should be removed")
	}
}
