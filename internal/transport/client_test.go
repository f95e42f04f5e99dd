package transport

import (
	"context"
	"errors"
	"testing"

	"fire-rescue/viewer/internal/proto"
	"fire-rescue/viewer/internal/simtest"
)

func TestCreateInstanceReturnsIDAndInitialSnapshot(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL())

	id, snap, err := client.CreateInstance(context.Background())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if id == "" {
		t.Fatalf("expected an instance id")
	}
	if snap == nil || snap.Width() == 0 {
		t.Fatalf("expected an initial snapshot")
	}
	if snap.GameOver {
		t.Fatalf("fresh instance must not be terminal")
	}
}

func TestCreateInstanceFailureIsServiceUnavailable(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	srv.FailCreate = true
	client := NewClient(srv.URL())

	if _, _, err := client.CreateInstance(context.Background()); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestCreateInstanceUnreachableServer(t *testing.T) {
	srv := simtest.NewServer()
	url := srv.URL()
	srv.Close()
	client := NewClient(url)

	if _, _, err := client.CreateInstance(context.Background()); !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestFetchSnapshot(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	snap := simtest.NewSnapshot()
	snap.RoundCount = 4
	srv.Register("known", snap)
	client := NewClient(srv.URL())

	got, err := client.FetchSnapshot(context.Background(), "known")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if got.RoundCount != 4 {
		t.Fatalf("unexpected snapshot round %d", got.RoundCount)
	}

	if _, err := client.FetchSnapshot(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStepAdvancesSnapshot(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Register("abc", simtest.NewSnapshot())
	client := NewClient(srv.URL())

	snap, err := client.Step(context.Background(), "abc")
	if err != nil {
		t.Fatalf("step failed: %v", err)
	}
	if snap.RoundCount != 1 || snap.StepCount != 1 {
		t.Fatalf("expected counters to advance, got round=%d step=%d", snap.RoundCount, snap.StepCount)
	}
}

func TestStepOnTerminalInstanceIsRejected(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	over := simtest.NewSnapshot()
	over.GameOver = true
	over.EndReason = "Building collapsed"
	srv.Register("done", over)
	client := NewClient(srv.URL())

	if _, err := client.Step(context.Background(), "done"); !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("expected ErrCommandRejected, got %v", err)
	}
}

func TestStepOnUnknownInstanceIsRejected(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	client := NewClient(srv.URL())

	if _, err := client.Step(context.Background(), "nope"); !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("expected ErrCommandRejected, got %v", err)
	}
}

func TestAutoToggleEndpoints(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Register("abc", simtest.NewSnapshot())
	client := NewClient(srv.URL())

	if err := client.StartAuto(context.Background(), "abc"); err != nil {
		t.Fatalf("auto start failed: %v", err)
	}
	if err := client.StopAuto(context.Background(), "abc"); err != nil {
		t.Fatalf("auto stop failed: %v", err)
	}

	srv.RejectCommands = true
	if err := client.StartAuto(context.Background(), "abc"); !errors.Is(err, ErrCommandRejected) {
		t.Fatalf("expected ErrCommandRejected, got %v", err)
	}
}

func TestDeleteInstance(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Register("abc", simtest.NewSnapshot())
	client := NewClient(srv.URL())

	if err := client.DeleteInstance(context.Background(), "abc"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := client.FetchSnapshot(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted instance should be gone, got %v", err)
	}
	if err := client.DeleteInstance(context.Background(), "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestFetchRejectsMalformedSnapshot(t *testing.T) {
	srv := simtest.NewServer()
	t.Cleanup(srv.Close)
	broken := simtest.NewSnapshot()
	broken.GridData = broken.GridData[:2]
	srv.Register("broken", broken)
	client := NewClient(srv.URL())

	if _, err := client.FetchSnapshot(context.Background(), "broken"); !errors.Is(err, proto.ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}
}
