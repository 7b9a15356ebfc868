package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ghavvvo/pulpy/internal/domain"
)

func TestFileMirrorRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultMirrorFile)
	mirror := NewFileMirror(path)

	snap, err := mirror.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatal("expected no snapshot before the first save")
	}

	want := &Snapshot{
		Token: "tok-1",
		Bundle: domain.Bundle{
			Profile:      domain.Profile{ID: "p-1", Handle: "alice"},
			Subscription: domain.FreeSubscription("p-1"),
		},
	}
	if err := mirror.Save(want); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := mirror.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.Token != "tok-1" || got.Bundle.Profile.Handle != "alice" {
		t.Fatalf("round trip lost data: %+v", got)
	}
}

func TestFileMirrorClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultMirrorFile)
	mirror := NewFileMirror(path)

	if err := mirror.Save(&Snapshot{Token: "tok-1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := mirror.Clear(); err != nil {
			t.Fatalf("clear %d failed: %v", i, err)
		}
	}
	if snap, _ := mirror.Load(); snap != nil {
		t.Fatal("expected no snapshot after clear")
	}
}

func TestFileMirrorTreatsCorruptBlobAsAbsent(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultMirrorFile)
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	snap, err := NewFileMirror(path).Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap != nil {
		t.Fatal("corrupt mirror must read as absent")
	}
}
