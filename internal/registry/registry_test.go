package registry

import (
	"context"
	"errors"
	"testing"
)

type memoryStore struct {
	saved   map[int64]bool
	loadErr error
}

func (m *memoryStore) LoadActiveChats(ctx context.Context) (map[int64]bool, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *memoryStore) SaveActiveChats(ctx context.Context, chats map[int64]bool) error {
	m.saved = chats
	return nil
}

func TestActivateDeactivate(t *testing.T) {
	r := New(&memoryStore{})

	if !r.Activate(-100) {
		t.Fatalf("first activation should report a change")
	}
	if r.Activate(-100) {
		t.Fatalf("second activation should not report a change")
	}
	r.Activate(-300)
	r.Activate(-200)

	got := r.Active()
	want := []int64{-300, -200, -100}
	if len(got) != len(want) {
		t.Fatalf("unexpected active chats: got=%v want=%v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected active chats: got=%v want=%v", got, want)
		}
	}

	if !r.Deactivate(-200) {
		t.Fatalf("deactivate should report a change")
	}
	if r.IsActive(-200) {
		t.Fatalf("chat -200 should be inactive")
	}
	if r.Deactivate(-999) {
		t.Fatalf("deactivating unknown chat should not report a change")
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := &memoryStore{}
	r := New(store)
	r.Activate(1)
	r.Activate(2)
	r.Deactivate(2)

	if err := r.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := New(store)
	if err := restored.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !restored.IsActive(1) || restored.IsActive(2) {
		t.Fatalf("unexpected restored state: %v", restored.Active())
	}
}

func TestLoadError(t *testing.T) {
	r := New(&memoryStore{loadErr: errors.New("disk gone")})
	if err := r.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
}
