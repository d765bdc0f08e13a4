package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestParseHHMM(t *testing.T) {
	cases := []struct {
		in      string
		hour    int
		minute  int
		wantErr bool
	}{
		{in: "10:00", hour: 10},
		{in: "21:30", hour: 21, minute: 30},
		{in: "00:05", minute: 5},
		{in: "24:00", wantErr: true},
		{in: "ten", wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			h, m, err := ParseHHMM(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHHMM failed: %v", err)
			}
			if h != tc.hour || m != tc.minute {
				t.Fatalf("unexpected result: got=%02d:%02d want=%02d:%02d", h, m, tc.hour, tc.minute)
			}
		})
	}
}

func TestDailyRegistersEntries(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/Madrid")
	s := New(context.Background(), loc)
	for _, slot := range []string{"10:00", "12:00", "14:00"} {
		if err := s.Daily("broadcast", slot, func(context.Context) {}); err != nil {
			t.Fatalf("Daily failed: %v", err)
		}
	}
	if err := s.Daily("broken", "7pm", func(context.Context) {}); err == nil {
		t.Fatalf("expected error for bad slot")
	}
	if got := s.Entries(); got != 3 {
		t.Fatalf("unexpected entries: got=%d want=3", got)
	}
}

func TestOnceFiresWithSchedulerContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "bound")
	s := New(ctx, time.UTC)

	got := make(chan string, 1)
	s.Once(10*time.Millisecond, func(ctx context.Context) {
		v, _ := ctx.Value(key{}).(string)
		got <- v
	})

	select {
	case v := <-got:
		if v != "bound" {
			t.Fatalf("unexpected context value: got=%q", v)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("one-shot job did not fire")
	}
}

func TestOnceRecoversPanics(t *testing.T) {
	s := New(context.Background(), time.UTC)
	done := make(chan struct{})
	s.Once(time.Millisecond, func(context.Context) {
		defer close(done)
		panic("boom")
	})
	<-done

	deadline := time.Now().Add(2 * time.Second)
	for s.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("pending count not released: %d", s.Pending())
		}
		time.Sleep(5 * time.Millisecond)
	}
}
