package exifai

import (
	"context"
	"errors"
	"testing"
	"time"
)

// sequence returns a call that yields each value in turn; an empty string is returned as an error.
func sequence(vals ...string) (func(context.Context) (string, error), *int) {
	n := 0
	return func(context.Context) (string, error) {
		v := vals[min(n, len(vals)-1)]
		n++
		if v == "" {
			return "", errors.New("provider failed")
		}
		return v, nil
	}, &n
}

func accept(s string) bool { return s == "good" }

func TestAttempt(t *testing.T) {
	tests := []struct {
		name      string
		vals      []string
		repeat    int
		wantState State
		wantCalls int
		wantLast  string
		wantErr   bool
	}{
		{name: "first try", vals: []string{"good"}, repeat: 3, wantState: Accepted, wantCalls: 1},
		{name: "after rejection", vals: []string{"bad", "good"}, repeat: 3, wantState: Accepted, wantCalls: 2, wantLast: "bad"},
		{name: "after error", vals: []string{"", "good"}, repeat: 1, wantState: Accepted, wantCalls: 2},
		{name: "exhausted", vals: []string{"bad"}, repeat: 2, wantState: Exhausted, wantCalls: 3, wantLast: "bad"},
		{name: "no repeat", vals: []string{"bad", "good"}, repeat: 0, wantState: Exhausted, wantCalls: 1, wantLast: "bad"},
		{name: "negative repeat", vals: []string{"bad", "good"}, repeat: -5, wantState: Exhausted, wantCalls: 1, wantLast: "bad"},
		{name: "errors only", vals: []string{""}, repeat: 1, wantState: Exhausted, wantCalls: 2, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			call, calls := sequence(tc.vals...)
			out := Attempt(context.Background(), call, accept, tc.repeat, WithName(tc.name))
			if out.State != tc.wantState {
				t.Errorf("State = %v, want %v", out.State, tc.wantState)
			}
			if *calls != tc.wantCalls || out.Attempts != tc.wantCalls {
				t.Errorf("calls = %d, Attempts = %d, want %d", *calls, out.Attempts, tc.wantCalls)
			}
			if out.OK() && out.Value != "good" {
				t.Errorf("Value = %q, want good", out.Value)
			}
			if !out.OK() && out.Value != "" {
				t.Errorf("exhausted Value = %q, want zero", out.Value)
			}
			if out.Last != tc.wantLast || out.HasLast != (tc.wantLast != "") {
				t.Errorf("Last = %q (%v), want %q", out.Last, out.HasLast, tc.wantLast)
			}
			if (out.Err != nil) != tc.wantErr && tc.wantState == Exhausted {
				t.Errorf("Err = %v, wantErr %v", out.Err, tc.wantErr)
			}
		})
	}
}

func TestAttemptDelay(t *testing.T) {
	call, _ := sequence("bad", "bad", "good")
	start := time.Now()
	out := Attempt(context.Background(), call, accept, 2, WithDelay(20*time.Millisecond))
	if !out.OK() {
		t.Fatalf("State = %v, want accepted", out.State)
	}
	if d := time.Since(start); d < 40*time.Millisecond {
		t.Errorf("two retries took %s, want at least 40ms", d)
	}
}

func TestAttemptCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	n := 0
	call := func(context.Context) (string, error) {
		n++
		cancel()
		return "bad", nil
	}
	out := Attempt(ctx, call, accept, 10)
	if out.State != Exhausted {
		t.Errorf("State = %v, want exhausted", out.State)
	}
	if n != 1 {
		t.Errorf("calls = %d after cancel, want 1", n)
	}
	if !errors.Is(out.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", out.Err)
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{Attempting: "attempting", Accepted: "accepted", Exhausted: "exhausted", State(9): "unknown"} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}

func TestAcceptDescription(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"A dog running on a beach.", true},
		{"   short    ", false},
		{"exactly10c", false},
		{"eleven char", true},
		{"这是一张在海边奔跑的小狗的照片", true},
		{"**A dog** running on a beach", false},
		{"# Description\nA dog", false},
		{"> quoted description here", false},
		{"a `code` description here", false},
	}
	for _, tc := range tests {
		if got := AcceptDescription(tc.in); got != tc.want {
			t.Errorf("AcceptDescription(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestAcceptTags(t *testing.T) {
	if AcceptTags(nil) || AcceptTags([]string{"one"}) {
		t.Error("AcceptTags accepted fewer than two tags")
	}
	if !AcceptTags([]string{"one", "two"}) {
		t.Error("AcceptTags rejected two tags")
	}
}
