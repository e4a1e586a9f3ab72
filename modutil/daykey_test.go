package modutil

import "testing"

func TestDayKeyFromTs(t *testing.T) {
	cases := []struct {
		name    string
		ts      interface{}
		want    string
		wantErr bool
	}{
		{"epoch zero", int64(0), "19700101", false},
		{"millis 2026-07-29 08:00 UTC", int64(1785312000000), "20260729", false},
		{"numeric string rejected", "1785312000000", "", true},
		{"nil rejected", nil, "", true},
		{"float64 truncates", float64(1000), "19700101", false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := DayKeyFromTs(c.ts)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got dayKey %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("DayKeyFromTs(%v) = %q, want %q", c.ts, got, c.want)
			}
		})
	}
}

func TestDayKeyFromTsDeterministic(t *testing.T) {
	ts := int64(1700000000000)
	first, err := DayKeyFromTs(ts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 5; i++ {
		got, err := DayKeyFromTs(ts)
		if err != nil {
			t.Fatalf("unexpected error on rerun %d: %v", i, err)
		}
		if got != first {
			t.Errorf("DayKeyFromTs is not deterministic: run %d got %q, first was %q", i, got, first)
		}
	}
}

func TestStatusSubmittedAtKey(t *testing.T) {
	cases := []struct {
		name    string
		status  string
		ts      int64
		want    string
		wantErr bool
	}{
		{"normal", "pending", 1700000000000, "pending#1700000000000", false},
		{"empty status rejected", "", 1700000000000, "", true},
		{"zero timestamp rejected", "pending", 0, "", true},
		{"negative timestamp rejected", "pending", -1, "", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := StatusSubmittedAtKey(c.status, c.ts)
			if c.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != c.want {
				t.Errorf("StatusSubmittedAtKey(%q, %d) = %q, want %q", c.status, c.ts, got, c.want)
			}
		})
	}
}

func TestPartitionKeyAndSortKey(t *testing.T) {
	if got := PartitionKey("u1"); got != "moderation#u1" {
		t.Errorf("PartitionKey(%q) = %q", "u1", got)
	}
	if got := SortKey(1700000000000, "abc"); got != "media#1700000000000#abc" {
		t.Errorf("SortKey(...) = %q", got)
	}
}
