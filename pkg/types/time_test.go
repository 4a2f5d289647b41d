package types

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestDurationString(t *testing.T) {
	cases := map[time.Duration]string{
		0:                       "PT0S",
		1500 * time.Millisecond: "PT1.5S",
		time.Nanosecond:         "PT0.000000001S",
		2 * time.Minute:         "PT2M",
		time.Hour + 2*time.Minute + 3*time.Second: "PT1H2M3S",
		-1500 * time.Millisecond:                  "-PT1.5S",
		math.MaxInt64:                             "PT2562047H47M16.854775807S",
		math.MinInt64:                             "-PT2562047H47M16.854775808S",
	}
	for d, want := range cases {
		if got := Duration(d).String(); got != want {
			t.Fatalf("Duration(%v).String()=%q want %q", d, got, want)
		}
		back, err := ParseDuration(want)
		if err != nil {
			t.Fatalf("ParseDuration(%q): %v", want, err)
		}
		if back.Std() != d {
			t.Fatalf("ParseDuration(%q)=%v want %v", want, back.Std(), d)
		}
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, s := range []string{"", "PT", "P1D", "1S", "PT1X", "PT1.5M", "PT1S1S", "PT0.0000000001S", "PTS",
		"PT9999999999H", "PT2562048H", "PT2562047H47M16.854775808S", "-PT2562047H47M16.854775809S", "PT99999999999999999999S"} {
		if _, err := ParseDuration(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestTimestampJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC))
	b, err := json.Marshal(ts)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2024-01-02T03:04:05.000000006Z"` {
		t.Fatalf("got %s", b)
	}
	var back Timestamp
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(ts.Time) {
		t.Fatalf("round trip mismatch: %v vs %v", back, ts)
	}
	// plain RFC 3339 is accepted on input
	if err := json.Unmarshal([]byte(`"2024-01-02T05:04:05+02:00"`), &back); err != nil {
		t.Fatalf("unmarshal rfc3339: %v", err)
	}
	if !back.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Fatalf("unexpected %v", back)
	}
	if err := json.Unmarshal([]byte(`1700000000`), &back); err == nil {
		t.Fatalf("expected error for numeric timestamp")
	}
}

func TestParseEventKind(t *testing.T) {
	for _, k := range []EventKind{KindQueryCreated, KindQueryCompleted, KindSplitCompleted} {
		got, err := ParseEventKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseEventKind(%q)=%v,%v", k.String(), got, err)
		}
	}
	if _, err := ParseEventKind("bogus"); err == nil {
		t.Fatalf("expected error")
	}
	if EventKind(9).Valid() {
		t.Fatalf("kind 9 should be invalid")
	}
}

func TestDurationJSON_Extremes(t *testing.T) {
	for _, d := range []Duration{math.MinInt64, math.MaxInt64, -1} {
		b, err := json.Marshal(d)
		if err != nil {
			t.Fatalf("marshal %d: %v", int64(d), err)
		}
		var back Duration
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", b, err)
		}
		if back != d {
			t.Fatalf("round trip %d -> %s -> %d", int64(d), b, int64(back))
		}
	}
}
