package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the only layout used for date/time values on the wire.
// It is fixed width and always UTC so consumers never see epoch numbers.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// Timestamp is a point in time that encodes as a fixed-format UTC string.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// TimestampPtr wraps t and returns a pointer, for optional fields.
func TimestampPtr(t time.Time) *Timestamp {
	ts := NewTimestamp(t)
	return &ts
}

// String returns the wire form of the timestamp.
func (t Timestamp) String() string { return t.UTC().Format(TimestampLayout) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if y := t.UTC().Year(); y < 0 || y > 9999 {
		return nil, fmt.Errorf("timestamp year %d outside of [0,9999]", y)
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts the canonical layout and any RFC 3339 string.
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	v, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	t.Time = v
	return nil
}

// Duration is an elapsed time that encodes as an ISO-8601 duration string
// such as "PT1M2.5S".
type Duration time.Duration

// DurationPtr returns a pointer to d, for optional fields.
func DurationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// String formats d in ISO-8601 form with nanosecond precision.
func (d Duration) String() string {
	n := int64(d)
	u := uint64(n)
	var b strings.Builder
	if n < 0 {
		b.WriteByte('-')
		u = -u
	}
	b.WriteString("PT")
	h := u / uint64(time.Hour)
	u %= uint64(time.Hour)
	m := u / uint64(time.Minute)
	u %= uint64(time.Minute)
	if h > 0 {
		b.WriteString(strconv.FormatUint(h, 10))
		b.WriteByte('H')
	}
	if m > 0 {
		b.WriteString(strconv.FormatUint(m, 10))
		b.WriteByte('M')
	}
	if u > 0 || (h == 0 && m == 0) {
		b.WriteString(strconv.FormatUint(u/uint64(time.Second), 10))
		if frac := u % uint64(time.Second); frac > 0 {
			fs := strings.TrimRight(fmt.Sprintf("%09d", frac), "0")
			b.WriteByte('.')
			b.WriteString(fs)
		}
		b.WriteByte('S')
	}
	return b.String()
}

func (d Duration) MarshalJSON() ([]byte, error) { return json.Marshal(d.String()) }

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDuration parses the subset of ISO-8601 durations produced by
// Duration.String: an optional sign, "PT", then H, M and S components.
// Values outside the range of time.Duration are rejected.
func ParseDuration(s string) (Duration, error) {
	in := s
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if !strings.HasPrefix(s, "PT") || len(s) == 2 {
		return 0, fmt.Errorf("invalid duration %q", in)
	}
	s = s[2:]

	// Magnitude limit: |MinInt64| is one more than MaxInt64.
	limit := uint64(math.MaxInt64)
	if neg {
		limit++
	}
	var total uint64
	add := func(v, unit uint64) error {
		if v > limit/unit || v*unit > limit-total {
			return fmt.Errorf("invalid duration %q: out of range", in)
		}
		total += v * unit
		return nil
	}

	seen := ""
	for s != "" {
		i := 0
		for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
			i++
		}
		if i == 0 || i == len(s) {
			return 0, fmt.Errorf("invalid duration %q", in)
		}
		num, unit := s[:i], s[i]
		s = s[i+1:]
		if strings.ContainsRune(seen, rune(unit)) {
			return 0, fmt.Errorf("invalid duration %q: repeated %c", in, unit)
		}
		seen += string(unit)
		switch unit {
		case 'H', 'M':
			v, err := strconv.ParseUint(num, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", in, err)
			}
			scale := uint64(time.Hour)
			if unit == 'M' {
				scale = uint64(time.Minute)
			}
			if err := add(v, scale); err != nil {
				return 0, err
			}
		case 'S':
			whole, frac, _ := strings.Cut(num, ".")
			v, err := strconv.ParseUint(whole, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid duration %q: %w", in, err)
			}
			if err := add(v, uint64(time.Second)); err != nil {
				return 0, err
			}
			if frac != "" {
				if len(frac) > 9 {
					return 0, fmt.Errorf("invalid duration %q: more than nanosecond precision", in)
				}
				f, err := strconv.ParseUint(frac+strings.Repeat("0", 9-len(frac)), 10, 64)
				if err != nil {
					return 0, fmt.Errorf("invalid duration %q: %w", in, err)
				}
				if err := add(f, 1); err != nil {
					return 0, err
				}
			}
		default:
			return 0, fmt.Errorf("invalid duration %q: unknown unit %c", in, unit)
		}
	}
	n := int64(total)
	if neg {
		n = -n
	}
	return Duration(n), nil
}
