package exam

import (
	"testing"
	"time"
)

func TestParseTimeToMinutes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int
	}{
		{name: "empty", in: "", want: 0},
		{name: "midnight", in: "00:00", want: 0},
		{name: "morning", in: "09:30", want: 570},
		{name: "last minute", in: "23:59", want: 1439},
		{name: "no separator", in: "0930", want: 0},
		{name: "garbage hours", in: "ab:30", want: 0},
		{name: "garbage minutes", in: "09:cd", want: 0},
		{name: "seconds ignored", in: "09:30:45", want: 570},
		{name: "unpadded", in: "9:5", want: 545},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseTimeToMinutes(tt.in); got != tt.want {
				t.Errorf("ParseTimeToMinutes(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimeToMilliseconds(t *testing.T) {
	if got := ParseTimeToMilliseconds("00:01"); got != 60000 {
		t.Errorf("ParseTimeToMilliseconds(00:01) = %d, want 60000", got)
	}
	if got := ParseTimeToMilliseconds("lol"); got != 0 {
		t.Errorf("ParseTimeToMilliseconds(lol) = %d, want 0", got)
	}
}

func TestFormatMinutesToTime(t *testing.T) {
	tests := []struct {
		name    string
		minutes int
		want    string
	}{
		{name: "zero", minutes: 0, want: "00:00"},
		{name: "padded", minutes: 65, want: "01:05"},
		{name: "last minute", minutes: 1439, want: "23:59"},
		{name: "wraps past midnight", minutes: 1500, want: "01:00"},
		{name: "wraps full day", minutes: 1440, want: "00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatMinutesToTime(tt.minutes); got != tt.want {
				t.Errorf("FormatMinutesToTime(%d) = %q, want %q", tt.minutes, got, tt.want)
			}
		})
	}
}

// every minute of the day survives a format/parse cycle
func TestTimeRoundTrip(t *testing.T) {
	for m := 0; m < 1440; m++ {
		if got := ParseTimeToMinutes(FormatMinutesToTime(m)); got != m {
			t.Fatalf("round trip broken at %d: got %d", m, got)
		}
	}
}

func TestCalculateEndTime(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		duration int
		want     string
	}{
		{name: "plain", start: "09:00", duration: 30, want: "09:30"},
		{name: "hour boundary", start: "09:45", duration: 30, want: "10:15"},
		{name: "midnight wrap", start: "23:30", duration: 45, want: "00:15"},
		{name: "malformed start anchors at zero", start: "lol", duration: 30, want: "00:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalculateEndTime(tt.start, tt.duration); got != tt.want {
				t.Errorf("CalculateEndTime(%q, %d) = %q, want %q", tt.start, tt.duration, got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "00:00:00"},
		{name: "seconds", d: 42 * time.Second, want: "00:00:42"},
		{name: "minutes", d: 45 * time.Minute, want: "00:45:00"},
		{name: "hours", d: 2*time.Hour + 5*time.Minute + 9*time.Second, want: "02:05:09"},
		{name: "negative clamps", d: -time.Minute, want: "00:00:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatClock(tt.d); got != tt.want {
				t.Errorf("FormatClock(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}
