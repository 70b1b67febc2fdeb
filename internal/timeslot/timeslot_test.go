package timeslot

import "testing"

func TestParseAndString(t *testing.T) {
	cases := []struct {
		in      string
		want    Time
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"9:00", 0, true},
		{"09-00", 0, true},
		{"09:0x", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("Parse(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("Parse(%q) = %d, want %d", c.in, got, c.want)
		}
		if got.String() != c.in {
			t.Errorf("Parse(%q).String() = %q", c.in, got.String())
		}
	}
}

func TestAddWrapsPastMidnight(t *testing.T) {
	late, _ := Parse("23:30")
	if got := late.Add(60).String(); got != "00:30" {
		t.Errorf("23:30 + 60 = %s, want 00:30", got)
	}
	noon, _ := Parse("12:00")
	if got := noon.Add(90).String(); got != "13:30" {
		t.Errorf("12:00 + 90 = %s, want 13:30", got)
	}
}

func TestSubClampsAtMidnight(t *testing.T) {
	early, _ := Parse("00:30")
	if got := early.Sub(90).String(); got != "00:00" {
		t.Errorf("00:30 - 90 = %s, want 00:00", got)
	}
	noon, _ := Parse("12:00")
	if got := noon.Sub(90).String(); got != "10:30" {
		t.Errorf("12:00 - 90 = %s, want 10:30", got)
	}
}

// Add then Sub must round-trip whenever neither operation wrapped or clamped.
func TestAddSubRoundTrip(t *testing.T) {
	for _, start := range []string{"02:00", "09:15", "18:45"} {
		tm, _ := Parse(start)
		for _, m := range []int{0, 1, 30, 120} {
			if got := tm.Add(m).Sub(m); got != tm {
				t.Errorf("(%s + %d) - %d = %s, want %s", start, m, m, got, tm)
			}
		}
	}
}

func TestSlots(t *testing.T) {
	open, _ := Parse("09:00")
	close, _ := Parse("22:00")
	slots := Slots(open, close, 30)
	if len(slots) == 0 {
		t.Fatal("expected slots")
	}
	if got := slots[0].String(); got != "09:00" {
		t.Errorf("first slot = %s, want 09:00", got)
	}
	// Slots stop strictly before close-60, so 21:00 itself is excluded and the
	// last offered slot is 20:30.
	last := slots[len(slots)-1]
	if last.String() != "20:30" {
		t.Errorf("last slot = %s, want 20:30", last)
	}
	limit, _ := Parse("21:00")
	for _, s := range slots {
		if s >= limit {
			t.Errorf("slot %s violates the one-hour closing margin", s)
		}
	}
	if got := len(slots); got != 24 {
		t.Errorf("slot count = %d, want 24", got)
	}
}

func TestSlotsDegenerate(t *testing.T) {
	open, _ := Parse("09:00")
	close, _ := Parse("09:30")
	if got := Slots(open, close, 30); got != nil {
		t.Errorf("window shorter than margin yielded slots: %v", got)
	}
	if got := Slots(close, open, 30); got != nil {
		t.Errorf("close before open yielded slots: %v", got)
	}
	if got := Slots(open, open.Add(600), 0); got != nil {
		t.Errorf("zero interval yielded slots: %v", got)
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"12:00", "14:00", "13:00", "15:00", true},
		{"12:00", "14:00", "14:00", "16:00", true}, // touching endpoints count
		{"12:00", "14:00", "14:01", "16:00", false},
		{"12:00", "14:00", "10:00", "12:00", true},
		{"12:00", "14:00", "10:00", "11:59", false},
	}
	for _, c := range cases {
		as, _ := Parse(c.aStart)
		ae, _ := Parse(c.aEnd)
		bs, _ := Parse(c.bStart)
		be, _ := Parse(c.bEnd)
		if got := Overlaps(as, ae, bs, be); got != c.want {
			t.Errorf("Overlaps([%s,%s],[%s,%s]) = %v, want %v", c.aStart, c.aEnd, c.bStart, c.bEnd, got, c.want)
		}
	}
}
