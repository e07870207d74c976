package exam

import "testing"

func chained(start string, durations ...string) []Student {
	students := make([]Student, 0, len(durations))
	lastEnd := ParseTimeToMinutes(start)
	for i, d := range durations {
		dur, _ := parseDuration(d)
		students = append(students, Student{
			ID:            string(rune('a' + i)),
			ExamStartTime: FormatMinutesToTime(lastEnd),
			ExamDuration:  d,
			ExamEndTime:   FormatMinutesToTime(lastEnd + dur),
		})
		lastEnd += dur
	}
	return students
}

func assertSlot(t *testing.T, s Student, wantStart, wantEnd string) {
	t.Helper()
	if s.ExamStartTime != wantStart || s.ExamEndTime != wantEnd {
		t.Errorf("student %s = %s-%s, want %s-%s", s.ID, s.ExamStartTime, s.ExamEndTime, wantStart, wantEnd)
	}
}

func TestRecalculateFrom(t *testing.T) {
	t.Run("rechain after overrun", func(t *testing.T) {
		students := chained("09:00", "30", "30", "30")
		students[0].AuditEndTime = "09:40" // ran 10 minutes over

		updates := RecalculateFrom(students, 0, AnchorEndMinutes(students[0]), "Maths", "5A")

		if len(updates) != 2 {
			t.Fatalf("len(updates) = %d, want 2", len(updates))
		}
		assertSlot(t, students[1], "09:40", "10:10")
		assertSlot(t, students[2], "10:10", "10:40")
		// change-set mirrors the mutated slots
		if updates[0].ExamStartTime != "09:40" || updates[1].ExamStartTime != "10:10" {
			t.Errorf("updates do not mirror slots: %+v", updates)
		}
	})

	t.Run("chaining invariant holds downstream", func(t *testing.T) {
		students := chained("08:00", "20", "45", "15", "60")
		students[1].AuditEndTime = "09:30"
		RecalculateFrom(students, 1, AnchorEndMinutes(students[1]), "Maths", "5A")

		if students[2].ExamStartTime != "09:30" {
			t.Errorf("student 2 starts at %s, want the audited anchor 09:30", students[2].ExamStartTime)
		}
		for i := 3; i < len(students); i++ {
			if students[i].ExamStartTime != students[i-1].ExamEndTime {
				t.Errorf("student %d starts at %s, previous ends at %s", i, students[i].ExamStartTime, students[i-1].ExamEndTime)
			}
		}
	})

	t.Run("idempotent on unchanged anchor", func(t *testing.T) {
		students := chained("09:00", "30", "30", "30")
		first := RecalculateFrom(students, 0, AnchorEndMinutes(students[0]), "Maths", "5A")
		second := RecalculateFrom(students, 0, AnchorEndMinutes(students[0]), "Maths", "5A")

		if len(first) != len(second) {
			t.Fatalf("len mismatch: %d vs %d", len(first), len(second))
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("update %d changed on second run: %+v vs %+v", i, first[i], second[i])
			}
		}
	})

	t.Run("malformed duration skipped without advancing", func(t *testing.T) {
		students := chained("09:00", "30", "30", "30")
		students[2].ExamDuration = "banana"
		untouchedStart, untouchedEnd := students[2].ExamStartTime, students[2].ExamEndTime

		updates := RecalculateFrom(students, 0, ParseTimeToMinutes("09:45"), "Maths", "5A")

		if len(updates) != 1 {
			t.Fatalf("len(updates) = %d, want 1", len(updates))
		}
		assertSlot(t, students[1], "09:45", "10:15")
		// bad record keeps its stale times and is absent from the change-set
		assertSlot(t, students[2], untouchedStart, untouchedEnd)
	})

	t.Run("malformed in the middle keeps chain anchored", func(t *testing.T) {
		students := chained("09:00", "30", "30", "30", "30")
		students[1].ExamDuration = ""

		RecalculateFrom(students, 0, ParseTimeToMinutes("09:50"), "Maths", "5A")

		// student 2 chains directly from the anchor, as if 1 were absent
		assertSlot(t, students[2], "09:50", "10:20")
		assertSlot(t, students[3], "10:20", "10:50")
	})

	t.Run("last student is a no-op", func(t *testing.T) {
		students := chained("09:00", "30", "30")
		if updates := RecalculateFrom(students, 1, AnchorEndMinutes(students[1]), "Maths", "5A"); updates != nil {
			t.Errorf("updates = %+v, want nil", updates)
		}
	})
}

func TestFirstAffectedByPause(t *testing.T) {
	students := chained("09:00", "30", "30", "30") // starts 09:00, 09:30, 10:00

	tests := []struct {
		name       string
		pauseStart string
		want       int
	}{
		{name: "exactly on a start", pauseStart: "09:30", want: 1},
		{name: "between starts", pauseStart: "09:20", want: 1},
		{name: "before everyone", pauseStart: "08:00", want: 0},
		{name: "after everyone", pauseStart: "11:00", want: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FirstAffectedByPause(students, ParseTimeToMinutes(tt.pauseStart)); got != tt.want {
				t.Errorf("FirstAffectedByPause(%s) = %d, want %d", tt.pauseStart, got, tt.want)
			}
		})
	}
}

func TestShiftForPause(t *testing.T) {
	t.Run("mid-session pause shifts the rest", func(t *testing.T) {
		// 09:00, 09:30, 10:00 with 30min slots; 15-minute pause at 09:20
		students := chained("09:00", "30", "30", "30")

		updates := ShiftForPause(students, ParseTimeToMinutes("09:20"), ParseTimeToMinutes("09:35"), "Maths", "5A")

		if len(updates) != 2 {
			t.Fatalf("len(updates) = %d, want 2", len(updates))
		}
		assertSlot(t, students[0], "09:00", "09:30") // untouched, already underway
		assertSlot(t, students[1], "09:35", "10:05")
		assertSlot(t, students[2], "10:05", "10:35")
	})

	t.Run("pause after the last start shifts no one", func(t *testing.T) {
		students := chained("09:00", "30", "30")
		if updates := ShiftForPause(students, ParseTimeToMinutes("11:00"), ParseTimeToMinutes("11:15"), "Maths", "5A"); updates != nil {
			t.Errorf("updates = %+v, want nil", updates)
		}
	})
}
