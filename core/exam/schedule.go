package exam

import "strconv"

// Schedule recalculation. Given the ordered student sequence of a class,
// chain start/end times downstream from an anchor: the audited end of the
// current student, or the end of a pause. Students whose duration cannot be
// parsed are skipped without advancing the chain, so one bad record never
// derails the rest of the sequence.

func parseDuration(s string) (int, bool) {
	d, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return d, true
}

// RecalculateFrom rewrites the scheduled times of every student after
// fromIdxExclusive, chaining from anchorEndMinutes. The slice is mutated in
// place; the returned change-set holds one entry per successfully updated
// student and is meant for a single batched persistence call.
func RecalculateFrom(students []Student, fromIdxExclusive, anchorEndMinutes int, examName, className string) []TimeUpdate {
	return recalculate(students, fromIdxExclusive+1, anchorEndMinutes, examName, className)
}

func recalculate(students []Student, fromIdx, anchorEndMinutes int, examName, className string) []TimeUpdate {
	if fromIdx < 0 {
		fromIdx = 0
	}
	var updates []TimeUpdate
	lastEnd := anchorEndMinutes
	for i := fromIdx; i < len(students); i++ {
		duration, ok := parseDuration(students[i].ExamDuration)
		if !ok {
			continue // leave prior times untouched; chain continues from lastEnd
		}
		newStart := lastEnd
		newEnd := newStart + duration
		students[i].ExamStartTime = FormatMinutesToTime(newStart)
		students[i].ExamEndTime = FormatMinutesToTime(newEnd)
		updates = append(updates, TimeUpdate{
			StudentID:     students[i].ID,
			ExamStartTime: students[i].ExamStartTime,
			ExamEndTime:   students[i].ExamEndTime,
			ExamName:      examName,
			ClassName:     className,
		})
		lastEnd = newEnd
	}
	return updates
}

// AnchorEndMinutes picks the recalculation anchor for an audit event: the
// audited end of the current student, falling back to its scheduled end.
func AnchorEndMinutes(s Student) int {
	if s.AuditEndTime != "" {
		return ParseTimeToMinutes(s.AuditEndTime)
	}
	return ParseTimeToMinutes(s.ExamEndTime)
}

// FirstAffectedByPause locates the student a pause lands on: the one whose
// scheduled start has the smallest non-negative distance from the pause
// start. Returns -1 when no student starts at or after the pause.
func FirstAffectedByPause(students []Student, pauseStartMinutes int) int {
	closest := -1
	minDiff := -1
	for i, s := range students {
		diff := ParseTimeToMinutes(s.ExamStartTime) - pauseStartMinutes
		if diff < 0 {
			continue
		}
		if closest == -1 || diff < minDiff {
			closest = i
			minDiff = diff
		}
	}
	return closest
}

// ShiftForPause rechains the sequence from the first pause-affected student
// (inclusive), anchored at the end of the pause. No student qualifying means
// no one is shifted.
func ShiftForPause(students []Student, pauseStartMinutes, pauseEndMinutes int, examName, className string) []TimeUpdate {
	first := FirstAffectedByPause(students, pauseStartMinutes)
	if first == -1 {
		return nil
	}
	return recalculate(students, first, pauseEndMinutes, examName, className)
}
