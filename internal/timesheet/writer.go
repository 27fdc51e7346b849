package timesheet

// lineWriter collects output lines and owns blank-line placement: never a
// leading blank, never two separators in a row, and one blank between a total
// and whatever content follows it. Preserved blank lines are written as is.
type lineWriter struct {
	lines      []string
	sepPending bool
}

func (w *lineWriter) last() (string, bool) {
	if len(w.lines) == 0 {
		return "", false
	}
	return w.lines[len(w.lines)-1], true
}

func (w *lineWriter) lastBlank() bool {
	s, ok := w.last()
	return ok && s == ""
}

// line writes a content line.
func (w *lineWriter) line(s string) {
	if w.sepPending && !w.lastBlank() {
		w.lines = append(w.lines, "")
	}
	w.sepPending = false
	w.lines = append(w.lines, s)
}

// lineOnce writes s unless it repeats the previous line.
func (w *lineWriter) lineOnce(s string) {
	if last, ok := w.last(); ok && last == s {
		return
	}
	w.line(s)
}

// blank writes a separator if one is not already there.
func (w *lineWriter) blank() {
	if len(w.lines) == 0 || w.lastBlank() {
		return
	}
	w.lines = append(w.lines, "")
}

// preserved writes a blank line kept from the input.
func (w *lineWriter) preserved() {
	w.lines = append(w.lines, "")
}

// total writes a "Day:" or "Week:" line set off by a blank above and below.
func (w *lineWriter) total(s string) {
	w.blank()
	w.lines = append(w.lines, s)
	w.sepPending = true
}
