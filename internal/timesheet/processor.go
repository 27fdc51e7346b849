package timesheet

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	exclusionPrefix = "#-- "
	dayPrefix       = "Day:"
	weekPrefix      = "Week:"
	errorPrefix     = "#ERROR: "
	echoPrefix      = "#> "
	warningPrefix   = "#WARNING: "

	maxLineSize = 1024 * 1024
)

// Options configures a Processor.
type Options struct {
	// DateFormat is the Go layout used to re-emit date headers. It is also
	// accepted on input. Defaults to DefaultDateFormat.
	DateFormat string

	// EarliestStart is the hour (0-11) before which a bare time is read as
	// afternoon for the first entry of a day. Nil means midnight.
	EarliestStart *int

	// Graceful downgrades per-line errors to inline annotations and stops
	// on unrecognized lines instead of failing the run.
	Graceful bool

	// Now supplies the year for dates written without one. Defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// Processor reformats time.txt streams. It keeps no state between runs, but
// a single Processor must not be used by concurrent callers.
type Processor struct {
	layout   string
	earliest time.Duration
	graceful bool
	now      func() time.Time
	log      *slog.Logger
}

// NewProcessor validates opts and returns a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	p := &Processor{
		layout:   opts.DateFormat,
		graceful: opts.Graceful,
		now:      opts.Now,
		log:      opts.Logger,
	}
	if p.layout == "" {
		p.layout = DefaultDateFormat
	}
	if opts.EarliestStart != nil {
		h := *opts.EarliestStart
		if h < 0 || h > 11 {
			return nil, fmt.Errorf("earliest start hour %d out of range 0-11", h)
		}
		p.earliest = time.Duration(h) * time.Hour
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.log == nil {
		p.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p, nil
}

// Update processes r and writes the result to w.
func (p *Processor) Update(r io.Reader, w io.Writer) (*Result, error) {
	res, err := p.Process(r)
	if err != nil {
		return nil, err
	}
	if _, err := res.WriteTo(w); err != nil {
		return nil, fmt.Errorf("writing output: %w", err)
	}
	return res, nil
}

// Process runs the whole stream in one pass. In strict mode the first bad
// line aborts the run with a *LineError.
func (p *Processor) Process(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	st := &run{
		p:      p,
		today:  DateOf(p.now()),
		result: &Result{Success: true},
	}

	for scanner.Scan() {
		st.lineNo++
		raw := scanner.Text()
		stop, err := st.handle(raw)
		if err != nil {
			return nil, err
		}
		if stop {
			for scanner.Scan() {
				st.result.Remainder = append(st.result.Remainder, scanner.Text())
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	if st.result.Success {
		st.finish()
	}
	st.result.Lines = st.out.lines

	p.log.Debug("processed timesheet",
		"lines", st.lineNo,
		"days", len(st.result.Days),
		"issues", len(st.result.Issues),
		"success", st.result.Success)
	return st.result, nil
}

// run is the mutable state of one pass.
type run struct {
	p      *Processor
	today  Date
	lineNo int

	settings settings
	out      lineWriter
	buf      pendingBuffer

	day         Date
	dayInEffect bool
	lastStart   *time.Duration
	lastEnd     *time.Duration
	daySpans    []time.Duration
	dayEntries  []EntrySummary

	weekOpen  bool
	weekStart Date
	weekDays  int
	weekSpans []time.Duration

	result *Result
}

type lineHandler struct {
	name string
	fn   func(st *run, line string) (bool, error)
}

// handlers are tried in order; the first to claim a line wins.
var handlers = []lineHandler{
	{"pragma", (*run).pragma},
	{"exclusion", (*run).exclusion},
	{"comment", (*run).comment},
	{"underline", (*run).underline},
	{"date", (*run).date},
	{"entry", (*run).entry},
	{"day total", (*run).dayTotal},
	{"week total", (*run).weekTotal},
}

// handle classifies one line. stop reports an unrecognized line in graceful mode.
func (st *run) handle(raw string) (stop bool, err error) {
	line := strings.TrimSpace(raw)
	if line == "" {
		if st.settings.preserveBlankLines {
			st.emit(pendingItem{kind: itemRaw, blank: true})
		}
		return false, nil
	}

	for _, h := range handlers {
		claimed, herr := h.fn(st, line)
		if herr != nil {
			st.p.log.Debug("line rejected", "line", st.lineNo, "handler", h.name, "err", herr)
			return false, st.fail(raw, herr)
		}
		if claimed {
			st.p.log.Debug("line claimed", "line", st.lineNo, "handler", h.name)
			return false, nil
		}
	}

	return st.unrecognized(raw)
}

func (st *run) lineError(raw string, err error) *LineError {
	return &LineError{Number: st.lineNo, Line: raw, DayInEffect: st.dayInEffect, Err: err}
}

// fail annotates a bad line in graceful mode and returns the error otherwise.
func (st *run) fail(raw string, err error) error {
	le := st.lineError(raw, err)
	if !st.p.graceful {
		return le
	}
	st.p.log.Warn("recovered from bad line", "line", le.Number, "err", err)
	st.result.Issues = append(st.result.Issues, le)
	st.emit(pendingItem{kind: itemRaw, text: errorPrefix + err.Error()})
	st.emit(pendingItem{kind: itemRaw, text: echoPrefix + strings.TrimSpace(raw)})
	return nil
}

func (st *run) unrecognized(raw string) (bool, error) {
	le := st.lineError(raw, ErrUnrecognized)
	if !st.p.graceful {
		return false, le
	}
	st.p.log.Warn("stopping at unrecognized line", "line", le.Number, "day_in_effect", le.DayInEffect)

	msg := ErrUnrecognized.Error()
	if !st.dayInEffect {
		msg += " (no day currently in effect)"
	}
	st.flushAll()
	st.out.lineOnce(errorPrefix + msg)
	st.out.line(raw)

	st.result.Success = false
	st.result.Unrecognized = raw
	st.result.Issues = append(st.result.Issues, le)
	return true, nil
}

// emit writes a non-entry item now, or queues it behind pending entries.
func (st *run) emit(it pendingItem) {
	if st.buf.empty() {
		st.writeRaw(it)
		return
	}
	st.buf.push(it)
}

func (st *run) writeRaw(it pendingItem) {
	switch {
	case it.blank:
		st.out.preserved()
	case it.dedupe:
		st.out.lineOnce(it.text)
	default:
		st.out.line(it.text)
	}
}

func (st *run) pragma(line string) (bool, error) {
	name, value, ok := parsePragma(line)
	if !ok {
		return false, nil
	}
	if err := st.settings.apply(name, value); err != nil {
		st.p.log.Warn("pragma ignored", "line", st.lineNo, "err", err)
		st.result.Warnings = append(st.result.Warnings, Warning{Number: st.lineNo, Message: err.Error()})
		st.emit(pendingItem{kind: itemRaw, text: warningPrefix + err.Error(), dedupe: true})
	}
	st.emit(pendingItem{kind: itemRaw, text: line})
	return true, nil
}

func (st *run) floor() time.Duration {
	if st.lastStart != nil {
		return *st.lastStart
	}
	return st.p.earliest
}

func (st *run) exclusion(line string) (bool, error) {
	if !st.dayInEffect || !strings.HasPrefix(line, exclusionPrefix) {
		return false, nil
	}
	body := strings.TrimSpace(strings.TrimPrefix(line, exclusionPrefix))
	if !Matches(body) {
		return false, nil
	}

	e, err := Parse(body, st.day, st.floor(), true)
	if err != nil {
		return false, err
	}
	if e.End == nil {
		return false, fmt.Errorf("%w: exclusion %q has no end time", ErrFormat, body)
	}

	st.buf.push(pendingItem{
		kind: itemExclusion,
		exclusion: Exclusion{
			Text:  e.String(),
			Start: e.Start,
			End:   *e.End,
			Notes: e.Notes,
		},
	})
	return true, nil
}

func (st *run) comment(line string) (bool, error) {
	if !strings.HasPrefix(line, "#") {
		return false, nil
	}
	st.emit(pendingItem{kind: itemRaw, text: line})
	return true, nil
}

func (st *run) underline(line string) (bool, error) {
	if !st.dayInEffect || strings.Trim(line, "=") != "" {
		return false, nil
	}
	return true, nil
}

func (st *run) date(line string) (bool, error) {
	d, ok, err := ParseDate(line, st.p.layout, st.today)
	if !ok {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if st.dayInEffect {
		st.finalizeDay()
	}
	st.flushAll()

	st.day = d
	st.dayInEffect = true
	st.lastStart, st.lastEnd = nil, nil
	st.daySpans, st.dayEntries = nil, nil
	if !st.weekOpen {
		st.weekOpen = true
		st.weekStart = d
	}

	header := d.Format(st.p.layout)
	st.out.line(header)
	st.out.line(strings.Repeat("=", utf8.RuneCountInString(header)))
	return true, nil
}

func (st *run) entry(line string) (bool, error) {
	if !st.dayInEffect || !Matches(line) {
		return false, nil
	}

	e, err := Parse(line, st.day, st.floor(), st.settings.ignoreExistingDurations)
	if err != nil {
		return false, err
	}
	if st.lastEnd != nil && e.Start < *st.lastEnd {
		return false, fmt.Errorf("%w: %s starts before the previous entry ends at %s",
			ErrOverlap, formatClock(e.Start), formatClock(*st.lastEnd))
	}

	sealed, kept := st.buf.split(e.Start)
	st.flush(sealed)
	st.buf.reset(kept)

	st.buf.push(pendingItem{kind: itemEntry, entry: e, format: st.settings.durationFormat})

	start := e.Start
	st.lastStart = &start
	if e.End != nil {
		end := *e.End
		st.lastEnd = &end
	}
	return true, nil
}

func (st *run) dayTotal(line string) (bool, error) {
	if !st.dayInEffect || !strings.HasPrefix(line, dayPrefix) {
		return false, nil
	}
	st.finalizeDay()
	return true, nil
}

func (st *run) weekTotal(line string) (bool, error) {
	if !strings.HasPrefix(line, weekPrefix) {
		return false, nil
	}
	if st.dayInEffect {
		st.finalizeDay()
	}
	st.flushAll()
	st.finalizeWeek()
	return true, nil
}

func (st *run) flushAll() {
	st.flush(st.buf.items)
	st.buf.reset(nil)
}

// flush finalizes items in order. Entries subtract the union of the
// exclusions among the same items. Carried exclusions count but are not
// written again.
func (st *run) flush(items []pendingItem) {
	var exclusions []Exclusion
	for _, it := range items {
		if it.kind == itemExclusion {
			exclusions = append(exclusions, it.exclusion)
		}
	}

	for _, it := range items {
		switch it.kind {
		case itemEntry:
			st.finalizeEntry(it, exclusions)
		case itemExclusion:
			if !it.carried {
				st.out.line(exclusionPrefix + it.exclusion.Text)
			}
		default:
			st.writeRaw(it)
		}
	}
}

// finalizeEntry writes one entry and accumulates its duration. An explicit
// duration wins unless exclusions cut into the entry.
func (st *run) finalizeEntry(it pendingItem, exclusions []Exclusion) {
	e := it.entry
	sum := EntrySummary{Entry: e}

	if span, ok := e.Span(); ok {
		sum.Excluded = excludedWithin(e.Start, *e.End, exclusions)
		sum.Duration = span - sum.Excluded
		sum.Counted = true
	}
	if e.Explicit != nil && sum.Excluded == 0 {
		sum.Duration = *e.Explicit
		sum.Counted = true
	}

	var shown *time.Duration
	if sum.Counted {
		d := sum.Duration
		shown = &d
		st.daySpans = append(st.daySpans, d)
		st.weekSpans = append(st.weekSpans, d)
	}
	st.out.line(e.Format(shown, it.format))
	st.dayEntries = append(st.dayEntries, sum)
}

func (st *run) finalizeDay() {
	st.flushAll()

	total := sumDurations(st.daySpans)
	st.out.total(dayPrefix + " " + FormatDuration(total, st.settings.durationFormat))

	st.result.Days = append(st.result.Days, DaySummary{
		Date:    st.day,
		Entries: st.dayEntries,
		Total:   total,
	})
	st.weekDays++

	st.dayInEffect = false
	st.day = Date{}
	st.lastStart, st.lastEnd = nil, nil
	st.daySpans, st.dayEntries = nil, nil
}

func (st *run) finalizeWeek() {
	if !st.weekOpen {
		return
	}

	total := sumDurations(st.weekSpans)
	st.out.total(weekPrefix + " " + FormatDuration(total, st.settings.durationFormat))

	st.result.Weeks = append(st.result.Weeks, WeekSummary{
		Start: st.weekStart,
		Days:  st.weekDays,
		Total: total,
	})

	st.weekOpen = false
	st.weekStart = Date{}
	st.weekDays = 0
	st.weekSpans = nil
}

// finish closes whatever is still open at end of input.
func (st *run) finish() {
	if st.dayInEffect {
		st.finalizeDay()
	}
	st.flushAll()
	st.finalizeWeek()
}
