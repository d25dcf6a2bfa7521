package testlog

import (
	"sync"

	"service-job-assignment/internal/logx"
)

// Entry is one captured log line.
type Entry struct {
	Level  string
	Msg    string
	Fields []logx.Field
}

// Field returns the value stored under key, if any.
func (e Entry) Field(key string) (any, bool) {
	for i := len(e.Fields) - 1; i >= 0; i-- {
		if e.Fields[i].Key == key {
			return e.Fields[i].Value, true
		}
	}
	return nil, false
}

// Recorder captures log entries in memory for assertions.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// New returns an empty recorder.
func New() *Recorder { return &Recorder{} }

// Logger returns a logx.Logger writing into the recorder.
func (r *Recorder) Logger() logx.Logger {
	return bound{r: r}
}

// Entries returns a copy of the captured entries.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Find returns entries whose message equals msg.
func (r *Recorder) Find(msg string) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Msg == msg {
			out = append(out, e)
		}
	}
	return out
}

// Events returns the values of the "event" field in capture order.
func (r *Recorder) Events() []string {
	var out []string
	for _, e := range r.Entries() {
		if v, ok := e.Field("event"); ok {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func (r *Recorder) add(level, msg string, base, fields []logx.Field) {
	cp := make([]logx.Field, 0, len(base)+len(fields))
	cp = append(cp, base...)
	cp = append(cp, fields...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, Fields: cp})
}

type bound struct {
	r    *Recorder
	base []logx.Field
}

func (b bound) Debug(msg string, f ...logx.Field) { b.r.add("debug", msg, b.base, f) }
func (b bound) Info(msg string, f ...logx.Field)  { b.r.add("info", msg, b.base, f) }
func (b bound) Warn(msg string, f ...logx.Field)  { b.r.add("warn", msg, b.base, f) }
func (b bound) Error(msg string, f ...logx.Field) { b.r.add("error", msg, b.base, f) }

func (b bound) With(f ...logx.Field) logx.Logger {
	nb := bound{r: b.r, base: make([]logx.Field, 0, len(b.base)+len(f))}
	nb.base = append(nb.base, b.base...)
	nb.base = append(nb.base, f...)
	return nb
}

func (b bound) Sync() error { return nil }

var _ logx.Logger = bound{}
