package event

import "time"

// Sink receives engine events. The engine calls Emit from a single goroutine,
// in order, and FileCopied counts increase by exactly one per call.
// Implementations must not retain the engine goroutine for long: a slow sink
// slows the backup.
type Sink interface {
	Emit(ev Event)
}

// Chan forwards events to a channel. The send blocks when the channel is
// full, so progress is never dropped or reordered.
type Chan chan<- Event

// Emit implements Sink.
func (c Chan) Emit(ev Event) { c <- ev }

// Funcs adapts plain callbacks to a Sink. OnProgress receives the running
// copied-file count; OnLog receives Log messages plus a one-line rendering
// of excluded and unreadable directories. Nil callbacks are skipped.
type Funcs struct {
	OnProgress func(copied int64)
	OnLog      func(msg string)
}

// Emit implements Sink.
func (f Funcs) Emit(ev Event) {
	switch ev.Type {
	case FileCopied:
		if f.OnProgress != nil {
			f.OnProgress(ev.Count)
		}
	case Log:
		f.log(ev.Message)
	case DirExcluded:
		f.log("excluded " + ev.Path + " (" + ev.Message + ")")
	case DirUnreadable:
		f.log("unreadable " + ev.Path + ": " + errString(ev.Error))
	case FileFailed:
		f.log("copy failed " + ev.Path + ": " + errString(ev.Error))
	}
}

func (f Funcs) log(msg string) {
	if f.OnLog != nil {
		f.OnLog(msg)
	}
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Stamp sets the timestamp when the event has none and hands it to sink.
func Stamp(sink Sink, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	sink.Emit(ev)
}

func errString(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
