package pocketkit

import (
	"context"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// funcName recovers the symbolic name of fn for log output. Anonymous
// functions come back as their enclosing symbol plus a funcN suffix.
func funcName(fn any) string {
	pc := reflect.ValueOf(fn).Pointer()
	f := runtime.FuncForPC(pc)
	if f == nil {
		return "func"
	}
	name := f.Name()
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func logElapsed(name string, elapsed time.Duration, record LatencyRecorder) {
	log := Logger()
	log.Info().
		Str("func", name).
		Dur("elapsed", elapsed).
		Msgf("%s executed in %s", name, elapsed)
	if record != nil {
		record(elapsed)
	}
}

func logFailed(name string, err error) {
	log := Logger()
	log.Error().Str("func", name).Err(err).Msgf("%s failed", name)
}

// Timed wraps a one-argument function, logging its elapsed wall-clock
// time on every call. The result is returned unchanged.
func Timed[A, R any](fn func(A) R, rec ...LatencyRecorder) func(A) R {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(a A) R {
		start := time.Now()
		result := fn(a)
		logElapsed(name, time.Since(start), record)
		return result
	}
}

// Timed2 is Timed for two-argument functions.
func Timed2[A, B, R any](fn func(A, B) R, rec ...LatencyRecorder) func(A, B) R {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(a A, b B) R {
		start := time.Now()
		result := fn(a, b)
		logElapsed(name, time.Since(start), record)
		return result
	}
}

// TimedE wraps a one-argument fallible function. A non-nil error is
// logged and returned unchanged; the duration record is only emitted
// for successful calls.
func TimedE[A, R any](fn func(A) (R, error), rec ...LatencyRecorder) func(A) (R, error) {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(a A) (R, error) {
		start := time.Now()
		result, err := fn(a)
		if err != nil {
			logFailed(name, err)
			return result, err
		}
		logElapsed(name, time.Since(start), record)
		return result, nil
	}
}

// TimedE2 is TimedE for two-argument functions.
func TimedE2[A, B, R any](fn func(A, B) (R, error), rec ...LatencyRecorder) func(A, B) (R, error) {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(a A, b B) (R, error) {
		start := time.Now()
		result, err := fn(a, b)
		if err != nil {
			logFailed(name, err)
			return result, err
		}
		logElapsed(name, time.Since(start), record)
		return result, nil
	}
}

// TimedCtx wraps a context-aware function whose call may block on I/O
// or suspend on the context. Elapsed time spans the whole call,
// including all time spent blocked. Context cancellation surfaces
// through the error return and is logged as a failure, not a duration.
func TimedCtx[A, R any](fn func(context.Context, A) (R, error), rec ...LatencyRecorder) func(context.Context, A) (R, error) {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(ctx context.Context, a A) (R, error) {
		start := time.Now()
		result, err := fn(ctx, a)
		if err != nil {
			logFailed(name, err)
			return result, err
		}
		logElapsed(name, time.Since(start), record)
		return result, nil
	}
}

// TimedCtx2 is TimedCtx for two-argument functions.
func TimedCtx2[A, B, R any](fn func(context.Context, A, B) (R, error), rec ...LatencyRecorder) func(context.Context, A, B) (R, error) {
	name := funcName(fn)
	record := firstRecorder(rec)
	return func(ctx context.Context, a A, b B) (R, error) {
		start := time.Now()
		result, err := fn(ctx, a, b)
		if err != nil {
			logFailed(name, err)
			return result, err
		}
		logElapsed(name, time.Since(start), record)
		return result, nil
	}
}

func firstRecorder(rec []LatencyRecorder) LatencyRecorder {
	if len(rec) > 0 {
		return rec[0]
	}
	return nil
}

// Timer measures a single span of wall-clock time for call shapes the
// generic wrappers cannot express.
type Timer struct {
	name  string
	start time.Time
}

// StartTimer begins a named measurement.
func StartTimer(name string) Timer {
	return Timer{name: name, start: time.Now()}
}

// Elapsed returns the time since the timer started.
func (t Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop logs the elapsed time and returns it.
func (t Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	logElapsed(t.name, elapsed, nil)
	return elapsed
}
