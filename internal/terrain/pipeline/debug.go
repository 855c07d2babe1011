package pipeline

import (
	"io"
	"log"
	"time"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters routes the pipeline's streams: ops gets failed tiles, diag
// one summary per tile, trace the per-stage timings. A nil writer silences
// its stream.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger("[Pipeline] ", ops)
	diagLogger = newLogger("[Pipeline] ", diag)
	traceLogger = newLogger("[Pipeline] ", trace)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// opsf logs a failed tile.
func opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// diagf logs the per-tile summary.
func diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// traceStage logs the wall time of one stage over a grid of cells, with the
// cell throughput so tiles of different size compare.
func traceStage(tileID, stage string, cells int, d time.Duration) {
	if traceLogger == nil {
		return
	}
	rate := 0.0
	if d > 0 {
		rate = float64(cells) / d.Seconds() / 1e6
	}
	traceLogger.Printf("tile %s: %-10s %d cells in %v (%.2f Mcells/s)", tileID, stage, cells, d, rate)
}
