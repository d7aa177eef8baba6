package sst

import (
	"fmt"
	"io"
)

// Stats accumulates the counters the reference implementation's
// print_stats logs every batch. Each field is one of the stat.txt columns
// named in spec §6; delta_s and delta_v are passed to WriteStatLine
// separately, and iter_progress is derived as IterExec - IterNoChange.
type Stats struct {
	NodesTotal       int
	PrunedNodes      int
	Witnesses        int
	IterExec         int
	IterNoChange     int
	IterCollision    int
	MotionPrimitives int
}

// StatSink receives one CSV line per batch, formatted exactly as
// spec §6 names the stat.txt columns: delta_s, delta_v, nodes,
// pruned_nodes, witnesses, iter_exec, iter_progress, iter_no_change,
// iter_collision, motion_primitive_invocations. Tests redirect this to an
// in-memory buffer rather than touching the filesystem, per spec §9's
// "statistics as side-effect files... should be redirectable to an
// injected sink" note.
type StatSink interface {
	io.Writer
}

// WriteStatLine appends one stat.txt-equivalent line to sink.
func WriteStatLine(sink StatSink, deltaS, deltaV float64, s Stats) error {
	progress := s.IterExec - s.IterNoChange
	_, err := fmt.Fprintf(sink, "%v,%v,%d,%d,%d,%d,%d,%d,%d,%d\n",
		deltaS, deltaV, s.NodesTotal, s.PrunedNodes, s.Witnesses,
		s.IterExec, progress, s.IterNoChange, s.IterCollision, s.MotionPrimitives)
	return err
}

// OptimizeLogSink receives one gamma value per batch, mirroring
// optimize_log.txt.
type OptimizeLogSink interface {
	io.Writer
}

// WriteOptimizeLogLine appends one optimize_log.txt-equivalent line.
func WriteOptimizeLogLine(sink OptimizeLogSink, gamma float64) error {
	_, err := fmt.Fprintf(sink, "%v\n", gamma)
	return err
}
