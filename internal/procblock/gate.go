package procblock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// Process is the part of a process table entry rules look at.
type Process struct {
	PID     int32
	PPID    int32
	Cmdline string
	Age     time.Duration
}

// Lister enumerates running processes.
type Lister interface {
	Processes(ctx context.Context) ([]Process, error)
}

// SystemLister reads the host process table.
type SystemLister struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

// Processes implements Lister. Processes that exit or deny access while
// being inspected are skipped.
func (l SystemLister) Processes(ctx context.Context) ([]Process, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing processes: %w", err)
	}
	out := make([]Process, 0, len(procs))
	for _, p := range procs {
		cmdline, err := p.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		created, err := p.CreateTimeWithContext(ctx)
		if err != nil {
			continue
		}
		ppid, _ := p.PpidWithContext(ctx)
		out = append(out, Process{
			PID:     p.Pid,
			PPID:    ppid,
			Cmdline: cmdline,
			Age:     now().Sub(time.UnixMilli(created)),
		})
	}
	return out, nil
}

// Gate vetoes captures while a process matching the block specification runs.
// The calling process and its ancestors never match: their command lines
// carry the block specification itself.
type Gate struct {
	lister Lister
	self   int32
}

// NewGate returns a Gate backed by lister. A nil lister reads the host
// process table.
func NewGate(lister Lister) *Gate {
	if lister == nil {
		lister = SystemLister{}
	}
	return &Gate{lister: lister, self: int32(os.Getpid())} //nolint:gosec // pids fit in int32
}

// Blocked reports whether any rule of spec matches a running process.
// An empty spec never blocks and does not touch the process table.
func (g *Gate) Blocked(ctx context.Context, spec string) (bool, error) {
	rules, err := ParseSpec(spec)
	if err != nil {
		return false, err
	}
	if len(rules) == 0 {
		return false, nil
	}
	procs, err := g.lister.Processes(ctx)
	if err != nil {
		return false, err
	}
	lineage := ancestry(procs, g.self)
	for _, p := range procs {
		if lineage[p.PID] {
			continue
		}
		for _, r := range rules {
			if r.Matches(p) {
				slog.Info("capture blocked", "rule", r.String(), "pid", p.PID, "age", p.Age.Truncate(time.Second))
				return true, nil
			}
		}
	}
	return false, nil
}

// ancestry returns pid and every ancestor found in procs.
func ancestry(procs []Process, pid int32) map[int32]bool {
	parent := make(map[int32]int32, len(procs))
	for _, p := range procs {
		parent[p.PID] = p.PPID
	}
	seen := map[int32]bool{}
	for pid > 0 && !seen[pid] {
		seen[pid] = true
		pid = parent[pid]
	}
	return seen
}
