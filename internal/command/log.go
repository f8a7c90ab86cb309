package command

import (
	"sort"

	"github.com/nullframe/trailsim/internal/xbuf"
)

// entry wraps a Command with its insertion sequence, used only to break ties
// among commands sharing a frame (SPEC_FULL.md §4.4: "tie-break order for
// commands at the same frame: player_number ascending, insertion order").
type entry struct {
	cmd Command
	seq uint64
}

// Log is the per-frame, order-preserving, deduplicating command multiset
// described in SPEC_FULL.md §4.3 and §4.4. It is shared by Simulation (the
// per-frame log) and TSS (the full command history retained across the
// trailing window) — both need the same ordering and dedup rules.
type Log struct {
	byFrame map[int64][]entry
	seen    map[key]struct{}
	nextSeq uint64
}

// NewLog constructs an empty Log.
func NewLog() *Log {
	return &Log{
		byFrame: make(map[int64][]entry),
		seen:    make(map[key]struct{}),
	}
}

// Push inserts cmd, reporting false (and doing nothing) if an equivalent
// command — same (player_number, frame, payload_hash) — is already present.
func (l *Log) Push(cmd Command) bool {
	k := cmd.dedupKey()
	if _, dup := l.seen[k]; dup {
		return false
	}
	l.seen[k] = struct{}{}
	l.byFrame[cmd.Frame] = append(l.byFrame[cmd.Frame], entry{cmd: cmd, seq: l.nextSeq})
	l.nextSeq++
	return true
}

// Frames returns every frame holding at least one command, ascending.
func (l *Log) Frames() []int64 {
	frames := make([]int64, 0, len(l.byFrame))
	for f := range l.byFrame {
		frames = append(frames, f)
	}
	sort.Slice(frames, func(i, j int) bool { return frames[i] < frames[j] })
	return frames
}

// ForFrame returns the commands scheduled for frame, ordered by the tie-break
// rule: player_number ascending, then insertion order.
func (l *Log) ForFrame(frame int64) []Command {
	entries := l.byFrame[frame]
	if len(entries) == 0 {
		return nil
	}
	sorted := make([]entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].cmd.PlayerNumber != sorted[j].cmd.PlayerNumber {
			return sorted[i].cmd.PlayerNumber < sorted[j].cmd.PlayerNumber
		}
		return sorted[i].seq < sorted[j].seq
	})
	out := make([]Command, len(sorted))
	for i, e := range sorted {
		out[i] = e.cmd
	}
	return out
}

// CommandsInRange returns every retained command with fromExclusive < frame
// <= toInclusive, in deterministic wire order (ascending frame, then the
// per-frame tie-break rule). Used by TSS to replay the delta between a
// trailing snapshot and a more-advanced state.
func (l *Log) CommandsInRange(fromExclusive, toInclusive int64) []Command {
	var out []Command
	for _, f := range l.Frames() {
		if f <= fromExclusive || f > toInclusive {
			continue
		}
		out = append(out, l.ForFrame(f)...)
	}
	return out
}

// Count returns the total number of commands retained across all frames.
func (l *Log) Count() int {
	n := 0
	for _, entries := range l.byFrame {
		n += len(entries)
	}
	return n
}

// Trim discards every command with frame < keepFromFrame, the command-log
// trim policy resolved in SPEC_FULL.md §9 ("retain every command with
// frame >= trailing_frame, discard the rest at the start of the next
// Update").
func (l *Log) Trim(keepFromFrame int64) {
	for frame, entries := range l.byFrame {
		if frame >= keepFromFrame {
			continue
		}
		for _, e := range entries {
			delete(l.seen, e.cmd.dedupKey())
		}
		delete(l.byFrame, frame)
	}
}

// Clear removes every command from the log.
func (l *Log) Clear() {
	l.byFrame = make(map[int64][]entry)
	l.seen = make(map[key]struct{})
}

// orderedEntries returns every command across every frame in deterministic
// wire order: ascending frame, then the per-frame tie-break rule.
func (l *Log) orderedEntries() []Command {
	var out []Command
	for _, f := range l.Frames() {
		out = append(out, l.ForFrame(f)...)
	}
	return out
}

// Packetize writes the command log in the wire form SPEC_FULL.md §6
// describes for a simulation's command log: a u32 count followed by each
// command in deterministic order.
func (l *Log) Packetize(b *xbuf.Buffer) {
	commands := l.orderedEntries()
	b.WriteU32(uint32(len(commands)))
	for _, c := range commands {
		c.Packetize(b)
	}
}

// Depacketize clears the log and reloads it from b.
func (l *Log) Depacketize(b *xbuf.Buffer) error {
	count, err := b.ReadU32()
	if err != nil {
		return err
	}
	l.Clear()
	for i := uint32(0); i < count; i++ {
		cmd, err := Depacketize(b)
		if err != nil {
			return err
		}
		l.Push(cmd)
	}
	return nil
}

// CopyInto deep-copies every retained command into dst, which is cleared
// first.
func (l *Log) CopyInto(dst *Log) error {
	dst.Clear()
	for _, c := range l.orderedEntries() {
		clone, err := c.Clone()
		if err != nil {
			return err
		}
		dst.Push(clone)
	}
	return nil
}
