package solver

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Config bounds one solve.
type Config struct {
	TimeLimit       time.Duration // wall-clock budget, 0 means default
	MaxSteps        int           // step budget, 0 means default
	UnimprovedLimit int           // stop after this many non-improving steps once feasible
	Seed            int64         // 0 seeds from the clock
}

const (
	defaultTimeLimit       = 30 * time.Second
	defaultMaxSteps        = 200_000
	defaultUnimprovedLimit = 5_000

	initialTemperature = 8.0
	coolingRate        = 0.9995
)

// Solver runs construction followed by annealed local search over one
// mutable Solution.
type Solver struct {
	cfg    Config
	logger *zap.Logger
}

// New builds a solver with the given budget.
func New(cfg Config, logger *zap.Logger) *Solver {
	if cfg.TimeLimit <= 0 {
		cfg.TimeLimit = defaultTimeLimit
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	if cfg.UnimprovedLimit <= 0 {
		cfg.UnimprovedLimit = defaultUnimprovedLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{cfg: cfg, logger: logger}
}

// move is one tagged mutation of a movable allocation's assignment.
type moveKind int

const (
	moveReassignSlot moveKind = iota
	moveReassignRoom
	moveReassignBoth
	moveSwap
)

// Solve assigns all movable allocations and improves the assignment until
// the budget runs out, then leaves the best solution found in s and returns
// its score. Pinned allocations are never mutated. Cancellation is honored
// at iteration boundaries only, so the solution stays internally consistent.
func (sv *Solver) Solve(ctx context.Context, s *Solution) (Score, error) {
	seed := sv.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	Construct(s)

	movable := s.Movable()
	current := Evaluate(s)
	best := current
	bestSnap := captureAssignment(s)

	if len(movable) == 0 || len(s.Timeslots) == 0 || len(s.Classrooms) == 0 {
		return best, ctx.Err()
	}

	deadline := time.Now().Add(sv.cfg.TimeLimit)
	temperature := initialTemperature
	unimproved := 0

	for step := 0; step < sv.cfg.MaxSteps; step++ {
		if step%256 == 0 {
			if err := ctx.Err(); err != nil {
				break
			}
			if time.Now().After(deadline) {
				break
			}
		}
		if best.Feasible() && unimproved >= sv.cfg.UnimprovedLimit {
			break
		}

		a := movable[rng.Intn(len(movable))]
		undo := sv.apply(s, movable, a, rng)
		candidate := Evaluate(s)

		if sv.accept(current, candidate, temperature, rng) {
			current = candidate
			if candidate.Better(best) {
				best = candidate
				bestSnap = captureAssignment(s)
				unimproved = 0
			} else {
				unimproved++
			}
		} else {
			undo()
			unimproved++
		}
		temperature *= coolingRate
	}

	restoreAssignment(s, bestSnap)
	sv.logger.Debug("local search finished",
		zap.Int("hard", best.Hard),
		zap.Int("soft", best.Soft),
		zap.Int64("seed", seed),
	)
	return best, ctx.Err()
}

// apply mutates a (and possibly a swap partner) and returns an undo closure.
func (sv *Solver) apply(s *Solution, movable []*Allocation, a *Allocation, rng *rand.Rand) func() {
	kind := moveKind(rng.Intn(4))
	if kind == moveSwap && len(movable) < 2 {
		kind = moveReassignBoth
	}

	switch kind {
	case moveReassignSlot:
		oldSlot := a.SlotIdx
		a.SlotIdx = rng.Intn(len(s.Timeslots))
		return func() { a.SlotIdx = oldSlot }
	case moveReassignRoom:
		oldRoom := a.RoomIdx
		a.RoomIdx = rng.Intn(len(s.Classrooms))
		return func() { a.RoomIdx = oldRoom }
	case moveReassignBoth:
		oldSlot, oldRoom := a.SlotIdx, a.RoomIdx
		a.SlotIdx = rng.Intn(len(s.Timeslots))
		a.RoomIdx = rng.Intn(len(s.Classrooms))
		return func() { a.SlotIdx, a.RoomIdx = oldSlot, oldRoom }
	default:
		b := movable[rng.Intn(len(movable))]
		for b == a {
			b = movable[rng.Intn(len(movable))]
		}
		aSlot, aRoom, bSlot, bRoom := a.SlotIdx, a.RoomIdx, b.SlotIdx, b.RoomIdx
		a.SlotIdx, a.RoomIdx, b.SlotIdx, b.RoomIdx = bSlot, bRoom, aSlot, aRoom
		return func() {
			a.SlotIdx, a.RoomIdx, b.SlotIdx, b.RoomIdx = aSlot, aRoom, bSlot, bRoom
		}
	}
}

// accept takes any move that does not worsen the lexicographic score. A
// hard regression is always rejected; a soft-only regression may pass with
// annealing probability so the search can climb out of local minima.
func (sv *Solver) accept(current, candidate Score, temperature float64, rng *rand.Rand) bool {
	if candidate.Hard < current.Hard {
		return true
	}
	if candidate.Hard > current.Hard {
		return false
	}
	if candidate.Soft <= current.Soft {
		return true
	}
	if temperature <= 0 {
		return false
	}
	delta := float64(candidate.Soft - current.Soft)
	return rng.Float64() < math.Exp(-delta/temperature)
}
