package stateart

import (
	"github.com/vango-dev/stateart/internal/errors"
)

// AnyPhase is the wildcard source phase of a transition table.
const AnyPhase = "ANY"

// Transition runs when the machine moves between two phases. It receives
// the state and returns the next one. A nil Transition just moves the phase.
type Transition[S any] func(state S) (S, error)

// Machine is a phase state machine attached to a store.
//
//	Machine: &stateart.Machine[Upload]{
//	    Initial: "idle",
//	    Transitions: map[string]map[string]stateart.Transition[Upload]{
//	        "idle":          {"uploading": startUpload},
//	        "uploading":     {"done": nil, "failed": nil},
//	        stateart.AnyPhase: {"idle": reset},
//	    },
//	}
type Machine[S any] struct {
	// Initial is the phase the store starts in.
	Initial string

	// OnStart runs through the dispatcher when the store is defined.
	OnStart Transition[S]

	// Transitions maps from-phase to to-phase to the transition to run.
	// Entries under AnyPhase apply from every phase.
	Transitions map[string]map[string]Transition[S]
}

// Phase returns the current phase, or "" for a store without a machine.
func (s *Store[S]) Phase() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// Transition moves the state machine to phase to, running the configured
// transition through the dispatcher. An exact from-phase entry wins over an
// AnyPhase entry.
func (s *Store[S]) Transition(to string) error {
	if s.machine == nil {
		return errors.New("E007").WithStore(s.name).WithDetail("store has no state machine")
	}

	from := s.Phase()
	if to == from {
		return errors.New("E007").WithStore(s.name).WithDetailf("already in %q", to)
	}
	tr, ok := s.machine.Transitions[from][to]
	if !ok {
		tr, ok = s.machine.Transitions[AnyPhase][to]
	}
	if !ok {
		return errors.New("E007").WithStore(s.name).WithDetailf("%q -> %q", from, to)
	}

	return s.dispatch("transition "+from+"->"+to, func(p *S) error {
		if s.phase != from {
			return errors.New("E007").WithStore(s.name).WithDetailf("phase moved from %q to %q", from, s.phase)
		}
		if tr != nil {
			next, err := tr(*p)
			if err != nil {
				return err
			}
			*p = next
		}
		s.phase = to
		return nil
	}, true)
}
