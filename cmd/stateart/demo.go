package main

import (
	"github.com/vango-dev/stateart/pkg/stateart"
)

// counter is the state of the demo store serve defines.
type counter struct {
	Count int `json:"count"`
	Step  int `json:"step"`
}

// counterDefinition is a small persisted store with a phase machine, so
// every devtools endpoint has something to show.
func counterDefinition() stateart.Definition[counter] {
	return stateart.Definition[counter]{
		Name:  "counter",
		State: counter{Step: 1},
		Getters: map[string]stateart.Getter[counter]{
			"doubleCount": func(s counter) any { return s.Count * 2 },
		},
		Actions: map[string]stateart.Action[counter]{
			"increase": func(s counter, _ ...any) (counter, error) {
				s.Count += s.Step
				return s, nil
			},
			"decrease": func(s counter, _ ...any) (counter, error) {
				s.Count -= s.Step
				return s, nil
			},
			"setStep": func(s counter, args ...any) (counter, error) {
				step, err := stateart.Arg[int](args, 0)
				if err != nil {
					return s, err
				}
				s.Step = step
				return s, nil
			},
			"reset": func(s counter, _ ...any) (counter, error) {
				s.Count = 0
				return s, nil
			},
		},
		Machine: &stateart.Machine[counter]{
			Initial: "idle",
			Transitions: map[string]map[string]stateart.Transition[counter]{
				"idle": {
					"counting": nil,
				},
				stateart.AnyPhase: {
					"idle": func(s counter) (counter, error) {
						s.Count = 0
						return s, nil
					},
				},
			},
		},
		Persist: true,
	}
}
