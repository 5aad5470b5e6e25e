package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Transition is a single (s, a, r, terminal, s', mask, info) record as
// stored in a replay buffer. Mask holds one inclusion weight per
// ensemble member and may be nil for buffers that do not store masks.
type Transition struct {
	State     *mat.VecDense
	Action    *mat.VecDense
	Reward    float64
	Terminal  bool
	NextState *mat.VecDense
	Mask      *mat.VecDense
	EnvInfo   map[string]*mat.VecDense
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | State: %v | Action: %v | Reward: %.2f"+
		" | Terminal: %v | Next State: %v | Mask: %v", fmtVec(t.State),
		fmtVec(t.Action), t.Reward, t.Terminal, fmtVec(t.NextState),
		fmtVec(t.Mask))
}

func fmtVec(v *mat.VecDense) interface{} {
	if v == nil {
		return "<nil>"
	}
	return v.RawVector().Data
}
