// Package explorers implements the exploration layer between the
// orchestrator and the model.
package explorers

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/LondonNode/anvil/types"
)

// ExplorerSettings configures the exploration layer
type ExplorerSettings struct {
	// StartSteps is the number of interactions at the start of
	// training during which actions are sampled uniformly from the
	// action space
	StartSteps int
	// Scale is the std of Gaussian noise added to model actions after
	// the random phase; 0 adds no noise
	Scale float64
}

// BaseExplorer samples random actions for the first StartSteps
// interactions and afterwards delegates to the model, optionally adding
// Gaussian noise
type BaseExplorer struct {
	space      types.Space
	startSteps int
	scale      float64
	rng        *rand.Rand
}

var _ types.Explorer = &BaseExplorer{}

func NewBaseExplorer(space types.Space, settings ExplorerSettings, src rand.Source) *BaseExplorer {
	startSteps := settings.StartSteps
	if startSteps < 0 {
		startSteps = 0
	}
	return &BaseExplorer{
		space:      space,
		startSteps: startSteps,
		scale:      settings.Scale,
		rng:        rand.New(src),
	}
}

// Action decides between random search and the model based on the
// orchestrator's step count
func (e *BaseExplorer) Action(model types.Model, observations *mat.Dense, step int) *mat.Dense {
	n, _ := observations.Dims()
	if step < e.startSteps {
		actions := mat.NewDense(n, e.space.Dim(), nil)
		for i := 0; i < n; i++ {
			actions.SetRow(i, e.space.Sample(e.rng))
		}
		return actions
	}
	actions := model.Predict(observations)
	if e.scale > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: e.scale, Src: e.rng}
		rows, cols := actions.Dims()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				actions.Set(i, j, actions.At(i, j)+noise.Rand())
			}
		}
	}
	return actions
}
