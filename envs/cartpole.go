package envs

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/LondonNode/anvil/types"
)

const (
	gravity        = 9.81
	massCart       = 1.0
	massPole       = 0.1
	poleLength     = 0.5
	totalMass      = massCart + massPole
	poleMassLength = massPole * poleLength
	forceMax       = 10.0
	tau            = 0.02

	xThreshold     = 2.4
	thetaThreshold = 12.0 * math.Pi / 180.0
	maxSteps       = 500
)

// CartPole is the classic pole-balancing task with a continuous force
// action in [-forceMax, forceMax]
type CartPole struct {
	x        float64
	xDot     float64
	theta    float64
	thetaDot float64
	steps    int
	rng      *rand.Rand
}

var _ types.Environment = &CartPole{}

func NewCartPole(src rand.Source) *CartPole {
	e := &CartPole{rng: rand.New(src)}
	e.Reset()
	return e
}

func (e *CartPole) ObservationSpace() types.Space {
	return types.UniformBox(-xThreshold*2, xThreshold*2, 4)
}

func (e *CartPole) ActionSpace() types.Space {
	return types.UniformBox(-forceMax, forceMax, 1)
}

func (e *CartPole) Reset() []float64 {
	e.x = e.rng.Float64()*0.1 - 0.05
	e.xDot = e.rng.Float64()*0.1 - 0.05
	e.theta = e.rng.Float64()*0.1 - 0.05
	e.thetaDot = e.rng.Float64()*0.1 - 0.05
	e.steps = 0
	return e.observation()
}

func (e *CartPole) Step(action []float64) ([]float64, float64, bool) {
	force := action[0]
	if force > forceMax {
		force = forceMax
	} else if force < -forceMax {
		force = -forceMax
	}

	cosTheta := math.Cos(e.theta)
	sinTheta := math.Sin(e.theta)

	temp := (force + poleMassLength*e.thetaDot*e.thetaDot*sinTheta) / totalMass
	thetaAcc := (gravity*sinTheta - cosTheta*temp) / (poleLength * (4.0/3.0 - massPole*cosTheta*cosTheta/totalMass))
	xAcc := temp - poleMassLength*thetaAcc*cosTheta/totalMass

	e.x += tau * e.xDot
	e.xDot += tau * xAcc
	e.theta += tau * e.thetaDot
	e.thetaDot += tau * thetaAcc
	e.steps++

	fell := e.x < -xThreshold || e.x > xThreshold || e.theta < -thetaThreshold || e.theta > thetaThreshold
	done := fell || e.steps >= maxSteps
	reward := 1.0
	if fell {
		reward = 0.0
	}
	return e.observation(), reward, done
}

func (e *CartPole) observation() []float64 {
	return []float64{e.x, e.xDot, e.theta, e.thetaDot}
}

// Render prints the cart position and pole angle to the terminal
func (e *CartPole) Render() {
	fmt.Printf("\rx=%6.3f theta=%6.3f", e.x, e.theta)
}
