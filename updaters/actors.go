package updaters

import (
	"gonum.org/v1/gonum/mat"

	"github.com/LondonNode/anvil/models"
	"github.com/LondonNode/anvil/optimizers"
	"github.com/LondonNode/anvil/types"
)

// ActorUpdaterConfig configures the soft policy gradient
type ActorUpdaterConfig struct {
	// Optimizer defaults to optimizers.NewAdam
	Optimizer optimizers.Factory
	// LearningRate defaults to 1e-3
	LearningRate float64
	// MaxGrad is the gradient-norm clip threshold; 0 disables clipping
	MaxGrad float64
}

func (c ActorUpdaterConfig) withDefaults() ActorUpdaterConfig {
	if c.Optimizer == nil {
		c.Optimizer = optimizers.NewAdam
	}
	if c.LearningRate == 0 {
		c.LearningRate = 1e-3
	}
	return c
}

// SoftPolicyGradient performs one gradient step on the actor of a
// soft-actor-critic model, minimizing
//
//	E[ alpha*log pi(a|s) - Q(s, a) ]    with a = mean(s) + std*eps.
//
// Only the actor's parameters are touched; the critics are read but
// never updated here.
type SoftPolicyGradient struct {
	cfg ActorUpdaterConfig
}

func NewSoftPolicyGradient(cfg ActorUpdaterConfig) *SoftPolicyGradient {
	return &SoftPolicyGradient{cfg: cfg.withDefaults()}
}

// Update performs one actor gradient step
func (u *SoftPolicyGradient) Update(model *models.ActorCritic, observations *mat.Dense, alpha float64) (*types.UpdaterLog, error) {
	if model.Critic == nil {
		return nil, models.ErrNoCritic
	}
	actor := model.Actor
	params := actor.Parameters()
	opt := u.cfg.Optimizer(u.cfg.LearningRate)

	dist := actor.ActionDistribution(observations)
	actions, eps := dist.Rsample()
	logProbs := dist.LogProb(actions)

	q, err := model.Critic.Forward(observations, actions)
	if err != nil {
		return nil, err
	}

	n, dim := actions.Dims()
	nf := float64(n)

	loss := 0.0
	for i := 0; i < n; i++ {
		loss += alpha*logProbs[i] - q.AtVec(i)
	}
	loss /= nf

	// For the reparameterized linear-Gaussian actor the entropy term is
	// independent of the mean, so the mean gradient reduces to the
	// pathwise term -dQ/da. The log-std picks up both the -alpha
	// entropy term and the pathwise term scaled by std*eps.
	actionWeights := model.Critic.ActionWeights()
	stds := actor.Stds()

	gradMean := mat.NewDense(n, dim, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < dim; j++ {
			gradMean.Set(i, j, -actionWeights[j]/nf)
		}
	}

	u.runOptimizer(opt, params, func() {
		actor.BackwardMean(observations, gradMean)
		for j := 0; j < dim; j++ {
			g := -alpha // d(alpha*logp)/dlogstd per row
			for i := 0; i < n; i++ {
				g -= actionWeights[j] * stds[j] * eps.At(i, j) / nf
			}
			actor.LogStd.Grad.SetVec(j, actor.LogStd.Grad.AtVec(j)+g)
		}
	})

	return &types.UpdaterLog{Loss: loss, Entropy: dist.Entropy()}, nil
}

func (u *SoftPolicyGradient) runOptimizer(opt optimizers.Optimizer, params []*models.Parameter, backward func()) {
	for _, p := range params {
		p.ZeroGrad()
	}
	backward()
	if u.cfg.MaxGrad > 0 {
		optimizers.ClipGradNorm(params, u.cfg.MaxGrad)
	}
	opt.Step(params)
}
