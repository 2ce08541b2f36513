package agents

import (
	"fmt"

	"github.com/LondonNode/anvil/models"
	"github.com/LondonNode/anvil/types"
	"github.com/LondonNode/anvil/updaters"
)

// SACSettings carries the soft-actor-critic hyperparameters
type SACSettings struct {
	// Alpha is the entropy temperature, defaults to 0.2
	Alpha float64
	// Gamma is the discount factor, defaults to 0.99
	Gamma float64
	// PolyakTau is the target network averaging factor applied after
	// every training trigger, defaults to 0.005
	PolyakTau float64
	// CriticUpdater configures the soft Q regression
	CriticUpdater updaters.CriticUpdaterConfig
	// ActorUpdater configures the soft policy gradient
	ActorUpdater updaters.ActorUpdaterConfig
}

func (s SACSettings) withDefaults() SACSettings {
	if s.Alpha == 0 {
		s.Alpha = 0.2
	}
	if s.Gamma == 0 {
		s.Gamma = 0.99
	}
	if s.PolyakTau == 0 {
		s.PolyakTau = 0.005
	}
	return s
}

// SAC is a soft-actor-critic agent: soft Q regression on the critics,
// soft policy gradient on the actor, Polyak-averaged target critics
type SAC struct {
	*DeepAgent
	model         *models.ActorCritic
	criticUpdater *updaters.SoftQRegression
	actorUpdater  *updaters.SoftPolicyGradient
	settings      SACSettings
}

var _ Trainer = &SAC{}

// NewSAC builds the agent. The configured model must be a
// *models.ActorCritic carrying at least one critic.
func NewSAC(cfg *DeepAgentConfig, settings SACSettings) (*SAC, error) {
	model, ok := cfg.Model.(*models.ActorCritic)
	if !ok {
		return nil, fmt.Errorf("SAC needs a *models.ActorCritic model, got %T", cfg.Model)
	}
	if model.Critic == nil {
		return nil, models.ErrNoCritic
	}
	base, err := NewDeepAgent(cfg)
	if err != nil {
		return nil, err
	}
	settings = settings.withDefaults()
	agent := &SAC{
		DeepAgent:     base,
		model:         model,
		criticUpdater: updaters.NewSoftQRegression(settings.CriticUpdater),
		actorUpdater:  updaters.NewSoftPolicyGradient(settings.ActorUpdater),
		settings:      settings,
	}
	base.BindTrainer(agent)
	return agent, nil
}

// TrainStep runs criticEpochs soft Q regressions and actorEpochs soft
// policy gradient steps on fresh minibatches, then moves the target
// critics
func (s *SAC) TrainStep(batchSize, actorEpochs, criticEpochs int) (*types.Log, error) {
	criticLoss := 0.0
	for i := 0; i < criticEpochs; i++ {
		batch, err := s.Buffer().Sample(batchSize, true)
		if err != nil {
			return nil, err
		}
		log, err := s.criticUpdater.Update(
			s.model,
			batch.ObservationsDense(),
			batch.NextObservationsDense(),
			batch.ActionsDense(),
			batch.Rewards,
			batch.Dones,
			s.settings.Alpha,
			s.settings.Gamma,
		)
		if err != nil {
			return nil, err
		}
		criticLoss += log.Loss
	}

	actorLoss := 0.0
	entropy := 0.0
	for i := 0; i < actorEpochs; i++ {
		batch, err := s.Buffer().Sample(batchSize, true)
		if err != nil {
			return nil, err
		}
		log, err := s.actorUpdater.Update(s.model, batch.ObservationsDense(), s.settings.Alpha)
		if err != nil {
			return nil, err
		}
		actorLoss += log.Loss
		entropy = log.Entropy
	}

	s.model.PolyakUpdate(s.settings.PolyakTau)

	return &types.Log{
		ActorLoss:  actorLoss / float64(actorEpochs),
		CriticLoss: criticLoss / float64(criticEpochs),
		Entropy:    entropy,
	}, nil
}
