package bot

import "bhabhi/internal/domain"

// Agent represents an autonomous bot player occupying a seat.
type Agent struct {
	ID       string
	Name     string
	Strategy Brain
}

// NewAgent creates an agent for the given identity with the standard policy.
func NewAgent(identity Identity) *Agent {
	return &Agent{
		ID:       identity.UserID,
		Name:     identity.Username,
		Strategy: &StandardBrain{},
	}
}

// Play asks the agent to choose its card for the current game state.
func (a *Agent) Play(g *domain.Game) (domain.Card, error) {
	return a.Strategy.ChooseCard(g, a.ID)
}
