package agent

import "time"

// Agent is a worker identity that can be assigned tasks. The registry is
// seeded from config at startup; agents are not created over the API.
type Agent struct {
	ID        string    `yaml:"id"`
	Role      string    `yaml:"role"`
	Active    bool      `yaml:"active"`
	CreatedAt time.Time `yaml:"created_at"`
}
