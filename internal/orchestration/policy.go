package orchestration

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ultronlabs/missionctl/pkg/cerr"
)

// Defaults apply to every template unless the template overrides them.
type Defaults struct {
	Orchestrator    string `yaml:"orchestrator" json:"orchestrator"`
	SingleWriter    bool   `yaml:"singleWriter" json:"singleWriter"`
	TimeoutMinutes  int    `yaml:"timeoutMinutes" json:"timeoutMinutes"`
	MaxWorkers      int    `yaml:"maxWorkers" json:"maxWorkers"`
	RequireEvidence bool   `yaml:"requireEvidence" json:"requireEvidence"`
}

type Template struct {
	Workers        []string `yaml:"workers" json:"workers"`
	MaxWorkers     int      `yaml:"maxWorkers" json:"maxWorkers,omitempty"`
	TimeoutMinutes int      `yaml:"timeoutMinutes" json:"timeoutMinutes,omitempty"`
	Evidence       []string `yaml:"evidence" json:"evidence,omitempty"`
}

type Policy struct {
	Version   string              `yaml:"version" json:"version"`
	Defaults  Defaults            `yaml:"defaults" json:"defaults"`
	Templates map[string]Template `yaml:"templates" json:"templates"`
}

// LoadPolicyFile reads the orchestration policy from disk. The file is
// operator config, not runtime state, so it lives outside pkg/storage.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orchestration policy %s: %w", path, err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse orchestration policy %s: %w", path, err)
	}
	return &p, nil
}

// Plan is the worker fan-out for one orchestrated task.
type Plan struct {
	Version         string   `json:"version"`
	TaskID          string   `json:"taskId"`
	Template        string   `json:"template"`
	Title           string   `json:"title"`
	Orchestrator    string   `json:"orchestrator"`
	SingleWriter    bool     `json:"singleWriter"`
	TimeoutMinutes  int      `json:"timeoutMinutes"`
	RequireEvidence bool     `json:"requireEvidence"`
	Workers         []string `json:"workers"`
	Evidence        []string `json:"evidence"`
}

// BuildPlan resolves a template into a concrete plan. The template's
// maxWorkers overrides the default when set; the worker list is clamped to
// that many entries.
func (p *Policy) BuildPlan(taskID, template, title string) (*Plan, error) {
	def, ok := p.Templates[template]
	if !ok {
		return nil, cerr.NewError(cerr.NotFound, fmt.Sprintf("unknown template: %s", template), nil)
	}

	maxWorkers := def.MaxWorkers
	if maxWorkers == 0 {
		maxWorkers = p.Defaults.MaxWorkers
	}
	if maxWorkers == 0 || maxWorkers > len(def.Workers) {
		maxWorkers = len(def.Workers)
	}
	workers := def.Workers[:maxWorkers]

	timeout := def.TimeoutMinutes
	if timeout == 0 {
		timeout = p.Defaults.TimeoutMinutes
	}

	evidence := def.Evidence
	if evidence == nil {
		evidence = []string{}
	}

	return &Plan{
		Version:         p.Version,
		TaskID:          taskID,
		Template:        template,
		Title:           title,
		Orchestrator:    p.Defaults.Orchestrator,
		SingleWriter:    p.Defaults.SingleWriter,
		TimeoutMinutes:  timeout,
		RequireEvidence: p.Defaults.RequireEvidence,
		Workers:         workers,
		Evidence:        evidence,
	}, nil
}
