package orchestration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultronlabs/missionctl/pkg/cerr"
)

const testPolicy = `version: "1"
defaults:
  orchestrator: ultron
  singleWriter: true
  timeoutMinutes: 45
  maxWorkers: 3
  requireEvidence: true
templates:
  build_orchestra:
    workers: [codi, scout, forge, probe]
    maxWorkers: 2
    evidence: [test_output]
  recon:
    workers: [scout]
    timeoutMinutes: 15
`

func loadTestPolicy(t *testing.T) *Policy {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testPolicy), 0o644))
	policy, err := LoadPolicyFile(path)
	require.NoError(t, err)
	return policy
}

func TestBuildPlanCapsWorkers(t *testing.T) {
	policy := loadTestPolicy(t)

	plan, err := policy.BuildPlan("mcl-1", "build_orchestra", "Build it")
	require.NoError(t, err)
	assert.Equal(t, []string{"codi", "scout"}, plan.Workers)
	assert.Equal(t, 45, plan.TimeoutMinutes)
	assert.Equal(t, "ultron", plan.Orchestrator)
	assert.True(t, plan.SingleWriter)
	assert.Equal(t, []string{"test_output"}, plan.Evidence)
}

func TestBuildPlanDefaultsAndOverrides(t *testing.T) {
	policy := loadTestPolicy(t)

	plan, err := policy.BuildPlan("mcl-2", "recon", "Scout ahead")
	require.NoError(t, err)
	// One worker available: defaults.maxWorkers (3) cannot exceed the list.
	assert.Equal(t, []string{"scout"}, plan.Workers)
	assert.Equal(t, 15, plan.TimeoutMinutes)
	assert.Empty(t, plan.Evidence)
	assert.NotNil(t, plan.Evidence)
}

func TestBuildPlanUnknownTemplate(t *testing.T) {
	policy := loadTestPolicy(t)

	_, err := policy.BuildPlan("mcl-3", "nonsense", "")
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.NotFound))
}

func TestLoadPolicyFileMissing(t *testing.T) {
	_, err := LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
