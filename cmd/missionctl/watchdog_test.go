package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testMetrics(hbs ...struct {
	agent   string
	summary string
	age     time.Duration
}) *metricsView {
	m := &metricsView{}
	now := time.Now()
	for _, hb := range hbs {
		m.LatestHeartbeats = append(m.LatestHeartbeats, struct {
			AgentID string    `json:"agentId"`
			Status  string    `json:"status"`
			Summary string    `json:"summary"`
			At      time.Time `json:"at"`
		}{AgentID: hb.agent, Status: "ok", Summary: hb.summary, At: now.Add(-hb.age)})
	}
	return m
}

type hb = struct {
	agent   string
	summary string
	age     time.Duration
}

func TestEvaluatePolicyHealthy(t *testing.T) {
	policy := &alertPolicy{
		Agents:                 []string{"codi"},
		HeartbeatMaxAgeMinutes: 30,
		MaxNoActionableStreak:  3,
		MaxEscalations:         2,
		MaxStaleOpen:           5,
	}
	metrics := testMetrics(hb{"codi", "claimed mcl-1", time.Minute})

	assert.Empty(t, evaluatePolicy(policy, metrics, time.Now()))
}

func TestEvaluatePolicyStaleHeartbeat(t *testing.T) {
	policy := &alertPolicy{Agents: []string{"codi"}, HeartbeatMaxAgeMinutes: 30}
	metrics := testMetrics(hb{"codi", "claimed mcl-1", 2 * time.Hour})

	alerts := evaluatePolicy(policy, metrics, time.Now())
	assert.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "heartbeat stale")
}

func TestEvaluatePolicyMissingHistory(t *testing.T) {
	policy := &alertPolicy{Agents: []string{"codi", "scout"}, HeartbeatMaxAgeMinutes: 30}
	metrics := testMetrics(hb{"codi", "claimed mcl-1", time.Minute})

	alerts := evaluatePolicy(policy, metrics, time.Now())
	assert.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "missing heartbeat history for scout")
}

func TestEvaluatePolicyNoActionableStreak(t *testing.T) {
	policy := &alertPolicy{Agents: []string{"codi"}, HeartbeatMaxAgeMinutes: 30, MaxNoActionableStreak: 3}
	metrics := testMetrics(
		hb{"codi", "no_actionable_tasks", time.Minute},
		hb{"codi", "no_actionable_tasks", 2 * time.Minute},
		hb{"codi", "no_actionable_tasks", 3 * time.Minute},
		hb{"codi", "claimed mcl-1", 4 * time.Minute},
	)

	alerts := evaluatePolicy(policy, metrics, time.Now())
	assert.Len(t, alerts, 1)
	assert.Contains(t, alerts[0], "no_actionable streak 3/3")
}

func TestEvaluatePolicyGlobalThresholds(t *testing.T) {
	policy := &alertPolicy{MaxEscalations: 1, MaxStaleOpen: 2}
	metrics := &metricsView{EscalationCount: 3, StaleOpen: 4}

	alerts := evaluatePolicy(policy, metrics, time.Now())
	assert.Len(t, alerts, 2)
}
