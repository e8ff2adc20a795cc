package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// alertPolicy mirrors config/alert-policy.yaml. Thresholds apply to the
// metrics projection; agents lists who must have heartbeat history.
type alertPolicy struct {
	Agents                []string `yaml:"agents"`
	HeartbeatMaxAgeMinutes float64 `yaml:"heartbeatMaxAgeMinutes"`
	MaxNoActionableStreak  int     `yaml:"maxNoActionableStreak"`
	MaxEscalations         int     `yaml:"maxEscalations"`
	MaxStaleOpen           int     `yaml:"maxStaleOpen"`
}

func loadAlertPolicy(path string) (*alertPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read alert policy %s: %w", path, err)
	}
	var p alertPolicy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse alert policy %s: %w", path, err)
	}
	return &p, nil
}

type metricsView struct {
	Tasks struct {
		Open int `json:"open"`
		Done int `json:"done"`
	} `json:"tasks"`
	LatestHeartbeats []struct {
		AgentID string    `json:"agentId"`
		Status  string    `json:"status"`
		Summary string    `json:"summary"`
		At      time.Time `json:"at"`
	} `json:"latestHeartbeats"`
	EscalationCount int `json:"escalationCount"`
	StaleOpen       int `json:"staleOpen"`
}

// evaluatePolicy returns one alert line per violated threshold.
func evaluatePolicy(policy *alertPolicy, metrics *metricsView, now time.Time) []string {
	var alerts []string

	for _, agentID := range policy.Agents {
		var latest *time.Time
		streak := 0
		seen := 0
		for _, h := range metrics.LatestHeartbeats {
			if h.AgentID != agentID {
				continue
			}
			if latest == nil {
				at := h.At
				latest = &at
			}
			if seen < policy.MaxNoActionableStreak {
				seen++
				if strings.Contains(h.Summary, "no_actionable_tasks") {
					streak++
				}
			}
		}
		if latest == nil {
			alerts = append(alerts, fmt.Sprintf("missing heartbeat history for %s", agentID))
			continue
		}
		age := now.Sub(*latest).Minutes()
		if age > policy.HeartbeatMaxAgeMinutes {
			alerts = append(alerts, fmt.Sprintf("%s heartbeat stale: %.0fm > %.0fm", agentID, age, policy.HeartbeatMaxAgeMinutes))
		}
		if policy.MaxNoActionableStreak > 0 && streak >= policy.MaxNoActionableStreak {
			alerts = append(alerts, fmt.Sprintf("%s no_actionable streak %d/%d", agentID, streak, policy.MaxNoActionableStreak))
		}
	}

	if metrics.EscalationCount > policy.MaxEscalations {
		alerts = append(alerts, fmt.Sprintf("escalations %d > %d", metrics.EscalationCount, policy.MaxEscalations))
	}
	if metrics.StaleOpen > policy.MaxStaleOpen {
		alerts = append(alerts, fmt.Sprintf("staleOpen %d > %d", metrics.StaleOpen, policy.MaxStaleOpen))
	}
	return alerts
}

// runWatchdog evaluates the alert policy once against /api/metrics. In
// watch mode it re-evaluates on an interval and whenever the policy file
// changes on disk. Returns true when any alert fired.
func runWatchdog(ctx context.Context, client *Client, policyPath string, watch bool, interval time.Duration) (bool, error) {
	policy, err := loadAlertPolicy(policyPath)
	if err != nil {
		return false, err
	}

	if !watch {
		return watchdogPass(ctx, client, policy), nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return false, err
	}
	defer watcher.Close()
	if err := watcher.Add(policyPath); err != nil {
		return false, err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	alerted := watchdogPass(ctx, client, policy)
	for {
		select {
		case <-ctx.Done():
			return alerted, nil
		case ev := <-watcher.Events:
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			reloaded, err := loadAlertPolicy(policyPath)
			if err != nil {
				color.Red("policy reload failed: %v", err)
				continue
			}
			policy = reloaded
			color.Yellow("policy reloaded: %s", policyPath)
			if watchdogPass(ctx, client, policy) {
				alerted = true
			}
		case err := <-watcher.Errors:
			color.Red("watch error: %v", err)
		case <-ticker.C:
			if watchdogPass(ctx, client, policy) {
				alerted = true
			}
		}
	}
}

func watchdogPass(ctx context.Context, client *Client, policy *alertPolicy) bool {
	var metrics metricsView
	if err := client.GetJSON(ctx, "/api/metrics", &metrics); err != nil {
		color.Red("ALERT: metrics endpoint failed: %v", err)
		return true
	}

	alerts := evaluatePolicy(policy, &metrics, time.Now())
	if len(alerts) == 0 {
		color.Green("WATCHDOG_OK: heartbeat and workflow thresholds healthy")
		return false
	}
	color.Red("ALERT: watchdog triggered\n- %s", strings.Join(alerts, "\n- "))
	return true
}
