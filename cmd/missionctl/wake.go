package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

type wakeTask struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Owner    string `json:"owner"`
}

type wakeResult struct {
	OK         bool      `json:"ok"`
	Task       *wakeTask `json:"task"`
	InboxCount int       `json:"inboxCount"`
}

// runWake wakes the agent once, or on a fixed interval when interval > 0.
// onClaim is an optional shell snippet executed after a successful claim
// with MCL_TASK_ID and MCL_TASK_TITLE in its environment.
func runWake(ctx context.Context, client *Client, agentID string, interval time.Duration, onClaim string) error {
	for {
		if err := wakeOnce(ctx, client, agentID, onClaim); err != nil {
			if interval == 0 {
				return err
			}
			color.Red("wake failed: %v", err)
		}
		if interval == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(interval):
		}
	}
}

func wakeOnce(ctx context.Context, client *Client, agentID, onClaim string) error {
	var result wakeResult
	if err := client.PostJSON(ctx, fmt.Sprintf("/api/agent/%s/wake", agentID), struct{}{}, &result); err != nil {
		return err
	}

	if result.Task == nil {
		color.New(color.Faint).Printf("HEARTBEAT_OK %s: no actionable tasks (inbox %d)\n", agentID, result.InboxCount)
		return nil
	}

	color.Green("AGENT_WAKE %s: claimed %s (%s)", agentID, result.Task.ID, result.Task.Title)
	if onClaim != "" {
		if err := runClaimHook(ctx, onClaim, result.Task); err != nil {
			return fmt.Errorf("on-claim hook failed: %w", err)
		}
	}
	return nil
}

func runClaimHook(ctx context.Context, script string, t *wakeTask) error {
	file, err := syntax.NewParser().Parse(strings.NewReader(script), "on-claim")
	if err != nil {
		return fmt.Errorf("failed to parse hook: %w", err)
	}

	env := append(os.Environ(),
		"MCL_TASK_ID="+t.ID,
		"MCL_TASK_TITLE="+t.Title,
	)
	runner, err := interp.New(
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(os.Stdin, os.Stdout, os.Stderr),
	)
	if err != nil {
		return err
	}
	return runner.Run(ctx, file)
}
