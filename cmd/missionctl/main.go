package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
)

var (
	app     = kingpin.New("missionctl", "Mission control operator and agent CLI")
	baseURL = app.Flag("base-url", "Coordinator base URL").Envar("MCL_BASE_URL").Default("http://127.0.0.1:8787").String()

	wakeCmd      = app.Command("wake", "Wake an agent: mark inbox seen, claim next task, record heartbeat")
	wakeAgentID  = wakeCmd.Arg("agentId", "Agent to wake").Required().String()
	wakeInterval = wakeCmd.Flag("interval", "Repeat on this interval (0 = once)").Default("0").Duration()
	wakeOnClaim  = wakeCmd.Flag("on-claim", "Shell snippet to run after a claim (MCL_TASK_ID, MCL_TASK_TITLE exported)").String()

	watchdogCmd      = app.Command("watchdog", "Evaluate alert thresholds against /api/metrics")
	watchdogPolicy   = watchdogCmd.Flag("policy", "Alert policy file").Default("config/alert-policy.yaml").String()
	watchdogWatch    = watchdogCmd.Flag("watch", "Keep running; re-evaluate on interval and policy change").Bool()
	watchdogInterval = watchdogCmd.Flag("interval", "Evaluation interval in watch mode").Default("60s").Duration()

	healthcheckCmd = app.Command("healthcheck", "Probe the core API endpoints concurrently")
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := NewClient(*baseURL)

	switch command {
	case wakeCmd.FullCommand():
		if err := runWake(ctx, client, *wakeAgentID, *wakeInterval, *wakeOnClaim); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
	case watchdogCmd.FullCommand():
		alerted, err := runWatchdog(ctx, client, *watchdogPolicy, *watchdogWatch, *watchdogInterval)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if alerted {
			os.Exit(2)
		}
	case healthcheckCmd.FullCommand():
		if err := runHealthcheck(ctx, client); err != nil {
			os.Exit(1)
		}
	}
}
