package standup

import (
	"testing"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/ultronlabs/missionctl/internal/task"
)

func assertReportEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	t.Errorf("report mismatch:\n%s", diff)
}

func TestRenderGroupsByStatus(t *testing.T) {
	day := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	tasks := []*task.Task{
		{ID: "mcl-a", Title: "Ship exporter", Status: task.StatusDone, Owner: "codi"},
		{ID: "mcl-b", Title: "Fix claim race", Status: task.StatusInProgress, Owner: "scout"},
		{ID: "mcl-c", Title: "Waiting on creds", Status: task.StatusBlocked, Owner: "codi"},
		{ID: "mcl-d", Title: "Review push flow", Status: task.StatusReview, Owner: "ultron"},
		{ID: "mcl-e", Title: "Backlog item", Status: task.StatusInbox, Owner: "ultron"},
	}

	want := `# DAILY STANDUP — 2026-09-01

## ✅ Completed
- codi: Ship exporter (mcl-a)

## 🔄 In Progress
- scout: Fix claim race (mcl-b)

## 🚫 Blocked
- codi: Waiting on creds (mcl-c)

## 👀 Review
- ultron: Review push flow (mcl-d)
`
	assertReportEqual(t, want, Render(tasks, day))
}

func TestRenderEmpty(t *testing.T) {
	day := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	want := `# DAILY STANDUP — 2026-09-01

## ✅ Completed

## 🔄 In Progress

## 🚫 Blocked

## 👀 Review
`
	assertReportEqual(t, want, Render(nil, day))
}
