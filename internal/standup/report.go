package standup

import (
	"fmt"
	"strings"
	"time"

	"github.com/ultronlabs/missionctl/internal/task"
)

type section struct {
	heading string
	status  task.Status
}

// Sections in report order. Inbox and assigned work is deliberately left
// out: standup covers what moved, not the backlog.
var sections = []section{
	{"## ✅ Completed", task.StatusDone},
	{"## 🔄 In Progress", task.StatusInProgress},
	{"## 🚫 Blocked", task.StatusBlocked},
	{"## 👀 Review", task.StatusReview},
}

// Render builds the markdown standup for the given day.
func Render(tasks []*task.Task, day time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# DAILY STANDUP — %s\n", day.Format("2006-01-02"))
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sec.heading)
		b.WriteString("\n")
		for _, t := range tasks {
			if t.Status != sec.status {
				continue
			}
			fmt.Fprintf(&b, "- %s: %s (%s)\n", t.Owner, t.Title, t.ID)
		}
	}
	return b.String()
}
