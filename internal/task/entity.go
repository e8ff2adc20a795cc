package task

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/oklog/ulid/v2"
)

type Status string

const (
	StatusInbox      Status = "inbox"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusBlocked    Status = "blocked"
	StatusDone       Status = "done"
)

// Statuses lists the accepted values in conventional working order. The
// order is display convention only; the core permits any transition.
var Statuses = []Status{StatusInbox, StatusAssigned, StatusInProgress, StatusReview, StatusBlocked, StatusDone}

func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

type Priority string

const (
	PriorityP0 Priority = "p0"
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

var Priorities = []Priority{PriorityP0, PriorityP1, PriorityP2, PriorityP3}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Rank maps a priority to its claim-ordering tier. p2 and p3 share a tier on
// purpose: only p0 and p1 jump the FIFO queue.
func (p Priority) Rank() int {
	switch p {
	case PriorityP0:
		return 0
	case PriorityP1:
		return 1
	default:
		return 2
	}
}

// Note is one append-only annotation on a task. Notes are embedded in the
// task document, so deleting the task deletes them with it.
type Note struct {
	Text      string    `yaml:"text"`
	Actor     string    `yaml:"actor"`
	CreatedAt time.Time `yaml:"created_at"`
}

type Task struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Status    Status    `yaml:"status"`
	Priority  Priority  `yaml:"priority"`
	Owner     string    `yaml:"owner"`
	Notes     []Note    `yaml:"notes,omitempty"`
	CreatedAt time.Time `yaml:"created_at"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// MaxNotesReturned caps how many notes a task view carries.
const MaxNotesReturned = 50

// RecentNotes returns up to max notes, most recent first.
func (t *Task) RecentNotes(max int) []Note {
	n := len(t.Notes)
	if max > n {
		max = n
	}
	notes := make([]Note, 0, max)
	for i := n - 1; i >= n-max; i-- {
		notes = append(notes, t.Notes[i])
	}
	return notes
}

// NewID mints a task id. IDs are never reused: ULIDs are unique even across
// delete/recreate of the same title.
func NewID() string {
	return "mcl-" + strings.ToLower(ulid.Make().String())
}

const minTitleLength = 3

// ValidateTitle enforces the boundary rule: at least three printable
// characters after trimming.
func ValidateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	printable := 0
	for _, r := range trimmed {
		if unicode.IsPrint(r) {
			printable++
		}
	}
	if printable < minTitleLength {
		return fmt.Errorf("title must be at least %d printable characters", minTitleLength)
	}
	return nil
}
