package task

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ultronlabs/missionctl/internal/event"
	"github.com/ultronlabs/missionctl/pkg/cerr"
)

// AssignmentCascade is the slice of the assignment ledger the task store
// needs for cascading deletes.
type AssignmentCascade interface {
	DeleteByTask(ctx context.Context, taskID string) error
}

// OwnerDirectory is the slice of the agent registry needed to validate
// owner values.
type OwnerDirectory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type Server struct {
	repo         Repository
	agents       OwnerDirectory
	assignments  AssignmentCascade
	recorder     *event.Recorder
	defaultOwner string
}

func NewServer(repo Repository, agents OwnerDirectory, assignments AssignmentCascade, recorder *event.Recorder, defaultOwner string) *Server {
	return &Server{
		repo:         repo,
		agents:       agents,
		assignments:  assignments,
		recorder:     recorder,
		defaultOwner: defaultOwner,
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/tasks", s.handleList)
	r.Post("/task/create", s.handleCreate)
	r.Post("/task/update", s.handleUpdate)
	r.Post("/task/delete", s.handleDelete)
	r.Post("/task/note", s.handleNote)
}

type noteView struct {
	Note  string    `json:"note"`
	Actor string    `json:"actor"`
	At    time.Time `json:"at"`
}

// TaskView is the JSON shape of a task, notes capped at the most recent 50
// in reverse chronological order.
type TaskView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    Status     `json:"status"`
	Priority  Priority   `json:"priority"`
	Owner     string     `json:"owner"`
	Notes     []noteView `json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func NewTaskView(t *Task) TaskView {
	recent := t.RecentNotes(MaxNotesReturned)
	notes := make([]noteView, 0, len(recent))
	for _, n := range recent {
		notes = append(notes, noteView{Note: n.Text, Actor: n.Actor, At: n.CreatedAt})
	}
	return TaskView{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		Owner:     t.Owner,
		Notes:     notes,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type listResponse struct {
	Tasks []TaskView `json:"tasks"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tasks, err := s.repo.List(ctx)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	views := make([]TaskView, 0, len(tasks))
	for _, t := range tasks {
		views = append(views, NewTaskView(t))
	}
	cerr.SetJSONResponse(ctx, listResponse{Tasks: views})
}

type createRequest struct {
	Title    string   `json:"title"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Owner    string   `json:"owner"`
	Actor    string   `json:"actor"`
}

type taskResponse struct {
	OK   bool     `json:"ok"`
	Task TaskView `json:"task"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	var details []string
	if err := ValidateTitle(req.Title); err != nil {
		details = append(details, err.Error())
	}
	if req.Status != "" && !req.Status.Valid() {
		details = append(details, "status is invalid")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		details = append(details, "priority is invalid")
	}
	if req.Owner != "" {
		if err := s.checkOwner(ctx, req.Owner, &details); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	if len(details) > 0 {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, details))
		return
	}

	now := time.Now()
	t := &Task{
		ID:        NewID(),
		Title:     strings.TrimSpace(req.Title),
		Status:    req.Status,
		Priority:  req.Priority,
		Owner:     req.Owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if t.Status == "" {
		t.Status = StatusInbox
	}
	if t.Priority == "" {
		t.Priority = PriorityP2
	}
	if t.Owner == "" {
		t.Owner = s.defaultOwner
	}

	if err := s.repo.Create(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	s.recorder.Record(ctx, t.ID, event.TypeTaskCreated, fmt.Sprintf("%s created %s: %s", t.Owner, t.ID, t.Title), actorOr(req.Actor, t.Owner))
	cerr.SetJSONResponse(ctx, taskResponse{OK: true, Task: NewTaskView(t)})
}

type updateRequest struct {
	ID       string   `json:"id"`
	Status   Status   `json:"status"`
	Priority Priority `json:"priority"`
	Owner    string   `json:"owner"`
	Actor    string   `json:"actor"`
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}

	var details []string
	if req.ID == "" {
		details = append(details, "id is required")
	}
	if req.Status != "" && !req.Status.Valid() {
		details = append(details, "status is invalid")
	}
	if req.Priority != "" && !req.Priority.Valid() {
		details = append(details, "priority is invalid")
	}
	if req.Owner != "" {
		if err := s.checkOwner(ctx, req.Owner, &details); err != nil {
			cerr.SetJSONError(ctx, err)
			return
		}
	}
	if len(details) > 0 {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, details))
		return
	}

	t, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	prevStatus := t.Status
	if req.Status != "" {
		t.Status = req.Status
	}
	if req.Priority != "" {
		t.Priority = req.Priority
	}
	if req.Owner != "" {
		t.Owner = req.Owner
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	actor := actorOr(req.Actor, "ui")
	s.recorder.Record(ctx, t.ID, event.TypeTaskUpdated, fmt.Sprintf("%s -> %s (%s)", t.ID, t.Status, t.Owner), actor)
	if t.Status == StatusBlocked && prevStatus != StatusBlocked {
		s.recorder.Record(ctx, t.ID, event.TypeTaskBlocked, fmt.Sprintf("%s blocked: %s", t.ID, t.Title), actor)
	}
	cerr.SetJSONResponse(ctx, taskResponse{OK: true, Task: NewTaskView(t)})
}

type deleteRequest struct {
	ID    string `json:"id"`
	Actor string `json:"actor"`
}

type deleteResponse struct {
	OK        bool   `json:"ok"`
	DeletedID string `json:"deletedId"`
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.ID == "" {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, []string{"id is required"}))
		return
	}

	t, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	// Notes are embedded in the task document; assignments cascade here.
	// Events stay: the feed is the audit trail.
	if err := s.repo.Delete(ctx, t.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}
	if err := s.assignments.DeleteByTask(ctx, t.ID); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.recorder.Record(ctx, t.ID, event.TypeTaskDeleted, fmt.Sprintf("%s: %s", t.ID, t.Title), actorOr(req.Actor, "ui"))
	cerr.SetJSONResponse(ctx, deleteResponse{OK: true, DeletedID: t.ID})
}

type noteRequest struct {
	ID    string `json:"id"`
	Note  string `json:"note"`
	Actor string `json:"actor"`
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		cerr.SetNewJSONError(ctx, cerr.InvalidArgument, "invalid request body", err)
		return
	}
	if req.ID == "" {
		cerr.SetJSONError(ctx, cerr.NewErrorWithDetails(cerr.InvalidArgument, "validation failed", nil, []string{"id is required"}))
		return
	}

	t, err := s.repo.Get(ctx, req.ID)
	if err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	actor := actorOr(req.Actor, "ui")
	now := time.Now()
	t.Notes = append(t.Notes, Note{Text: req.Note, Actor: actor, CreatedAt: now})
	t.UpdatedAt = now

	if err := s.repo.Update(ctx, t); err != nil {
		cerr.SetJSONError(ctx, err)
		return
	}

	s.recorder.Record(ctx, t.ID, event.TypeTaskNote, fmt.Sprintf("%s: %s", t.ID, req.Note), actor)
	cerr.SetJSONResponse(ctx, taskResponse{OK: true, Task: NewTaskView(t)})
}

func (s *Server) checkOwner(ctx context.Context, owner string, details *[]string) error {
	ok, err := s.agents.Exists(ctx, owner)
	if err != nil {
		return err
	}
	if !ok {
		*details = append(*details, "owner is invalid")
	}
	return nil
}

func actorOr(actor, fallback string) string {
	if actor != "" {
		return actor
	}
	return fallback
}
