package app

import (
	"context"
	"sync"
	"time"

	"shelbyadmin/internal/apiclient"
)

// saveMessageTTL is how long a CRUD success message stays on screen.
const saveMessageTTL = 5 * time.Second

// ResourceAPI is the slice of the resource client the controller drives.
// *apiclient.Resource[T] satisfies it.
type ResourceAPI[T any] interface {
	ListAll(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id int, patch map[string]any) (T, error)
	Remove(ctx context.Context, id int) error
}

// FormMode is the form axis of the controller state. Exactly one of create
// and edit is active while the form is open.
type FormMode int

const (
	FormClosed FormMode = iota
	FormCreate
	FormEdit
)

// Descriptor tells the generic controller how one resource behaves. The
// controller itself carries everything the three resource screens share;
// the descriptor carries what they don't.
type Descriptor[T any] struct {
	// Label names the resource in log lines.
	Label string
	// ID extracts the server-assigned identifier; non-zero for any record
	// fetched from the server.
	ID func(rec T) int
	// Matches applies the resource's filter semantics to one record against
	// the applied filter values.
	Matches func(rec T, applied map[string]string) bool
	// Validate checks a draft before any network call.
	Validate func(draft T, edit bool) error
	// Normalize shapes the draft right before validation and payload
	// building (date clamping). Optional.
	Normalize func(draft *T, original T, edit bool)
	// CreatePayload builds the full POST body for a draft.
	CreatePayload func(draft T) any
	// PatchPayload builds the partial PATCH body against the record the edit
	// started from. Absent keys mean "unchanged"; never emit null for them.
	PatchPayload func(original, draft T) map[string]any
	// ReadOnlyFields are draft fields locked once the record exists. They are
	// disabled in edit mode, not removed from the record.
	ReadOnlyFields []string
}

// Controller holds the screen state for one resource: the loaded list and
// its filtered view, the form draft, and the load/save flags. The three axes
// (list, form, mutate) move independently.
type Controller[T any] struct {
	api  ResourceAPI[T]
	desc Descriptor[T]

	mu      sync.Mutex
	loading bool
	loaded  bool
	items   []T
	visible []T

	filterInput   map[string]string
	filterApplied map[string]string

	mode     FormMode
	draft    T
	original T
	editID   int
	touched  bool

	saving bool

	errMsg     string
	successMsg string
	msgTimer   *time.Timer
	loadSeq    uint64
}

// NewController builds a controller over a resource client.
func NewController[T any](api ResourceAPI[T], desc Descriptor[T]) *Controller[T] {
	return &Controller[T]{
		api:           api,
		desc:          desc,
		filterInput:   map[string]string{},
		filterApplied: map[string]string{},
	}
}

// Load fetches the full list. A Load started later supersedes one still in
// flight: the stale completion is discarded by sequence number, whichever
// order the responses arrive in.
func (c *Controller[T]) Load(ctx context.Context) {
	c.mu.Lock()
	c.loading = true
	c.errMsg = ""
	c.loadSeq++
	seq := c.loadSeq
	c.mu.Unlock()

	items, err := c.api.ListAll(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.loadSeq {
		return
	}
	c.loading = false
	if err != nil {
		c.errMsg = apiclient.Message(err, fallbackLoad)
		return
	}
	c.items = items
	c.loaded = true
	c.recomputeVisible()
}

// SetFilterInput stages a filter value without applying it.
func (c *Controller[T]) SetFilterInput(name, value string) {
	c.mu.Lock()
	c.filterInput[name] = value
	c.mu.Unlock()
}

// ApplyFilters copies every staged filter value to its applied slot and
// recomputes the visible list. Purely client-side; no round trip.
func (c *Controller[T]) ApplyFilters() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for name, value := range c.filterInput {
		c.filterApplied[name] = value
	}
	c.recomputeVisible()
}

func (c *Controller[T]) recomputeVisible() {
	active := false
	for _, v := range c.filterApplied {
		if v != "" {
			active = true
			break
		}
	}
	if !active || c.desc.Matches == nil {
		c.visible = c.items
		return
	}
	visible := make([]T, 0, len(c.items))
	for _, rec := range c.items {
		if c.desc.Matches(rec, c.filterApplied) {
			visible = append(visible, rec)
		}
	}
	c.visible = visible
}

// Visible returns the filtered view of the last-loaded list.
func (c *Controller[T]) Visible() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]T, len(c.visible))
	copy(out, c.visible)
	return out
}

// StartCreate opens the form with a blank draft.
func (c *Controller[T]) StartCreate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var blank T
	c.draft = blank
	c.original = blank
	c.editID = 0
	c.touched = false
	c.mode = FormCreate
}

// StartEdit opens the form populated from an existing record.
func (c *Controller[T]) StartEdit(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = rec
	c.original = rec
	c.editID = c.desc.ID(rec)
	c.touched = false
	c.mode = FormEdit
}

// UpdateDraft mutates the open draft. No-op while the form is closed.
func (c *Controller[T]) UpdateDraft(mutate func(draft *T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode == FormClosed {
		return
	}
	mutate(&c.draft)
}

// FieldReadOnly reports whether a form field is locked for the open draft.
func (c *Controller[T]) FieldReadOnly(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != FormEdit {
		return false
	}
	for _, f := range c.desc.ReadOnlyFields {
		if f == name {
			return true
		}
	}
	return false
}

// CloseForm abandons the open draft.
func (c *Controller[T]) CloseForm() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = FormClosed
}

// Save validates the draft and dispatches a create or patch. Invalid drafts
// mark every field touched and never reach the network. A save already in
// flight makes Save a no-op regardless of what the view disabled.
func (c *Controller[T]) Save(ctx context.Context) {
	c.mu.Lock()
	if c.saving || c.mode == FormClosed {
		c.mu.Unlock()
		return
	}
	edit := c.mode == FormEdit
	if c.desc.Normalize != nil {
		c.desc.Normalize(&c.draft, c.original, edit)
	}
	if err := c.desc.Validate(c.draft, edit); err != nil {
		c.touched = true
		c.errMsg = err.Error()
		c.mu.Unlock()
		return
	}
	var patch map[string]any
	if edit {
		patch = c.desc.PatchPayload(c.original, c.draft)
		if len(patch) == 0 {
			// Nothing changed; no round trip to make.
			c.mode = FormClosed
			c.mu.Unlock()
			return
		}
	}
	c.saving = true
	c.errMsg = ""
	draft := c.draft
	editID := c.editID
	c.mu.Unlock()

	var err error
	if edit {
		_, err = c.api.Update(ctx, editID, patch)
	} else {
		_, err = c.api.Create(ctx, c.desc.CreatePayload(draft))
	}

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.errMsg = apiclient.Message(err, fallbackSave)
		c.mu.Unlock()
		return
	}
	c.mode = FormClosed
	c.setSuccessLocked("Saved successfully", saveMessageTTL)
	c.mu.Unlock()

	c.Load(ctx)
}

// Delete removes a record. Nothing is issued unless the caller confirmed the
// action; a mutation already in flight makes Delete a no-op.
func (c *Controller[T]) Delete(ctx context.Context, id int, confirmed bool) {
	if !confirmed {
		return
	}
	c.mu.Lock()
	if c.saving {
		c.mu.Unlock()
		return
	}
	c.saving = true
	c.mu.Unlock()

	err := c.api.Remove(ctx, id)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.errMsg = apiclient.Message(err, fallbackDelete)
		c.mu.Unlock()
		return
	}
	c.setSuccessLocked("Deleted successfully", saveMessageTTL)
	c.mu.Unlock()

	c.Load(ctx)
}

// setSuccessLocked replaces the success message and schedules its clearing.
// The previous timer is cancelled so a late firing cannot wipe a newer
// message; the firing callback additionally checks it still owns the slot.
func (c *Controller[T]) setSuccessLocked(msg string, ttl time.Duration) {
	if c.msgTimer != nil {
		c.msgTimer.Stop()
	}
	c.successMsg = msg
	c.msgTimer = time.AfterFunc(ttl, func() {
		c.mu.Lock()
		if c.successMsg == msg {
			c.successMsg = ""
		}
		c.mu.Unlock()
	})
}

// Snapshot is a consistent read of the controller state for rendering.
type Snapshot[T any] struct {
	Loading bool
	Loaded  bool
	Saving  bool
	Mode    FormMode
	Draft   T
	EditID  int
	Touched bool
	Error   string
	Success string
	Visible []T
}

// State returns a consistent snapshot of all three state axes.
func (c *Controller[T]) State() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	visible := make([]T, len(c.visible))
	copy(visible, c.visible)
	return Snapshot[T]{
		Loading: c.loading,
		Loaded:  c.loaded,
		Saving:  c.saving,
		Mode:    c.mode,
		Draft:   c.draft,
		EditID:  c.editID,
		Touched: c.touched,
		Error:   c.errMsg,
		Success: c.successMsg,
		Visible: visible,
	}
}

// Close releases the message timer. Safe to call repeatedly.
func (c *Controller[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.msgTimer != nil {
		c.msgTimer.Stop()
		c.msgTimer = nil
	}
}
