// Package autosave models the edit-and-save workflow of the fixed costs
// form: a per-session state machine, per-row status tags and a debounced
// controller that drives saves.
package autosave

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"costeapp/internal/core"
)

// State is the form-level autosave state.
type State int

const (
	Idle State = iota
	PendingSave
	Saving
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingSave:
		return "pending_save"
	case Saving:
		return "saving"
	}
	return "unknown"
}

// RowStatus tags one rendered row.
type RowStatus string

const (
	RowClean    RowStatus = "clean"
	RowEditing  RowStatus = "editing"
	RowSaving   RowStatus = "saving"
	RowDeleting RowStatus = "deleting"
	RowError    RowStatus = "error"
)

var (
	// ErrBusy is returned when an action is attempted while a save or a
	// delete is in flight.
	ErrBusy       = errors.New("a save or delete is in progress")
	ErrUnknownRow = errors.New("row is not part of this form")
)

// Session is the state of one form. It is not safe for concurrent use;
// Controller adds the locking.
type Session struct {
	state       State
	order       []int64
	rows        map[int64]RowStatus
	byIndex     map[int]int64
	fieldErrors map[string]string
	lastSavedAt time.Time
	opError     string
}

// NewSession starts an idle session over the rendered row ids, in order.
// Row i of the form is ids[i].
func NewSession(ids []int64) *Session {
	return NewIndexedSession(ids, nil)
}

// NewIndexedSession is NewSession for a form whose row numbers are not
// 0..n-1: indexes[i] is the fixedCosts[...] number of ids[i].
func NewIndexedSession(ids []int64, indexes []int) *Session {
	s := &Session{
		order:       append([]int64(nil), ids...),
		rows:        make(map[int64]RowStatus, len(ids)),
		fieldErrors: map[string]string{},
	}
	for _, id := range ids {
		s.rows[id] = RowClean
	}
	if len(indexes) == len(ids) {
		s.byIndex = make(map[int]int64, len(ids))
		for i, idx := range indexes {
			s.byIndex[idx] = ids[i]
		}
	} else {
		s.renumber()
	}
	return s
}

func (s *Session) renumber() {
	s.byIndex = make(map[int]int64, len(s.order))
	for i, id := range s.order {
		s.byIndex[i] = id
	}
}

func (s *Session) State() State { return s.state }

func (s *Session) LastSavedAt() time.Time { return s.lastSavedAt }

func (s *Session) OperationError() string { return s.opError }

func (s *Session) FieldError(path string) string { return s.fieldErrors[path] }

// FieldErrors returns a copy of the inline errors currently shown.
func (s *Session) FieldErrors() map[string]string {
	out := make(map[string]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = v
	}
	return out
}

// RowStatus reports the tag of a row; removed rows report "".
func (s *Session) RowStatus(id int64) RowStatus {
	return s.rows[id]
}

// Rows returns the live row ids in display order.
func (s *Session) Rows() []int64 {
	return append([]int64(nil), s.order...)
}

// Busy reports whether edits must be blocked.
func (s *Session) Busy() bool {
	if s.state == Saving {
		return true
	}
	for _, st := range s.rows {
		if st == RowDeleting {
			return true
		}
	}
	return false
}

// Edit records a field change: Idle or PendingSave -> PendingSave.
func (s *Session) Edit(id int64) error {
	if s.Busy() {
		return ErrBusy
	}
	if _, ok := s.rows[id]; !ok {
		return ErrUnknownRow
	}
	if s.rows[id] != RowError {
		s.rows[id] = RowEditing
	}
	s.state = PendingSave
	return nil
}

// BeginSave moves to Saving. An explicit save is allowed from Idle too.
func (s *Session) BeginSave() error {
	if s.Busy() {
		return ErrBusy
	}
	s.state = Saving
	s.opError = ""
	for id, st := range s.rows {
		if st == RowEditing || st == RowError {
			s.rows[id] = RowSaving
		}
	}
	return nil
}

// SaveSucceeded returns to Idle with a new saved-at marker.
func (s *Session) SaveSucceeded(at time.Time) {
	s.state = Idle
	s.lastSavedAt = at
	s.fieldErrors = map[string]string{}
	for id, st := range s.rows {
		if st == RowSaving {
			s.rows[id] = RowClean
		}
	}
}

// SaveFailed returns to Idle keeping the edits. Field errors are attached
// to their rows; anything else becomes the operation error.
func (s *Session) SaveFailed(err error) {
	s.state = Idle
	s.fieldErrors = map[string]string{}

	var fieldErrs core.FieldErrors
	if errors.As(err, &fieldErrs) {
		s.fieldErrors = fieldErrs.Map()
	} else if err != nil {
		s.opError = OperationMessage(err)
	}

	failed := map[int64]bool{}
	for path := range s.fieldErrors {
		if i, ok := rowIndex(path); ok {
			if id, ok := s.byIndex[i]; ok {
				failed[id] = true
			}
		}
	}
	for id, st := range s.rows {
		switch {
		case failed[id]:
			s.rows[id] = RowError
		case st == RowSaving:
			s.rows[id] = RowEditing
		}
	}
}

// BeginDelete tags the row as deleting; the row stays until confirmed.
func (s *Session) BeginDelete(id int64) error {
	if s.Busy() {
		return ErrBusy
	}
	if _, ok := s.rows[id]; !ok {
		return ErrUnknownRow
	}
	s.rows[id] = RowDeleting
	s.opError = ""
	return nil
}

// DeleteSucceeded drops the row from the session.
func (s *Session) DeleteSucceeded(id int64) {
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	// The form is renumbered without the row, so old paths point elsewhere.
	s.renumber()
	s.fieldErrors = map[string]string{}
}

// DeleteFailed puts the row back and records a generic error.
func (s *Session) DeleteFailed(id int64, err error) {
	if _, ok := s.rows[id]; ok {
		s.rows[id] = RowError
	}
	s.opError = OperationMessage(err)
}

// StatusMessage is the badge text next to the save button.
func (s *Session) StatusMessage() string {
	switch s.state {
	case Saving:
		return "Guardando…"
	case PendingSave:
		return "Cambios sin guardar"
	}
	return SavedMessage(s.lastSavedAt)
}

// SavedMessage renders a saved-at marker, or "" when nothing was saved yet.
func SavedMessage(at time.Time) string {
	if at.IsZero() {
		return ""
	}
	return "Guardado a las " + at.Local().Format("15:04")
}

// OperationMessage maps non-field failures to the generic error text.
func OperationMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, core.ErrNotFound):
		return "El costo ya no existe. Recarga la página."
	default:
		return "No se pudo completar la operación. Inténtalo de nuevo."
	}
}

// rowIndex extracts i from "fixedCosts[i].field".
func rowIndex(path string) (int, bool) {
	rest, ok := strings.CutPrefix(path, core.ChangedFixedCostsKey+"[")
	if !ok {
		return 0, false
	}
	end := strings.IndexByte(rest, ']')
	if end < 0 {
		return 0, false
	}
	i, err := strconv.Atoi(rest[:end])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}
