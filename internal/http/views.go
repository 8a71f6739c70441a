package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"costeapp/internal/autosave"
	"costeapp/internal/core"
	"costeapp/internal/log"
	"costeapp/internal/middleware/trace"
)

const (
	pageTitle      = "Costos Fijos"
	errorPageTitle = "Ocurrió un error al cargar los costos fijos"
	notFoundTitle  = "Página no encontrada"
)

// rowView is one editable line of the table.
type rowView struct {
	Index       int
	ID          string
	CostName    string
	MonthlyCost string
	Status      autosave.RowStatus
	IDError     string
	NameError   string
	AmountError string
}

// Field returns the form name of one of the row's inputs.
func (r rowView) Field(key string) string {
	return core.FieldPath(r.Index, key)
}

// HasError reports whether any inline message is attached to the row.
func (r rowView) HasError() bool {
	return r.IDError != "" || r.NameError != "" || r.AmountError != ""
}

type addFormView struct {
	Open        bool
	CostName    string
	MonthlyCost string
	NameError   string
	AmountError string
}

type pageView struct {
	Title           string
	FormID          string
	SaveRoute       string
	CreateRoute     string
	DeleteRoute     string
	AutosaveDelayMs int64
	CurrencySymbol  string
	State           string
	StatusMessage   string
	OperationError  string
	FormError       string
	Rows            []rowView
	Total           string
	Add             addFormView
}

type errorView struct {
	Title     string
	Message   string
	Status    int
	RequestID string
}

func (s *Server) basePage(session *autosave.Session, total core.Money) pageView {
	return pageView{
		Title:           pageTitle,
		FormID:          FixedCostsFormID,
		SaveRoute:       FixedCostsRoute,
		CreateRoute:     FixedCostsCreateRoute,
		DeleteRoute:     FixedCostsDeleteRoute,
		AutosaveDelayMs: s.opts.AutosaveDelay.Milliseconds(),
		CurrencySymbol:  s.opts.CurrencySymbol,
		State:           session.State().String(),
		StatusMessage:   session.StatusMessage(),
		OperationError:  session.OperationError(),
		FormError:       session.FieldError(core.ChangedFixedCostsKey),
		Total:           total.Format(s.opts.CurrencySymbol),
	}
}

// overviewPage renders stored records. savedAt is the marker carried over
// from a successful non-JS save.
func (s *Server) overviewPage(ov core.Overview, savedAt time.Time) pageView {
	ids := make([]int64, len(ov.FixedCosts))
	for i, fc := range ov.FixedCosts {
		ids[i] = fc.ID
	}
	session := autosave.NewSession(ids)
	if !savedAt.IsZero() {
		session.SaveSucceeded(savedAt)
	}

	page := s.basePage(session, ov.Total)
	page.Rows = make([]rowView, len(ov.FixedCosts))
	for i, fc := range ov.FixedCosts {
		page.Rows[i] = rowView{
			Index:       i,
			ID:          strconv.FormatInt(fc.ID, 10),
			CostName:    fc.CostName,
			MonthlyCost: fc.MonthlyCost.String(),
			Status:      session.RowStatus(fc.ID),
		}
	}
	return page
}

// failedSavePage re-renders submitted values after a rejected save, running
// the failure through the autosave session so rows carry the same tags and
// messages the scripted form shows.
func (s *Server) failedSavePage(inputs []core.FixedCostInput, total core.Money, saveErr error) pageView {
	ids := make([]int64, len(inputs))
	for i, in := range inputs {
		id, err := core.ParseID(in.ID)
		if err != nil {
			id = -int64(i + 1)
		}
		ids[i] = id
	}

	indexes := core.RowIndexes(inputs)
	session := autosave.NewIndexedSession(ids, indexes)
	for _, id := range ids {
		_ = session.Edit(id)
	}
	_ = session.BeginSave()
	session.SaveFailed(saveErr)

	page := s.basePage(session, total)
	page.Rows = make([]rowView, len(inputs))
	for i, in := range inputs {
		idx := indexes[i]
		page.Rows[i] = rowView{
			Index:       idx,
			ID:          in.ID,
			CostName:    in.CostName,
			MonthlyCost: in.MonthlyCost,
			Status:      session.RowStatus(ids[i]),
			IDError:     session.FieldError(core.FieldPath(idx, core.CostIDKey)),
			NameError:   session.FieldError(core.FieldPath(idx, core.CostNameKey)),
			AmountError: session.FieldError(core.FieldPath(idx, core.MonthlyCostKey)),
		}
	}
	return page
}

// render executes a template into memory first so a template failure never
// leaves a half-written page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, errorPageTitle, http.StatusInternalServerError)
		return
	}
	NewResponse().Status(status).HTML(buf.Bytes()).Write(w)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page pageView) {
	s.render(w, r, status, "fixed_costs.html", page)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, title, message string) {
	s.render(w, r, status, "error.html", errorView{
		Title:     title,
		Message:   message,
		Status:    status,
		RequestID: trace.GetRequestID(r.Context()),
	})
}
