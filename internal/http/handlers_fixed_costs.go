package http

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"costeapp/internal/autosave"
	"costeapp/internal/core"
	"costeapp/internal/log"
)

// Routes of the fixed costs page.
const (
	FixedCostsRoute       = "/fixed-costs"
	FixedCostsCreateRoute = "/fixed-costs/new"
	FixedCostsDeleteRoute = "/fixed-costs/delete"

	// FixedCostsFormID ties the table inputs to the bulk form.
	FixedCostsFormID = "fixedCostsForm"
)

type listResponse struct {
	FixedCosts     []core.FixedCost `json:"fixedCosts"`
	Total          core.Money       `json:"total"`
	TotalFormatted string           `json:"totalFormatted"`
}

// handleListFixedCosts is the loader: every record plus a fresh total.
func (s *Server) handleListFixedCosts(w http.ResponseWriter, r *http.Request) {
	ov, err := s.api.Load(r.Context())
	if err != nil {
		s.fail(w, r, "Failed to load fixed costs", err, log.OpList)
		return
	}

	if wantsJSON(r) {
		NewResponse().JSON(listResponse{
			FixedCosts:     ov.FixedCosts,
			Total:          ov.Total,
			TotalFormatted: ov.Total.Format(s.opts.CurrencySymbol),
		}).Write(w)
		return
	}
	s.renderPage(w, r, http.StatusOK, s.overviewPage(ov, parseSavedParam(r)))
}

// handleBulkUpdate commits every submitted row or none.
func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := NewRequestBodyParser(w, r).BulkRows()
	if err != nil {
		s.metrics.observeSave(resultInvalid, 0)
		s.badRequest(w, r, err)
		return
	}

	res, err := s.api.BulkUpdate(ctx, rows)
	var fieldErrs core.FieldErrors
	switch {
	case err == nil:
		s.metrics.observeSave(resultOK, len(res.Updated))
		saved := res.LastSavedAt.UTC().Format(time.RFC3339Nano)
		if wantsJSON(r) {
			NewResponse().JSON(savedBody{LastSavedDate: saved}).Write(w)
			return
		}
		http.Redirect(w, r, FixedCostsRoute+"?saved="+url.QueryEscape(saved), http.StatusSeeOther)

	case errors.As(err, &fieldErrs):
		s.metrics.observeSave(resultInvalid, len(rows))
		if wantsJSON(r) {
			FieldErrorsJSON(fieldErrs.Map()).Write(w)
			return
		}
		s.renderFailedSave(w, r, http.StatusUnprocessableEntity, rows, err)

	case errors.Is(err, core.ErrNotFound):
		s.metrics.observeSave(resultNotFound, len(rows))
		log.FromContext(ctx).WarnContext(ctx, "Bulk update referenced a missing fixed cost",
			log.FieldOperation, log.OpBulkUpdate,
			log.FieldBatchSize, len(rows),
			log.FieldError, err)
		if wantsJSON(r) {
			NotFoundJSON(autosave.OperationMessage(err)).Write(w)
			return
		}
		s.renderFailedSave(w, r, http.StatusNotFound, rows, err)

	default:
		s.metrics.observeSave(resultError, len(rows))
		s.fail(w, r, "Bulk update failed", err, log.OpBulkUpdate)
	}
}

func (s *Server) renderFailedSave(w http.ResponseWriter, r *http.Request, status int, rows []core.FixedCostInput, saveErr error) {
	ov, err := s.api.Load(r.Context())
	if err != nil {
		s.fail(w, r, "Failed to load fixed costs", err, log.OpList)
		return
	}
	s.renderPage(w, r, status, s.failedSavePage(rows, ov.Total, saveErr))
}

// handleCreate is the "Agregar" entry point.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		s.metrics.observeCreate(resultInvalid)
		s.badRequest(w, r, err)
		return
	}
	name, amount := p.Get(core.CostNameKey), p.Get(core.MonthlyCostKey)

	fc, err := s.api.Create(ctx, name, amount)
	var fieldErrs core.FieldErrors
	switch {
	case err == nil:
		s.metrics.observeCreate(resultOK)
		if wantsJSON(r) {
			NewResponse().
				Status(http.StatusCreated).
				Header("Location", FixedCostsRoute).
				JSON(fc).
				Write(w)
			return
		}
		http.Redirect(w, r, FixedCostsRoute, http.StatusSeeOther)

	case errors.As(err, &fieldErrs):
		s.metrics.observeCreate(resultInvalid)
		if wantsJSON(r) {
			FieldErrorsJSON(fieldErrs.Map()).Write(w)
			return
		}
		ov, err := s.api.Load(ctx)
		if err != nil {
			s.fail(w, r, "Failed to load fixed costs", err, log.OpList)
			return
		}
		page := s.overviewPage(ov, time.Time{})
		page.Add = addFormView{
			Open:        true,
			CostName:    name,
			MonthlyCost: amount,
			NameError:   fieldErrs.Map()[core.CostNameKey],
			AmountError: fieldErrs.Map()[core.MonthlyCostKey],
		}
		s.renderPage(w, r, http.StatusUnprocessableEntity, page)

	default:
		s.metrics.observeCreate(resultError)
		s.fail(w, r, "Create fixed cost failed", err, log.OpCreate)
	}
}

// handleDelete removes one record. Scripted clients get 204; a plain HTML
// form post is redirected back to the page.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := NewRequestBodyParser(w, r).DeleteID(r)
	if err != nil {
		s.metrics.observeDelete(resultInvalid)
		if errors.Is(err, errMalformedBody) {
			s.badRequest(w, r, err)
			return
		}
		if s.noPageResponse(r) {
			FieldErrorsJSON(map[string]string{core.CostIDKey: core.FieldMessage(err)}).Write(w)
			return
		}
		s.renderOperationError(w, r, http.StatusUnprocessableEntity, core.FieldMessage(err))
		return
	}

	err = s.api.Delete(ctx, id)
	switch {
	case err == nil:
		s.metrics.observeDelete(resultOK)
		if s.noPageResponse(r) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		http.Redirect(w, r, FixedCostsRoute, http.StatusSeeOther)

	case errors.Is(err, core.ErrNotFound):
		s.metrics.observeDelete(resultNotFound)
		log.FromContext(ctx).WarnContext(ctx, "Delete of a missing fixed cost",
			log.FieldOperation, log.OpDelete,
			log.FieldCostID, id)
		if s.noPageResponse(r) {
			NotFoundJSON(autosave.OperationMessage(err)).Write(w)
			return
		}
		s.renderOperationError(w, r, http.StatusNotFound, autosave.OperationMessage(err))

	default:
		s.metrics.observeDelete(resultError)
		s.fail(w, r, "Delete fixed cost failed", err, log.OpDelete)
	}
}

// noPageResponse is true for API-style deletes: JSON callers and the
// DELETE verb, which browsers only send from scripts.
func (s *Server) noPageResponse(r *http.Request) bool {
	return r.Method == http.MethodDelete || wantsJSON(r)
}

func (s *Server) renderOperationError(w http.ResponseWriter, r *http.Request, status int, message string) {
	ov, err := s.api.Load(r.Context())
	if err != nil {
		s.fail(w, r, "Failed to load fixed costs", err, log.OpList)
		return
	}
	page := s.overviewPage(ov, time.Time{})
	page.OperationError = message
	s.renderPage(w, r, status, page)
}

// badRequest answers a body that could not be read at all.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Unreadable request body",
		log.FieldOperation, log.OpParse,
		log.FieldErrorType, log.ErrorTypeValidation,
		log.FieldError, err)

	msg := "Formato de solicitud no válido"
	if errors.Is(err, errTooManyRows) {
		msg = "Demasiadas filas en una sola solicitud"
	}
	if wantsJSON(r) {
		BadRequestJSON(msg).Write(w)
		return
	}
	s.renderError(w, r, http.StatusBadRequest, errorPageTitle, msg)
}

// fail is the error boundary: logged in full, shown generically.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ErrorTypeInternal, op, nil)

	s.writeInternalError(w, r)
}

func (s *Server) writeInternalError(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		InternalErrorJSON().Write(w)
		return
	}
	s.renderError(w, r, http.StatusInternalServerError, errorPageTitle,
		"No se pudo completar la operación. Inténtalo de nuevo más tarde.")
}
