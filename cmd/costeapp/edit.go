package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"costeapp/internal/autosave"
	"costeapp/internal/cli"
	"costeapp/internal/core"
	"costeapp/internal/services"
)

// doneChoice is the select value that ends the edit loop; ids are positive.
const doneChoice int64 = 0

const (
	actionEdit   = "edit"
	actionDelete = "delete"
	actionBack   = "back"
)

func newEditCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit fixed costs interactively; changes autosave",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := cli.OpenApp(cmd.Context(), e.cfg, e.logger)
			if err != nil {
				return err
			}
			defer app.Close()

			ov, err := app.Service.Load(cmd.Context())
			if err != nil {
				return err
			}
			if len(ov.FixedCosts) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), cli.RenderFixedCosts(ov, e.cfg.CurrencySymbol))
				return nil
			}

			ed := newEditor(app.Service, ov, e.cfg.AutosaveDelay)
			if err := ed.loop(cmd.Context()); err != nil {
				return err
			}
			return ed.finish(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

// editor keeps a working copy of the table. The autosave controller sends
// the whole copy on every save, as the web form does.
type editor struct {
	svc  *services.FixedCostService
	ctrl *autosave.Controller

	mu   sync.Mutex
	ids  []int64
	rows []core.FixedCostInput
}

func newEditor(svc *services.FixedCostService, ov core.Overview, delay time.Duration) *editor {
	ed := &editor{svc: svc}
	for _, fc := range ov.FixedCosts {
		ed.ids = append(ed.ids, fc.ID)
		ed.rows = append(ed.rows, core.FixedCostInput{
			ID:          strconv.FormatInt(fc.ID, 10),
			CostName:    fc.CostName,
			MonthlyCost: fc.MonthlyCost.String(),
		})
	}
	ed.ctrl = autosave.NewController(autosave.NewSession(ed.ids), delay, ed.save)
	return ed
}

func (ed *editor) save(ctx context.Context) (time.Time, error) {
	ed.mu.Lock()
	rows := append([]core.FixedCostInput(nil), ed.rows...)
	ed.mu.Unlock()

	res, err := ed.svc.BulkUpdate(ctx, rows)
	if err != nil {
		return time.Time{}, err
	}
	return res.LastSavedAt, nil
}

func (ed *editor) loop(ctx context.Context) error {
	for {
		choice := doneChoice
		pick := huh.NewSelect[int64]().
			Title("Costos Fijos").
			Description(ed.status()).
			Options(ed.options()...).
			Value(&choice)
		err := huh.NewForm(huh.NewGroup(pick)).RunWithContext(ctx)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if choice == doneChoice {
			return nil
		}
		if err := ed.rowAction(ctx, choice); err != nil {
			return err
		}
	}
}

// rowAction asks what to do with the chosen row.
func (ed *editor) rowAction(ctx context.Context, id int64) error {
	name, ok := ed.rowName(id)
	if !ok {
		return nil
	}

	action := actionEdit
	pick := huh.NewSelect[string]().
		Title(name).
		Options(
			huh.NewOption("Editar", actionEdit),
			huh.NewOption("Borrar", actionDelete),
			huh.NewOption("Volver", actionBack),
		).
		Value(&action)
	if err := huh.NewForm(huh.NewGroup(pick)).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	switch action {
	case actionEdit:
		return ed.editRow(ctx, id)
	case actionDelete:
		confirmed := false
		confirm := huh.NewConfirm().
			Title(confirmDeleteMessage(name)).
			Affirmative("Borrar").
			Negative("Cancelar").
			Value(&confirmed)
		if err := huh.NewForm(huh.NewGroup(confirm)).RunWithContext(ctx); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return err
		}
		if !confirmed {
			return nil
		}
		return ed.deleteRow(ctx, id)
	}
	return nil
}

func confirmDeleteMessage(name string) string {
	return fmt.Sprintf("¿Estás seguro de que quieres borrar %s?", name)
}

func (ed *editor) rowName(id int64) (string, bool) {
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if i := slices.Index(ed.ids, id); i >= 0 {
		return ed.rows[i].CostName, true
	}
	return "", false
}

// deleteRow removes the record and, once storage agrees, the working-copy
// row. Storage failures are left on the session for the status line.
func (ed *editor) deleteRow(ctx context.Context, id int64) error {
	err := ed.ctrl.Delete(ctx, id, ed.remove)
	if errors.Is(err, autosave.ErrBusy) {
		ed.ctrl.Wait()
		err = ed.ctrl.Delete(ctx, id, ed.remove)
	}
	if errors.Is(err, autosave.ErrBusy) || errors.Is(err, autosave.ErrUnknownRow) {
		return err
	}
	return nil
}

func (ed *editor) remove(ctx context.Context, id int64) error {
	if err := ed.svc.Delete(ctx, id); err != nil {
		return err
	}
	ed.mu.Lock()
	defer ed.mu.Unlock()
	if i := slices.Index(ed.ids, id); i >= 0 {
		ed.ids = slices.Delete(ed.ids, i, i+1)
		ed.rows = slices.Delete(ed.rows, i, i+1)
	}
	return nil
}

func (ed *editor) options() []huh.Option[int64] {
	ed.mu.Lock()
	defer ed.mu.Unlock()

	opts := make([]huh.Option[int64], 0, len(ed.rows)+1)
	ed.ctrl.Do(func(s *autosave.Session) {
		for i, r := range ed.rows {
			label := fmt.Sprintf("%-24s %10s", r.CostName, r.MonthlyCost)
			if st := s.RowStatus(ed.ids[i]); st != autosave.RowClean {
				label += "  [" + string(st) + "]"
			}
			opts = append(opts, huh.NewOption(label, ed.ids[i]))
		}
	})
	return append(opts, huh.NewOption("Listo", doneChoice))
}

func (ed *editor) status() string {
	var status, opError string
	ed.ctrl.Do(func(s *autosave.Session) {
		status, opError = s.StatusMessage(), s.OperationError()
	})
	return cli.RenderStatus(status, opError)
}

func (ed *editor) editRow(ctx context.Context, id int64) error {
	ed.mu.Lock()
	idx := slices.Index(ed.ids, id)
	if idx < 0 {
		ed.mu.Unlock()
		return nil
	}
	name, amount := ed.rows[idx].CostName, ed.rows[idx].MonthlyCost
	ed.mu.Unlock()

	if err := addForm(&name, &amount).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	ed.mu.Lock()
	ed.rows[idx].CostName, ed.rows[idx].MonthlyCost = name, amount
	ed.mu.Unlock()

	err := ed.ctrl.Changed(id)
	if errors.Is(err, autosave.ErrBusy) {
		ed.ctrl.Wait()
		err = ed.ctrl.Changed(id)
	}
	return err
}

// finish flushes a pending save and prints how the session ended.
func (ed *editor) finish(ctx context.Context, out io.Writer) error {
	for {
		ed.ctrl.Wait()
		pending := false
		ed.ctrl.Do(func(s *autosave.Session) { pending = s.State() == autosave.PendingSave })
		if !pending {
			break
		}
		if err := ed.ctrl.SaveNow(ctx); errors.Is(err, autosave.ErrBusy) {
			continue
		}
		break
	}

	var (
		status, opError string
		fieldErrs       map[string]string
	)
	ed.ctrl.Do(func(s *autosave.Session) {
		status, opError, fieldErrs = s.StatusMessage(), s.OperationError(), s.FieldErrors()
	})
	for field, msg := range fieldErrs {
		fmt.Fprintln(out, cli.RenderStatus("", field+": "+msg))
	}
	if status != "" || opError != "" {
		fmt.Fprintln(out, cli.RenderStatus(status, opError))
	}
	if opError != "" || len(fieldErrs) > 0 {
		return errors.New("changes were not saved")
	}
	return nil
}
