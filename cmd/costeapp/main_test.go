package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"costeapp/internal/autosave"
	"costeapp/internal/core"
	"costeapp/internal/services"
	"costeapp/internal/storage/memory"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func sqliteEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATA_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", filepath.Join(t.TempDir(), "costeapp.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
}

func TestAddThenList(t *testing.T) {
	sqliteEnv(t)

	if _, _, err := runCLI(t, "migrate"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	out, _, err := runCLI(t, "add", "--name", "Renta", "--amount", "100,50")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Agregado #1 Renta $100.50") {
		t.Errorf("add output = %q", out)
	}
	if _, _, err := runCLI(t, "add", "--name", "Internet", "--amount", "49.50"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, _, err = runCLI(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for _, want := range []string{"Renta", "Internet", "Total", "$150.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("list output missing %q:\n%s", want, out)
		}
	}

	out, _, err = runCLI(t, "list", "--json")
	if err != nil {
		t.Fatalf("list --json: %v", err)
	}
	var ov core.Overview
	if err := json.Unmarshal([]byte(out), &ov); err != nil {
		t.Fatalf("decode list --json: %v", err)
	}
	if len(ov.FixedCosts) != 2 || ov.Total.Cents != 15000 {
		t.Errorf("overview = %+v", ov)
	}
}

func TestAdd_ValidationErrors(t *testing.T) {
	sqliteEnv(t)

	_, stderr, err := runCLI(t, "add", "--name", " ", "--amount", "-5")
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"El concepto es obligatorio", "El costo mensual no puede ser negativo"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestList_EmptyMemoryBackend(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATA_BACKEND", "memory")

	out, _, err := runCLI(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "No hay costos fijos todavía.") {
		t.Errorf("output = %q", out)
	}

	out, _, err = runCLI(t, "migrate")
	if err != nil || !strings.Contains(out, "no schema to migrate") {
		t.Errorf("migrate on memory: out=%q err=%v", out, err)
	}
}

func TestInvalidConfigFailsFast(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DATA_BACKEND", "cassandra")

	_, _, err := runCLI(t, "list")
	if err == nil || !strings.Contains(err.Error(), "invalid data backend") {
		t.Fatalf("err = %v", err)
	}
}

func TestWorker_RequiresSheetOrDryRun(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")

	_, _, err := runCLI(t, "worker")
	if err == nil || !strings.Contains(err.Error(), "--dry-run") {
		t.Fatalf("err = %v", err)
	}
}

func TestEditorDeleteRow(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore().Seed(
		core.FixedCost{ID: 1, CostName: "Renta", MonthlyCost: core.Money{Cents: 10050}},
		core.FixedCost{ID: 2, CostName: "Internet", MonthlyCost: core.Money{Cents: 4950}},
	)
	svc := services.NewFixedCostService(store, nil, nil)
	ov, err := svc.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	ed := newEditor(svc, ov, time.Hour)

	if err := ed.deleteRow(ctx, 1); err != nil {
		t.Fatalf("deleteRow: %v", err)
	}
	if !slices.Equal(ed.ids, []int64{2}) || len(ed.rows) != 1 || ed.rows[0].CostName != "Internet" {
		t.Fatalf("working copy after delete: %v %+v", ed.ids, ed.rows)
	}
	ed.ctrl.Do(func(s *autosave.Session) {
		if !slices.Equal(s.Rows(), []int64{2}) || s.OperationError() != "" {
			t.Fatalf("session after delete: %v %q", s.Rows(), s.OperationError())
		}
	})
	if ov, _ := svc.Load(ctx); len(ov.FixedCosts) != 1 || ov.Total.Cents != 4950 {
		t.Fatalf("stored overview = %+v", ov)
	}

	// Removed elsewhere in the meantime: the row stays and the status line
	// carries the not-found message.
	if err := store.DeleteFixedCost(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := ed.deleteRow(ctx, 2); err != nil {
		t.Fatalf("deleteRow: %v", err)
	}
	ed.ctrl.Do(func(s *autosave.Session) {
		if s.RowStatus(2) != autosave.RowError {
			t.Fatalf("row 2 = %v", s.RowStatus(2))
		}
	})
	if !slices.Equal(ed.ids, []int64{2}) {
		t.Fatalf("failed delete dropped the row: %v", ed.ids)
	}

	var out bytes.Buffer
	if err := ed.finish(ctx, &out); err == nil {
		t.Fatal("finish should report the failed delete")
	}
	if !strings.Contains(out.String(), "El costo ya no existe. Recarga la página.") {
		t.Errorf("finish output = %q", out.String())
	}
}

func TestConfirmDeleteMessage(t *testing.T) {
	if got := confirmDeleteMessage("Renta"); got != "¿Estás seguro de que quieres borrar Renta?" {
		t.Errorf("confirmDeleteMessage = %q", got)
	}
}
