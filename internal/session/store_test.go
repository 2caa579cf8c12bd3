package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestGetMissingReturnsFresh(t *testing.T) {
	store := newTestStore(t)

	sess := store.Get(100)
	if sess == nil {
		t.Fatal("expected a session")
	}
	if sess.Wizard != nil || sess.Config.Game != "" {
		t.Errorf("expected an empty session, got %+v", sess)
	}
}

func TestGetCorruptFileReturnsFresh(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "100.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	sess := store.Get(100)
	if sess == nil {
		t.Fatal("expected a session")
	}
	if sess.Config.Game != "" {
		t.Errorf("expected an empty session, got %+v", sess)
	}
}

func TestSaveRoundtrip(t *testing.T) {
	store := newTestStore(t)

	sess := store.Get(42)
	sess.Config.Game = "railroad"
	sess.Config.ThemeID = "chicken_farm"
	sess.Config.StartingBalance = 1500
	sess.Config.ClickURL = "https://example.com/offer"
	sess.SetWizard(StageCTAURL, 2)
	sess.PendingManualPayment = &PendingManualPayment{
		OrderID:     "ord_42_1",
		PaymentType: "single",
		Amount:      349,
	}

	if err := store.Save(42, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got := store.Get(42)
	if got.Config.Game != "railroad" || got.Config.StartingBalance != 1500 {
		t.Errorf("config not preserved: %+v", got.Config)
	}
	if got.Wizard == nil || got.Wizard.Stage != StageCTAURL || got.Wizard.Attempts != 2 {
		t.Errorf("wizard not preserved: %+v", got.Wizard)
	}
	if got.PendingManualPayment == nil || got.PendingManualPayment.OrderID != "ord_42_1" {
		t.Errorf("pending manual payment not preserved: %+v", got.PendingManualPayment)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	sess := store.Get(7)
	sess.Config.Game = "olympus"
	if err := store.Save(7, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".tmp" {
			t.Errorf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestWizardExpiry(t *testing.T) {
	sess := New()
	sess.SetWizard(StageGeo, 0)

	now := time.Now()
	if sess.Wizard.Expired(now) {
		t.Error("fresh wizard must not be expired")
	}
	if !sess.Wizard.Expired(now.Add(WizardTimeout + time.Second)) {
		t.Error("wizard must expire after the timeout")
	}
}
