package pipeline

import (
	"path/filepath"
	"testing"

	"o2rconv/internal/catalog"
)

func TestResultTerminal(t *testing.T) {
	if got := (Result{OK: true, Message: "ignored"}).Terminal(); got != "success" {
		t.Fatalf("success terminal = %q", got)
	}
	if got := (Result{Kind: KindEngine, Message: "boom"}).Terminal(); got != "boom" {
		t.Fatalf("failure terminal = %q", got)
	}
}

func TestStageResultConstructors(t *testing.T) {
	if r := Continue(); r.IsFatal() || r.IsCompleted() {
		t.Fatal("Continue should be neither fatal nor completed")
	}
	if r := Completed(); !r.IsCompleted() || r.IsFatal() {
		t.Fatal("Completed misreported")
	}
	r := Fatal(KindVerification, "O2R output was not created", nil)
	if !r.IsFatal() || r.Kind() != KindVerification || r.Message() != "O2R output was not created" {
		t.Fatalf("Fatal misreported: %+v", r)
	}
}

func TestProgressFunc(t *testing.T) {
	var got []string
	sink := ProgressFunc(func(stage Stage, message string) {
		got = append(got, string(stage)+":"+message)
	})
	sink.Progress(StageValidating, MsgValidating)
	if len(got) != 1 || got[0] != "validating:Validating inputs..." {
		t.Fatalf("unexpected calls %v", got)
	}
}

func TestDefaultOutputPath(t *testing.T) {
	known := catalog.Identity{Known: true, Game: catalog.GameMarioKart64}
	if got := DefaultOutputPath("/work", known); got != filepath.Join("/work", "mk64.o2r") {
		t.Fatalf("known path = %q", got)
	}
	if got := DefaultOutputPath("/work", catalog.Identity{}); got != filepath.Join("/work", "output.o2r") {
		t.Fatalf("unknown path = %q", got)
	}
}
