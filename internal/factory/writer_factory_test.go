package factory

import (
	"FlowTagger/internal/config"
	"FlowTagger/internal/model"
	"context"
	"errors"
	"testing"
)

type stubWriter struct{ name string }

func (w *stubWriter) Name() string                               { return w.name }
func (w *stubWriter) Write(context.Context, *model.Report) error { return nil }
func (w *stubWriter) Close() error                               { return nil }

func init() {
	RegisterWriter("stub", func(def config.WriterDef) (model.Writer, error) {
		return &stubWriter{name: def.Type}, nil
	})
	RegisterWriter("broken", func(def config.WriterDef) (model.Writer, error) {
		return nil, errors.New("cannot connect")
	})
}

func TestCreate(t *testing.T) {
	writers, err := Create([]config.WriterDef{
		{Type: "stub", Enabled: true},
		{Type: "stub", Enabled: false},
		{Type: "broken", Enabled: true},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(writers) != 1 || writers[0].Name() != "stub" {
		t.Errorf("Expected only the enabled stub writer, got %v", writers)
	}
}

func TestCreate_UnknownType(t *testing.T) {
	if _, err := Create([]config.WriterDef{{Type: "kafka", Enabled: true}}); err == nil {
		t.Error("Expected an error for an unknown writer type")
	}
	// Disabled definitions are never resolved.
	if _, err := Create([]config.WriterDef{{Type: "kafka"}}); err != nil {
		t.Errorf("Disabled unknown writer should be ignored, got %v", err)
	}
}

func TestRegisterWriter_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected a panic on duplicate registration")
		}
	}()
	RegisterWriter("stub", nil)
}
