package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/todo"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]log.Level{
		"debug":   log.DebugLevel,
		"INFO":    log.InfoLevel,
		"warning": log.WarnLevel,
		" error ": log.ErrorLevel,
		"":        log.WarnLevel,
		"loud":    log.WarnLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", "text")
	l.Info("hidden")
	l.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "tada") {
		t.Errorf("warn line missing message or prefix: %q", out)
	}
}

func TestObserverJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "json")

	slot := store.NewMemory()
	st := todo.New(slot)
	st.Subscribe(Observer(l))

	if err := st.Create("milk"); err != nil {
		t.Fatal(err)
	}
	line := strings.TrimSpace(buf.String())
	var rec map[string]any
	if err := json.Unmarshal([]byte(line), &rec); err != nil {
		t.Fatalf("not a json record: %q: %v", line, err)
	}
	if rec["op"] != "create" || rec["changed"] != true {
		t.Errorf("record: %v", rec)
	}
	if _, ok := rec["id"]; !ok {
		t.Errorf("record has no id: %v", rec)
	}

	buf.Reset()
	slot.FailPut = errors.New("disk full")
	st.Toggle(st.Items()[0].ID)
	if !strings.Contains(buf.String(), "disk full") {
		t.Errorf("failed write not logged: %q", buf.String())
	}
}

func TestObserverQuietAtWarn(t *testing.T) {
	var buf bytes.Buffer
	st := todo.New(store.NewMemory())
	st.Subscribe(Observer(New(&buf, "warn", "logfmt")))

	_ = st.Create("milk")
	if buf.Len() != 0 {
		t.Errorf("observer wrote at warn level: %q", buf.String())
	}
}
