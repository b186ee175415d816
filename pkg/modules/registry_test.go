package modules

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestLoadRunsFactoryOnce(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Register("pages/home", func() (*Module, error) {
		calls++
		return &Module{Default: "home"}, nil
	})

	for i := 0; i < 3; i++ {
		m, err := r.Load("pages/home")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if m.Default != "home" {
			t.Fatalf("Default = %v", m.Default)
		}
	}
	if calls != 1 {
		t.Errorf("factory ran %d times, want 1", calls)
	}
}

func TestLoadUnregistered(t *testing.T) {
	r := NewRegistry()
	_, err := r.Load("api/missing")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "api/missing") {
		t.Errorf("error %q should name the path", err)
	}
}

func TestLoadCachesFailure(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Register("broken", func() (*Module, error) {
		calls++
		return nil, errors.New("boom")
	})

	for i := 0; i < 2; i++ {
		if _, err := r.Load("broken"); err == nil {
			t.Fatal("expected error")
		}
	}
	if calls != 1 {
		t.Errorf("failing factory ran %d times, want 1", calls)
	}
}

func TestLoadRecoversFactoryPanic(t *testing.T) {
	r := NewRegistry()
	r.Register("panics", func() (*Module, error) {
		panic("init gone wrong")
	})

	_, err := r.Load("panics")
	if err == nil {
		t.Fatal("expected error from panicking factory")
	}
	if !strings.Contains(err.Error(), "init gone wrong") {
		t.Errorf("error = %q", err)
	}
}

func TestLoadConcurrent(t *testing.T) {
	r := NewRegistry()

	calls := 0
	r.Register("shared", func() (*Module, error) {
		calls++
		return &Module{}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Load("shared"); err != nil {
				t.Errorf("Load failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if calls != 1 {
		t.Errorf("factory ran %d times under concurrency, want 1", calls)
	}
}

func TestRegisterModuleAndExport(t *testing.T) {
	r := NewRegistry()
	r.RegisterModule("api/users", &Module{
		Exports: map[string]any{"get": 1},
	})

	m, err := r.Load("api/users")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Export("get") == nil {
		t.Error("Export(get) = nil")
	}
	if m.Export("missing") != nil {
		t.Error("Export(missing) != nil")
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"pages/home", "pages/home"},
		{"pages/home.js", "pages/home"},
		{"pages/home.go", "pages/home"},
		{"pages/home.loader", "pages/home.loader"},
		{"pages/home.loader.js", "pages/home.loader"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
