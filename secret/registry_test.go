package secret

import (
	"testing"
)

func TestRegistry_RegisterAndCreate(t *testing.T) {
	reg := NewRegistry()

	if err := reg.Register("vault", func(cfg map[string]any) (Provider, error) {
		return &stubProvider{name: "vault"}, nil
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := reg.Create("vault", map[string]any{"address": "https://vault.internal"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if p == nil || p.Name() != "vault" {
		t.Fatalf("unexpected provider: %#v", p)
	}
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register("vault", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "vault"}, nil })

	if err := reg.Register("vault", func(cfg map[string]any) (Provider, error) { return &stubProvider{name: "vault"}, nil }); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestRegistry_RegisterInvalid(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register("  ", func(cfg map[string]any) (Provider, error) { return nil, nil }); err == nil {
		t.Fatalf("expected error for blank name")
	}
	if err := reg.Register("vault", nil); err == nil {
		t.Fatalf("expected error for nil factory")
	}
}

func TestRegistry_CreateUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, err := reg.Create("missing", nil); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRegistry_ListSorted(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"vault", "env", "file"} {
		_ = reg.Register(name, func(cfg map[string]any) (Provider, error) { return &stubProvider{name: name}, nil })
	}

	names := reg.List()
	if len(names) != 3 || names[0] != "env" || names[1] != "file" || names[2] != "vault" {
		t.Fatalf("List() = %v, want sorted names", names)
	}
}
