package plugins

import (
	"context"
	"errors"
	"testing"
)

type testPlugin struct {
	meta       Metadata
	installs   []string
	uninstalls []string
	updates    []string
	hookErr    error
}

func (p *testPlugin) Metadata() Metadata { return p.meta }

func (p *testPlugin) OnPreInstall(ctx context.Context, name, version string) error {
	p.installs = append(p.installs, "pre:"+name+"@"+version)
	return p.hookErr
}

func (p *testPlugin) OnPostInstall(ctx context.Context, name, version string) error {
	p.installs = append(p.installs, "post:"+name+"@"+version)
	return nil
}

func (p *testPlugin) OnPreUninstall(ctx context.Context, name, version string) error {
	p.uninstalls = append(p.uninstalls, "pre:"+name)
	return nil
}

func (p *testPlugin) OnPackageUpdate(ctx context.Context, name, oldV, newV string) error {
	p.updates = append(p.updates, name+":"+oldV+"->"+newV)
	return nil
}

// metadataOnly implements no hooks, only the base interface.
type metadataOnly struct{ meta Metadata }

func (p *metadataOnly) Metadata() Metadata { return p.meta }

func TestRegisterAndGet(t *testing.T) {
	Reset()
	defer Reset()

	p := &testPlugin{meta: Metadata{Name: "audit", Version: "1.0.0"}}
	if err := Register(p); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, ok := Get("audit")
	if !ok || got.Metadata().Name != "audit" {
		t.Errorf("Get returned %v, %v", got, ok)
	}
	if _, ok := Get("missing"); ok {
		t.Error("Get should miss for unregistered name")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	Reset()
	defer Reset()

	_ = Register(&testPlugin{meta: Metadata{Name: "dup"}})
	if err := Register(&testPlugin{meta: Metadata{Name: "dup"}}); err == nil {
		t.Error("duplicate registration should fail")
	}
}

func TestRegisterEmptyName(t *testing.T) {
	Reset()
	defer Reset()

	if err := Register(&testPlugin{}); err == nil {
		t.Error("empty plugin name should fail")
	}
}

func TestAllSorted(t *testing.T) {
	Reset()
	defer Reset()

	_ = Register(&testPlugin{meta: Metadata{Name: "zeta"}})
	_ = Register(&testPlugin{meta: Metadata{Name: "alpha"}})

	all := All()
	if len(all) != 2 || all[0].Metadata().Name != "alpha" || all[1].Metadata().Name != "zeta" {
		t.Errorf("All() order wrong: %v", all)
	}
}

func TestHookDispatch(t *testing.T) {
	Reset()
	defer Reset()

	p := &testPlugin{meta: Metadata{Name: "audit"}}
	_ = Register(p)
	// A plugin without hooks must be skipped, not crash.
	_ = Register(&metadataOnly{meta: Metadata{Name: "bare"}})

	ctx := context.Background()
	PreInstall(ctx, "serde", "1.5.0")
	PostInstall(ctx, "serde", "1.5.0")
	PreUninstall(ctx, "serde", "1.5.0")
	PostUninstall(ctx, "serde", "1.5.0") // testPlugin has no post-uninstall hook
	PackageUpdate(ctx, "serde", "1.0.0", "1.5.0")

	if len(p.installs) != 2 || p.installs[0] != "pre:serde@1.5.0" || p.installs[1] != "post:serde@1.5.0" {
		t.Errorf("install hooks = %v", p.installs)
	}
	if len(p.uninstalls) != 1 {
		t.Errorf("uninstall hooks = %v", p.uninstalls)
	}
	if len(p.updates) != 1 || p.updates[0] != "serde:1.0.0->1.5.0" {
		t.Errorf("update hooks = %v", p.updates)
	}
}

func TestHookErrorsDoNotAbort(t *testing.T) {
	Reset()
	defer Reset()

	failing := &testPlugin{meta: Metadata{Name: "a-failing"}, hookErr: errors.New("boom")}
	healthy := &testPlugin{meta: Metadata{Name: "b-healthy"}}
	_ = Register(failing)
	_ = Register(healthy)

	PreInstall(context.Background(), "serde", "1.5.0")

	// The failing hook must not stop later plugins from running.
	if len(healthy.installs) != 1 {
		t.Errorf("healthy plugin hooks = %v, want 1 call", healthy.installs)
	}
}
