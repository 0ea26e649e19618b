package games

import "testing"

func TestRegistryResolvesBuiltins(t *testing.T) {
	registry := NewRegistry()
	for _, slug := range []string{"who-am-i", "two-truths"} {
		if !registry.Has(slug) {
			t.Fatalf("expected %q registered", slug)
		}
		module := registry.Resolve(slug)
		if got := module.Manifest().Slug; got != slug {
			t.Fatalf("expected manifest slug %q, got %q", slug, got)
		}
	}
}

func TestRegistryFallbackForUnknownSlug(t *testing.T) {
	registry := NewRegistry()
	if registry.Has("laser-tag") {
		t.Fatal("unexpected registration")
	}
	module := registry.Resolve("laser-tag")
	view := module.PlayerCollecting("prog-1", "att-1")
	if view["kind"] != "unsupported" {
		t.Fatalf("unknown slug must render a placeholder, got %v", view)
	}
	if view["slug"] != "laser-tag" {
		t.Fatalf("placeholder must carry the slug, got %v", view)
	}
}

func TestRegisterOverridesModule(t *testing.T) {
	registry := NewRegistry()
	registry.Register("who-am-i", func() Module { return &fallback{slug: "who-am-i"} })
	view := registry.Resolve("who-am-i").PlayerVoting()
	if view["kind"] != "unsupported" {
		t.Fatalf("expected the override to win, got %v", view)
	}
}

func TestResolveInvokesFactoryPerCall(t *testing.T) {
	registry := NewRegistry()
	calls := 0
	registry.Register("counted", func() Module {
		calls++
		return &fallback{slug: "counted"}
	})
	registry.Resolve("counted")
	registry.Resolve("counted")
	if calls != 2 {
		t.Fatalf("expected the factory to run once per resolve, got %d calls", calls)
	}
}
