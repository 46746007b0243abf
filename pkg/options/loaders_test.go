package options_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr/funcr"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formconf/pkg/model"
	"github.com/goliatone/go-formconf/pkg/options"
)

func staticLoader(opts ...model.Option) options.Loader {
	return func(context.Context, map[string]any) ([]model.Option, error) {
		return opts, nil
	}
}

func TestReloadCachesOptions(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("state", staticLoader(
		model.Option{Value: "WA", Label: "Washington"},
		model.Option{Value: "OR", Label: "Oregon"},
	), "country")

	if _, ok := registry.Options("state"); ok {
		t.Fatalf("expected no cached options before the first load")
	}

	loaded, err := registry.Reload(context.Background(), "state", map[string]any{"country": "US"})
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected two options, got %+v", loaded)
	}

	cached, ok := registry.Options("state")
	if !ok {
		t.Fatalf("expected cached options after load")
	}
	if diff := cmp.Diff(loaded, cached); diff != "" {
		t.Fatalf("cache mismatch (-loaded +cached):\n%s", diff)
	}
}

func TestReloadUnregisteredPath(t *testing.T) {
	t.Parallel()

	registry := options.New()
	if _, err := registry.Reload(context.Background(), "ghost", nil); !errors.Is(err, options.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
}

func TestReloadDiscardsStaleResult(t *testing.T) {
	t.Parallel()

	started := make(chan struct{})
	gate := make(chan struct{})
	var calls atomic.Int32

	registry := options.New(options.WithLogger(funcr.New(func(string, string) {}, funcr.Options{Verbosity: 1})))
	registry.Register("city", func(context.Context, map[string]any) ([]model.Option, error) {
		if calls.Add(1) == 1 {
			close(started)
			<-gate
			return []model.Option{{Value: "old", Label: "Old"}}, nil
		}
		return []model.Option{{Value: "new", Label: "New"}}, nil
	})

	staleErr := make(chan error, 1)
	go func() {
		_, err := registry.Reload(context.Background(), "city", nil)
		staleErr <- err
	}()
	<-started

	fresh, err := registry.Reload(context.Background(), "city", nil)
	if err != nil {
		t.Fatalf("second Reload failed: %v", err)
	}
	if len(fresh) != 1 || fresh[0].Value != "new" {
		t.Fatalf("unexpected fresh options: %+v", fresh)
	}

	close(gate)
	if err := <-staleErr; !errors.Is(err, options.ErrStaleLoad) {
		t.Fatalf("expected ErrStaleLoad from the superseded load, got %v", err)
	}

	cached, ok := registry.Options("city")
	if !ok || cached[0].Value != "new" {
		t.Fatalf("expected the newer result to stay cached, got %+v", cached)
	}
}

func TestReloadSanitizesLabels(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("plan", staticLoader(
		model.Option{Value: "pro", Label: `<script>alert("x")</script>Pro`},
		model.Option{Value: "free", Label: "  <b>Free</b>  "},
	))

	loaded, err := registry.Reload(context.Background(), "plan", nil)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if loaded[0].Label != "Pro" {
		t.Fatalf("expected markup stripped, got %q", loaded[0].Label)
	}
	if loaded[1].Label != "Free" {
		t.Fatalf("expected tags and padding stripped, got %q", loaded[1].Label)
	}
}

func TestTriggeredBySorted(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("z.state", staticLoader(), "country")
	registry.Register("a.city", staticLoader(), "country", "state")
	registry.Register("other", staticLoader(), "plan")

	got := registry.TriggeredBy("country")
	if diff := cmp.Diff([]string{"a.city", "z.state"}, got); diff != "" {
		t.Fatalf("triggered paths mismatch (-want +got):\n%s", diff)
	}
	if got := registry.TriggeredBy("missing"); got != nil {
		t.Fatalf("expected nil for unknown trigger, got %v", got)
	}
}

func TestOnChangeReloadsTriggeredPaths(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("state", staticLoader(model.Option{Value: "WA", Label: "Washington"}), "country")
	registry.Register("city", staticLoader(model.Option{Value: "SEA", Label: "Seattle"}), "state")

	out, err := registry.OnChange(context.Background(), "country", map[string]any{"country": "US"})
	if err != nil {
		t.Fatalf("OnChange failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected only the country-triggered path, got %v", out)
	}
	if out["state"][0].Value != "WA" {
		t.Fatalf("unexpected options: %+v", out["state"])
	}
}

func TestLoadAllSurfacesLoaderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("backend down")
	registry := options.New()
	registry.Register("good", staticLoader(model.Option{Value: 1, Label: "One"}))
	registry.Register("bad", func(context.Context, map[string]any) ([]model.Option, error) {
		return nil, boom
	})

	_, err := registry.LoadAll(context.Background(), nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected loader error, got %v", err)
	}
}

func TestReregisterDropsCache(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("plan", staticLoader(model.Option{Value: "a", Label: "A"}))
	if _, err := registry.Reload(context.Background(), "plan", nil); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	registry.Register("plan", staticLoader(model.Option{Value: "b", Label: "B"}))
	if _, ok := registry.Options("plan"); ok {
		t.Fatalf("expected re-registration to drop cached options")
	}

	registry.Unregister("plan")
	if _, err := registry.Reload(context.Background(), "plan", nil); !errors.Is(err, options.ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered after Unregister, got %v", err)
	}
}

func TestRegisterIgnoresBlankPath(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("  ", staticLoader())
	registry.Register("ok", nil)
	if got := registry.TriggeredBy(""); got != nil {
		t.Fatalf("expected empty registry, got %v", got)
	}
	if _, err := registry.Reload(context.Background(), "ok", nil); !errors.Is(err, options.ErrNotRegistered) {
		t.Fatalf("nil loader should not register, got %v", err)
	}
}

func TestSanitizerKeepsPlainText(t *testing.T) {
	t.Parallel()

	registry := options.New()
	registry.Register("q", staticLoader(model.Option{Value: 1, Label: "Fish & Chips"}))
	loaded, err := registry.Reload(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if !strings.Contains(loaded[0].Label, "Fish") {
		t.Fatalf("plain text mangled: %q", loaded[0].Label)
	}
}
