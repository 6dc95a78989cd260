package sandbox

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	name string
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Create(ctx context.Context, opts CreateOptions) (Sandbox, error) {
	return nil, ErrNotFound
}

func (p *stubProvider) Connect(ctx context.Context, id string) (Sandbox, error) {
	return nil, ErrNotFound
}

func (p *stubProvider) BuildTemplate(ctx context.Context, dir, name string, res Resources) error {
	return ErrTemplateUnsupported
}

func TestRegisterAndGet(t *testing.T) {
	p := &stubProvider{name: "test-registry-a"}
	Register(p)

	got, err := Get("test-registry-a")
	require.NoError(t, err)
	assert.Same(t, p, got)
}

func TestGetUnknownProvider(t *testing.T) {
	_, err := Get("no-such-provider")
	assert.ErrorIs(t, err, ErrProviderUnknown)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	Register(&stubProvider{name: "test-registry-dup"})
	assert.Panics(t, func() {
		Register(&stubProvider{name: "test-registry-dup"})
	})
}

func TestProvidersSorted(t *testing.T) {
	Register(&stubProvider{name: "test-registry-z"})
	Register(&stubProvider{name: "test-registry-b"})

	names := Providers()
	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "test-registry-b")
	assert.Contains(t, names, "test-registry-z")
}
