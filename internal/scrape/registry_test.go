package scrape

import (
	"testing"

	"jobagg-engine/internal/domain"
	"jobagg-engine/internal/scrape/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBuilderCoversEveryKind(t *testing.T) {
	build := NewBuilder(util.NewClient(0, nil))

	for _, kind := range domain.SiteKinds {
		f, err := build(domain.SiteSpec{ID: "x", Kind: kind})
		require.NoError(t, err, kind)
		assert.Equal(t, kind, f.Name())
	}

	f, err := build(domain.SiteSpec{ID: "x"})
	require.NoError(t, err)
	assert.Equal(t, domain.KindHTML, f.Name())

	_, err = build(domain.SiteSpec{ID: "x", Kind: "gopher"})
	assert.Error(t, err)
}
