package announce

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/undergrid/stagehand/internal/domain"
)

func TestStaticComposer(t *testing.T) {
	c := StaticComposer{}

	line, err := c.Compose(context.Background(), "Midnight City")
	require.NoError(t, err)
	assert.Equal(t, "Now playing: Midnight City", line)
}

func TestStaticComposerTrimsWhitespace(t *testing.T) {
	c := StaticComposer{}

	line, err := c.Compose(context.Background(), "  Midnight City \n")
	require.NoError(t, err)
	assert.Equal(t, "Now playing: Midnight City", line)
}

func TestStaticComposerRejectsEmptyTitle(t *testing.T) {
	c := StaticComposer{}

	_, err := c.Compose(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptySource)
}
