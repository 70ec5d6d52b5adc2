// Package announce produces the spoken lines that interrupt playback when a
// new item starts or an operator pushes a message.
package announce

import (
	"context"
	"fmt"
	"strings"

	"github.com/undergrid/stagehand/internal/domain"
)

// Composer turns a track title into an announcement line.
type Composer interface {
	// Compose returns the text to speak before the given title plays.
	Compose(ctx context.Context, title string) (string, error)
}

// StaticComposer produces a fixed "Now playing" line. It is the fallback
// when no LLM is configured.
type StaticComposer struct{}

var _ Composer = (*StaticComposer)(nil)

// Compose returns a plain announcement for the title.
func (StaticComposer) Compose(_ context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", domain.ErrEmptySource
	}
	return fmt.Sprintf("Now playing: %s", title), nil
}
