package outbound

import (
	"context"

	"github.com/devenspear/devatar/domain"
)

// GenerationLogPort appends diagnostic records keyed by scene. It is
// fire-and-forget: sink failures must never abort the pipeline, so Append
// returns nothing.
type GenerationLogPort interface {
	Append(ctx context.Context, entry domain.GenerationLog)
}
