package llm

import (
	"context"
	"sync/atomic"
)

// ImagePool rotates cover-generation calls across a credential pool, the
// same round-robin treatment suggestion batches get.
type ImagePool struct {
	gens []ImageGenerator
	next atomic.Uint64
}

// NewImagePool creates an ImagePool over a non-empty generator pool.
func NewImagePool(gens []ImageGenerator) *ImagePool {
	return &ImagePool{gens: gens}
}

func (p *ImagePool) GenerateCoverImage(ctx context.Context, title, description string) (string, error) {
	i := p.next.Add(1) - 1
	return p.gens[i%uint64(len(p.gens))].GenerateCoverImage(ctx, title, description)
}
