// internal/embedding/batch.go
package embedding

import (
	"context"
	"sync"
)

// EmbedBatch embeds texts for bulk reprocessing outside the query path.
// In-flight provider requests are bounded by the configured maximum so the
// provider is never overwhelmed. Results keep input order. The first error
// encountered is returned after all workers finish; texts that embedded
// successfully keep their vectors in the result slice either way.
func (g *Gateway) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	if len(texts) == 0 {
		return results, nil
	}

	sem := make(chan struct{}, g.maxInFlight)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for i, text := range texts {
		wg.Add(1)
		go func(idx int, t string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			vec, err := g.Embed(ctx, t)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[idx] = vec
		}(i, text)
	}

	wg.Wait()
	return results, firstErr
}
