package tickvault

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/tickvault/go-tickvault-client/pkg/frame"
)

const defaultBatchWorkers = 4

// BatchResult pairs a query with its outcome. Exactly one of Records or
// Err is meaningful.
type BatchResult struct {
	Query   Query
	Records []frame.Record
	Err     error
}

// RunBatch executes queries concurrently on a bounded worker pool and
// returns results in input order. Individual failures land in the
// matching BatchResult; the batch itself only fails when the pool cannot
// be created.
func (s *QueryService) RunBatch(ctx context.Context, queries []Query, workers int) ([]BatchResult, error) {
	if len(queries) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = defaultBatchWorkers
	}
	if workers > len(queries) {
		workers = len(queries)
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		if s.client.logger != nil {
			s.client.logger.Errorf("tickvault: batch worker panic: %v", v)
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("tickvault: creating batch pool: %w", err)
	}
	defer pool.Release()

	results := make([]BatchResult, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		results[i].Query = q
		wg.Add(1)
		task := func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i].Records, results[i].Err = s.Run(ctx, q)
		}
		if err := pool.Submit(task); err != nil {
			results[i].Err = err
			wg.Done()
		}
	}
	wg.Wait()
	return results, nil
}
