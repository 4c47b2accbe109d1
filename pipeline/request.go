package pipeline

import (
	"context"
	"sync"

	"text2phenotype.com/ner/types"
)

type Request struct {
	Tid      string
	Document *types.Document
}

type Result struct {
	Tid      string
	Document *types.Document
	Err      error
}

// Stream annotates the documents read from in with up to workers documents in flight
// and sends one Result per Request. Results come in completion order. The returned
// channel is closed once in is closed and drained.
func (p *Pipeline) Stream(ctx context.Context, in <-chan Request, workers int) <-chan Result {
	if workers < 1 {
		workers = 1
	}
	out := make(chan Result)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range in {
				if req.Document != nil && len(req.Document.Tid) == 0 {
					req.Document.Tid = req.Tid
				}
				var err error
				if req.Document == nil {
					err = ErrNoSentences
				} else {
					err = p.Annotate(ctx, req.Document)
				}
				out <- Result{Tid: req.Tid, Document: req.Document, Err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
