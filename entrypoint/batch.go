package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path"
	"sort"
	"strings"

	"github.com/gosuri/uiprogress"
	"text2phenotype.com/ner/logger"
	"text2phenotype.com/ner/metrics"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/types"
)

// annotateDirectory annotates every *.json document of srcDir into dstDir under the same
// file name. A document that fails is logged and skipped, read or write failures abort.
func annotateDirectory(ctx context.Context, ppln *pipeline.Pipeline, srcDir, dstDir string, workers int, progress bool) (int, error) {
	batchLogger := logger.NewLogger("Batch")

	files, err := ioutil.ReadDir(srcDir)
	if err != nil {
		return 0, err
	}
	var names []string
	for _, f := range files {
		if !f.IsDir() && strings.HasSuffix(f.Name(), ".json") {
			names = append(names, f.Name())
		}
	}
	sort.Strings(names)

	var bar *uiprogress.Bar
	if progress {
		uiprogress.Start()
		defer uiprogress.Stop()
		bar = uiprogress.AddBar(len(names))
		bar.AppendCompleted()
		bar.PrependElapsed()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	in := make(chan pipeline.Request)
	readErr := make(chan error, 1)
	go func() {
		defer close(in)
		for _, name := range names {
			buf, err := ioutil.ReadFile(path.Join(srcDir, name))
			if err != nil {
				readErr <- fmt.Errorf("failed to read doc %s: %w", name, err)
				return
			}
			doc, err := types.ParseDocument(buf)
			if err != nil {
				batchLogger.Err(err).Str("tid", name).Msg("Skipping invalid document")
				doc = nil
			}
			select {
			case in <- pipeline.Request{Tid: name, Document: doc}:
			case <-ctx.Done():
				return
			}
		}
	}()

	count := 0
	var writeErr error
	for result := range ppln.Stream(ctx, in, workers) {
		if bar != nil {
			bar.Incr()
		}
		metrics.CountDocument(metrics.SurfaceBatch, result.Err)
		if writeErr != nil {
			continue
		}
		if result.Err != nil {
			batchLogger.Err(result.Err).Str("tid", result.Tid).Msg("Failed to annotate document")
			continue
		}
		buf, err := json.Marshal(result.Document)
		if err == nil {
			err = ioutil.WriteFile(path.Join(dstDir, result.Tid), buf, 0644)
		}
		if err != nil {
			writeErr = fmt.Errorf("failed to write doc %s: %w", result.Tid, err)
			cancel()
			continue
		}
		count++
	}

	select {
	case err := <-readErr:
		return count, err
	default:
	}
	return count, writeErr
}
