package api

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"net/http"
	"time"

	jsonpatch "github.com/evanphx/json-patch"
	"text2phenotype.com/ner/metrics"
	"text2phenotype.com/ner/pipeline"
	"text2phenotype.com/ner/types"
)

const (
	FormatParam = "format"
	FormatPatch = "patch"

	defaultTid = "api"
)

// Annotator is the part of a pipeline the endpoint needs.
type Annotator interface {
	Annotate(ctx context.Context, doc *types.Document) error
}

type Request struct {
	Pipeline Annotator
}

// ProcessData annotates the JSON document posted in the body. With ?format=patch the
// response is the JSON merge patch turning the posted document into the annotated one.
func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		http.Error(w, "", http.StatusMethodNotAllowed)
		return
	}

	msg, err := ioutil.ReadAll(r.Body)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Could not read request body")
		http.Error(w, "", http.StatusBadRequest)
		return
	}

	doc, err := types.ParseDocument(msg)
	if err != nil {
		logger.Err(err).Int("status", http.StatusBadRequest).Msg("Request body is not a document")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(doc.Tid) == 0 {
		doc.Tid = r.Header.Get(RequestIDHeader)
	}
	if len(doc.Tid) == 0 {
		doc.Tid = defaultTid
	}

	logger.Info().Str("tid", doc.Tid).Msg("Starting pipeline for request from API")
	started := time.Now()
	err = req.Pipeline.Annotate(r.Context(), doc)
	metrics.ObserveAnnotation(metrics.SurfaceAPI, started, err)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrNoSentences) || errors.Is(err, pipeline.ErrNoTokens) {
			status = http.StatusUnprocessableEntity
		}
		logger.Err(err).Str("tid", doc.Tid).Int("status", status).Msg("Pipeline failed")
		http.Error(w, err.Error(), status)
		return
	}

	resp, err := json.Marshal(doc)
	if err == nil && r.URL.Query().Get(FormatParam) == FormatPatch {
		resp, err = jsonpatch.CreateMergePatch(msg, resp)
	}
	if err != nil {
		logger.Err(err).Str("tid", doc.Tid).Msg("Failed to marshal response")
		http.Error(w, "", http.StatusInternalServerError)
		return
	}

	_, _ = w.Write(resp)
	logger.Info().Str("tid", doc.Tid).Int("status", http.StatusOK).Msg("Finished processing request")
}
