package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/segmentio/kafka-go"

	"github.com/flamel/flamel/internal/batch"
	"github.com/flamel/flamel/internal/errorutil"
	"github.com/flamel/flamel/internal/flamechart"
	"github.com/flamel/flamel/internal/flameview"
	"github.com/flamel/flamel/internal/render"
	"github.com/flamel/flamel/internal/snapshot"
	"github.com/flamel/flamel/internal/storageutil"
)

type (
	postFlamegraphBody struct {
		Title    string            `json:"title"`
		Subtitle string            `json:"subtitle"`
		Stacks   map[string]uint64 `json:"stacks"`
	}

	postFlamegraphResponse struct {
		FlamegraphID string `json:"flamegraph_id"`
	}

	postViewBody struct {
		Actions []flameview.Action `json:"actions"`
	}

	viewResponse struct {
		Frames   []flameview.RenderedFrame `json:"frames"`
		Total    uint64                    `json:"total"`
		DepthMax int                       `json:"depth_max"`
		Matched  float64                   `json:"matched"`
	}

	postBatchBody struct {
		Entries []batch.Entry `json:"entries"`
	}

	snapshotEvent struct {
		FlamegraphID string    `json:"flamegraph_id"`
		Title        string    `json:"title"`
		Total        uint64    `json:"total"`
		DepthMax     int       `json:"depth_max"`
		Received     time.Time `json:"received"`
	}
)

func (e *environment) postFlamegraph(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)

	var body postFlamegraphBody
	if err := gojson.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// Validate before storing so later reads can't hit degenerate geometry.
	chart, err := flamechart.Build(body.Stacks)
	if err != nil {
		if errors.Is(err, errorutil.ErrNoData) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	s := snapshot.Snapshot{
		ID:       uuid.New().String(),
		Title:    body.Title,
		Subtitle: body.Subtitle,
		Received: time.Now().UTC(),
		Stacks:   body.Stacks,
	}
	if err := storageutil.CompressedWrite(ctx, e.store, snapshot.StoragePath(s.ID), s); err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if e.snapshotsWriter != nil {
		b, err := gojson.Marshal(snapshotEvent{
			FlamegraphID: s.ID,
			Title:        s.Title,
			Total:        chart.Total,
			DepthMax:     chart.DepthMax,
			Received:     s.Received,
		})
		if err == nil {
			err = e.snapshotsWriter.WriteMessages(ctx, kafka.Message{Value: b})
		}
		if err != nil && hub != nil {
			hub.CaptureException(err)
		}
	}

	b, err := gojson.Marshal(postFlamegraphResponse{FlamegraphID: s.ID})
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

func (e *environment) loadSnapshot(w http.ResponseWriter, r *http.Request) (snapshot.Snapshot, bool) {
	ctx := r.Context()
	hub := sentry.GetHubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	id := ps.ByName("flamegraph_id")
	if hub != nil {
		hub.Scope().SetTag("flamegraph_id", id)
	}

	var s snapshot.Snapshot
	err := storageutil.UnmarshalCompressed(ctx, e.store, snapshot.StoragePath(id), &s)
	if err != nil {
		if errors.Is(err, storageutil.ErrObjectNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return snapshot.Snapshot{}, false
		}
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return snapshot.Snapshot{}, false
	}
	return s, true
}

func (e *environment) getFlamegraph(w http.ResponseWriter, r *http.Request) {
	hub := sentry.GetHubFromContext(r.Context())
	s, ok := e.loadSnapshot(w, r)
	if !ok {
		return
	}

	chart, err := flamechart.Build(s.Stacks)
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	title := s.Title
	if title == "" {
		title = s.ID
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = render.Flamegraph(w, flameview.NewView(chart), e.projector, render.Page{
		Title:    title,
		Subtitle: s.Subtitle,
	})
	if err != nil && hub != nil {
		hub.CaptureException(err)
	}
}

func (e *environment) getFlamegraphChart(w http.ResponseWriter, r *http.Request) {
	hub := sentry.GetHubFromContext(r.Context())
	s, ok := e.loadSnapshot(w, r)
	if !ok {
		return
	}

	chart, err := flamechart.Build(s.Stacks)
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	b, err := gojson.Marshal(chart)
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (e *environment) postFlamegraphView(w http.ResponseWriter, r *http.Request) {
	hub := sentry.GetHubFromContext(r.Context())
	s, ok := e.loadSnapshot(w, r)
	if !ok {
		return
	}

	var body postViewBody
	if err := gojson.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	chart, err := flamechart.Build(s.Stacks)
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// The view is rebuilt and the actions replayed on every call: renderings
	// stay a pure function of the stored snapshot and the submitted actions.
	view := flameview.NewView(chart)
	for _, action := range body.Actions {
		if err := view.Apply(action); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	b, err := gojson.Marshal(viewResponse{
		Frames:   view.Render(e.projector),
		Total:    chart.Total,
		DepthMax: chart.DepthMax,
		Matched:  view.MatchedFraction(),
	})
	if err != nil {
		if hub != nil {
			hub.CaptureException(err)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(b)
}

func (e *environment) postFlamegraphBatch(w http.ResponseWriter, r *http.Request) {
	hub := sentry.GetHubFromContext(r.Context())

	var body postBatchBody
	if err := gojson.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if len(body.Entries) == 0 {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := render.Batch(w, batch.Compose(body.Entries), e.projector)
	if err != nil && hub != nil {
		hub.CaptureException(err)
	}
}
