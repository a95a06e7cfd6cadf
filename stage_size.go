package gatekeeper

import (
	"context"
	"net/http"
	"strconv"
)

// sizeStage rejects requests whose declared content length exceeds the
// configured maximum before any body bytes are read.
type sizeStage struct{}

func (sizeStage) name() string { return "size" }

func (sizeStage) run(_ context.Context, g *Gate, sr *stageRequest) *Decision {
	max := g.cfg.MaxRequestSize
	if max <= 0 || sr.r.ContentLength <= max {
		return nil
	}

	g.emit(sr, EventRequestSizeExceeded, SeverityMedium, "", map[string]string{
		"content_length": strconv.FormatInt(sr.r.ContentLength, 10),
		"max":            strconv.FormatInt(max, 10),
	})
	g.metrics.Inc(MetricOversized)

	d := denied(http.StatusRequestEntityTooLarge, CodeRequestTooLarge, "request body too large")
	return &d
}
