package server

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/domsplit/pkg/assetgraph"
	"github.com/matzehuels/domsplit/pkg/buildinfo"
	"github.com/matzehuels/domsplit/pkg/errors"
	"github.com/matzehuels/domsplit/pkg/graph"
	"github.com/matzehuels/domsplit/pkg/pipeline"
	"github.com/matzehuels/domsplit/pkg/storage"
)

// contentTypes maps rendered formats to response media types.
var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatJSON: "application/json",
}

// SplitResponse is the body of a successful POST /v1/split.
type SplitResponse struct {
	Plan         graph.Plan        `json:"plan"`
	DocumentHash string            `json:"document_hash"`
	Artifacts    map[string]string `json:"artifacts,omitempty"`
	Cache        CacheResponse     `json:"cache"`
}

// CacheResponse reports which stages were served from cache.
type CacheResponse struct {
	Plan   bool `json:"plan"`
	Render bool `json:"render"`
}

type healthResponse struct {
	Status string         `json:"status"`
	Build  buildinfo.Info `json:"build"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Build: buildinfo.Get()})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(body) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request body is empty"))
		return
	}

	opts, err := s.splitOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts.Document = body
	opts.DocumentFormat = documentFormat(r.Header.Get("Content-Type"))

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := SplitResponse{
		Plan:         res.Plan,
		DocumentHash: res.DocumentHash,
		Cache:        CacheResponse{Plan: res.CacheInfo.PlanHit, Render: res.CacheInfo.RenderHit},
	}
	if len(res.Artifacts) > 0 {
		resp.Artifacts = make(map[string]string, len(res.Artifacts))
		for format, data := range res.Artifacts {
			resp.Artifacts[format] = string(data)
		}
	}
	w.Header().Set("Location", "/v1/plans/"+res.Plan.ID)
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := storage.ListOptions{Source: q.Get("source")}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit: %q", v))
			return
		}
		opts.Limit = n
	}
	plans, err := s.store.ListPlans(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if plans == nil {
		plans = []storage.Summary{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenderPlan(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, r, err)
		return
	}
	q := r.URL.Query()
	detailed, err := boolParam(q, "detailed")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	clusters, err := boolParam(q, "clusters")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	p, err := s.store.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, _, err := s.runner.RenderWithCacheInfo(r.Context(), *p, pipeline.Options{
		Formats:  []string{format},
		Detailed: detailed,
		Clusters: clusters,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[format])
}

// splitOptions overlays query parameters on the server defaults.
func (s *Server) splitOptions(q url.Values) (pipeline.Options, error) {
	opts := pipeline.Options{
		Threshold:  s.defaults.Threshold,
		NoMerge:    s.defaults.NoMerge,
		PackageKey: s.defaults.PackageKey,
	}
	if v := q.Get("threshold"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, errors.New(errors.ErrCodeInvalidInput, "invalid threshold: %q", v)
		}
		opts.Threshold = n
	}
	if v := q.Get("package_key"); v != "" {
		opts.PackageKey = v
	}
	var err error
	if q.Has("no_merge") {
		if opts.NoMerge, err = boolParam(q, "no_merge"); err != nil {
			return opts, err
		}
	}
	if opts.Refresh, err = boolParam(q, "refresh"); err != nil {
		return opts, err
	}
	if opts.Detailed, err = boolParam(q, "detailed"); err != nil {
		return opts, err
	}
	if opts.Clusters, err = boolParam(q, "clusters"); err != nil {
		return opts, err
	}
	for _, f := range q["format"] {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				opts.Formats = append(opts.Formats, part)
			}
		}
	}
	return opts, nil
}

// boolParam parses an optional boolean query parameter. A bare key counts
// as true.
func boolParam(q url.Values, name string) (bool, error) {
	if !q.Has(name) {
		return false, nil
	}
	v := q.Get(name)
	if v == "" {
		return true, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.New(errors.ErrCodeInvalidInput, "invalid %s: %q", name, v)
	}
	return b, nil
}

func documentFormat(contentType string) assetgraph.Format {
	if strings.Contains(strings.ToLower(contentType), "yaml") {
		return assetgraph.FormatYAML
	}
	return assetgraph.FormatJSON
}
