package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "graph.json")
	p.OnLoadComplete(ctx, "graph.json", 100, time.Second, nil)
	p.OnSplitStart(ctx, 100)
	p.OnSplitComplete(ctx, 4, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	// Split hooks
	s := NoopSplitHooks{}
	s.OnStageStart(ctx, "dominators")
	s.OnStageComplete(ctx, "dominators", 10, time.Second, nil)
	s.OnPackageCreated(ctx, "a,b", 2)
	s.OnPackageMerged(ctx, "package:a,b", 512, 2)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "plan")
	c.OnCacheMiss(ctx, "plan")
	c.OnCacheSet(ctx, "plan", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/split")
	h.OnResponse(ctx, "POST", "/v1/split", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Split().(NoopSplitHooks); !ok {
		t.Error("Split() should return NoopSplitHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customSplit := &testSplitHooks{}
	SetSplitHooks(customSplit)
	if Split() != customSplit {
		t.Error("SetSplitHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
	if _, ok := Split().(NoopSplitHooks); !ok {
		t.Error("Reset() should restore NoopSplitHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheus(t *testing.T) {
	ctx := context.Background()
	m := NewPrometheus(prometheus.NewRegistry())

	m.OnStageComplete(ctx, "merge", 7, time.Millisecond, nil)
	m.OnStageComplete(ctx, "merge", 0, time.Millisecond, errors.New("boom"))
	m.OnPackageCreated(ctx, "a,b", 2)
	m.OnPackageMerged(ctx, "package:a,b", 100, 3)
	m.OnCacheHit(ctx, "plan")
	m.OnCacheMiss(ctx, "plan")
	m.OnCacheMiss(ctx, "plan")
	m.OnSplitComplete(ctx, 3, time.Millisecond, nil)
	m.OnRequest(ctx, "GET", "/healthz")
	m.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"stage nodes", testutil.ToFloat64(m.stageNodes.WithLabelValues("merge")), 7},
		{"stage errors", testutil.ToFloat64(m.stageErrors.WithLabelValues("merge")), 1},
		{"packages created", testutil.ToFloat64(m.packagesCreated), 1},
		{"packages merged", testutil.ToFloat64(m.packagesMerged), 1},
		{"merged bytes", testutil.ToFloat64(m.mergedBytesTotal), 300},
		{"cache hits", testutil.ToFloat64(m.cacheHits.WithLabelValues("plan")), 1},
		{"cache misses", testutil.ToFloat64(m.cacheMisses.WithLabelValues("plan")), 2},
		{"splits ok", testutil.ToFloat64(m.splitsTotal.WithLabelValues("ok")), 1},
		{"in flight", testutil.ToFloat64(m.httpRequestsInFlight), 0},
		{"http requests", testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/healthz", "200")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "domsplit_packages_created_total 1") {
		t.Error("Handler() output missing domsplit_packages_created_total")
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testSplitHooks struct{ NoopSplitHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
