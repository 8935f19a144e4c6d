package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qnxg/yqwork/internal/transport/rest"
)

func TestRest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Rest Suite")
}

func serve(router http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

var _ = Describe("Router", func() {
	var (
		router *chi.Mux
		checks map[string]rest.Pinger
	)

	BeforeEach(func() {
		checks = map[string]rest.Pinger{
			"postgres": func(ctx context.Context) error { return nil },
			"redis":    func(ctx context.Context) error { return nil },
		}
	})

	JustBeforeEach(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "yqwork_test_total"}))

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, rest.Handlers{
			Health: rest.NewHealthHandlerWithChecks(checks),
		}, rest.RouterOptions{
			IsDevelopment:  true,
			MetricsEnabled: true,
			Gatherer:       reg,
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	It("answers ping", func() {
		rec := serve(router, http.MethodGet, "/api/v1/ping")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"status":"OK"`))
	})

	It("reports every dependency as healthy", func() {
		rec := serve(router, http.MethodGet, "/api/v1/health")
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp rest.HealthResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Status).To(Equal(rest.HealthHealthy))
		Expect(resp.Components).To(HaveKey("postgres"))
		Expect(resp.Components).To(HaveKey("redis"))
	})

	Context("when redis is down", func() {
		BeforeEach(func() {
			checks["redis"] = func(ctx context.Context) error { return errors.New("connection refused") }
		})

		It("answers 503 and still reports postgres", func() {
			rec := serve(router, http.MethodGet, "/api/v1/health")
			Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))

			var resp rest.HealthResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp.Status).To(Equal(rest.HealthUnhealthy))
			Expect(resp.Components["redis"].Message).To(Equal("connection refused"))
			Expect(resp.Components["postgres"].Status).To(Equal(rest.HealthHealthy))
		})
	})

	It("exposes metrics from the given registry", func() {
		rec := serve(router, http.MethodGet, "/metrics")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("yqwork_test_total"))
	})

	It("serves the OpenAPI document", func() {
		rec := serve(router, http.MethodGet, "/openapi.yml")
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("/work-hours-record"))
	})

	It("sets a trace id on every response", func() {
		rec := serve(router, http.MethodGet, "/api/v1/ping")
		Expect(rec.Header().Get("X-Trace-ID")).NotTo(BeEmpty())
	})
})
