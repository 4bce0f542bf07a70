package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
)

func scrape(c *qt.C) string {
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	return rec.Body.String()
}

func TestMiddlewareLabelsByRoutePattern(t *testing.T) {
	c := qt.New(t)
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/fakturor/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/fakturor/"+id, nil))
		c.Assert(rec.Code, qt.Equals, http.StatusNotFound)
	}

	body := scrape(c)
	c.Assert(body, qt.Contains, `bokfor_http_requests_total{method="GET",route="/v1/fakturor/{id}",status="404"} 3`)
	c.Assert(body, qt.Not(qt.Contains), `route="/v1/fakturor/1"`)
}
