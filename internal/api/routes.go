package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует маршруты API.
//
// /submit принимает произвольный HTTP-метод, поэтому не использует
// method-specific паттерны ServeMux. /message тоже регистрируется без
// метода: go.mod объявляет go 1.21.6, при котором ServeMux работает по
// правилам до Go 1.22 и читает "GET /message" как шаблон с хостом "GET ",
// который не совпадает ни с одним запросом. По той же причине записи
// "GET /healthz" и "GET /metrics" ниже не срабатывают; эти пути
// обслуживают обработчики, которые регистрирует cmd/relaygate-api.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	mux.Handle("/submit", chain(http.HandlerFunc(h.Submit)))
	mux.Handle("/message", chain(http.HandlerFunc(h.Status)))

	mux.Handle("GET /healthz", chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))
	mux.Handle("GET /metrics", promhttp.Handler())
}
