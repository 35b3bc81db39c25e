package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/inkwell-app/inkwell/internal/telemetry/metrics"
	"github.com/inkwell-app/inkwell/pkg"

	log "github.com/sirupsen/logrus"
)

func PanicRecovery(instr *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Errorf("http: panic serving %s: %v\n%s", r.URL.Path, rec, debug.Stack())
					if instr != nil {
						instr.CounterHandleRequestPanic.Inc()
					}
					pkg.WriteError(w, "Internal server error", http.StatusInternalServerError, "Unexpected failure")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
