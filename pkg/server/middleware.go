package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/routekit/internal/logger"
	"github.com/fatih/color"
	"github.com/go-chi/chi/v5/middleware"
)

var (
	statusColors = map[int]*color.Color{
		5: color.New(color.FgRed),
		4: color.New(color.FgYellow),
		3: color.New(color.FgCyan),
		2: color.New(color.FgGreen),
	}
	methodColors = map[string]*color.Color{
		http.MethodGet:    color.New(color.FgBlue),
		http.MethodPost:   color.New(color.FgGreen),
		http.MethodPut:    color.New(color.FgYellow),
		http.MethodDelete: color.New(color.FgRed),
		http.MethodPatch:  color.New(color.FgMagenta),
	}
)

// requestLogger logs one line per request with color-coded status and
// method. Paths under skip are not logged.
func requestLogger(log *logger.Logger, skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, prefix := range skip {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			log.Info(fmt.Sprintf("%s %s %s",
				colorize(statusColors[status/100], fmt.Sprintf("%d", status)),
				colorize(methodColors[r.Method], fmt.Sprintf("%-7s", r.Method)),
				r.URL.Path,
			),
				"bytes", ww.BytesWritten(),
				"latency", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func colorize(c *color.Color, s string) string {
	if c == nil {
		return s
	}
	return c.Sprint(s)
}
