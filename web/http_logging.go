// ABOUTME: HTTP logging middleware for the web server with consistent log.Printf style.
// ABOUTME: Replaces chi's default logger format to align request logs with pipeline logs.
package web

import (
	"log"
	"net/http"
	"time"
)

// responseMeter captures the status code and body size of a response so the
// middleware can log them after the handler returns.
type responseMeter struct {
	http.ResponseWriter
	status  int
	written int64
}

func (m *responseMeter) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *responseMeter) Write(p []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	n, err := m.ResponseWriter.Write(p)
	m.written += int64(n)
	return n, err
}

// requestLogger logs one line per request. Query submissions can take
// minutes while the pipeline runs, so duration is rounded to milliseconds
// rather than microseconds.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		meter := &responseMeter{ResponseWriter: w}
		next.ServeHTTP(meter, r)

		status := meter.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Printf("web request method=%s path=%s status=%d bytes=%d duration=%s remote=%s",
			r.Method, r.URL.Path, status, meter.written,
			time.Since(start).Round(time.Millisecond), r.RemoteAddr)
	})
}
