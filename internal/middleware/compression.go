// PlayMetric - Game Telemetry Analytics and Churn Risk Scoring
// Copyright 2026 vishnugarg323
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/vishnugarg323/PlayMetric

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// DefaultCompressionThreshold is the body size below which responses are
// sent uncompressed.
const DefaultCompressionThreshold = 1024

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		return gzip.NewWriter(io.Discard)
	},
}

// Compression gzips responses once the body grows past threshold bytes.
// Smaller bodies are written as-is.
func Compression(threshold int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Accept-Encoding")

			cw := &compressWriter{ResponseWriter: w, threshold: threshold, status: http.StatusOK}
			next.ServeHTTP(cw, r)
			cw.finish()
		})
	}
}

// compressWriter buffers the head of the body until it knows whether the
// response is large enough to compress.
type compressWriter struct {
	http.ResponseWriter
	threshold   int
	status      int
	wroteHeader bool
	buf         bytes.Buffer
	gz          *gzip.Writer
	passthrough bool
}

func (w *compressWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.status = code
}

func (w *compressWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	switch {
	case w.gz != nil:
		return w.gz.Write(b)
	case w.passthrough:
		return w.ResponseWriter.Write(b)
	}

	w.buf.Write(b)
	if w.buf.Len() < w.threshold {
		return len(b), nil
	}
	if w.Header().Get("Content-Encoding") != "" {
		w.passthrough = true
		w.ResponseWriter.WriteHeader(w.status)
		_, err := w.buf.WriteTo(w.ResponseWriter)
		return len(b), err
	}

	w.Header().Set("Content-Encoding", "gzip")
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(w.status)

	gz := gzipWriterPool.Get().(*gzip.Writer)
	gz.Reset(w.ResponseWriter)
	w.gz = gz
	if _, err := w.buf.WriteTo(gz); err != nil {
		return 0, err
	}
	return len(b), nil
}

// finish flushes a buffered small body or closes the gzip stream.
func (w *compressWriter) finish() {
	if w.gz != nil {
		_ = w.gz.Close()
		gzipWriterPool.Put(w.gz)
		w.gz = nil
		return
	}
	if w.passthrough {
		return
	}
	w.ResponseWriter.WriteHeader(w.status)
	if w.buf.Len() > 0 {
		_, _ = w.buf.WriteTo(w.ResponseWriter)
	}
}
