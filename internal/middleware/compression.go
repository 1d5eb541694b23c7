package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body in bytes that is compressed
	MinSize int
	// Level is the gzip level, gzip.BestSpeed through gzip.BestCompression
	Level int
	// CompressibleTypes lists media types eligible for compression
	CompressibleTypes []string
}

// DefaultCompressionConfig compresses JSON and plain text above 1KB.
// Search results for common names are the large responses here.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Level:   gzip.DefaultCompression,
		CompressibleTypes: []string{
			"application/json",
			"text/plain",
		},
	}
}

// gzipPool hands out writers of one compression level
type gzipPool struct {
	pool sync.Pool
}

func newGzipPool(level int) *gzipPool {
	if level < gzip.HuffmanOnly || level > gzip.BestCompression {
		level = gzip.DefaultCompression
	}
	p := &gzipPool{}
	p.pool.New = func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, level)
		return w
	}
	return p
}

func (p *gzipPool) get(w io.Writer) *gzip.Writer {
	gz := p.pool.Get().(*gzip.Writer)
	gz.Reset(w)
	return gz
}

func (p *gzipPool) put(gz *gzip.Writer) {
	p.pool.Put(gz)
}

// gzipResponseWriter buffers up to MinSize bytes before deciding whether
// to compress
type gzipResponseWriter struct {
	http.ResponseWriter
	pool       *gzipPool
	gzipWriter *gzip.Writer
	config     CompressionConfig
	buffer     []byte
	statusCode int
	decided    bool
	compress   bool
}

func newGzipResponseWriter(w http.ResponseWriter, pool *gzipPool, config CompressionConfig) *gzipResponseWriter {
	return &gzipResponseWriter{
		ResponseWriter: w,
		pool:           pool,
		config:         config,
		statusCode:     http.StatusOK,
		buffer:         make([]byte, 0, config.MinSize+1),
	}
}

// WriteHeader records the status code until the compression decision is made
func (g *gzipResponseWriter) WriteHeader(statusCode int) {
	if g.decided {
		return
	}
	g.statusCode = statusCode
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	if g.decided {
		if g.compress {
			return g.gzipWriter.Write(data)
		}
		return g.ResponseWriter.Write(data)
	}

	g.buffer = append(g.buffer, data...)
	if len(g.buffer) > g.config.MinSize {
		if err := g.finalize(); err != nil {
			return 0, err
		}
	}

	return len(data), nil
}

func (g *gzipResponseWriter) compressibleContentType() bool {
	contentType := g.Header().Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, compressible := range g.config.CompressibleTypes {
		if mediaType == compressible {
			return true
		}
	}

	return false
}

// finalize makes the compression decision and flushes the buffer
func (g *gzipResponseWriter) finalize() error {
	if g.decided {
		return nil
	}
	g.decided = true

	noBody := g.statusCode == http.StatusNoContent || g.statusCode == http.StatusNotModified
	g.compress = !noBody &&
		len(g.buffer) >= g.config.MinSize &&
		g.Header().Get("Content-Encoding") == "" &&
		g.compressibleContentType()

	buffered := g.buffer
	g.buffer = nil

	if !g.compress {
		g.ResponseWriter.WriteHeader(g.statusCode)
		_, err := g.ResponseWriter.Write(buffered)
		return err
	}

	g.Header().Del("Content-Length")
	g.Header().Set("Content-Encoding", "gzip")
	g.Header().Add("Vary", "Accept-Encoding")

	g.gzipWriter = g.pool.get(g.ResponseWriter)
	g.ResponseWriter.WriteHeader(g.statusCode)
	_, err := g.gzipWriter.Write(buffered)
	return err
}

// Close finalizes the response and returns the gzip writer to the pool
func (g *gzipResponseWriter) Close() error {
	err := g.finalize()

	if g.gzipWriter != nil {
		if closeErr := g.gzipWriter.Close(); err == nil {
			err = closeErr
		}
		g.pool.put(g.gzipWriter)
		g.gzipWriter = nil
	}

	return err
}

// Flush implements http.Flusher
func (g *gzipResponseWriter) Flush() {
	_ = g.finalize()

	if g.gzipWriter != nil {
		_ = g.gzipWriter.Flush()
	}

	if flusher, ok := g.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// acceptsGzip reports whether the Accept-Encoding header allows gzip
func acceptsGzip(header string) bool {
	for _, part := range strings.Split(header, ",") {
		coding, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			continue
		}
		params = strings.ReplaceAll(params, " ", "")
		return params != "q=0" && params != "q=0.0" && params != "q=0.00" && params != "q=0.000"
	}
	return false
}

// Compression returns a middleware that gzips eligible responses
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	pool := newGzipPool(config.Level)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r.Header.Get("Accept-Encoding")) || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			gzw := newGzipResponseWriter(w, pool, config)
			defer gzw.Close()

			next.ServeHTTP(gzw, r)
		})
	}
}
