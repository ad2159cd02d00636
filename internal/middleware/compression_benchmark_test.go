package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
)

// buildBodiesJSON builds a payload shaped like a body-snapshot response.
func buildBodiesJSON(n int) string {
	var sb strings.Builder
	sb.WriteString(`{"bodies":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"id":`)
		sb.WriteString(strconv.Itoa(i))
		sb.WriteString(`,"pos":{"x":`)
		sb.WriteString(strconv.Itoa(i * 7))
		sb.WriteString(`.5,"y":`)
		sb.WriteString(strconv.Itoa(i * 3))
		sb.WriteString(`.25},"vel":{"x":0.1,"y":-0.2},"mass":`)
		sb.WriteString(strconv.Itoa(1000 + i))
		sb.WriteString(`,"pinned":false}`)
	}
	sb.WriteString(`]}`)
	return sb.String()
}

// TestCompressionRatio verifies that compression achieves >70% ratio
func TestCompressionRatio(t *testing.T) {
	payload := buildBodiesJSON(3000)
	uncompressedSize := len(payload)

	tests := []struct {
		name                string
		acceptEncoding      string
		expectedEncoding    string
		minCompressionRatio float64 // Minimum acceptable ratio (compressed/uncompressed)
	}{
		{
			name:                "gzip compression",
			acceptEncoding:      "gzip",
			expectedEncoding:    "gzip",
			minCompressionRatio: 0.30, // Should achieve <30% of original size (>70% reduction)
		},
		{
			name:                "brotli compression",
			acceptEncoding:      "br",
			expectedEncoding:    "br",
			minCompressionRatio: 0.25, // Brotli typically achieves better compression
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(payload))
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc/bodies", nil)
			req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", rr.Code)
			}

			contentEncoding := rr.Header().Get("Content-Encoding")
			if contentEncoding != tt.expectedEncoding {
				t.Fatalf("expected Content-Encoding: %s, got %s", tt.expectedEncoding, contentEncoding)
			}

			compressedSize := rr.Body.Len()
			compressionRatio := float64(compressedSize) / float64(uncompressedSize)
			compressionPercent := (1.0 - compressionRatio) * 100

			t.Logf("Uncompressed size: %d bytes", uncompressedSize)
			t.Logf("Compressed size (%s): %d bytes", tt.expectedEncoding, compressedSize)
			t.Logf("Compression ratio: %.2f%% reduction", compressionPercent)

			if compressionRatio > tt.minCompressionRatio {
				t.Errorf("compression ratio %.2f exceeds maximum %.2f (achieved only %.2f%% reduction, need >70%%)",
					compressionRatio, tt.minCompressionRatio, compressionPercent)
			}

			// Verify the compressed data can be decompressed correctly
			var body []byte
			var err error

			if tt.expectedEncoding == "gzip" {
				gr, err := gzip.NewReader(rr.Body)
				if err != nil {
					t.Fatalf("failed to create gzip reader: %v", err)
				}
				defer gr.Close()
				body, err = io.ReadAll(gr)
				if err != nil {
					t.Fatalf("failed to read gzipped body: %v", err)
				}
			} else if tt.expectedEncoding == "br" {
				br := brotli.NewReader(rr.Body)
				body, err = io.ReadAll(br)
				if err != nil {
					t.Fatalf("failed to read brotli body: %v", err)
				}
			}

			if string(body) != payload {
				t.Error("decompressed body doesn't match original payload")
			}
		})
	}
}

// BenchmarkGzipCompression benchmarks gzip compression performance
func BenchmarkGzipCompression(b *testing.B) {
	payload := bytes.NewBufferString(buildBodiesJSON(10000)).Bytes()

	handler := Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}

// BenchmarkBrotliCompression benchmarks brotli compression performance
func BenchmarkBrotliCompression(b *testing.B) {
	payload := bytes.NewBufferString(buildBodiesJSON(10000)).Bytes()

	handler := Gzip(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(payload)
	}))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Accept-Encoding", "br")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
	}
}
