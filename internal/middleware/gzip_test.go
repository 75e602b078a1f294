package middleware

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// echoCartHandler возвращает полученную корзину, дополнив её числом позиций.
func echoCartHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"lines": len(req.Items)})
}

func gzipBytes(t *testing.T, s string) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return &buf
}

func TestGzipMiddleware(t *testing.T) {
	const cartBody = `{"items":[{"type":"product","productId":"p1","price":10,"quantity":1},{"type":"combo","comboId":"c1","comboPrice":20,"quantity":2}]}`

	tests := []struct {
		name            string
		compressRequest bool
		acceptEncoding  string
		wantEncoding    string
	}{
		{
			name:           "compressed response",
			acceptEncoding: "gzip, deflate",
			wantEncoding:   "gzip",
		},
		{
			name:         "plain response",
			wantEncoding: "",
		},
		{
			name:            "compressed request and response",
			compressRequest: true,
			acceptEncoding:  "gzip",
			wantEncoding:    "gzip",
		},
		{
			name:            "compressed request only",
			compressRequest: true,
			wantEncoding:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body io.Reader = strings.NewReader(cartBody)
			if tt.compressRequest {
				body = gzipBytes(t, cartBody)
			}

			req := httptest.NewRequest(http.MethodPut, "/api/checkout/session/cart", body)
			req.Header.Set("Content-Type", "application/json")
			if tt.compressRequest {
				req.Header.Set("Content-Encoding", "gzip")
			}
			if tt.acceptEncoding != "" {
				req.Header.Set("Accept-Encoding", tt.acceptEncoding)
			}

			w := httptest.NewRecorder()
			GzipMiddleware(http.HandlerFunc(echoCartHandler)).ServeHTTP(w, req)

			res := w.Result()
			defer res.Body.Close()

			if res.StatusCode != http.StatusOK {
				t.Fatalf("status: got %d want %d", res.StatusCode, http.StatusOK)
			}
			if ce := res.Header.Get("Content-Encoding"); ce != tt.wantEncoding {
				t.Fatalf("content-encoding: got %q want %q", ce, tt.wantEncoding)
			}

			reader := io.Reader(res.Body)
			if tt.wantEncoding == "gzip" {
				gr, err := gzip.NewReader(res.Body)
				if err != nil {
					t.Fatalf("new gzip reader: %v", err)
				}
				defer gr.Close()
				reader = gr
			}

			var got struct {
				Lines int `json:"lines"`
			}
			if err := json.NewDecoder(reader).Decode(&got); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if got.Lines != 2 {
				t.Fatalf("lines: got %d want 2", got.Lines)
			}
		})
	}
}

func TestGzipMiddleware_NoContentIsNotCompressed(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/checkout/session", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusNoContent)
	}
	if ce := w.Header().Get("Content-Encoding"); ce != "" {
		t.Fatalf("content-encoding must be empty, got %q", ce)
	}
	if w.Body.Len() != 0 {
		t.Fatalf("body must be empty, got %d bytes", w.Body.Len())
	}
}

func TestGzipMiddleware_BrokenRequestBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/checkout/quote", strings.NewReader("not gzip"))
	req.Header.Set("Content-Encoding", "gzip")

	called := false
	w := httptest.NewRecorder()
	GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(w, req)

	if called {
		t.Fatalf("next handler must not be called for a broken gzip body")
	}
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d want %d", w.Code, http.StatusBadRequest)
	}
}
