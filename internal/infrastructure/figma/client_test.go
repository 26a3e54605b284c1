package figma

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"screen-dev-assistant/internal/config"
	"screen-dev-assistant/internal/domain/codegen"
)

var pngBlob = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

type fakeFigma struct {
	calls     atomic.Int32
	resolve   func(w http.ResponseWriter, r *http.Request, self string)
	image     func(w http.ResponseWriter, r *http.Request)
	lastToken atomic.Value
	lastQuery atomic.Value
	srv       *httptest.Server
}

func newFakeFigma(t *testing.T) *fakeFigma {
	t.Helper()
	f := &fakeFigma{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/images/", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.lastToken.Store(r.Header.Get("X-Figma-Token"))
		f.lastQuery.Store(r.URL.RawQuery)
		f.resolve(w, r, f.srv.URL)
	})
	mux.HandleFunc("/render.png", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		f.image(w, r)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)

	f.resolve = func(w http.ResponseWriter, r *http.Request, self string) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"err":null,"images":{"1:2":"%s/render.png"}}`, self)
	}
	f.image = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBlob)
	}
	return f
}

func (f *fakeFigma) client() *Client {
	return NewClient(config.FigmaConfig{BaseURL: f.srv.URL, Token: "figd_test"})
}

func TestFetchRenderedImage(t *testing.T) {
	f := newFakeFigma(t)

	img, err := f.client().FetchRenderedImage(context.Background(), codegen.DesignReference{FileID: "ABC", NodeID: "1:2"})
	if err != nil {
		t.Fatalf("FetchRenderedImage: %v", err)
	}

	want := &codegen.RenderedImage{MediaType: "image/png", Data: base64.StdEncoding.EncodeToString(pngBlob)}
	if diff := cmp.Diff(want, img); diff != "" {
		t.Fatalf("image mismatch (-want +got):\n%s", diff)
	}
	if got := f.lastToken.Load(); got != "figd_test" {
		t.Fatalf("X-Figma-Token = %v", got)
	}
	if got := f.lastQuery.Load(); got != "format=png&ids=1%3A2&scale=2" {
		t.Fatalf("query = %v", got)
	}
	if got := f.calls.Load(); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}
}

func TestFetchRenderedImageStripsMediaTypeParams(t *testing.T) {
	f := newFakeFigma(t)
	f.image = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg; charset=binary")
		_, _ = w.Write([]byte("jpeg"))
	}

	img, err := f.client().FetchRenderedImage(context.Background(), codegen.DesignReference{FileID: "ABC", NodeID: "1:2"})
	if err != nil {
		t.Fatal(err)
	}
	if img.MediaType != "image/jpeg" {
		t.Fatalf("media type = %q", img.MediaType)
	}
}

func TestFetchRenderedImageMissingReference(t *testing.T) {
	f := newFakeFigma(t)

	for _, ref := range []codegen.DesignReference{{FileID: "ABC"}, {NodeID: "1:2"}, {}} {
		_, err := f.client().FetchRenderedImage(context.Background(), ref)
		if !errors.Is(err, codegen.ErrMissingReference) {
			t.Fatalf("ref %+v: err = %v", ref, err)
		}
	}
	if got := f.calls.Load(); got != 0 {
		t.Fatalf("network calls = %d, want 0", got)
	}
}

func TestFetchRenderedImageErrors(t *testing.T) {
	cases := []struct {
		name    string
		resolve func(w http.ResponseWriter, r *http.Request, self string)
		image   func(w http.ResponseWriter, r *http.Request)
		want    error
	}{
		{
			name: "service error field",
			resolve: func(w http.ResponseWriter, r *http.Request, _ string) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"status":400,"err":"invalid file"}`))
			},
			want: codegen.ResolutionError("invalid file"),
		},
		{
			name: "non-2xx without err",
			resolve: func(w http.ResponseWriter, r *http.Request, _ string) {
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"status":403}`))
			},
			want: codegen.ErrResolution,
		},
		{
			name: "null image",
			resolve: func(w http.ResponseWriter, r *http.Request, _ string) {
				_, _ = w.Write([]byte(`{"err":null,"images":{"1:2":null}}`))
			},
			want: codegen.ErrNotFound,
		},
		{
			name: "missing node key",
			resolve: func(w http.ResponseWriter, r *http.Request, _ string) {
				_, _ = w.Write([]byte(`{"err":null,"images":{}}`))
			},
			want: codegen.ErrNotFound,
		},
		{
			name: "html instead of image",
			image: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html></html>"))
			},
			want: codegen.ErrUnexpectedContentType,
		},
		{
			name: "image download fails",
			image: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			want: codegen.ErrTransport,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeFigma(t)
			if tc.resolve != nil {
				f.resolve = tc.resolve
			}
			if tc.image != nil {
				f.image = tc.image
			}
			_, err := f.client().FetchRenderedImage(context.Background(), codegen.DesignReference{FileID: "ABC", NodeID: "1:2"})
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFetchRenderedImageTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := NewClient(config.FigmaConfig{BaseURL: base})
	_, err := c.FetchRenderedImage(context.Background(), codegen.DesignReference{FileID: "ABC", NodeID: "1:2"})
	if !errors.Is(err, codegen.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
}

func TestFetchRenderedImageRespectsSizeCap(t *testing.T) {
	f := newFakeFigma(t)
	c := NewClient(config.FigmaConfig{BaseURL: f.srv.URL, MaxImageBytes: 4})

	_, err := c.FetchRenderedImage(context.Background(), codegen.DesignReference{FileID: "ABC", NodeID: "1:2"})
	if !errors.Is(err, codegen.ErrTransport) {
		t.Fatalf("err = %v", err)
	}
}
