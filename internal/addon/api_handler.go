package addon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-addon/internal/protocol"
)

// APIRequest and APIResponse are the proxied HTTP exchange.
type (
	APIRequest  = protocol.APIRequest
	APIResponse = protocol.APIResponse
)

// APIHandler serves HTTP requests the gateway proxies to a package.
type APIHandler interface {
	PackageName() string

	// HandleRequest serves one request. An error becomes a 500 response.
	HandleRequest(ctx context.Context, req APIRequest) (APIResponse, error)

	// Unload runs when the gateway unloads the handler.
	Unload(ctx context.Context) error
}

// RoutedAPIHandler serves proxied requests through a chi router, so
// add-ons can register ordinary http.HandlerFuncs.
type RoutedAPIHandler struct {
	packageName string
	router      chi.Router
	logger      Logger
}

// NewRoutedAPIHandler creates an API handler for packageName. Register
// routes on Router() before adding it to the bridge.
func NewRoutedAPIHandler(packageName string, logger Logger) (*RoutedAPIHandler, error) {
	if packageName == "" {
		return nil, errors.New("package name is required")
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &RoutedAPIHandler{
		packageName: packageName,
		router:      chi.NewRouter(),
		logger:      logger,
	}, nil
}

// PackageName returns the owning package.
func (h *RoutedAPIHandler) PackageName() string { return h.packageName }

// Router returns the router requests are served from.
func (h *RoutedAPIHandler) Router() chi.Router { return h.router }

// HandleRequest converts req to an *http.Request and serves it.
func (h *RoutedAPIHandler) HandleRequest(ctx context.Context, req APIRequest) (APIResponse, error) {
	httpReq, err := buildHTTPRequest(ctx, req)
	if err != nil {
		return APIResponse{}, fmt.Errorf("%w: %w", ErrAPIHandler, err)
	}

	rec := newResponseRecorder()
	h.router.ServeHTTP(rec, httpReq)

	h.logger.Debug("api request served",
		"package", h.packageName, "method", req.Method, "path", req.Path, "status", rec.status)

	return APIResponse{
		Status:      rec.status,
		ContentType: rec.header.Get("Content-Type"),
		Content:     rec.body.String(),
	}, nil
}

// Unload is a no-op.
func (h *RoutedAPIHandler) Unload(context.Context) error { return nil }

func buildHTTPRequest(ctx context.Context, req APIRequest) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	path := req.Path
	if path == "" {
		path = "/"
	}

	u := &url.URL{Path: path}
	if len(req.Query) > 0 {
		q := url.Values{}
		for k, v := range req.Query {
			switch vv := v.(type) {
			case []any:
				for _, item := range vv {
					q.Add(k, fmt.Sprint(item))
				}
			default:
				q.Set(k, fmt.Sprint(vv))
			}
		}
		u.RawQuery = q.Encode()
	}

	var body io.Reader = http.NoBody
	contentType := ""
	switch b := req.Body.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(b)
		contentType = "text/plain"
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

// responseRecorder captures a handler's response in memory.
type responseRecorder struct {
	header      http.Header
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseRecorder() *responseRecorder {
	return &responseRecorder{header: make(http.Header), status: http.StatusOK}
}

func (r *responseRecorder) Header() http.Header { return r.header }

func (r *responseRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}
	r.status = status
	r.wroteHeader = true
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.body.Write(b)
}
