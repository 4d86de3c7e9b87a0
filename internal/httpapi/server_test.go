package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/inference"
	"github.com/remyxai/remyxai-cli/pkg/types"
)

type mockService struct {
	list     []deploy.DeploymentStatus
	listErr  error
	up       deploy.DeploymentStatus
	upErr    error
	down     deploy.DeploymentStatus
	downErr  error
	res      inference.Result
	inferErr error
	gotReq   inference.Request
}

func (m *mockService) Deployments(context.Context) ([]deploy.DeploymentStatus, error) {
	return m.list, m.listErr
}

func (m *mockService) Status(_ context.Context, model string) deploy.DeploymentStatus {
	for _, s := range m.list {
		if s.Model == model {
			return s
		}
	}
	return deploy.DeploymentStatus{Model: model, Phase: deploy.PhaseAbsent}
}

func (m *mockService) BringUp(_ context.Context, model string) (deploy.DeploymentStatus, error) {
	m.up.Model = model
	return m.up, m.upErr
}

func (m *mockService) BringDown(_ context.Context, model string) (deploy.DeploymentStatus, error) {
	m.down.Model = model
	return m.down, m.downErr
}

func (m *mockService) Infer(_ context.Context, req inference.Request) (inference.Result, error) {
	m.gotReq = req
	return m.res, m.inferErr
}

type mockHTTPError struct {
	msg  string
	code int
}

func (e mockHTTPError) Error() string   { return e.msg }
func (e mockHTTPError) StatusCode() int { return e.code }

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDeploymentsHandler(t *testing.T) {
	svc := &mockService{list: []deploy.DeploymentStatus{
		{Model: "a", Phase: deploy.PhaseReady, Endpoint: "localhost:8000"},
		{Model: "b", Phase: deploy.PhaseFailed, LastError: "container crashed"},
	}}
	w := do(t, NewMux(svc), http.MethodGet, "/deployments", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	var body types.DeploymentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Deployments, 2)
	assert.Equal(t, "localhost:8000", body.Deployments[0].Endpoint)
	assert.Equal(t, "failed", body.Deployments[1].Phase)
	assert.Equal(t, "container crashed", body.Deployments[1].LastError)
}

func TestDeploymentsHandler_Error(t *testing.T) {
	svc := &mockService{listErr: errors.New("docker unavailable")}
	w := do(t, NewMux(svc), http.MethodGet, "/deployments", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 500, body.Code)
}

func TestGetDeployment(t *testing.T) {
	svc := &mockService{}
	w := do(t, NewMux(svc), http.MethodGet, "/deployments/m1", "")
	require.Equal(t, http.StatusOK, w.Code)
	var d types.Deployment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	assert.Equal(t, types.Deployment{Model: "m1", Phase: "absent"}, d)
}

func TestLifecycleHandlers(t *testing.T) {
	cases := []struct {
		name string
		path string
		svc  *mockService
		code int
	}{
		{"up ready", "/deployments/m/up", &mockService{up: deploy.DeploymentStatus{Phase: deploy.PhaseReady, Endpoint: "localhost:8000"}}, 200},
		{"up failed", "/deployments/m/up", &mockService{up: deploy.DeploymentStatus{Phase: deploy.PhaseFailed, LastError: "port conflict"}}, 502},
		{"up unsupported", "/deployments/m/up", &mockService{upErr: fmt.Errorf("x: %w", deploy.ErrUnsupportedModelKind)}, 422},
		{"up unknown", "/deployments/m/up", &mockService{upErr: fmt.Errorf("x: %w", deploy.ErrModelNotFound)}, 404},
		{"up conflict", "/deployments/m/up", &mockService{upErr: deploy.ErrConflictingOperation}, 409},
		{"down absent", "/deployments/m/down", &mockService{down: deploy.DeploymentStatus{Phase: deploy.PhaseAbsent}}, 200},
		{"down failed", "/deployments/m/down", &mockService{down: deploy.DeploymentStatus{Phase: deploy.PhaseFailed}}, 502},
		{"down custom", "/deployments/m/down", &mockService{downErr: mockHTTPError{"busy", 429}}, 429},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, NewMux(tc.svc), http.MethodPost, tc.path, "")
			assert.Equal(t, tc.code, w.Code, w.Body.String())
		})
	}
}

func TestInferHandler_OK(t *testing.T) {
	svc := &mockService{res: inference.Result{
		Status: inference.StatusOK, Output: "echo: hello", Elapsed: 212 * time.Millisecond, RequestID: "r1",
	}}
	w := do(t, NewMux(svc), http.MethodPost, "/infer", `{"model":"m","prompt":"hello","timeout_ms":1500,"model_version":"2"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var body types.InferResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "echo: hello", body.Output)
	assert.Equal(t, "ok", body.Status)
	assert.EqualValues(t, 212, body.ElapsedMS)
	assert.Empty(t, body.Error)

	assert.Equal(t, inference.Request{ModelName: "m", ModelVersion: "2", Prompt: "hello", Timeout: 1500 * time.Millisecond}, svc.gotReq)
}

func TestInferHandler_Outcomes(t *testing.T) {
	cases := []struct {
		status inference.Status
		code   int
	}{
		{inference.StatusTimeout, http.StatusGatewayTimeout},
		{inference.StatusConnectionError, http.StatusBadGateway},
		{inference.StatusServerError, http.StatusBadGateway},
		{inference.StatusDecodeError, http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			svc := &mockService{res: inference.Result{Status: tc.status, Err: errors.New("diag")}}
			w := do(t, NewMux(svc), http.MethodPost, "/infer", `{"model":"m","prompt":"p"}`)
			require.Equal(t, tc.code, w.Code)
			var body types.InferResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, string(tc.status), body.Status)
			assert.Equal(t, "diag", body.Error)
		})
	}
}

func TestInferHandler_Rejects(t *testing.T) {
	h := NewMux(&mockService{})

	req := httptest.NewRequest(http.MethodPost, "/infer", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/infer", `{bad`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/infer", `{"prompt":"p"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/infer", `{"model":"m","timeout_ms":-1}`).Code)
}

func TestInferHandler_BodyLimit(t *testing.T) {
	SetMaxBodyBytes(16)
	defer SetMaxBodyBytes(0)
	w := do(t, NewMux(&mockService{}), http.MethodPost, "/infer", `{"model":"m","prompt":"`+strings.Repeat("x", 64)+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInferHandler_ServiceErrors(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("resolve: %w", deploy.ErrNotReady), http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", inference.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", deploy.ErrModelNotFound), http.StatusNotFound},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		svc := &mockService{inferErr: tc.err}
		w := do(t, NewMux(svc), http.MethodPost, "/infer", `{"model":"m","prompt":"p"}`)
		assert.Equal(t, tc.code, w.Code, tc.err.Error())
	}
}

func TestHealthz(t *testing.T) {
	w := do(t, NewMux(&mockService{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestCORS_Enabled(t *testing.T) {
	SetCORSOptions(true, []string{"http://ui.local"}, nil, nil)
	defer SetCORSOptions(false, nil, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/deployments", nil)
	req.Header.Set("Origin", "http://ui.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	NewMux(&mockService{}).ServeHTTP(w, req)
	assert.Equal(t, "http://ui.local", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestJoinContexts_CancelsOnEither(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	ctx, cancel := joinContexts(base, context.Background())
	defer cancel()
	cancelBase()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled by base")
	}

	req, cancelReq := context.WithCancel(context.Background())
	ctx2, cancel2 := joinContexts(context.Background(), req)
	defer cancel2()
	cancelReq()
	select {
	case <-ctx2.Done():
	case <-time.After(time.Second):
		t.Fatal("joined context not canceled by request")
	}
}
