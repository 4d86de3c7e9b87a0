package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/remyxai/remyxai-cli/internal/deploy"
	"github.com/remyxai/remyxai-cli/internal/inference"
	"github.com/remyxai/remyxai-cli/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Deployments(ctx context.Context) ([]deploy.DeploymentStatus, error)
	Status(ctx context.Context, model string) deploy.DeploymentStatus
	BringUp(ctx context.Context, model string) (deploy.DeploymentStatus, error)
	BringDown(ctx context.Context, model string) (deploy.DeploymentStatus, error)
	// Infer returns an error only for requests that were never sent.
	Infer(ctx context.Context, req inference.Request) (inference.Result, error)
}

type handlers struct {
	svc Service
}

func NewMux(svc Service) http.Handler {
	h := &handlers{svc: svc}
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: orDefault(corsAllowedMethods, []string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			AllowedHeaders: orDefault(corsAllowedHeaders, []string{"Content-Type", "X-Request-Id", "X-Log-Level"}),
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/deployments", h.listDeployments)
	r.Get("/deployments/{model}", h.getDeployment)
	r.Post("/deployments/{model}/up", h.bringUp)
	r.Post("/deployments/{model}/down", h.bringDown)
	r.Post("/infer", h.infer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	MountSwagger(r)

	return r
}

func orDefault(v, def []string) []string {
	if len(v) == 0 {
		return def
	}
	return v
}

func toDeployment(s deploy.DeploymentStatus) types.Deployment {
	return types.Deployment{Model: s.Model, Phase: string(s.Phase), Endpoint: s.Endpoint, LastError: s.LastError}
}

// listDeployments godoc
// @Summary      List deployments
// @Description  Observed status of every model with a local serving stack.
// @Tags         deployments
// @Produce      json
// @Success      200  {object}  types.DeploymentsResponse
// @Failure      500  {object}  types.ErrorResponse
// @Router       /deployments [get]
func (h *handlers) listDeployments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Deployments(r.Context())
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	resp := types.DeploymentsResponse{Deployments: make([]types.Deployment, 0, len(list))}
	for _, s := range list {
		resp.Deployments = append(resp.Deployments, toDeployment(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

// getDeployment godoc
// @Summary      Deployment status
// @Tags         deployments
// @Produce      json
// @Param        model  path      string  true  "Model name"
// @Success      200    {object}  types.Deployment
// @Router       /deployments/{model} [get]
func (h *handlers) getDeployment(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toDeployment(h.svc.Status(r.Context(), chi.URLParam(r, "model"))))
}

// bringUp godoc
// @Summary      Bring a model's serving stack up
// @Description  Blocks until the stack is ready or has failed.
// @Tags         deployments
// @Produce      json
// @Param        model  path      string  true  "Model name"
// @Success      200    {object}  types.Deployment
// @Failure      400    {object}  types.ErrorResponse
// @Failure      404    {object}  types.ErrorResponse
// @Failure      409    {object}  types.ErrorResponse
// @Failure      422    {object}  types.ErrorResponse
// @Failure      502    {object}  types.Deployment
// @Router       /deployments/{model}/up [post]
func (h *handlers) bringUp(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "bring_up", h.svc.BringUp, deploy.PhaseReady)
}

// bringDown godoc
// @Summary      Tear a model's serving stack down
// @Tags         deployments
// @Produce      json
// @Param        model  path      string  true  "Model name"
// @Success      200    {object}  types.Deployment
// @Failure      400    {object}  types.ErrorResponse
// @Failure      409    {object}  types.ErrorResponse
// @Failure      502    {object}  types.Deployment
// @Router       /deployments/{model}/down [post]
func (h *handlers) bringDown(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, "bring_down", h.svc.BringDown, deploy.PhaseAbsent)
}

func (h *handlers) lifecycle(w http.ResponseWriter, r *http.Request, op string,
	fn func(context.Context, string) (deploy.DeploymentStatus, error), want deploy.Phase) {
	model := chi.URLParam(r, "model")
	start := time.Now()
	// Join server base context with request context so shutdown cancels work too.
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	st, err := fn(ctx, model)
	if err != nil {
		code := statusFor(err)
		writeJSONError(w, code, err.Error())
		logEnd(r, op, model, code, start, err)
		return
	}
	code := http.StatusOK
	if st.Phase != want {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, toDeployment(st))
	logEnd(r, op, model, code, start, nil)
}

// infer godoc
// @Summary      Run one prompt
// @Description  Sends the prompt to a KServe v2 server. Without server_url the model's ready deployment is used.
// @Tags         inference
// @Accept       json
// @Produce      json
// @Param        request  body      types.InferRequest  true  "Inference request"
// @Success      200      {object}  types.InferResponse
// @Failure      400      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Failure      502      {object}  types.InferResponse
// @Failure      503      {object}  types.ErrorResponse
// @Failure      504      {object}  types.InferResponse
// @Router       /infer [post]
func (h *handlers) infer(w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var body types.InferRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Model) == "" {
		writeJSONError(w, http.StatusBadRequest, "model is required")
		return
	}
	if body.TimeoutMS < 0 {
		writeJSONError(w, http.StatusBadRequest, "timeout_ms must not be negative")
		return
	}

	start := time.Now()
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	res, err := h.svc.Infer(ctx, inference.Request{
		ModelName:     body.Model,
		ModelVersion:  body.ModelVersion,
		ServerAddress: body.ServerURL,
		Prompt:        body.Prompt,
		Timeout:       time.Duration(body.TimeoutMS) * time.Millisecond,
	})
	if err != nil {
		code := statusFor(err)
		writeJSONError(w, code, err.Error())
		logEnd(r, "infer", body.Model, code, start, err)
		return
	}
	// Client went away; nobody is listening for the outcome.
	if r.Context().Err() != nil {
		return
	}
	code := http.StatusOK
	switch res.Status {
	case inference.StatusOK:
	case inference.StatusTimeout:
		code = http.StatusGatewayTimeout
	default:
		code = http.StatusBadGateway
	}
	writeJSON(w, code, types.InferResponse{
		ID:           res.RequestID,
		Status:       string(res.Status),
		Output:       res.Output,
		ElapsedMS:    res.Elapsed.Milliseconds(),
		ModelVersion: res.ModelVersion,
		Error:        res.Diagnostic(),
	})
	logEnd(r, "infer", body.Model, code, start, res.Err)
}
