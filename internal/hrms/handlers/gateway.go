package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
)

// Gateway serves the REST routes by forwarding each request to the
// matching WorkflowService method on conn. Bodies stay JSON end to end.
type Gateway struct {
	mux       *runtime.ServeMux
	conn      grpc.ClientConnInterface
	marshaler runtime.Marshaler
	logger    *zap.Logger
}

type binder func(*http.Request) (map[string]any, error)

type gatewayRoute struct {
	method  string
	pattern string
	rpc     string
	bind    binder
}

// Routes are matched most recently registered first, so the literal
// /v1/applications/export and /v1/applications/expiring-offers come after
// /v1/applications/{id}.
var gatewayRoutes = []gatewayRoute{
	{http.MethodPost, "/v1/applications", "CreateApplication", bindBody},
	{http.MethodGet, "/v1/applications", "ListApplications", bindApplicationFilter},
	{http.MethodGet, "/v1/applications/{id}", "GetApplication", bindBody},
	{http.MethodPut, "/v1/applications/{id}/status", "SetStatus", bindBody},
	{http.MethodPut, "/v1/applications/{id}/current-round", "SetCurrentRound", bindBody},
	{http.MethodPost, "/v1/applications/{id}/interviews", "ScheduleInterview", bindBody},
	{http.MethodPut, "/v1/applications/{id}/interviews/{roundId}", "UpdateInterview", bindBody},
	{http.MethodPost, "/v1/applications/{id}/interviews/{roundId}/complete", "CompleteInterview", bindBody},
	{http.MethodPost, "/v1/applications/{id}/generate-offer", "GenerateOffer", bindBody},
	{http.MethodPost, "/v1/applications/{id}/send-offer", "SendOffer", bindBody},
	{http.MethodPost, "/v1/applications/{id}/send-offer-reminder", "SendOfferReminder", bindBody},
	{http.MethodPost, "/v1/applications/{id}/duplicate-offer", "DuplicateOffer", bindBody},
	{http.MethodPost, "/v1/applications/{id}/offer-response", "RecordOfferResponse", bindBody},
	{http.MethodPost, "/v1/applications/{id}/convert-to-employee", "ConvertToEmployee", bindBody},
	{http.MethodGet, "/v1/applications/{id}/onboarding", "GetChecklist", bindBody},
	{http.MethodPost, "/v1/applications/{id}/onboarding/{documentType}/upload", "UploadDocument", bindBody},
	{http.MethodPost, "/v1/applications/{id}/onboarding/{documentType}/verify", "VerifyDocument", bindBody},
	{http.MethodGet, "/v1/applications/expiring-offers", "ExpiringOffers", bindBody},
	{http.MethodGet, "/v1/recruitment/lifecycle", "ListLifecycles", bindBody},
	{http.MethodPost, "/v1/recruitment/lifecycle", "AppendStage", bindBody},
	{http.MethodGet, "/v1/recruitment/lifecycle/{employeeId}", "GetLifecycle", bindBody},
	{http.MethodPost, "/v1/performance", "CreateReview", bindBody},
	{http.MethodGet, "/v1/performance", "ListReviews", bindReviewFilter},
	{http.MethodGet, "/v1/performance/{id}", "GetReview", bindBody},
	{http.MethodPut, "/v1/performance/{id}", "UpdateKPIs", bindBody},
	{http.MethodPost, "/v1/performance/{id}/self-assessment", "SubmitSelfAssessment", bindBody},
	{http.MethodPost, "/v1/performance/{id}/start-manager-review", "StartManagerReview", bindBody},
	{http.MethodPut, "/v1/performance/{id}/manager-review", "SubmitManagerReview", bindBody},
	{http.MethodPost, "/v1/performance/{id}/lock", "LockReview", bindBody},
}

// NewGateway builds the route table over conn.
func NewGateway(conn grpc.ClientConnInterface, logger *zap.Logger) (*Gateway, error) {
	marshaler := &runtime.JSONPb{
		UnmarshalOptions: protojson.UnmarshalOptions{DiscardUnknown: true},
	}
	g := &Gateway{
		mux:       runtime.NewServeMux(runtime.WithMarshalerOption(runtime.MIMEWildcard, marshaler)),
		conn:      conn,
		marshaler: marshaler,
		logger:    logger.Named("http_gateway"),
	}
	for _, rt := range gatewayRoutes {
		if err := g.mux.HandlePath(rt.method, rt.pattern, g.forward(rt)); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", rt.method, rt.pattern, err)
		}
	}
	if err := g.mux.HandlePath(http.MethodGet, "/v1/applications/export", g.export); err != nil {
		return nil, fmt.Errorf("register export: %w", err)
	}
	return g, nil
}

func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.mux.ServeHTTP(w, r)
}

// forward merges the path parameters into the bound request and relays the
// JSON reply of the gRPC method.
func (g *Gateway) forward(rt gatewayRoute) runtime.HandlerFunc {
	fullMethod := FullMethod(rt.rpc)
	return func(w http.ResponseWriter, r *http.Request, params map[string]string) {
		ctx, err := runtime.AnnotateContext(r.Context(), g.mux, r, fullMethod, runtime.WithHTTPPathPattern(rt.pattern))
		if err != nil {
			runtime.HTTPError(r.Context(), g.mux, g.marshaler, w, r, err)
			return
		}
		req, err := rt.bind(r)
		if err != nil {
			runtime.HTTPError(ctx, g.mux, g.marshaler, w, r, err)
			return
		}
		for k, v := range params {
			req[k] = v
		}

		var reply json.RawMessage
		if err := g.conn.Invoke(ctx, fullMethod, req, &reply, grpc.CallContentSubtype(codecName)); err != nil {
			g.logger.Debug("Call failed", zap.String("method", rt.rpc), zap.Error(err))
			runtime.HTTPError(ctx, g.mux, g.marshaler, w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write(reply); err != nil {
			g.logger.Warn("Failed to write response", zap.String("method", rt.rpc), zap.Error(err))
		}
	}
}

// export streams the CSV rendering of the filtered applications.
func (g *Gateway) export(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	fullMethod := FullMethod("ExportApplications")
	ctx, err := runtime.AnnotateContext(r.Context(), g.mux, r, fullMethod,
		runtime.WithHTTPPathPattern("/v1/applications/export"))
	if err != nil {
		runtime.HTTPError(r.Context(), g.mux, g.marshaler, w, r, err)
		return
	}
	req, err := bindApplicationFilter(r)
	if err != nil {
		runtime.HTTPError(ctx, g.mux, g.marshaler, w, r, err)
		return
	}
	body := &httpbody.HttpBody{}
	if err := g.conn.Invoke(ctx, fullMethod, req, body, grpc.CallContentSubtype(codecName)); err != nil {
		runtime.HTTPError(ctx, g.mux, g.marshaler, w, r, err)
		return
	}
	w.Header().Set("Content-Type", body.GetContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="applications.csv"`)
	if _, err := w.Write(body.GetData()); err != nil {
		g.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// bindBody decodes an optional JSON object body.
func bindBody(r *http.Request) (map[string]any, error) {
	req := map[string]any{}
	if r.Body == nil {
		return req, nil
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	err := dec.Decode(&req)
	switch {
	case errors.Is(err, io.EOF):
		return map[string]any{}, nil
	case err != nil:
		return nil, status.Errorf(codes.InvalidArgument, "invalid request body: %v", err)
	}
	return req, nil
}

func bindApplicationFilter(r *http.Request) (map[string]any, error) {
	q := r.URL.Query()
	req := map[string]any{}
	if statuses := q["status"]; len(statuses) > 0 {
		req["status"] = statuses
	}
	for _, key := range []string{"currentRound", "jobId", "search"} {
		if v := q.Get(key); v != "" {
			req[key] = v
		}
	}
	if v := q.Get("inTalentPool"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid inTalentPool %q", v)
		}
		req["inTalentPool"] = b
	}
	return req, nil
}

func bindReviewFilter(r *http.Request) (map[string]any, error) {
	q := r.URL.Query()
	req := map[string]any{}
	for _, key := range []string{"employeeId", "managerId", "status"} {
		if v := q.Get(key); v != "" {
			req[key] = v
		}
	}
	return req, nil
}
