package handlers

import (
	"context"
	"encoding/json"

	"github.com/gartstein/hrms/internal/hrms/auth"
	"github.com/gartstein/hrms/internal/hrms/controller"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "hrms.v1.WorkflowService"

const codecName = "json"

// jsonCodec carries the workflow messages as JSON, using protojson for the
// few well-known proto messages on the wire.
type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return codecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// FullMethod returns the gRPC method path of rpc.
func FullMethod(rpc string) string {
	return "/" + ServiceName + "/" + rpc
}

// MutatingMethods lists the methods that require an authenticated caller.
var MutatingMethods = []string{
	FullMethod("CreateApplication"),
	FullMethod("SetStatus"),
	FullMethod("SetCurrentRound"),
	FullMethod("ScheduleInterview"),
	FullMethod("UpdateInterview"),
	FullMethod("CompleteInterview"),
	FullMethod("GenerateOffer"),
	FullMethod("SendOffer"),
	FullMethod("SendOfferReminder"),
	FullMethod("DuplicateOffer"),
	FullMethod("RecordOfferResponse"),
	FullMethod("ConvertToEmployee"),
	FullMethod("UploadDocument"),
	FullMethod("VerifyDocument"),
	FullMethod("AppendStage"),
	FullMethod("CreateReview"),
	FullMethod("UpdateKPIs"),
	FullMethod("SubmitSelfAssessment"),
	FullMethod("StartManagerReview"),
	FullMethod("SubmitManagerReview"),
	FullMethod("LockReview"),
}

// unary adapts a typed handler method to a grpc.MethodDesc. The caller id
// from the token claims is handed to the services as the audit actor.
func unary[Req, Resp any](name string, call func(*WorkflowHandler, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			h := srv.(*WorkflowHandler)
			invoke := func(ctx context.Context, req any) (any, error) {
				ctx = controller.WithActor(ctx, auth.Subject(ctx))
				return call(h, ctx, req.(*Req))
			}
			if interceptor == nil {
				return invoke(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, invoke)
		},
	}
}

// WorkflowServiceDesc describes hrms.v1.WorkflowService for grpc.Server.
var WorkflowServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WorkflowServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateApplication", (*WorkflowHandler).CreateApplication),
		unary("GetApplication", (*WorkflowHandler).GetApplication),
		unary("ListApplications", (*WorkflowHandler).ListApplications),
		unary("ExportApplications", (*WorkflowHandler).ExportApplications),
		unary("ExpiringOffers", (*WorkflowHandler).ExpiringOffers),
		unary("SetStatus", (*WorkflowHandler).SetStatus),
		unary("SetCurrentRound", (*WorkflowHandler).SetCurrentRound),
		unary("ScheduleInterview", (*WorkflowHandler).ScheduleInterview),
		unary("UpdateInterview", (*WorkflowHandler).UpdateInterview),
		unary("CompleteInterview", (*WorkflowHandler).CompleteInterview),
		unary("GenerateOffer", (*WorkflowHandler).GenerateOffer),
		unary("SendOffer", (*WorkflowHandler).SendOffer),
		unary("SendOfferReminder", (*WorkflowHandler).SendOfferReminder),
		unary("DuplicateOffer", (*WorkflowHandler).DuplicateOffer),
		unary("RecordOfferResponse", (*WorkflowHandler).RecordOfferResponse),
		unary("ConvertToEmployee", (*WorkflowHandler).ConvertToEmployee),
		unary("GetChecklist", (*WorkflowHandler).GetChecklist),
		unary("UploadDocument", (*WorkflowHandler).UploadDocument),
		unary("VerifyDocument", (*WorkflowHandler).VerifyDocument),
		unary("AppendStage", (*WorkflowHandler).AppendStage),
		unary("GetLifecycle", (*WorkflowHandler).GetLifecycle),
		unary("ListLifecycles", (*WorkflowHandler).ListLifecycles),
		unary("CreateReview", (*WorkflowHandler).CreateReview),
		unary("GetReview", (*WorkflowHandler).GetReview),
		unary("ListReviews", (*WorkflowHandler).ListReviews),
		unary("UpdateKPIs", (*WorkflowHandler).UpdateKPIs),
		unary("SubmitSelfAssessment", (*WorkflowHandler).SubmitSelfAssessment),
		unary("StartManagerReview", (*WorkflowHandler).StartManagerReview),
		unary("SubmitManagerReview", (*WorkflowHandler).SubmitManagerReview),
		unary("LockReview", (*WorkflowHandler).LockReview),
	},
	Streams: []grpc.StreamDesc{},
}
