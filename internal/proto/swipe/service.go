package swipepb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "muzz.swipe.v1.SwipeBackend"

const (
	FetchCandidatesMethod = "/" + ServiceName + "/FetchCandidates"
	RecordDecisionMethod  = "/" + ServiceName + "/RecordDecision"
	GetAccountMethod      = "/" + ServiceName + "/GetAccount"
)

// SwipeBackendServer is the server API for the SwipeBackend service.
type SwipeBackendServer interface {
	FetchCandidates(context.Context, *FetchCandidatesRequest) (*FetchCandidatesResponse, error)
	RecordDecision(context.Context, *RecordDecisionRequest) (*RecordDecisionResponse, error)
	GetAccount(context.Context, *GetAccountRequest) (*Account, error)
}

// UnimplementedSwipeBackendServer can be embedded to have forward compatible implementations.
type UnimplementedSwipeBackendServer struct{}

func (UnimplementedSwipeBackendServer) FetchCandidates(context.Context, *FetchCandidatesRequest) (*FetchCandidatesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method FetchCandidates not implemented")
}

func (UnimplementedSwipeBackendServer) RecordDecision(context.Context, *RecordDecisionRequest) (*RecordDecisionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RecordDecision not implemented")
}

func (UnimplementedSwipeBackendServer) GetAccount(context.Context, *GetAccountRequest) (*Account, error) {
	return nil, status.Error(codes.Unimplemented, "method GetAccount not implemented")
}

var SwipeBackend_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SwipeBackendServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "FetchCandidates",
			Handler: unary(FetchCandidatesMethod, func(s SwipeBackendServer, ctx context.Context, req *FetchCandidatesRequest) (*FetchCandidatesResponse, error) {
				return s.FetchCandidates(ctx, req)
			}),
		},
		{
			MethodName: "RecordDecision",
			Handler: unary(RecordDecisionMethod, func(s SwipeBackendServer, ctx context.Context, req *RecordDecisionRequest) (*RecordDecisionResponse, error) {
				return s.RecordDecision(ctx, req)
			}),
		},
		{
			MethodName: "GetAccount",
			Handler: unary(GetAccountMethod, func(s SwipeBackendServer, ctx context.Context, req *GetAccountRequest) (*Account, error) {
				return s.GetAccount(ctx, req)
			}),
		},
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterSwipeBackendServer(s grpc.ServiceRegistrar, srv SwipeBackendServer) {
	s.RegisterService(&SwipeBackend_ServiceDesc, srv)
}

// unary adapts a typed method to grpc's handler signature. Interceptors see
// the typed request; the reply is encoded back into a Struct.
func unary[Req any, PReq interface {
	*Req
	message
}, Resp message](
	fullMethod string,
	call func(SwipeBackendServer, context.Context, PReq) (Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		req := PReq(new(Req))
		if err := req.fromStruct(in); err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		handle := func(ctx context.Context, r any) (any, error) {
			resp, err := call(srv.(SwipeBackendServer), ctx, r.(PReq))
			if err != nil {
				return nil, err
			}
			out, err := resp.toStruct()
			if err != nil {
				return nil, status.Error(codes.Internal, err.Error())
			}
			return out, nil
		}
		if interceptor == nil {
			return handle(ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, req, info, handle)
	}
}

// SwipeBackendClient is the client API for the SwipeBackend service.
type SwipeBackendClient interface {
	FetchCandidates(ctx context.Context, in *FetchCandidatesRequest, opts ...grpc.CallOption) (*FetchCandidatesResponse, error)
	RecordDecision(ctx context.Context, in *RecordDecisionRequest, opts ...grpc.CallOption) (*RecordDecisionResponse, error)
	GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*Account, error)
}

type swipeBackendClient struct {
	cc grpc.ClientConnInterface
}

func NewSwipeBackendClient(cc grpc.ClientConnInterface) SwipeBackendClient {
	return &swipeBackendClient{cc: cc}
}

func (c *swipeBackendClient) FetchCandidates(ctx context.Context, in *FetchCandidatesRequest, opts ...grpc.CallOption) (*FetchCandidatesResponse, error) {
	return invoke[FetchCandidatesResponse](ctx, c.cc, FetchCandidatesMethod, in, opts...)
}

func (c *swipeBackendClient) RecordDecision(ctx context.Context, in *RecordDecisionRequest, opts ...grpc.CallOption) (*RecordDecisionResponse, error) {
	return invoke[RecordDecisionResponse](ctx, c.cc, RecordDecisionMethod, in, opts...)
}

func (c *swipeBackendClient) GetAccount(ctx context.Context, in *GetAccountRequest, opts ...grpc.CallOption) (*Account, error) {
	return invoke[Account](ctx, c.cc, GetAccountMethod, in, opts...)
}

func invoke[Resp any, PResp interface {
	*Resp
	message
}](ctx context.Context, cc grpc.ClientConnInterface, method string, in message, opts ...grpc.CallOption) (PResp, error) {
	req, err := in.toStruct()
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	reply := new(structpb.Struct)
	if err := cc.Invoke(ctx, method, req, reply, opts...); err != nil {
		return nil, err
	}
	out := PResp(new(Resp))
	if err := out.fromStruct(reply); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
