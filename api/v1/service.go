package apiv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "scriptrunner.v1.ScriptRunnerService"

const (
	ScriptRunnerService_Run_FullMethodName             = "/" + serviceName + "/Run"
	ScriptRunnerService_Cancel_FullMethodName          = "/" + serviceName + "/Cancel"
	ScriptRunnerService_Status_FullMethodName          = "/" + serviceName + "/Status"
	ScriptRunnerService_List_FullMethodName            = "/" + serviceName + "/List"
	ScriptRunnerService_GetOutput_FullMethodName       = "/" + serviceName + "/GetOutput"
	ScriptRunnerService_Continue_FullMethodName        = "/" + serviceName + "/Continue"
	ScriptRunnerService_EnableSchedule_FullMethodName  = "/" + serviceName + "/EnableSchedule"
	ScriptRunnerService_DisableSchedule_FullMethodName = "/" + serviceName + "/DisableSchedule"
	ScriptRunnerService_GetSchedule_FullMethodName     = "/" + serviceName + "/GetSchedule"
)

// ScriptRunnerServiceClient is the client API for ScriptRunnerService.
type ScriptRunnerServiceClient interface {
	Run(ctx context.Context, in *RunRequest, opts ...grpc.CallOption) (*RunResponse, error)
	Cancel(ctx context.Context, in *CancelRequest, opts ...grpc.CallOption) (*CancelResponse, error)
	Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
	List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error)
	GetOutput(ctx context.Context, in *GetOutputRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[GetOutputResponse], error)
	Continue(ctx context.Context, in *ContinueRequest, opts ...grpc.CallOption) (*ContinueResponse, error)
	EnableSchedule(ctx context.Context, in *EnableScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error)
	DisableSchedule(ctx context.Context, in *DisableScheduleRequest, opts ...grpc.CallOption) (*DisableScheduleResponse, error)
	GetSchedule(ctx context.Context, in *GetScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error)
}

type scriptRunnerServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewScriptRunnerServiceClient(cc grpc.ClientConnInterface) ScriptRunnerServiceClient {
	return &scriptRunnerServiceClient{cc}
}

func callOptions(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.StaticMethod(), grpc.CallContentSubtype(CodecName)}, opts...)
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	if err := cc.Invoke(ctx, method, in, out, callOptions(opts)...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *scriptRunnerServiceClient) Run(ctx context.Context, in *RunRequest, opts ...grpc.CallOption) (*RunResponse, error) {
	return invoke[RunResponse](ctx, c.cc, ScriptRunnerService_Run_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) Cancel(ctx context.Context, in *CancelRequest, opts ...grpc.CallOption) (*CancelResponse, error) {
	return invoke[CancelResponse](ctx, c.cc, ScriptRunnerService_Cancel_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	return invoke[StatusResponse](ctx, c.cc, ScriptRunnerService_Status_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) List(ctx context.Context, in *ListRequest, opts ...grpc.CallOption) (*ListResponse, error) {
	return invoke[ListResponse](ctx, c.cc, ScriptRunnerService_List_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) GetOutput(ctx context.Context, in *GetOutputRequest, opts ...grpc.CallOption) (grpc.ServerStreamingClient[GetOutputResponse], error) {
	stream, err := c.cc.NewStream(ctx, &ScriptRunnerService_ServiceDesc.Streams[0], ScriptRunnerService_GetOutput_FullMethodName, callOptions(opts)...)
	if err != nil {
		return nil, err
	}
	x := &grpc.GenericClientStream[GetOutputRequest, GetOutputResponse]{ClientStream: stream}
	if err := x.ClientStream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := x.ClientStream.CloseSend(); err != nil {
		return nil, err
	}
	return x, nil
}

func (c *scriptRunnerServiceClient) Continue(ctx context.Context, in *ContinueRequest, opts ...grpc.CallOption) (*ContinueResponse, error) {
	return invoke[ContinueResponse](ctx, c.cc, ScriptRunnerService_Continue_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) EnableSchedule(ctx context.Context, in *EnableScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error) {
	return invoke[ScheduleResponse](ctx, c.cc, ScriptRunnerService_EnableSchedule_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) DisableSchedule(ctx context.Context, in *DisableScheduleRequest, opts ...grpc.CallOption) (*DisableScheduleResponse, error) {
	return invoke[DisableScheduleResponse](ctx, c.cc, ScriptRunnerService_DisableSchedule_FullMethodName, in, opts)
}

func (c *scriptRunnerServiceClient) GetSchedule(ctx context.Context, in *GetScheduleRequest, opts ...grpc.CallOption) (*ScheduleResponse, error) {
	return invoke[ScheduleResponse](ctx, c.cc, ScriptRunnerService_GetSchedule_FullMethodName, in, opts)
}

// ScriptRunnerServiceServer is the server API for ScriptRunnerService.
// Implementations must embed UnimplementedScriptRunnerServiceServer.
type ScriptRunnerServiceServer interface {
	Run(context.Context, *RunRequest) (*RunResponse, error)
	Cancel(context.Context, *CancelRequest) (*CancelResponse, error)
	Status(context.Context, *StatusRequest) (*StatusResponse, error)
	List(context.Context, *ListRequest) (*ListResponse, error)
	GetOutput(*GetOutputRequest, grpc.ServerStreamingServer[GetOutputResponse]) error
	Continue(context.Context, *ContinueRequest) (*ContinueResponse, error)
	EnableSchedule(context.Context, *EnableScheduleRequest) (*ScheduleResponse, error)
	DisableSchedule(context.Context, *DisableScheduleRequest) (*DisableScheduleResponse, error)
	GetSchedule(context.Context, *GetScheduleRequest) (*ScheduleResponse, error)
	mustEmbedUnimplementedScriptRunnerServiceServer()
}

// UnimplementedScriptRunnerServiceServer returns Unimplemented for every method.
type UnimplementedScriptRunnerServiceServer struct{}

func (UnimplementedScriptRunnerServiceServer) Run(context.Context, *RunRequest) (*RunResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Run not implemented")
}
func (UnimplementedScriptRunnerServiceServer) Cancel(context.Context, *CancelRequest) (*CancelResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Cancel not implemented")
}
func (UnimplementedScriptRunnerServiceServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Status not implemented")
}
func (UnimplementedScriptRunnerServiceServer) List(context.Context, *ListRequest) (*ListResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method List not implemented")
}
func (UnimplementedScriptRunnerServiceServer) GetOutput(*GetOutputRequest, grpc.ServerStreamingServer[GetOutputResponse]) error {
	return status.Error(codes.Unimplemented, "method GetOutput not implemented")
}
func (UnimplementedScriptRunnerServiceServer) Continue(context.Context, *ContinueRequest) (*ContinueResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Continue not implemented")
}
func (UnimplementedScriptRunnerServiceServer) EnableSchedule(context.Context, *EnableScheduleRequest) (*ScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method EnableSchedule not implemented")
}
func (UnimplementedScriptRunnerServiceServer) DisableSchedule(context.Context, *DisableScheduleRequest) (*DisableScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method DisableSchedule not implemented")
}
func (UnimplementedScriptRunnerServiceServer) GetSchedule(context.Context, *GetScheduleRequest) (*ScheduleResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetSchedule not implemented")
}
func (UnimplementedScriptRunnerServiceServer) mustEmbedUnimplementedScriptRunnerServiceServer() {}

func RegisterScriptRunnerServiceServer(s grpc.ServiceRegistrar, srv ScriptRunnerServiceServer) {
	s.RegisterService(&ScriptRunnerService_ServiceDesc, srv)
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req any, Resp any](fullMethod string, call func(ScriptRunnerServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScriptRunnerServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScriptRunnerServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func getOutputHandler(srv any, stream grpc.ServerStream) error {
	m := new(GetOutputRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(ScriptRunnerServiceServer).GetOutput(m, &grpc.GenericServerStream[GetOutputRequest, GetOutputResponse]{ServerStream: stream})
}

var ScriptRunnerService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ScriptRunnerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: unaryHandler(ScriptRunnerService_Run_FullMethodName, ScriptRunnerServiceServer.Run)},
		{MethodName: "Cancel", Handler: unaryHandler(ScriptRunnerService_Cancel_FullMethodName, ScriptRunnerServiceServer.Cancel)},
		{MethodName: "Status", Handler: unaryHandler(ScriptRunnerService_Status_FullMethodName, ScriptRunnerServiceServer.Status)},
		{MethodName: "List", Handler: unaryHandler(ScriptRunnerService_List_FullMethodName, ScriptRunnerServiceServer.List)},
		{MethodName: "Continue", Handler: unaryHandler(ScriptRunnerService_Continue_FullMethodName, ScriptRunnerServiceServer.Continue)},
		{MethodName: "EnableSchedule", Handler: unaryHandler(ScriptRunnerService_EnableSchedule_FullMethodName, ScriptRunnerServiceServer.EnableSchedule)},
		{MethodName: "DisableSchedule", Handler: unaryHandler(ScriptRunnerService_DisableSchedule_FullMethodName, ScriptRunnerServiceServer.DisableSchedule)},
		{MethodName: "GetSchedule", Handler: unaryHandler(ScriptRunnerService_GetSchedule_FullMethodName, ScriptRunnerServiceServer.GetSchedule)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "GetOutput",
			Handler:       getOutputHandler,
			ServerStreams: true,
		},
	},
	Metadata: "api/v1/service.go",
}
