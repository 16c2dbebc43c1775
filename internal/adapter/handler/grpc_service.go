package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	DashboardServiceName = "garage.v1.DashboardService"
	MetadataUserEmail    = "x-user-email"
)

// DashboardServer is the server side of garage.v1.DashboardService. Requests
// and replies are google.protobuf.Struct messages.
type DashboardServer interface {
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCriticalStock(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrderEarnings(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type structMethod func(DashboardServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func structHandler(name string, call structMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DashboardServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + DashboardServiceName + "/" + name}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(DashboardServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var dashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: DashboardServiceName,
	HandlerType: (*DashboardServer)(nil),
	Methods: []grpc.MethodDesc{
		structHandler("GetSummary", DashboardServer.GetSummary),
		structHandler("ListCriticalStock", DashboardServer.ListCriticalStock),
		structHandler("GetOrderEarnings", DashboardServer.GetOrderEarnings),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "garage/v1/dashboard.proto",
}

func RegisterDashboardServer(s grpc.ServiceRegistrar, srv DashboardServer) {
	s.RegisterService(&dashboardServiceDesc, srv)
}

type DashboardClient struct {
	cc grpc.ClientConnInterface
}

func NewDashboardClient(cc grpc.ClientConnInterface) *DashboardClient {
	return &DashboardClient{cc: cc}
}

func (c *DashboardClient) GetSummary(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetSummary", in, opts)
}

func (c *DashboardClient) ListCriticalStock(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ListCriticalStock", in, opts)
}

func (c *DashboardClient) GetOrderEarnings(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetOrderEarnings", in, opts)
}

func (c *DashboardClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+DashboardServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
