package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.sales.v1.SalesService"

// SalesServiceServer is the sales API. Requests and responses are
// google.protobuf.Struct documents; field names are listed on each method of
// SalesHandler.
type SalesServiceServer interface {
	AddLine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveLine(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DiscardCart(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CommitOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CompletePayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetOrder(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListOrders(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(SalesServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SalesServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(SalesServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var SalesServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SalesServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AddLine", SalesServiceServer.AddLine),
		unary("RemoveLine", SalesServiceServer.RemoveLine),
		unary("GetCart", SalesServiceServer.GetCart),
		unary("DiscardCart", SalesServiceServer.DiscardCart),
		unary("CommitOrder", SalesServiceServer.CommitOrder),
		unary("CompletePayment", SalesServiceServer.CompletePayment),
		unary("GetOrder", SalesServiceServer.GetOrder),
		unary("ListOrders", SalesServiceServer.ListOrders),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/sales/v1/sales.proto",
}

func RegisterSalesServiceServer(s grpc.ServiceRegistrar, srv SalesServiceServer) {
	s.RegisterService(&SalesServiceDesc, srv)
}
