package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.sales.v1.CatalogService"

// CatalogServiceServer maintains products, batches and the stock ledger.
// Payloads are google.protobuf.Struct documents like the sales API.
type CatalogServiceServer interface {
	CreateProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateProductDescription(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeactivateBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBatch(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchBatches(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMovements(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryFunc func(CatalogServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryFunc) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CatalogServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CatalogServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CatalogServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("CreateProduct", CatalogServiceServer.CreateProduct),
		unary("UpdateProductDescription", CatalogServiceServer.UpdateProductDescription),
		unary("RegisterBatch", CatalogServiceServer.RegisterBatch),
		unary("DeactivateBatch", CatalogServiceServer.DeactivateBatch),
		unary("GetBatch", CatalogServiceServer.GetBatch),
		unary("SearchBatches", CatalogServiceServer.SearchBatches),
		unary("ListMovements", CatalogServiceServer.ListMovements),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/sales/v1/catalog.proto",
}

func RegisterCatalogServiceServer(s grpc.ServiceRegistrar, srv CatalogServiceServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}
