package handler

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/fekuna/omnipos-sales-service/internal/auth"
	"github.com/fekuna/omnipos-sales-service/internal/catalog"
	catdto "github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/repository"
	"github.com/fekuna/omnipos-sales-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/memtx"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/middleware"
)

var (
	secret  = []byte("catalog-secret")
	admin   = auth.Session{ID: "office-1", OperatorID: "mgr-1", Role: auth.RoleAdmin}
	cashier = auth.Session{ID: "till-1", OperatorID: "op-1", Role: auth.RoleCashier, CanCommit: true}
)

func startServer(t *testing.T) (*grpc.ClientConn, catalog.UseCase) {
	t.Helper()
	log := logger.NewNop()
	uc := usecase.NewCatalogUseCase(repository.NewMemoryRepository(), memtx.NewUnitOfWork(), nil, "", log)
	tr, err := i18n.New("en")
	require.NoError(t, err)

	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.ContextInterceptor(secret)))
	RegisterCatalogServiceServer(srv, NewCatalogHandler(uc, tr, log))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn, uc
}

func authed(t *testing.T, sess auth.Session) context.Context {
	t.Helper()
	token, err := auth.IssueToken(secret, sess, time.Hour)
	require.NoError(t, err)
	return metadata.NewOutgoingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, in map[string]any) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(in)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, "/"+ServiceName+"/"+method, req, out)
	return out, err
}

func TestCatalogMaintenanceOverGRPC(t *testing.T) {
	conn, cat := startServer(t)
	ctx := authed(t, admin)

	res, err := call(ctx, conn, "CreateProduct", map[string]any{"description": "Rice"})
	require.NoError(t, err)
	productCode := res.Fields["code"].GetNumberValue()
	assert.Equal(t, 1.0, productCode)

	res, err = call(ctx, conn, "UpdateProductDescription", map[string]any{"product_code": productCode, "description": "Jasmine rice"})
	require.NoError(t, err)
	assert.Equal(t, "Jasmine rice", res.Fields["description"].GetStringValue())

	res, err = call(ctx, conn, "RegisterBatch", map[string]any{
		"code": "R-25KG", "product_code": productCode, "quantity": 25.5,
		"selling_price": 12, "buying_price": 9, "discount_eligible": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "R-25KG", res.Fields["code"].GetStringValue())
	assert.Equal(t, 25.5, res.Fields["quantity"].GetNumberValue())
	assert.True(t, res.Fields["discount_eligible"].GetBoolValue())
	assert.True(t, res.Fields["is_active"].GetBoolValue())

	// a committed order lowers the batch
	require.NoError(t, cat.DecrementStock(context.Background(), &catdto.DecrementStockInput{
		BatchCode: "R-25KG", Quantity: 1.5, ReferenceType: model.ReferenceTypeOrder, ReferenceID: "1",
	}))

	res, err = call(ctx, conn, "SearchBatches", map[string]any{"query": "jasmine", "active_only": true})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Fields["total"].GetNumberValue())
	batches := res.Fields["batches"].GetListValue().GetValues()
	require.Len(t, batches, 1)
	assert.Equal(t, 24.0, batches[0].GetStructValue().Fields["quantity"].GetNumberValue())

	res, err = call(ctx, conn, "ListMovements", map[string]any{"batch_code": "R-25KG"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, res.Fields["total"].GetNumberValue())

	res, err = call(ctx, conn, "ListMovements", map[string]any{"batch_code": "R-25KG", "movement_type": "SALE"})
	require.NoError(t, err)
	movements := res.Fields["movements"].GetListValue().GetValues()
	require.Len(t, movements, 1)
	sale := movements[0].GetStructValue().Fields
	assert.Equal(t, -1.5, sale["quantity_change"].GetNumberValue())
	assert.Equal(t, "1", sale["reference_id"].GetStringValue())

	res, err = call(ctx, conn, "DeactivateBatch", map[string]any{"batch_code": "R-25KG"})
	require.NoError(t, err)
	assert.False(t, res.Fields["is_active"].GetBoolValue())

	res, err = call(ctx, conn, "SearchBatches", map[string]any{"product_code": productCode, "active_only": true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Fields["total"].GetNumberValue())
	assert.Empty(t, res.Fields["batches"].GetListValue().GetValues())
}

func TestCashierMayLookUpButNotMaintain(t *testing.T) {
	conn, _ := startServer(t)
	res, err := call(authed(t, admin), conn, "CreateProduct", map[string]any{"description": "Oil"})
	require.NoError(t, err)
	_, err = call(authed(t, admin), conn, "RegisterBatch", map[string]any{"code": "OIL-1", "product_code": res.Fields["code"].GetNumberValue(), "quantity": 4, "selling_price": 30})
	require.NoError(t, err)

	ctx := authed(t, cashier)
	res, err = call(ctx, conn, "GetBatch", map[string]any{"batch_code": "OIL-1"})
	require.NoError(t, err)
	assert.Equal(t, 30.0, res.Fields["selling_price"].GetNumberValue())
	assert.Equal(t, "Oil", res.Fields["description"].GetStringValue())

	for method, in := range map[string]map[string]any{
		"CreateProduct":            {"description": "Salt"},
		"UpdateProductDescription": {"product_code": 1, "description": "Salt"},
		"RegisterBatch":            {"product_code": 1, "quantity": 1},
		"DeactivateBatch":          {"batch_code": "OIL-1"},
		"ListMovements":            {},
	} {
		_, err := call(ctx, conn, method, in)
		st, _ := status.FromError(err)
		assert.Equal(t, codes.PermissionDenied, st.Code(), method)
		assert.Equal(t, "You are not allowed to perform this action", st.Message(), method)
	}

	_, err = call(context.Background(), conn, "GetBatch", map[string]any{"batch_code": "OIL-1"})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestCatalogRequestErrors(t *testing.T) {
	conn, _ := startServer(t)
	ctx := authed(t, admin)

	_, err := call(ctx, conn, "CreateProduct", map[string]any{"description": "  "})
	st, _ := status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Equal(t, "Invalid input: description is required", st.Message())

	_, err = call(ctx, conn, "RegisterBatch", map[string]any{"product_code": 99, "quantity": 1})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(ctx, conn, "RegisterBatch", map[string]any{"product_code": 1e19, "quantity": 1})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(ctx, conn, "RegisterBatch", map[string]any{"product_code": 1, "quantity": 1, "barcode_image": "%%%"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(ctx, conn, "DeactivateBatch", map[string]any{"batch_code": "NOPE"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(ctx, conn, "GetBatch", map[string]any{"batch_code": "NOPE"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(ctx, conn, "ListMovements", map[string]any{"start_date": "last week"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
