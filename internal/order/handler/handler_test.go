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
	"github.com/fekuna/omnipos-sales-service/internal/cart"
	catdto "github.com/fekuna/omnipos-sales-service/internal/catalog/dto"
	catrepo "github.com/fekuna/omnipos-sales-service/internal/catalog/repository"
	catuc "github.com/fekuna/omnipos-sales-service/internal/catalog/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/order/repository"
	"github.com/fekuna/omnipos-sales-service/internal/order/usecase"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/memtx"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/middleware"
)

var secret = []byte("handler-secret")

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	ctx := context.Background()
	log := logger.NewNop()

	uow := memtx.NewUnitOfWork()
	cat := catuc.NewCatalogUseCase(catrepo.NewMemoryRepository(), uow, nil, "", log)
	p, err := cat.CreateProduct(ctx, &catdto.CreateProductInput{Description: "Rice"})
	require.NoError(t, err)
	_, err = cat.RegisterBatch(ctx, &catdto.RegisterBatchInput{Code: "B", ProductCode: p.Code, Quantity: 10, SellingPrice: 100})
	require.NoError(t, err)

	orders := usecase.NewOrderUseCase(usecase.Deps{
		Repo:   repository.NewMemoryRepository(),
		UoW:    uow,
		Stock:  cat,
		Logger: log,
	})
	tr, err := i18n.New("en")
	require.NoError(t, err)

	srv := grpc.NewServer(grpc.UnaryInterceptor(middleware.ContextInterceptor(secret)))
	RegisterSalesServiceServer(srv, NewSalesHandler(cart.NewRegistry(cat), cat, orders, tr, log))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func authed(t *testing.T, sess auth.Session, lang string) context.Context {
	t.Helper()
	token, err := auth.IssueToken(secret, sess, time.Hour)
	require.NoError(t, err)
	md := metadata.Pairs("authorization", "Bearer "+token)
	if lang != "" {
		md.Append("accept-language", lang)
	}
	return metadata.NewOutgoingContext(context.Background(), md)
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

var cashier = auth.Session{ID: "till-1", OperatorID: "op-1", Role: auth.RoleCashier, CanCommit: true}

func TestSalesFlowOverGRPC(t *testing.T) {
	conn := startServer(t)
	ctx := authed(t, cashier, "")

	res, err := call(ctx, conn, "AddLine", map[string]any{"batch_code": "B", "quantity": 2.5})
	require.NoError(t, err)
	assert.InDelta(t, 250.0, res.Fields["total"].GetNumberValue(), 1e-9)
	assert.Equal(t, "250.00", res.Fields["total_display"].GetStringValue())
	require.Len(t, res.Fields["lines"].GetListValue().GetValues(), 1)

	res, err = call(ctx, conn, "CommitOrder", map[string]any{"payment_method": "cash", "customer_paid": 250})
	require.NoError(t, err)
	orderID := res.Fields["order_id"].GetNumberValue()
	assert.Equal(t, 1.0, orderID)
	assert.Equal(t, "Order 1 saved. Balance 0.00", res.Fields["message"].GetStringValue())

	res, err = call(ctx, conn, "GetCart", nil)
	require.NoError(t, err)
	assert.Zero(t, res.Fields["total"].GetNumberValue())

	res, err = call(ctx, conn, "GetOrder", map[string]any{"order_id": orderID})
	require.NoError(t, err)
	o := res.Fields["order"].GetStructValue()
	assert.Equal(t, "PAID", o.Fields["payment_status"].GetStringValue())

	res, err = call(ctx, conn, "CompletePayment", map[string]any{"order_id": orderID})
	require.NoError(t, err)
	assert.False(t, res.Fields["completed"].GetBoolValue())
	assert.Equal(t, "Order 1 is not awaiting payment. No change was made.", res.Fields["message"].GetStringValue())
}

func TestAddLineInsufficientStockStatus(t *testing.T) {
	conn := startServer(t)

	_, err := call(authed(t, cashier, ""), conn, "AddLine", map[string]any{"batch_code": "B", "quantity": 12})
	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.FailedPrecondition, st.Code())
	assert.Equal(t, "Not enough stock for batch B: requested 12.00, available 10.00", st.Message())

	_, err = call(authed(t, cashier, "id"), conn, "AddLine", map[string]any{"batch_code": "B", "quantity": -1})
	st, _ = status.FromError(err)
	assert.Equal(t, codes.InvalidArgument, st.Code())
	assert.Contains(t, st.Message(), "Input tidak valid")
}

func TestCommitDeniedWithoutGate(t *testing.T) {
	conn := startServer(t)
	denied := cashier
	denied.CanCommit = false
	ctx := authed(t, denied, "")

	_, err := call(ctx, conn, "AddLine", map[string]any{"batch_code": "B", "quantity": 1})
	require.NoError(t, err)

	_, err = call(ctx, conn, "CommitOrder", map[string]any{"customer_paid": 100})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestCreditOrderCompletion(t *testing.T) {
	conn := startServer(t)
	ctx := authed(t, cashier, "")

	_, err := call(ctx, conn, "AddLine", map[string]any{"batch_code": "B", "quantity": 1, "unit_price": 90, "discount": 5})
	require.NoError(t, err)

	res, err := call(ctx, conn, "CommitOrder", map[string]any{"payment_method": "CREDIT", "customer_name": "Ana"})
	require.NoError(t, err)
	orderID := res.Fields["order_id"].GetNumberValue()
	assert.InDelta(t, -85.0, res.Fields["balance"].GetNumberValue(), 1e-9)
	assert.InDelta(t, 85.0, res.Fields["total_cost"].GetNumberValue(), 1e-9)
	assert.Equal(t, "PENDING", res.Fields["payment_status"].GetStringValue())
	assert.Equal(t, "Order 1 saved. Balance -85.00", res.Fields["message"].GetStringValue())

	res, err = call(ctx, conn, "ListOrders", map[string]any{"payment_status": "pending"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Fields["total"].GetNumberValue())

	res, err = call(ctx, conn, "CompletePayment", map[string]any{"order_id": orderID})
	require.NoError(t, err)
	assert.True(t, res.Fields["completed"].GetBoolValue())
	assert.Equal(t, "Payment for order 1 recorded", res.Fields["message"].GetStringValue())
}

func TestRequestErrors(t *testing.T) {
	conn := startServer(t)

	_, err := call(context.Background(), conn, "GetCart", nil)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	ctx := authed(t, cashier, "")
	_, err = call(ctx, conn, "GetOrder", map[string]any{"order_id": 42})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(ctx, conn, "GetOrder", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(ctx, conn, "GetOrder", map[string]any{"order_id": 1e19})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = call(ctx, conn, "ListOrders", map[string]any{"start_date": "yesterday"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDiscardCart(t *testing.T) {
	conn := startServer(t)
	ctx := authed(t, cashier, "")

	_, err := call(ctx, conn, "AddLine", map[string]any{"batch_code": "B", "quantity": 1})
	require.NoError(t, err)

	res, err := call(ctx, conn, "DiscardCart", nil)
	require.NoError(t, err)
	assert.Empty(t, res.Fields["lines"].GetListValue().GetValues())
}
