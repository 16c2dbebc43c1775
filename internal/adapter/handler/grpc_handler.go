package handler

import (
	"context"
	"path"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/rl1809/garage-ledger/internal/core/domain"
	"github.com/rl1809/garage-ledger/internal/core/ledger"
	"github.com/rl1809/garage-ledger/internal/core/service"
	"github.com/rl1809/garage-ledger/internal/metrics"
)

var _ DashboardServer = (*GRPCHandler)(nil)

type GRPCHandler struct {
	dashboard *service.DashboardService
}

func NewGRPCHandler(dashboard *service.DashboardService) *GRPCHandler {
	return &GRPCHandler{dashboard: dashboard}
}

func (h *GRPCHandler) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	period, err := periodFromStruct(req)
	if err != nil {
		return nil, grpcError(err)
	}
	caller, _ := domain.SessionFrom(ctx)
	report, err := h.dashboard.Summary(ctx, caller, period)
	if err != nil {
		return nil, grpcError(err)
	}

	s := report.Summary
	statuses := make(map[string]any, len(report.Statuses))
	for k, v := range report.Statuses {
		statuses[k] = v
	}
	return reply(map[string]any{
		"gross_revenue":    s.GrossRevenue.String(),
		"parts_cost":       s.PartsCost.String(),
		"total_commission": s.TotalCommission.String(),
		"net_profit":       s.NetProfit.String(),
		"order_count":      s.OrderCount,
		"statuses":         statuses,
		"generated_at":     report.GeneratedAt.Format(time.RFC3339),
	})
}

func (h *GRPCHandler) ListCriticalStock(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	report, err := h.dashboard.CriticalStock(ctx)
	if err != nil {
		return nil, grpcError(err)
	}

	items := make([]any, 0, len(report.Items))
	for _, item := range report.Items {
		items = append(items, map[string]any{
			"id":               item.ID,
			"name":             item.Name,
			"quantity":         item.Quantity,
			"minimum_quantity": item.MinimumQuantity,
			"reorder_quantity": ledger.ReorderQuantity(item),
		})
	}
	return reply(map[string]any{
		"items":        items,
		"stock_value":  report.StockValue.String(),
		"generated_at": report.GeneratedAt.Format(time.RFC3339),
	})
}

func (h *GRPCHandler) GetOrderEarnings(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["id"].GetStringValue()
	if id == "" {
		return nil, grpcError(domain.Invalid("id", "is required"))
	}
	caller, _ := domain.SessionFrom(ctx)
	split, err := h.dashboard.OrderEarnings(ctx, caller, id)
	if err != nil {
		return nil, grpcError(err)
	}
	return reply(map[string]any{
		"total_value":    split.Total.String(),
		"mechanic_share": split.MechanicShare.String(),
		"company_share":  split.CompanyShare.String(),
	})
}

// AuthInterceptor resolves the x-user-email metadata into a session.
func AuthInterceptor(users *service.UserService) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var email string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get(MetadataUserEmail); len(v) > 0 {
				email = v[0]
			}
		}
		session, err := users.Resolve(ctx, email)
		if err != nil {
			return nil, grpcError(err)
		}
		return handler(domain.WithSession(ctx, session), req)
	}
}

// LoggingInterceptor logs each call and counts it by method and status code.
func LoggingInterceptor(log *zap.Logger, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		method := path.Base(info.FullMethod)
		m.ObserveGRPC(method, code.String())

		fields := []zap.Field{
			zap.String("method", method),
			zap.String("code", code.String()),
			zap.Duration("elapsed", time.Since(start)),
		}
		if code == codes.Internal || code == codes.Unknown {
			log.Error("rpc failed", append(fields, zap.Error(err))...)
		} else {
			log.Debug("rpc served", fields...)
		}
		return resp, err
	}
}

func periodFromStruct(req *structpb.Struct) (service.Period, error) {
	fields := req.GetFields()
	return service.PeriodFromDates(fields["from"].GetStringValue(), fields["to"].GetStringValue())
}

func reply(fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "encode reply")
	}
	return out, nil
}
