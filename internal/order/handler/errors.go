package handler

import (
	"context"
	"errors"
	"maps"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/format"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
)

var kindCodes = map[apperror.Kind]codes.Code{
	apperror.KindValidation:        codes.InvalidArgument,
	apperror.KindInsufficientStock: codes.FailedPrecondition,
	apperror.KindPaymentState:      codes.FailedPrecondition,
	apperror.KindNotFound:          codes.NotFound,
	apperror.KindNotAuthorized:     codes.PermissionDenied,
	apperror.KindBusy:              codes.Aborted,
	apperror.KindCommitFailure:     codes.Internal,
}

// toStatus maps a use case error to a gRPC status carrying a localized
// message. Unclassified errors are logged and hidden from the caller.
func (h *SalesHandler) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	lang := i18n.LanguageFrom(ctx)
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("unhandled sales error", zap.Error(err))
		return status.Error(codes.Internal, h.tr.Localize(apperror.MessageID(apperror.KindUnknown), nil, lang))
	}

	code, ok := kindCodes[appErr.Kind]
	if !ok {
		code = codes.Internal
	}
	if code == codes.Internal {
		h.logger.Error("sales operation failed", zap.String("op", appErr.Op), zap.Error(err))
	}

	tag := displayTag(lang)
	data := maps.Clone(appErr.Details)
	for _, key := range []string{"Requested", "Available"} {
		if v, ok := data[key].(float64); ok {
			data[key] = format.AmountFor(tag, v)
		}
	}
	return status.Error(code, h.tr.Localize(apperror.MessageID(appErr.Kind), data, lang))
}
