package handler

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/fekuna/omnipos-sales-service/internal/apperror"
	"github.com/fekuna/omnipos-sales-service/internal/pkg/i18n"
)

var kindCodes = map[apperror.Kind]codes.Code{
	apperror.KindValidation:        codes.InvalidArgument,
	apperror.KindInsufficientStock: codes.FailedPrecondition,
	apperror.KindNotFound:          codes.NotFound,
	apperror.KindNotAuthorized:     codes.PermissionDenied,
}

func (h *CatalogHandler) toStatus(ctx context.Context, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	lang := i18n.LanguageFrom(ctx)
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		h.logger.Error("unhandled catalog error", zap.Error(err))
		return status.Error(codes.Internal, h.tr.Localize(apperror.MessageID(apperror.KindUnknown), nil, lang))
	}

	code, ok := kindCodes[appErr.Kind]
	if !ok {
		code = codes.Internal
		h.logger.Error("catalog operation failed", zap.String("op", appErr.Op), zap.Error(err))
	}
	return status.Error(code, h.tr.Localize(apperror.MessageID(appErr.Kind), appErr.Details, lang))
}
