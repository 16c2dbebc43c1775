package handler

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/garage-ledger/internal/core/domain"
)

type errorMapping struct {
	target  error
	status  int
	code    codes.Code
	message string
}

var errorMappings = []errorMapping{
	{domain.ErrValidation, http.StatusBadRequest, codes.InvalidArgument, "invalid request"},
	{domain.ErrUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated, "unknown caller"},
	{domain.ErrForbidden, http.StatusForbidden, codes.PermissionDenied, "forbidden"},
	{domain.ErrNotFound, http.StatusNotFound, codes.NotFound, "not found"},
	{domain.ErrDuplicateKey, http.StatusConflict, codes.AlreadyExists, "already exists"},
	{domain.ErrDuplicateRequest, http.StatusConflict, codes.AlreadyExists, "duplicate request"},
	{domain.ErrInsufficientStock, http.StatusUnprocessableEntity, codes.FailedPrecondition, "insufficient stock"},
}

func classify(err error) errorMapping {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return errorMapping{status: http.StatusInternalServerError, code: codes.Internal, message: "internal error"}
}

func newErrorResponse(err error) (int, errorResponse) {
	m := classify(err)
	resp := errorResponse{Success: false, Message: m.message}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		resp.Message = ve.Field + " " + ve.Reason
		resp.Field = ve.Field
	}
	return m.status, resp
}

func grpcError(err error) error {
	m := classify(err)
	if m.code == codes.Internal {
		return status.Error(codes.Internal, m.message)
	}
	return status.Error(m.code, err.Error())
}
