package handlers

import (
	"errors"
	"fmt"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s", field)
	}
	return id, nil
}

func parseRoundIDs(appID, roundID string) (uuid.UUID, uuid.UUID, error) {
	id, err := parseID("id", appID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	round, err := parseID("roundId", roundID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return id, round, nil
}

// applicationFilter converts the request filter, rejecting unknown
// statuses and rounds.
func applicationFilter(req *ApplicationFilterRequest) (models.ApplicationFilter, error) {
	filter := models.ApplicationFilter{
		CurrentRound: models.RoundType(req.CurrentRound),
		JobRef:       req.JobID,
		InTalentPool: req.InTalentPool,
		Search:       req.Search,
	}
	for _, s := range req.Status {
		st := models.ApplicationStatus(s)
		if !st.Valid() {
			return filter, status.Errorf(codes.InvalidArgument, "unknown status %q", s)
		}
		filter.Statuses = append(filter.Statuses, st)
	}
	if filter.CurrentRound != "" && !filter.CurrentRound.Valid() {
		return filter, status.Errorf(codes.InvalidArgument, "unknown round %q", req.CurrentRound)
	}
	return filter, nil
}

// mapServiceError maps domain or repository errors to appropriate gRPC status codes.
func (h *WorkflowHandler) mapServiceError(err error) error {
	switch {
	case errors.Is(err, e.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, e.ErrConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, e.ErrInvalidInput):
		return invalidArgument(err)
	case errors.Is(err, e.ErrShapeMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, e.ErrInvalidState):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, e.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, e.ErrDelivery):
		h.logger.Warn("Delivery failed", zap.Error(err))
		return status.Error(codes.Unavailable, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		return status.Error(codes.Internal, fmt.Sprintf("internal server error: %v", err))
	}
}

// invalidArgument attaches the itemized field failures as a BadRequest
// detail.
func invalidArgument(err error) error {
	st := status.New(codes.InvalidArgument, err.Error())
	var ve *e.ValidationError
	if !errors.As(err, &ve) {
		return st.Err()
	}
	br := &errdetails.BadRequest{}
	for _, f := range ve.Fields {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       f.Field,
			Description: f.Message,
		})
	}
	detailed, derr := st.WithDetails(br)
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}
