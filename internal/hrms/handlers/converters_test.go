package handlers

import (
	"errors"
	"fmt"
	"testing"

	e "github.com/gartstein/hrms/internal/hrms/errors"
	"github.com/gartstein/hrms/internal/hrms/models"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestParseID(t *testing.T) {
	id := uuid.New()
	got, err := parseID("id", id.String())
	if err != nil || got != id {
		t.Errorf("expected %s, got %s (%v)", id, got, err)
	}

	_, err = parseID("roundId", "not-a-uuid")
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("expected InvalidArgument, got %v", err)
	}
	if st, _ := status.FromError(err); st.Message() != "invalid roundId" {
		t.Errorf("unexpected message %q", st.Message())
	}
}

func TestApplicationFilter(t *testing.T) {
	tests := []struct {
		name    string
		req     *ApplicationFilterRequest
		wantErr bool
	}{
		{name: "empty", req: &ApplicationFilterRequest{}},
		{name: "known statuses", req: &ApplicationFilterRequest{Status: []string{"Application", "Rejected"}}},
		{name: "known round", req: &ApplicationFilterRequest{CurrentRound: "Technical Round"}},
		{name: "unknown status", req: &ApplicationFilterRequest{Status: []string{"Offer", "hired"}}, wantErr: true},
		{name: "unknown round", req: &ApplicationFilterRequest{CurrentRound: "Final"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := applicationFilter(tt.req)
			if tt.wantErr {
				if status.Code(err) != codes.InvalidArgument {
					t.Errorf("expected InvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(filter.Statuses) != len(tt.req.Status) {
				t.Errorf("expected %d statuses, got %d", len(tt.req.Status), len(filter.Statuses))
			}
			if filter.CurrentRound != models.RoundType(tt.req.CurrentRound) {
				t.Errorf("expected round %q, got %q", tt.req.CurrentRound, filter.CurrentRound)
			}
		})
	}
}

func TestMapServiceError(t *testing.T) {
	h := &WorkflowHandler{logger: zaptest.NewLogger(t)}

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{name: "not found", err: fmt.Errorf("review: %w", e.ErrNotFound), want: codes.NotFound},
		{name: "conflict", err: fmt.Errorf("slot: %w", e.ErrConflict), want: codes.AlreadyExists},
		{name: "validation", err: e.Invalid("email", "is required"), want: codes.InvalidArgument},
		{name: "shape", err: e.ErrShapeMismatch, want: codes.InvalidArgument},
		{name: "state", err: e.InvalidState("review is locked"), want: codes.FailedPrecondition},
		{name: "forbidden", err: e.ErrForbidden, want: codes.PermissionDenied},
		{name: "delivery", err: fmt.Errorf("notify: %w", e.ErrDelivery), want: codes.Unavailable},
		{name: "unknown", err: errors.New("disk on fire"), want: codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.mapServiceError(tt.err)
			if status.Code(err) != tt.want {
				t.Errorf("expected code %v, got %v", tt.want, status.Code(err))
			}
		})
	}
}

func TestMapServiceErrorFieldViolations(t *testing.T) {
	h := &WorkflowHandler{logger: zaptest.NewLogger(t)}
	ve := e.NewValidationError()
	ve.Add("candidateInfo.email", "must be a valid email")
	ve.Add("candidateInfo.phone", "is required")

	st, _ := status.FromError(h.mapServiceError(fmt.Errorf("create application: %w", ve)))
	if st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", st.Code())
	}
	details := st.Details()
	if len(details) != 1 {
		t.Fatalf("expected one detail, got %d", len(details))
	}
	br, ok := details[0].(*errdetails.BadRequest)
	if !ok {
		t.Fatalf("expected BadRequest detail, got %T", details[0])
	}
	if len(br.GetFieldViolations()) != 2 {
		t.Fatalf("expected 2 violations, got %d", len(br.GetFieldViolations()))
	}
	if br.GetFieldViolations()[0].GetField() != "candidateInfo.email" {
		t.Errorf("unexpected first field %q", br.GetFieldViolations()[0].GetField())
	}
}
