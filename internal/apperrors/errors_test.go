package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestCode_GRPCCode(t *testing.T) {
	cases := map[Code]codes.Code{
		CodeUnauthenticated:        codes.Unauthenticated,
		CodeInvalidAction:          codes.InvalidArgument,
		CodeMissingPermission:      codes.PermissionDenied,
		CodeInviteResendCooldown:   codes.FailedPrecondition,
		CodeEmailNotVerified:       codes.FailedPrecondition,
		CodeBookNotFound:           codes.NotFound,
		CodeAlreadyMember:          codes.AlreadyExists,
		CodeCoAuthorSlotsExhausted: codes.ResourceExhausted,
		CodeIdentityLookupFailed:   codes.Internal,
		CodeUnknown:                codes.Internal,
	}
	for code, want := range cases {
		if got := code.GRPCCode(); got != want {
			t.Errorf("%s: expected %s, got %s", code, want, got)
		}
	}
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeInviteNotPending, "invitation is not pending"))

	if !IsCode(err, CodeInviteNotPending) {
		t.Fatal("expected wrapped code to be found")
	}
	if !errors.Is(err, New(CodeInviteNotPending, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if GetCode(errors.New("plain")) != CodeUnknown {
		t.Fatal("expected unknown code for plain error")
	}
}

func TestBody_ApplicationError(t *testing.T) {
	err := WithMetadata(CodeInviteResendCooldown, "please wait 3 minute(s) before resending",
		map[string]string{"retryAfterMinutes": "3"})

	httpStatus, body := Body(err)

	if httpStatus != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", httpStatus)
	}
	if body.Error.Code != "FailedPrecondition" {
		t.Fatalf("expected FailedPrecondition, got %q", body.Error.Code)
	}
	if body.Error.ApplicationErrorCode != string(CodeInviteResendCooldown) {
		t.Fatalf("unexpected application code %q", body.Error.ApplicationErrorCode)
	}
	if body.Error.Details["retryAfterMinutes"] != "3" {
		t.Fatalf("expected metadata to survive, got %v", body.Error.Details)
	}
}

func TestBody_UnknownErrorIsInternal(t *testing.T) {
	httpStatus, body := Body(errors.New("bolt: database not open"))

	if httpStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", httpStatus)
	}
	if body.Error.Code != "Internal" {
		t.Fatalf("expected Internal, got %q", body.Error.Code)
	}
	if body.Error.Message != "an unexpected error occurred" {
		t.Fatalf("storage detail leaked: %q", body.Error.Message)
	}
	if body.Error.ApplicationErrorCode != "" {
		t.Fatalf("expected no application code, got %q", body.Error.ApplicationErrorCode)
	}
}

func TestBody_CapacityMapsTo429(t *testing.T) {
	httpStatus, _ := Body(New(CodeCoAuthorSlotsExhausted, "no co-author slots left"))
	if httpStatus != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", httpStatus)
	}
}
