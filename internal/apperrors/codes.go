package apperrors

import "google.golang.org/grpc/codes"

// Code is a machine-readable application error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Request errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeInvalidRequest  Code = "INVALID_REQUEST"
	CodeInvalidAction   Code = "INVALID_ACTION"
	CodeSelfInvite      Code = "SELF_INVITE"
	CodeOwnerTarget     Code = "OWNER_TARGET"

	// Access errors
	CodeNotBookMember     Code = "NOT_BOOK_MEMBER"
	CodeMissingPermission Code = "MISSING_PERMISSION"
	CodeOwnerOnly         Code = "OWNER_ONLY"
	CodeNotInvitee        Code = "NOT_INVITEE"
	CodeOwnerNotRemovable Code = "OWNER_NOT_REMOVABLE"

	// State errors
	CodeEmailNotVerified     Code = "EMAIL_NOT_VERIFIED"
	CodeInviteNotPending     Code = "INVITE_NOT_PENDING"
	CodeInviteExpired        Code = "INVITE_EXPIRED"
	CodeInviteResendCooldown Code = "INVITE_RESEND_COOLDOWN"

	// Lookup errors
	CodeBookNotFound     Code = "BOOK_NOT_FOUND"
	CodeInviteNotFound   Code = "INVITE_NOT_FOUND"
	CodeUserNotFound     Code = "USER_NOT_FOUND"
	CodeCoAuthorNotFound Code = "COAUTHOR_NOT_FOUND"
	CodeRouteNotFound    Code = "ROUTE_NOT_FOUND"
	CodeAlreadyMember    Code = "ALREADY_MEMBER"

	// Capacity errors
	CodeRecipientPendingLimit  Code = "RECIPIENT_PENDING_LIMIT"
	CodeCoAuthorSlotsExhausted Code = "COAUTHOR_SLOTS_EXHAUSTED"
	CodeBookPendingLimit       Code = "BOOK_PENDING_LIMIT"
	CodeRateLimited            Code = "RATE_LIMITED"

	// Infrastructure errors
	CodeIdentityLookupFailed Code = "IDENTITY_LOOKUP_FAILED"
	CodeStorage              Code = "STORAGE_FAILURE"
)

// GRPCCode maps application codes to transport status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	case CodeUnauthenticated:
		return codes.Unauthenticated

	case CodeInvalidRequest,
		CodeInvalidAction,
		CodeSelfInvite,
		CodeOwnerTarget:
		return codes.InvalidArgument

	case CodeNotBookMember,
		CodeMissingPermission,
		CodeOwnerOnly,
		CodeNotInvitee,
		CodeOwnerNotRemovable:
		return codes.PermissionDenied

	case CodeEmailNotVerified,
		CodeInviteNotPending,
		CodeInviteExpired,
		CodeInviteResendCooldown:
		return codes.FailedPrecondition

	case CodeBookNotFound,
		CodeInviteNotFound,
		CodeUserNotFound,
		CodeCoAuthorNotFound,
		CodeRouteNotFound:
		return codes.NotFound

	case CodeAlreadyMember:
		return codes.AlreadyExists

	case CodeRecipientPendingLimit,
		CodeCoAuthorSlotsExhausted,
		CodeBookPendingLimit,
		CodeRateLimited:
		return codes.ResourceExhausted

	default:
		return codes.Internal
	}
}
