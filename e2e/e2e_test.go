package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// The server under test must run with SEED_FILE=e2e/testdata/seed.json and
// the same JWT_SECRET as this suite.
var (
	baseURL   = "http://localhost:8080"
	jwtSecret = "e2e-secret"
)

// Response types (self-contained, no dependency on main module)

type ErrorResponse struct {
	Error struct {
		Code                 string            `json:"code"`
		Message              string            `json:"message"`
		ApplicationErrorCode string            `json:"applicationErrorCode"`
		Details              map[string]string `json:"details"`
	} `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type InviteResponse struct {
	InviteID  string    `json:"inviteId"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type Notification struct {
	ID       string `json:"id"`
	InviteID string `json:"inviteId"`
	BookID   string `json:"bookId"`
	FromName string `json:"fromName"`
}

type ListNotificationsResponse struct {
	Notifications []Notification `json:"notifications"`
	NextCursor    *string        `json:"nextCursor"`
	PendingCount  int            `json:"pendingCount"`
}

type PendingInvite struct {
	InviteID   string `json:"inviteId"`
	InviteeUID string `json:"inviteeUid"`
}

type ListPendingInvitesResponse struct {
	Invites []PendingInvite `json:"invites"`
}

type PermissionsResponse struct {
	Permissions map[string]bool `json:"permissions"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

func TestMain(m *testing.M) {
	if u := os.Getenv("API_URL"); u != "" {
		baseURL = u
	}
	if s := os.Getenv("JWT_SECRET"); s != "" {
		jwtSecret = s
	}

	if !waitForHealthy(15 * time.Second) {
		fmt.Fprintf(os.Stderr, "ERROR: API at %s not healthy after timeout\n", baseURL)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

func waitForHealthy(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(500 * time.Millisecond)
	}
	return false
}

func token(t *testing.T, uid string) string {
	t.Helper()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":            uid,
		"iat":            now.Unix(),
		"exp":            now.Add(time.Hour).Unix(),
		"email_verified": true,
	}
	if iss := os.Getenv("JWT_ISSUER"); iss != "" {
		claims["iss"] = iss
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(jwtSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// rpc posts body to /rpc/<op> as uid and decodes a 200 response into out.
// It returns the status code and, for failures, the error envelope.
func rpc(t *testing.T, uid, op string, body, out any) (int, ErrorResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode failed: %v", err)
		}
	}
	req, err := http.NewRequest(http.MethodPost, baseURL+"/rpc/"+op, &buf)
	if err != nil {
		t.Fatalf("building request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, uid))
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var errBody ErrorResponse
	if resp.StatusCode != http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err != nil {
			t.Fatalf("decode error body failed: %v", err)
		}
		return resp.StatusCode, errBody
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
	}
	return resp.StatusCode, errBody
}

func mustRPC(t *testing.T, uid, op string, body, out any) {
	t.Helper()
	if code, e := rpc(t, uid, op, body, out); code != http.StatusOK {
		t.Fatalf("%s as %s: expected 200, got %d %+v", op, uid, code, e.Error)
	}
}

// --- Happy path ---

func TestHealth(t *testing.T) {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var h HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&h); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK || h.Status != "ok" {
		t.Fatalf("unexpected health: %d %+v", resp.StatusCode, h)
	}
}

func TestCoAuthorLifecycle(t *testing.T) {
	const book = "e2e-book-1"

	var inv InviteResponse
	mustRPC(t, "e2e-owner", "invite", map[string]any{"bookId": book, "uid": "e2e-coauthor"}, &inv)
	if inv.Status != "created" || inv.InviteID != book+"__e2e-coauthor" {
		t.Fatalf("unexpected invite: %+v", inv)
	}

	var inbox ListNotificationsResponse
	mustRPC(t, "e2e-coauthor", "listNotifications", nil, &inbox)
	if inbox.PendingCount != 1 || len(inbox.Notifications) != 1 || inbox.Notifications[0].FromName != "Odile" {
		t.Fatalf("unexpected inbox: %+v", inbox)
	}

	var pending ListPendingInvitesResponse
	mustRPC(t, "e2e-owner", "listPendingInvites", map[string]any{"bookId": book}, &pending)
	if len(pending.Invites) != 1 || pending.Invites[0].InviteeUID != "e2e-coauthor" {
		t.Fatalf("unexpected pending invites: %+v", pending)
	}

	var accepted StatusResponse
	mustRPC(t, "e2e-coauthor", "respond", map[string]any{"inviteId": inv.InviteID, "action": "accept"}, &accepted)
	if accepted.Status != "accepted" {
		t.Fatalf("expected accepted, got %+v", accepted)
	}

	mustRPC(t, "e2e-coauthor", "listNotifications", nil, &inbox)
	if inbox.PendingCount != 0 || len(inbox.Notifications) != 0 {
		t.Fatalf("expected an empty inbox after accepting, got %+v", inbox)
	}

	var perms PermissionsResponse
	mustRPC(t, "e2e-owner", "setCoAuthorPermissions", map[string]any{
		"bookId":      book,
		"targetUid":   "e2e-coauthor",
		"permissions": map[string]bool{"canManageMedia": false, "canInviteCoAuthors": true},
	}, &perms)
	if perms.Permissions["canManageMedia"] || !perms.Permissions["canInviteCoAuthors"] {
		t.Fatalf("unexpected permissions: %+v", perms)
	}

	var removed SuccessResponse
	mustRPC(t, "e2e-owner", "removeCoAuthor", map[string]any{"bookId": book, "coAuthorUid": "e2e-coauthor"}, &removed)
	if !removed.Success {
		t.Fatal("expected removal to succeed")
	}

	code, e := rpc(t, "e2e-coauthor", "listPendingInvites", map[string]any{"bookId": book}, nil)
	if code != http.StatusForbidden || e.Error.ApplicationErrorCode != "NOT_BOOK_MEMBER" {
		t.Fatalf("expected removed co-author to lose access, got %d %+v", code, e.Error)
	}
}

func TestDeclineThenCancel(t *testing.T) {
	const book = "e2e-book-2"

	var inv InviteResponse
	mustRPC(t, "e2e-owner", "invite", map[string]any{"bookId": book, "uid": "e2e-decliner"}, &inv)

	var declined StatusResponse
	mustRPC(t, "e2e-decliner", "respond", map[string]any{"inviteId": inv.InviteID, "action": "decline"}, &declined)
	if declined.Status != "declined" {
		t.Fatalf("expected declined, got %+v", declined)
	}

	// Responding again reports the settled state.
	mustRPC(t, "e2e-decliner", "respond", map[string]any{"inviteId": inv.InviteID, "action": "accept"}, &declined)
	if declined.Status != "declined" {
		t.Fatalf("expected declined to stick, got %+v", declined)
	}

	code, e := rpc(t, "e2e-owner", "manage", map[string]any{"inviteId": inv.InviteID, "action": "cancel"}, nil)
	if code != http.StatusBadRequest || e.Error.ApplicationErrorCode != "INVITE_NOT_PENDING" {
		t.Fatalf("expected INVITE_NOT_PENDING, got %d %+v", code, e.Error)
	}
}

// --- Error cases ---

func TestMissingToken(t *testing.T) {
	code, e := rpc(t, "", "listNotifications", nil, nil)
	if code != http.StatusUnauthorized || e.Error.Code != "Unauthenticated" {
		t.Fatalf("expected 401 Unauthenticated, got %d %+v", code, e.Error)
	}
}

func TestInviteValidation(t *testing.T) {
	code, e := rpc(t, "e2e-owner", "invite", map[string]any{"bookId": "e2e-book-2"}, nil)
	if code != http.StatusBadRequest || e.Error.Code != "InvalidArgument" {
		t.Fatalf("expected 400 InvalidArgument, got %d %+v", code, e.Error)
	}
}

func TestStrangerCannotInvite(t *testing.T) {
	code, e := rpc(t, "e2e-stranger", "invite", map[string]any{"bookId": "e2e-book-2", "uid": "e2e-coauthor"}, nil)
	if code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d %+v", code, e.Error)
	}
}

func TestUnknownRoute(t *testing.T) {
	code, e := rpc(t, "e2e-owner", "doesNotExist", map[string]any{}, nil)
	if code != http.StatusNotFound || e.Error.ApplicationErrorCode != "ROUTE_NOT_FOUND" {
		t.Fatalf("expected 404 ROUTE_NOT_FOUND, got %d %+v", code, e.Error)
	}
}
