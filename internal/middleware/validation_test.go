package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/gin-gonic/gin"

	"github.com/storyloom/collab/internal/apperrors"
	"github.com/storyloom/collab/internal/auth"
	"github.com/storyloom/collab/internal/collab"
)

const testSecret = "middleware-test-secret"

func mustVerifier(t *testing.T) *auth.Verifier {
	t.Helper()
	v, err := auth.NewVerifier(testSecret, "")
	if err != nil {
		t.Fatalf("failed to create verifier: %v", err)
	}
	return v
}

func bearer(t *testing.T, uid string) string {
	t.Helper()
	tok, err := auth.IssueToken(testSecret, "", collab.Caller{UID: uid}, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return "Bearer " + tok
}

func loadTestSpec(t *testing.T) *openapi3.T {
	t.Helper()
	spec, err := openapi3.NewLoader().LoadFromFile("../api/openapi.yaml")
	if err != nil {
		t.Fatalf("failed to load openapi spec: %v", err)
	}
	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("invalid openapi spec: %v", err)
	}
	return spec
}

func setupValidationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	spec := loadTestSpec(t)

	mw, err := NewOpenAPIValidator(spec)
	if err != nil {
		t.Fatalf("failed to create validator: %v", err)
	}

	r := gin.New()
	r.Use(mw)
	r.POST("/rpc/invite", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/rpc/respond", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.POST("/rpc/listNotifications", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doJSON(t *testing.T, r *gin.Engine, path string, body any, authz string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode: %v", err)
		}
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	r.ServeHTTP(w, req)
	return w
}

func errorBody(t *testing.T, w *httptest.ResponseRecorder) apperrors.ErrorBody {
	t.Helper()
	var body apperrors.ErrorBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	return body
}

func TestValidation_ValidInviteRequest(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/invite", map[string]any{
		"bookId":         "b1",
		"uid":            "u2",
		"canManageMedia": true,
	}, bearer(t, "u1"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidation_MissingRequiredField(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/invite", map[string]any{"bookId": "b1"}, bearer(t, "u1"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing uid, got %d: %s", w.Code, w.Body.String())
	}
	if body := errorBody(t, w); body.Error.Code != "InvalidArgument" || body.Error.ApplicationErrorCode != string(apperrors.CodeInvalidRequest) {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestValidation_WrongFieldType(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/invite", map[string]any{
		"bookId":         "b1",
		"uid":            "u2",
		"canManageMedia": "yes",
	}, bearer(t, "u1"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-boolean flag, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidation_InvalidActionEnum(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/respond", map[string]any{
		"inviteId": "b1__u2",
		"action":   "maybe",
	}, bearer(t, "u2"))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown action, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidation_MissingBearer(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/invite", map[string]any{"bookId": "b1", "uid": "u2"}, "")

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %s", w.Code, w.Body.String())
	}
	if body := errorBody(t, w); body.Error.ApplicationErrorCode != string(apperrors.CodeUnauthenticated) {
		t.Fatalf("unexpected error body: %+v", body)
	}
}

func TestValidation_OptionalBodyMayBeOmitted(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/listNotifications", nil, bearer(t, "u2"))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 without a body, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidation_UnknownRoute(t *testing.T) {
	r := setupValidationRouter(t)

	w := doJSON(t, r, "/rpc/doesNotExist", map[string]any{}, bearer(t, "u1"))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestValidation_HealthEndpointPassesThrough(t *testing.T) {
	r := setupValidationRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for health, got %d: %s", w.Code, w.Body.String())
	}
}
