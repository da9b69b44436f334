package mw

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/auth"
)

type whoamiOutput struct {
	Body struct {
		UserID string `json:"user_id"`
	}
}

func TestHumaAuth(t *testing.T) {
	v := auth.NewVerifier(testSecret)
	_, api := humatest.New(t)
	api.UseMiddleware(HumaAuth(api, v))

	handler := func(ctx context.Context, _ *struct{}) (*whoamiOutput, error) {
		out := &whoamiOutput{}
		if c := GetUserClaims(ctx); c != nil {
			out.Body.UserID = c.UserID
		}
		return out, nil
	}
	ProtectedGet(api, "/private", handler, WithTags("Test"))
	PublicGet(api, "/public", handler)

	resp := api.Get("/public")
	if resp.Code != http.StatusOK {
		t.Errorf("public: status = %d, want 200", resp.Code)
	}

	resp = api.Get("/private")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("private without token: status = %d, want 401", resp.Code)
	}

	resp = api.Get("/private", "Authorization: Bearer junk")
	if resp.Code != http.StatusUnauthorized {
		t.Errorf("private with bad token: status = %d, want 401", resp.Code)
	}

	resp = api.Get("/private", "Authorization: Bearer "+issue(t, v, "user_42"))
	if resp.Code != http.StatusOK {
		t.Fatalf("private with token: status = %d, body = %s", resp.Code, resp.Body.String())
	}
	if !strings.Contains(resp.Body.String(), `"user_id":"user_42"`) {
		t.Errorf("body = %s, want user_42", resp.Body.String())
	}
}

func TestOperationRequiresAuth(t *testing.T) {
	if operationRequiresAuth(&huma.Operation{}) {
		t.Error("operation without security should not require auth")
	}
	op := &huma.Operation{Security: []map[string][]string{{SecurityScheme: {}}}}
	if !operationRequiresAuth(op) {
		t.Error("operation with bearerAuth should require auth")
	}
}
