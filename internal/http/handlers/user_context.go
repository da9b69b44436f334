package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/Ahmedkhn143/NexLevel-Speech-sub000/internal/http/mw"
)

// getUserID extracts user ID from context.
func getUserID(ctx context.Context) string {
	claims := mw.GetUserClaims(ctx)
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// requireUserID returns the caller's user ID or a 401.
func requireUserID(ctx context.Context) (string, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return "", huma.Error401Unauthorized("unauthorized")
	}
	return userID, nil
}
