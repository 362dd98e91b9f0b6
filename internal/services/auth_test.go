package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jasperedu/jasper-backend/internal/requestdata"
	"github.com/jasperedu/jasper-backend/internal/types"
)

func testAuthService(t *testing.T, accessTTL time.Duration) *authService {
	t.Helper()
	return &authService{
		log:          testLogger(t),
		jwtSecretKey: "test-secret",
		accessTTL:    accessTTL,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	as := testAuthService(t, time.Hour)
	user := &types.User{ID: uuid.New()}

	token, err := as.generateAccessToken(user)
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	ctx, err := as.SetContextFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		t.Fatalf("no request data attached")
	}
	if rd.UserID != user.ID {
		t.Fatalf("user id = %s, want %s", rd.UserID, user.ID)
	}
	if rd.TokenString != token {
		t.Fatalf("token string not carried through")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	as := testAuthService(t, -time.Minute)
	token, err := as.generateAccessToken(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}
	if _, err := as.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatalf("expired token accepted")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	as := testAuthService(t, time.Hour)
	token, err := as.generateAccessToken(&types.User{ID: uuid.New()})
	if err != nil {
		t.Fatalf("generateAccessToken: %v", err)
	}

	other := testAuthService(t, time.Hour)
	other.jwtSecretKey = "different-secret"
	if _, err := other.SetContextFromToken(context.Background(), token); err == nil {
		t.Fatalf("token signed with another key accepted")
	}

	if _, err := as.SetContextFromToken(context.Background(), ""); err == nil {
		t.Fatalf("empty token accepted")
	}
}
