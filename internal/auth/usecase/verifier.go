package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	authdomain "studio-admin-backend/internal/auth/domain"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenVerifier turns a bearer token into the authenticated user
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*authdomain.User, error)
}

// IDTokenVerifier is the part of the Firebase Auth client used here
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// firebaseVerifier checks Firebase Authentication ID tokens
type firebaseVerifier struct {
	client IDTokenVerifier
}

// NewFirebaseVerifier creates a TokenVerifier backed by Firebase Authentication
func NewFirebaseVerifier(client IDTokenVerifier) TokenVerifier {
	return &firebaseVerifier{client: client}
}

func (v *firebaseVerifier) Verify(ctx context.Context, token string) (*authdomain.User, error) {
	tok, err := v.client.VerifyIDToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user := &authdomain.User{ID: tok.UID, Provider: "firebase"}
	if email, ok := tok.Claims["email"].(string); ok {
		user.Email = email
	}
	if name, ok := tok.Claims["name"].(string); ok {
		user.Name = name
	}
	if admin, ok := tok.Claims["admin"].(bool); ok {
		user.Admin = admin
	}
	return user, nil
}

// AdminClaims are the claims of a locally signed back-office token
type AdminClaims struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// JWTVerifier checks HS256 tokens signed with a shared secret. It serves local
// development against the Firestore emulator, where no Firebase Auth project exists.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a JWTVerifier
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (*authdomain.User, error) {
	claims := &AdminClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &authdomain.User{
		ID:       claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Provider: "jwt",
		Admin:    claims.Admin,
	}, nil
}

// Issue signs a token for user valid for ttl
func (v *JWTVerifier) Issue(user *authdomain.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		Email: user.Email,
		Name:  user.Name,
		Admin: user.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
