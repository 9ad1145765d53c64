// internal/workers/auth/signin-google/models.go
package signingoogle

import (
	"context"

	"marketplace-workers/internal/common/auth"
	"marketplace-workers/internal/models"
)

type Input struct {
	IDToken string `json:"idToken"`
	Role    string `json:"role,omitempty"`
}

type Output struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsNewUser bool   `json:"isNewUser"`
}

// TokenVerifier validates a Google ID token and returns its claims.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*auth.TokenClaims, error)
}

// UserStore resolves and persists accounts.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}
