package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/lmoraes-dev/exportdesk-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID               uuid.UUID
	Role                 enums.ActorRole
	BuyerProfileID       *uuid.UUID
	SalespersonProfileID *uuid.UUID
	JTI                  string
}

// AccessTokenClaims represents the typed JWT issued to clients. Buyers carry
// a buyer profile id, salespeople a salesperson profile id; admins carry
// neither.
type AccessTokenClaims struct {
	UserID               uuid.UUID       `json:"user_id"`
	Role                 enums.ActorRole `json:"role"`
	BuyerProfileID       *uuid.UUID      `json:"buyer_profile_id,omitempty"`
	SalespersonProfileID *uuid.UUID      `json:"salesperson_profile_id,omitempty"`
	jwt.RegisteredClaims
}
