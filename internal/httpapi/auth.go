package httpapi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"warungpay/backend/internal/domain"
)

// Verifier validates the bearer tokens minted by the identity collaborator
// and extracts the merchant identity from the claims. This backend never
// mints tokens itself.
type Verifier struct {
	secret []byte
}

type merchantClaims struct {
	jwtlib.RegisteredClaims
	Username      string `json:"username"`
	PublicKey     string `json:"public_key"`
	PhoneNumber   string `json:"phone_number"`
	WalletAddress string `json:"wallet_address"`
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Parse(tokenStr string) (domain.Merchant, error) {
	claims := &merchantClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return domain.Merchant{}, err
	}
	if !token.Valid {
		return domain.Merchant{}, errors.New("invalid token")
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return domain.Merchant{}, errors.New("token expired")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Merchant{}, errors.New("token missing subject")
	}

	return domain.Merchant{
		AccountID:     claims.Subject,
		Username:      claims.Username,
		PublicKey:     claims.PublicKey,
		PhoneNumber:   claims.PhoneNumber,
		WalletAddress: claims.WalletAddress,
	}, nil
}
