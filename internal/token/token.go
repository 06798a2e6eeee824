package token

import (
	"errors"
	"fmt"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/apperrors"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type membedakan token masuk dan token keluar. Scan entry dengan token
// exit (atau sebaliknya) harus ditolak.
type Type string

const (
	TypeEntry Type = "entry"
	TypeExit  Type = "exit"
)

type Claims struct {
	TokenType    Type   `json:"token_type"`
	BookingID    string `json:"booking_id"`
	FacilityID   string `json:"facility_id"`
	VehicleClass string `json:"vehicle_class"`
	jwt.RegisteredClaims
}

// Service menerbitkan dan memverifikasi access token untuk gerbang
// masuk/keluar. Token opaque bagi pemegangnya; hanya service ini yang
// bisa memverifikasi signature-nya.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

func (s *Service) Issue(typ Type, bookingID, facilityID uuid.UUID, class entity.VehicleClass, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		TokenType:    typ,
		BookingID:    bookingID.String(),
		FacilityID:   facilityID.String(),
		VehicleClass: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token for booking %s: %w", typ, bookingID.String(), err)
	}

	return signed, nil
}

// Verify memvalidasi signature, expiry, dan tipe token.
func (s *Service) Verify(tokenStr string, expected Type) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidToken, err.Error())
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	if claims.TokenType != expected {
		return nil, fmt.Errorf("expected %s token, got %s: %w", expected, claims.TokenType, apperrors.ErrWrongTokenType)
	}

	return claims, nil
}

// Valid melaporkan apakah token masih bisa dipakai untuk tipe tersebut.
// Dipakai untuk idempotensi GenerateEntryToken.
func (s *Service) Valid(tokenStr string, expected Type) bool {
	_, err := s.Verify(tokenStr, expected)
	return err == nil
}
