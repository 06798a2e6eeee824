package token

import (
	"testing"
	"time"

	"parking-reservation/internal/data/entity"
	"parking-reservation/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	svc := NewService("test-secret")
	bookingID := uuid.New()
	facilityID := uuid.New()

	signed, err := svc.Issue(TypeEntry, bookingID, facilityID, entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := svc.Verify(signed, TypeEntry)
	require.NoError(t, err)
	assert.Equal(t, TypeEntry, claims.TokenType)
	assert.Equal(t, bookingID.String(), claims.BookingID)
	assert.Equal(t, facilityID.String(), claims.FacilityID)
	assert.Equal(t, string(entity.VehicleClassCar), claims.VehicleClass)
}

func TestVerifyWrongType(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.Issue(TypeExit, uuid.New(), uuid.New(), entity.VehicleClassMotorcycle, time.Hour)
	require.NoError(t, err)

	_, err = svc.Verify(signed, TypeEntry)
	assert.ErrorIs(t, err, apperrors.ErrWrongTokenType)
}

func TestVerifyExpired(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.Issue(TypeEntry, uuid.New(), uuid.New(), entity.VehicleClassCar, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(signed, TypeEntry)
	assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewService("test-secret")

	_, err := svc.Verify("not-a-token", TypeEntry)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewService("secret-a")
	verifier := NewService("secret-b")

	signed, err := issuer.Issue(TypeEntry, uuid.New(), uuid.New(), entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	_, err = verifier.Verify(signed, TypeEntry)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestValid(t *testing.T) {
	svc := NewService("test-secret")

	signed, err := svc.Issue(TypeEntry, uuid.New(), uuid.New(), entity.VehicleClassCar, time.Hour)
	require.NoError(t, err)

	assert.True(t, svc.Valid(signed, TypeEntry))
	assert.False(t, svc.Valid(signed, TypeExit))
	assert.False(t, svc.Valid("garbage", TypeEntry))
}
