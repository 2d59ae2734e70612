package authUtils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"civix-be/models"
)

func testUser() *models.User {
	return &models.User{
		ID:    primitive.NewObjectID(),
		Email: "alice@example.com",
		Role:  models.RoleVolunteer,
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("test-secret")
	user := testUser()

	token, err := svc.Issue(user, LoginTokenTTL)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.Hex(), claims.Subject)
	assert.Equal(t, models.RoleVolunteer, claims.Role)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(testUser(), -time.Minute)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTampered(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Issue(testUser(), LoginTokenTTL)
	require.NoError(t, err)

	_, err = svc.Verify(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := NewTokenService("test-secret")
	other := NewTokenService("other-secret")

	token, err := svc.Issue(testUser(), LoginTokenTTL)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsMalformed(t *testing.T) {
	svc := NewTokenService("test-secret")

	for _, token := range []string{"", "garbage", "a.b", "a.b.c"} {
		_, err := svc.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

// Tokens signed with the right secret but a non-conforming claims shape
// must be rejected rather than probed for alternate field names.
func TestVerifyRejectsNonConformingClaims(t *testing.T) {
	svc := NewTokenService("test-secret")
	exp := jwt.NewNumericDate(time.Now().Add(time.Hour))

	missingSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": "User",
		"exp":  exp.Unix(),
	})
	signed, err := missingSubject.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	unknownRole := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  primitive.NewObjectID().Hex(),
		"role": "SuperUser",
		"exp":  exp.Unix(),
	})
	signed, err = unknownRole.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenLifetimes(t *testing.T) {
	// Registration tokens are deliberately shorter-lived than login tokens.
	assert.Less(t, RegisterTokenTTL, LoginTokenTTL)
}
