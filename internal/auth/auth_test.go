package auth

import (
	"errors"
	"testing"
	"time"

	"equipment-requests-api-server/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "s3cret!" {
		t.Fatal("hash must not equal the password")
	}
	if !CheckPasswordHash("s3cret!", hash) {
		t.Fatal("correct password rejected")
	}
	if CheckPasswordHash("wrong", hash) {
		t.Fatal("wrong password accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := models.User{Email: "noa@example.com", Name: "Noa Cohen", SharePointUserID: 17}

	token, err := issuer.Generate(user, models.RoleAdmin)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Email != user.Email || claims.Name != user.Name || claims.SharePointUserID != 17 || claims.Role != models.RoleAdmin {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.Subject != "17" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestTokenRejected(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	token, err := issuer.Generate(models.User{SharePointUserID: 3}, models.RoleRequester)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewTokenIssuer("other-secret", time.Hour).Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("wrong secret: got %v", err)
	}

	expired := NewTokenIssuer("test-secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _ := expired.Generate(models.User{SharePointUserID: 3}, models.RoleRequester)
	if _, err := issuer.Parse(old); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &JWTClaims{Role: models.RoleAdmin})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := issuer.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unsigned token: got %v", err)
	}

	if _, err := issuer.Parse("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage token: got %v", err)
	}
}
