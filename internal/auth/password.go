package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations matches the OWASP 2023 recommendation for PBKDF2-HMAC-SHA256.
	DefaultIterations = 600000

	saltChars  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	saltLength = 16
	keyLength  = sha256.Size
	pbkdf2Tag  = "pbkdf2:sha256"
)

var ErrMalformedHash = errors.New("malformed password hash")

// HashPassword derives a salted PBKDF2-SHA256 hash of password.
// Format: pbkdf2:sha256:<iterations>$<salt>$<hex digest>
func HashPassword(password string, iterations int) (string, error) {
	if iterations <= 0 {
		iterations = DefaultIterations
	}
	salt, err := genSalt(saltLength)
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(password), []byte(salt), iterations, keyLength, sha256.New)
	return fmt.Sprintf("%s:%d$%s$%s", pbkdf2Tag, iterations, salt, hex.EncodeToString(key)), nil
}

// VerifyPassword reports whether password matches hash. Besides the PBKDF2
// format written by HashPassword it accepts bcrypt hashes.
func VerifyPassword(hash, password string) (bool, error) {
	if strings.HasPrefix(hash, "$2") {
		err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrMalformedHash, err)
		}
		return true, nil
	}

	method, salt, digest, ok := splitHash(hash)
	if !ok {
		return false, ErrMalformedHash
	}
	iterations, err := strconv.Atoi(strings.TrimPrefix(method, pbkdf2Tag+":"))
	if err != nil || !strings.HasPrefix(method, pbkdf2Tag+":") || iterations <= 0 {
		return false, ErrMalformedHash
	}
	want, err := hex.DecodeString(digest)
	if err != nil {
		return false, ErrMalformedHash
	}

	got := pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

func splitHash(hash string) (method, salt, digest string, ok bool) {
	parts := strings.Split(hash, "$")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func genSalt(n int) (string, error) {
	limit := big.NewInt(int64(len(saltChars)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(saltChars[idx.Int64()])
	}
	return b.String(), nil
}
