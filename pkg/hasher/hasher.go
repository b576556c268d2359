package hasher

import (
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 10

type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

type hasher struct {
	cost int
}

func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}

	return &hasher{
		cost: cost,
	}
}

func (h *hasher) Hash(plaintext string) (string, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}

	return string(hashedPassword), nil
}

// Verify never returns an error, a malformed hash is reported as a mismatch.
func (h *hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
