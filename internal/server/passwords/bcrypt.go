// Package passwords is the credential codec: it turns plaintext passwords
// into salted bcrypt hashes and checks candidates against them.
package passwords

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eatsauth/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost matches a work factor of 10 rounds.
const DefaultCost = 10

// Hasher is the codec contract used by the account service.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) (bool, error)
}

// Bcrypt implements Hasher. It holds no state besides the cost and is safe
// for concurrent use.
type Bcrypt struct {
	cost int
}

// NewBcrypt returns a codec with the given cost. Zero selects DefaultCost;
// values outside bcrypt's range are rejected.
func NewBcrypt(cost int) (*Bcrypt, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &Bcrypt{cost: cost}, nil
}

func (b *Bcrypt) Cost() int { return b.cost }

// Hash returns the bcrypt encoding of plaintext. Any primitive failure
// (including passwords longer than 72 bytes) matches common.ErrHashingFailure.
func (b *Bcrypt) Hash(plaintext string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plaintext), b.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
	return string(h), nil
}

// Verify compares plaintext against hash in constant time. A mismatch is
// (false, nil); a malformed hash is (false, ErrHashingFailure).
func (b *Bcrypt) Verify(plaintext, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
}
