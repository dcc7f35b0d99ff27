package crypto

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

type CodeGenerator interface {
	NewCode() (string, error)
}

// NumericCodeGenerator produces uniformly random, zero-padded decimal codes.
type NumericCodeGenerator struct {
	digits int
	max    *big.Int
}

func NewNumericCodeGenerator(digits int) *NumericCodeGenerator {
	if digits <= 0 {
		digits = 4
	}
	max := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	return &NumericCodeGenerator{digits: digits, max: max}
}

func (g *NumericCodeGenerator) NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", g.digits, n), nil
}
