package player

import (
	"crypto/rand"
	"math/big"
)

const (
	idLetters = "abcdefghijklmnopqrstuvwxyz"
	idDigits  = "0123456789"

	referralCodePrefix = "REF-"
)

// NewID returns a player id made of 5 lowercase letters followed by 5 digits.
func NewID() (string, error) {
	buf := make([]byte, 0, 10)
	for _, alphabet := range []string{idLetters, idDigits} {
		for i := 0; i < 5; i++ {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
			if err != nil {
				return "", err
			}
			buf = append(buf, alphabet[n.Int64()])
		}
	}
	return string(buf), nil
}

func ReferralCodeFor(id string) string {
	return referralCodePrefix + id
}
