package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

const verificationTokenSize = 32

// NewVerificationToken returns a base64url-encoded 256-bit random token.
func NewVerificationToken() (string, error) {
	var raw [verificationTokenSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// ValidateVerificationToken rejects strings that cannot be a token this
// package generated, without touching any store.
func ValidateVerificationToken(token string) error {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return err
	}
	if len(raw) != verificationTokenSize {
		return errors.New("invalid verification token size")
	}
	return nil
}

// HashSecret is the digest used for stored verification and override codes.
// Plaintext codes never reach a store.
func HashSecret(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// NewOTP generates a numeric one-time code with the given digit count.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}

	var b strings.Builder
	b.Grow(digits)

	max := big.NewInt(10)
	for i := 0; i < digits; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	otp := b.String()
	if len(otp) != digits {
		return "", fmt.Errorf("invalid otp generation length")
	}
	return otp, nil
}

const (
	tempLower   = "abcdefghijkmnopqrstuvwxyz"
	tempUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	tempDigits  = "23456789"
	tempSymbols = "!@#$%^&*-_=+"
)

// NewTempPassword generates a random password of the given length containing
// at least one character from each of the four classes. Ambiguous glyphs
// (0/O, 1/l/I) are excluded from the alphabets.
func NewTempPassword(length int) (string, error) {
	if length < 8 {
		return "", errors.New("temp password length too short")
	}

	classes := []string{tempLower, tempUpper, tempDigits, tempSymbols}
	all := tempLower + tempUpper + tempDigits + tempSymbols

	out := make([]byte, length)
	for i, class := range classes {
		c, err := randByte(class)
		if err != nil {
			return "", err
		}
		out[i] = c
	}
	for i := len(classes); i < length; i++ {
		c, err := randByte(all)
		if err != nil {
			return "", err
		}
		out[i] = c
	}

	// Fisher-Yates so the class-guaranteed characters are not positional.
	for i := length - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		out[i], out[j] = out[j], out[i]
	}

	return string(out), nil
}

func randByte(alphabet string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		return 0, err
	}
	return alphabet[n.Int64()], nil
}
