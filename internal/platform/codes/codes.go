package codes

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	ErrInvalidLength = errors.New("invalid code length")
)

// Alphanumeric es el charset de códigos de verificación: A-Z y 0-9.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate crea un código de length caracteres tomados de charset (crypto/rand).
func Generate(length int, charset string) (string, error) {
	if length < 1 {
		return "", ErrInvalidLength
	}
	if len(charset) == 0 {
		return "", errors.New("charset cannot be empty")
	}

	result := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random character: %w", err)
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}

// Generator devuelve un generador alfanumérico de largo fijo.
func Generator(length int) func() (string, error) {
	return func() (string, error) {
		return Generate(length, Alphanumeric)
	}
}

// Normalize prepara un código para comparar (trim + upper, sin guiones).
func Normalize(code string) string {
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(strings.TrimSpace(code))
}
