package domain

import "strings"

// ValidateDocument validates a Brazilian taxpayer identifier, dispatching
// by length after stripping formatting: 11 digits validates as CPF,
// 14 digits as CNPJ, anything else is invalid.
func ValidateDocument(document string) bool {
	digits := NormalizeDocument(document)
	switch len(digits) {
	case 11:
		return ValidateCPF(digits)
	case 14:
		return ValidateCNPJ(digits)
	}
	return false
}

// ValidateCPF validates the modulus-11 check digits of an 11-digit CPF.
// Formatting characters are stripped; sequences of a single repeated digit
// are invalid regardless of checksum.
func ValidateCPF(cpf string) bool {
	digits := NormalizeDocument(cpf)
	if len(digits) != 11 || allSameDigit(digits) {
		return false
	}

	d, ok := toDigits(digits)
	if !ok {
		return false
	}

	// First check digit: weights 10..2 over digits[0..8].
	sum := 0
	for i := 0; i < 9; i++ {
		sum += d[i] * (10 - i)
	}
	remainder := (sum * 10) % 11
	if remainder == 10 || remainder == 11 {
		remainder = 0
	}
	if remainder != d[9] {
		return false
	}

	// Second check digit: weights 11..2 over digits[0..9].
	sum = 0
	for i := 0; i < 10; i++ {
		sum += d[i] * (11 - i)
	}
	remainder = (sum * 10) % 11
	if remainder == 10 || remainder == 11 {
		remainder = 0
	}
	return remainder == d[10]
}

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ValidateCNPJ validates the modulus-11 check digits of a 14-digit CNPJ.
func ValidateCNPJ(cnpj string) bool {
	digits := NormalizeDocument(cnpj)
	if len(digits) != 14 || allSameDigit(digits) {
		return false
	}

	d, ok := toDigits(digits)
	if !ok {
		return false
	}

	if cnpjCheckDigit(d[:12], cnpjFirstWeights) != d[12] {
		return false
	}
	return cnpjCheckDigit(d[:13], cnpjSecondWeights) == d[13]
}

func cnpjCheckDigit(d []int, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += d[i] * w
	}
	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}

// NormalizeDocument strips everything except decimal digits, reducing a
// formatted CPF or CNPJ to the bare number the vendors expect.
func NormalizeDocument(document string) string {
	var b strings.Builder
	b.Grow(len(document))
	for _, r := range document {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func toDigits(s string) ([]int, bool) {
	d := make([]int, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, false
		}
		d[i] = int(s[i] - '0')
	}
	return d, true
}
