package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	tests := []struct {
		name  string
		cpf   string
		valid bool
	}{
		{"valid unformatted", "11144477735", true},
		{"valid formatted", "111.444.777-35", true},
		{"wrong second check digit", "11144477736", false},
		{"wrong first check digit", "11144477745", false},
		{"all same digit", "11111111111", false},
		{"too short", "1114447773", false},
		{"too long", "111444777350", false},
		{"empty", "", false},
		{"letters", "1114447773a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateCPF(tt.cpf))
		})
	}
}

func TestValidateCNPJ(t *testing.T) {
	tests := []struct {
		name  string
		cnpj  string
		valid bool
	}{
		{"valid unformatted", "11222333000181", true},
		{"valid formatted", "11.222.333/0001-81", true},
		{"wrong check digit", "11222333000182", false},
		{"all same digit", "11111111111111", false},
		{"too short", "1122233300018", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateCNPJ(tt.cnpj))
		})
	}
}

func TestNormalizeDocument(t *testing.T) {
	assert.Equal(t, "11144477735", NormalizeDocument("111.444.777-35"))
	assert.Equal(t, "11222333000181", NormalizeDocument("11.222.333/0001-81"))
	assert.Equal(t, "11144477735", NormalizeDocument("11144477735"))
	assert.Equal(t, "", NormalizeDocument("abc-/."))
}

func TestValidateDocumentDispatchesByLength(t *testing.T) {
	assert.True(t, ValidateDocument("111.444.777-35"))
	assert.True(t, ValidateDocument("11.222.333/0001-81"))

	// 12 digits is neither a CPF nor a CNPJ.
	assert.False(t, ValidateDocument("111444777351"))
	assert.False(t, ValidateDocument(""))
}
