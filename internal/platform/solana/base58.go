package solana

import (
	"fmt"
	"math/big"
)

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

var base58Index [256]int8

func init() {
	for i := range base58Index {
		base58Index[i] = -1
	}
	for i, c := range base58Alphabet {
		base58Index[c] = int8(i)
	}
}

// DecodeBase58 декодирует base58-строку (адреса кошельков и подписи Solana).
func DecodeBase58(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("solana: empty base58 string")
	}

	result := new(big.Int)
	radix := big.NewInt(58)
	for i := 0; i < len(s); i++ {
		idx := base58Index[s[i]]
		if idx < 0 {
			return nil, fmt.Errorf("solana: invalid base58 character %q", s[i])
		}
		result.Mul(result, radix)
		result.Add(result, big.NewInt(int64(idx)))
	}

	// Ведущие '1' кодируют нулевые байты
	zeros := 0
	for zeros < len(s) && s[zeros] == '1' {
		zeros++
	}

	decoded := result.Bytes()
	out := make([]byte, zeros+len(decoded))
	copy(out[zeros:], decoded)
	return out, nil
}
