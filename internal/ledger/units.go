package ledger

import (
	"fmt"
	"math/big"
	"strings"
)

// ParseUnits converts a decimal amount string ("1.5") into the smallest
// integer unit of a currency with the given number of decimals. The amount
// must be positive and must not carry more fractional digits than the
// currency supports; a transfer of a sub-unit fraction cannot be represented
// on chain and is rejected rather than rounded.
func ParseUnits(amount string, decimals int) (*big.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(amount, "-") {
		return nil, fmt.Errorf("amount must be positive")
	}

	whole, frac := amount, ""
	if i := strings.IndexByte(amount, '.'); i >= 0 {
		whole, frac = amount[:i], amount[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}
	frac += strings.Repeat("0", decimals-len(frac))

	n, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if n.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	return n, nil
}

// FormatUnits renders a smallest-unit integer as a decimal string, trimming
// trailing fractional zeros ("1500000000" at 8 decimals -> "15").
func FormatUnits(n *big.Int, decimals int) string {
	if n == nil {
		return "0"
	}
	s := n.String()
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if len(s) <= decimals {
		s = strings.Repeat("0", decimals-len(s)+1) + s
	}
	whole := s[:len(s)-decimals]
	frac := strings.TrimRight(s[len(s)-decimals:], "0")
	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
