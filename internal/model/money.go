package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Money хранит денежную сумму в минимальных единицах валюты (центах).
type Money int64

// maxUnits ограничивает число основных единиц так, чтобы сумма с копейками помещалась в Money.
const maxUnits = (math.MaxInt64 - 99) / 100

// Times возвращает сумму, умноженную на неотрицательное целое число.
// Отрицательные операнды и переполнение возвращаются как ErrValidation.
func (m Money) Times(n int64) (Money, error) {
	if m < 0 || n < 0 {
		return 0, fmt.Errorf("%w: cannot multiply %s by %d", ErrValidation, m, n)
	}
	if n != 0 && int64(m) > math.MaxInt64/n {
		return 0, fmt.Errorf("%w: amount %s multiplied by %d is out of range", ErrValidation, m, n)
	}
	return m * Money(n), nil
}

// Float64 возвращает сумму в основных единицах валюты.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// String форматирует сумму с двумя знаками после точки.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// ParseMoney разбирает неотрицательную сумму вида "700", "700.5" или "700.50".
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty amount", ErrValidation)
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || (hasFrac && (frac == "" || len(frac) > 2)) {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}

	units, err := strconv.ParseUint(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
	}
	if units > maxUnits {
		return 0, fmt.Errorf("%w: amount %q is out of range", ErrValidation, s)
	}

	var cents uint64
	if hasFrac {
		if len(frac) == 1 {
			frac += "0"
		}
		cents, err = strconv.ParseUint(frac, 10, 8)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid amount %q", ErrValidation, s)
		}
	}

	return Money(units*100 + cents), nil
}
