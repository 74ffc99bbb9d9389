package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// IntnFunc возвращает равномерно распределенное число из [0, n)
type IntnFunc func(n int) (int, error)

// Intn криптографически стойкий генератор для розыгрышей
func Intn(n int) (int, error) {
	if n <= 0 {
		return 0, fmt.Errorf("invalid range: %d", n)
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random number: %w", err)
	}
	return int(v.Int64()), nil
}

// Shuffle перемешивает срез на месте (Fisher-Yates) с crypto/rand
func Shuffle[T any](slice []T) error {
	return ShuffleWith(slice, Intn)
}

// ShuffleWith перемешивает срез источником intn.
// Каждая из n! перестановок равновероятна, если intn равномерен.
func ShuffleWith[T any](slice []T, intn IntnFunc) error {
	for i := len(slice) - 1; i > 0; i-- {
		j, err := intn(i + 1)
		if err != nil {
			return err
		}
		slice[i], slice[j] = slice[j], slice[i]
	}
	return nil
}
