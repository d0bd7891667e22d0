package glowsphere

import (
	"fmt"

	"github.com/glowsphere/glowsphere/pkg/core/state"
	"github.com/glowsphere/glowsphere/pkg/smartcontract"
	"github.com/glowsphere/glowsphere/pkg/util"
)

// Field limits.
const (
	MaxNameLen        = 64
	MaxDescriptionLen = 256
	MaxProductLen     = 64
	MaxNotesLen       = 500
	MaxPhotoHashLen   = 64
	MaxProducts       = state.MaxProducts
)

// toASCII returns the string argument if it's a printable ASCII string of
// allowed length, ErrInvalidInput otherwise.
func toASCII(p smartcontract.Parameter, minLen, maxLen int) (string, error) {
	s, err := p.GetString()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(s) < minLen || len(s) > maxLen || !smartcontract.IsASCII(s) {
		return "", ErrInvalidInput
	}
	return s, nil
}

func toUint(p smartcontract.Parameter) (uint64, error) {
	i, err := p.GetInteger()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return i, nil
}

func toBool(p smartcontract.Parameter) (bool, error) {
	b, err := p.GetBoolean()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return b, nil
}

func toPrincipal(p smartcontract.Parameter) (util.Uint160, error) {
	u, err := p.GetHash160()
	if err != nil {
		return u, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return u, nil
}

func toProducts(p smartcontract.Parameter) ([]string, error) {
	arr, err := p.GetArray()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if len(arr) > MaxProducts {
		return nil, ErrInvalidInput
	}
	products := make([]string, len(arr))
	for i := range arr {
		products[i], err = toASCII(arr[i], 1, MaxProductLen)
		if err != nil {
			return nil, err
		}
	}
	return products, nil
}
