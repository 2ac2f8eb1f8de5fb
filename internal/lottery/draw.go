package lottery

import (
	crand "crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/ichi0g0y/luckydraw/internal/types"
)

var (
	ErrNoOptions     = errors.New("no options")
	errInvalidBounds = errors.New("invalid random bound")
)

var drawRandomInt = secureRandomInt

// Spin picks one option uniformly. Index is the option's position in options.
func Spin(options []types.Option) (types.DrawResult, error) {
	if len(options) == 0 {
		return types.DrawResult{}, ErrNoOptions
	}

	picked, err := drawRandomInt(len(options))
	if err != nil {
		return types.DrawResult{}, fmt.Errorf("failed to pick random option: %w", err)
	}
	if picked < 0 || picked >= len(options) {
		return types.DrawResult{}, errInvalidBounds
	}

	return types.DrawResult{Option: options[picked], Index: picked}, nil
}

func secureRandomInt(max int) (int, error) {
	if max <= 0 {
		return 0, errInvalidBounds
	}

	n, err := crand.Int(crand.Reader, big.NewInt(int64(max)))
	if err != nil {
		return 0, err
	}
	return int(n.Int64()), nil
}
