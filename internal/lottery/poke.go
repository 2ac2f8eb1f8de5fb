package lottery

import (
	"errors"
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/types"
)

var (
	ErrCellOutOfRange = errors.New("cell out of range")
	ErrCellPoked      = errors.New("cell already poked")
	ErrBoardExhausted = errors.New("all options have been drawn")
)

// PokedCell records which option a cell revealed.
type PokedCell struct {
	CellIndex int          `json:"cellIndex"`
	Option    types.Option `json:"option"`
}

// PokeBoard is one round of the poke game. One cell per option; each poke
// reveals a random option that has not been drawn yet.
type PokeBoard struct {
	options []types.Option
	poked   []PokedCell
}

func NewPokeBoard(options []types.Option) (*PokeBoard, error) {
	if len(options) == 0 {
		return nil, ErrNoOptions
	}
	return &PokeBoard{options: append([]types.Option(nil), options...)}, nil
}

// Poke reveals cell. The returned index is the option's position on the configuration.
func (b *PokeBoard) Poke(cell int) (types.DrawResult, error) {
	if cell < 0 || cell >= len(b.options) {
		return types.DrawResult{}, fmt.Errorf("%w: %d", ErrCellOutOfRange, cell)
	}
	for _, p := range b.poked {
		if p.CellIndex == cell {
			return types.DrawResult{}, fmt.Errorf("%w: %d", ErrCellPoked, cell)
		}
	}

	remaining := b.remainingIndexes()
	if len(remaining) == 0 {
		return types.DrawResult{}, ErrBoardExhausted
	}

	picked, err := drawRandomInt(len(remaining))
	if err != nil {
		return types.DrawResult{}, fmt.Errorf("failed to pick random option: %w", err)
	}
	if picked < 0 || picked >= len(remaining) {
		return types.DrawResult{}, errInvalidBounds
	}

	index := remaining[picked]
	b.poked = append(b.poked, PokedCell{CellIndex: cell, Option: b.options[index]})
	return types.DrawResult{Option: b.options[index], Index: index}, nil
}

func (b *PokeBoard) remainingIndexes() []int {
	drawn := make(map[string]bool, len(b.poked))
	for _, p := range b.poked {
		drawn[p.Option.ID] = true
	}
	out := make([]int, 0, len(b.options)-len(b.poked))
	for i, opt := range b.options {
		if !drawn[opt.ID] {
			out = append(out, i)
		}
	}
	return out
}

// Poked returns a copy of the revealed cells in poke order.
func (b *PokeBoard) Poked() []PokedCell {
	return append([]PokedCell(nil), b.poked...)
}

// Remaining is the number of options not yet drawn.
func (b *PokeBoard) Remaining() int { return len(b.remainingIndexes()) }

// Done reports whether every option has been drawn.
func (b *PokeBoard) Done() bool { return b.Remaining() == 0 }

// Size is the number of cells.
func (b *PokeBoard) Size() int { return len(b.options) }
