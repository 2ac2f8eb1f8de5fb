package types

import (
	"fmt"
	"time"
)

// GameType はゲームモード
type GameType string

const (
	GameWheel GameType = "wheel"
	GamePoke  GameType = "poke"
)

func (g GameType) Valid() bool { return g == GameWheel || g == GamePoke }

// ParseGameType validates a wire value.
func ParseGameType(raw string) (GameType, error) {
	g := GameType(raw)
	if !g.Valid() {
		return "", fmt.Errorf("unknown game type %q", raw)
	}
	return g, nil
}

// ThemeID is one of the closed set of color themes.
type ThemeID string

const (
	ThemeClassic ThemeID = "classic"
	ThemePink    ThemeID = "pink"
	ThemeFresh   ThemeID = "fresh"
)

func (t ThemeID) Valid() bool {
	switch t {
	case ThemeClassic, ThemePink, ThemeFresh:
		return true
	}
	return false
}

// GameConfiguration は1モード分の設定（選択肢とテーマ）
type GameConfiguration struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CustomGreeting string    `json:"customGreeting"`
	Options        []Option  `json:"options"`
	ThemeID        ThemeID   `json:"themeId"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Clone copies the option slice so reducers never share backing arrays.
func (c GameConfiguration) Clone() GameConfiguration {
	out := c
	out.Options = append([]Option(nil), c.Options...)
	return out
}

// DrawResult is the outcome of one draw. Index is the option position at draw time.
type DrawResult struct {
	Option Option `json:"option"`
	Index  int    `json:"index"`
}

// NoIndex marks a reconstructed result whose option is not on the board.
const NoIndex = -1
