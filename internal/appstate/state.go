// Package appstate holds the session state of the app. State transitions are
// pure functions over State; Store serializes them and persists config slots.
package appstate

import (
	"errors"
	"fmt"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/lottery"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/types"
)

// Screen is the screen currently shown.
type Screen string

const (
	ScreenHome      Screen = "home"
	ScreenSetup     Screen = "setup"
	ScreenSpin      Screen = "spin"
	ScreenPokeSetup Screen = "poke_setup"
	ScreenPokeGame  Screen = "poke_game"
)

func (s Screen) Valid() bool {
	switch s {
	case ScreenHome, ScreenSetup, ScreenSpin, ScreenPokeSetup, ScreenPokeGame:
		return true
	}
	return false
}

// 選択肢の上限
const (
	MaxWheelOptions = 12
	MaxPokeOptions  = 50
)

const (
	DefaultWheelID   = "default"
	DefaultPokeID    = "default-poke"
	DefaultWheelName = "LUCKY抽 • 輪盤"
	DefaultPokeName  = "LUCKY抽 • 戳戳樂"
)

var (
	ErrBusy           = errors.New("another share operation is in progress")
	ErrOptionLimit    = errors.New("option limit reached")
	ErrOptionNotFound = errors.New("option not found")
	ErrDuplicateID    = errors.New("duplicate option id")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrUnknownScreen  = errors.New("unknown screen")
)

// State is one session.
type State struct {
	Screen       Screen                  `json:"screen"`
	Wheel        types.GameConfiguration `json:"wheel"`
	Poke         types.GameConfiguration `json:"poke"`
	WheelResult  *types.DrawResult       `json:"wheelResult,omitempty"`
	PokeResult   *types.DrawResult       `json:"pokeResult,omitempty"`
	PokedCells   []lottery.PokedCell     `json:"pokedCells"`
	SharedMode   bool                    `json:"sharedMode"`
	LoadingShare bool                    `json:"loadingShare"`
	Sharing      bool                    `json:"sharing"`
	ShareURL     string                  `json:"shareUrl,omitempty"`
}

// Initial returns the first-launch state.
func Initial(now time.Time) State {
	return State{
		Screen:     ScreenHome,
		Wheel:      DefaultConfig(types.GameWheel, now),
		Poke:       DefaultConfig(types.GamePoke, now),
		PokedCells: []lottery.PokedCell{},
	}
}

// DefaultConfig is the configuration of a mode that was never saved.
func DefaultConfig(gameType types.GameType, now time.Time) types.GameConfiguration {
	cfg := types.GameConfiguration{
		ID:        DefaultWheelID,
		Name:      DefaultWheelName,
		Options:   []types.Option{},
		ThemeID:   types.ThemeClassic,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if gameType == types.GamePoke {
		cfg.ID = DefaultPokeID
		cfg.Name = DefaultPokeName
	}
	return cfg
}

// MaxOptions is the option limit of a mode.
func MaxOptions(gameType types.GameType) int {
	if gameType == types.GamePoke {
		return MaxPokeOptions
	}
	return MaxWheelOptions
}

// Config returns the configuration of gameType.
func (s State) Config(gameType types.GameType) types.GameConfiguration {
	if gameType == types.GamePoke {
		return s.Poke
	}
	return s.Wheel
}

// Result returns the current draw result of gameType.
func (s State) Result(gameType types.GameType) *types.DrawResult {
	if gameType == types.GamePoke {
		return s.PokeResult
	}
	return s.WheelResult
}

func (s State) withConfig(gameType types.GameType, cfg types.GameConfiguration) State {
	if gameType == types.GamePoke {
		s.Poke = cfg
	} else {
		s.Wheel = cfg
	}
	return s
}

// PlayScreen is the game screen of gameType.
func PlayScreen(gameType types.GameType) Screen {
	if gameType == types.GamePoke {
		return ScreenPokeGame
	}
	return ScreenSpin
}

// ApplyShare loads a found share into its mode, turns on shared mode and
// jumps to the play screen. Other state is left as is.
func ApplyShare(s State, res share.Resolution) State {
	if res.Status != share.StatusFound {
		return s
	}

	s = s.withConfig(res.GameType, res.Config.Clone())
	s.SharedMode = true
	if res.GameType == types.GamePoke {
		s.PokedCells = []lottery.PokedCell{}
		s.PokeResult = res.Result
	} else if res.Result != nil {
		s.WheelResult = res.Result
	}
	s.Screen = PlayScreen(res.GameType)
	return s
}

// SetTheme applies theme to both modes.
func SetTheme(s State, theme types.ThemeID, now time.Time) (State, error) {
	if !theme.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownTheme, theme)
	}
	s.Wheel = s.Wheel.Clone()
	s.Wheel.ThemeID = theme
	s.Wheel.UpdatedAt = now
	s.Poke = s.Poke.Clone()
	s.Poke.ThemeID = theme
	s.Poke.UpdatedAt = now
	return s, nil
}

// AddOption appends opt to the mode, up to its limit.
func AddOption(s State, gameType types.GameType, opt types.Option) (State, error) {
	cfg := s.Config(gameType).Clone()
	if len(cfg.Options) >= MaxOptions(gameType) {
		return s, fmt.Errorf("%w: %d", ErrOptionLimit, MaxOptions(gameType))
	}
	for _, existing := range cfg.Options {
		if existing.ID == opt.ID {
			return s, fmt.Errorf("%w: %s", ErrDuplicateID, opt.ID)
		}
	}
	cfg.Options = append(cfg.Options, opt)
	return s.withConfig(gameType, cfg), nil
}

// RemoveOption deletes the option with id.
func RemoveOption(s State, gameType types.GameType, id string) (State, error) {
	cfg := s.Config(gameType).Clone()
	for i, existing := range cfg.Options {
		if existing.ID == id {
			cfg.Options = append(cfg.Options[:i], cfg.Options[i+1:]...)
			return s.withConfig(gameType, cfg), nil
		}
	}
	return s, fmt.Errorf("%w: %s", ErrOptionNotFound, id)
}

// UpdateOption replaces the option that has opt.ID.
func UpdateOption(s State, gameType types.GameType, opt types.Option) (State, error) {
	cfg := s.Config(gameType).Clone()
	for i, existing := range cfg.Options {
		if existing.ID == opt.ID {
			cfg.Options[i] = opt
			return s.withConfig(gameType, cfg), nil
		}
	}
	return s, fmt.Errorf("%w: %s", ErrOptionNotFound, opt.ID)
}

// ReplaceConfig swaps in a whole configuration, keeping the mode's id.
func ReplaceConfig(s State, gameType types.GameType, cfg types.GameConfiguration, now time.Time) (State, error) {
	if len(cfg.Options) > MaxOptions(gameType) {
		return s, fmt.Errorf("%w: %d", ErrOptionLimit, MaxOptions(gameType))
	}
	seen := make(map[string]bool, len(cfg.Options))
	for _, opt := range cfg.Options {
		if seen[opt.ID] {
			return s, fmt.Errorf("%w: %s", ErrDuplicateID, opt.ID)
		}
		seen[opt.ID] = true
	}
	if cfg.ThemeID == "" {
		cfg.ThemeID = s.Config(gameType).ThemeID
	}
	if !cfg.ThemeID.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownTheme, cfg.ThemeID)
	}

	current := s.Config(gameType)
	next := cfg.Clone()
	if next.ID == "" {
		next.ID = current.ID
	}
	if next.Options == nil {
		next.Options = []types.Option{}
	}
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = now
	return s.withConfig(gameType, next), nil
}

// Navigate moves to screen.
func Navigate(s State, screen Screen) (State, error) {
	if !screen.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownScreen, screen)
	}
	s.Screen = screen
	return s, nil
}

// SetResult records (or clears, with nil) the draw result of gameType.
func SetResult(s State, gameType types.GameType, result *types.DrawResult) State {
	if gameType == types.GamePoke {
		s.PokeResult = result
	} else {
		s.WheelResult = result
	}
	return s
}

// RecordPoke stores the revealed cell and its result.
func RecordPoke(s State, cell lottery.PokedCell, result types.DrawResult) State {
	s.PokedCells = append(append([]lottery.PokedCell(nil), s.PokedCells...), cell)
	s.PokeResult = &result
	return s
}

// ResetPoke clears the revealed cells.
func ResetPoke(s State) State {
	s.PokedCells = []lottery.PokedCell{}
	s.PokeResult = nil
	return s
}

func BeginLoading(s State) State {
	s.LoadingShare = true
	return s
}

func EndLoading(s State) State {
	s.LoadingShare = false
	return s
}

// BeginSharing fails with ErrBusy while a share or a link resolution runs.
func BeginSharing(s State) (State, error) {
	if s.Sharing || s.LoadingShare {
		return s, ErrBusy
	}
	s.Sharing = true
	s.ShareURL = ""
	return s, nil
}

// EndSharing clears the sharing flag and keeps the created url (may be empty).
func EndSharing(s State, url string) State {
	s.Sharing = false
	s.ShareURL = url
	return s
}
