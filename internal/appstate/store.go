package appstate

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ichi0g0y/luckydraw/internal/localdb"
	"github.com/ichi0g0y/luckydraw/internal/lottery"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

// Slots persists one serialized configuration per mode.
type Slots interface {
	SaveConfigSlot(slot string, value []byte) error
	LoadConfigSlot(slot string) ([]byte, error)
}

type localdbSlots struct{}

func (localdbSlots) SaveConfigSlot(slot string, value []byte) error {
	return localdb.SaveConfigSlot(slot, value)
}

func (localdbSlots) LoadConfigSlot(slot string) ([]byte, error) {
	return localdb.LoadConfigSlot(slot)
}

// Listener is called with the new state after every change.
type Listener func(State)

// Store owns the session state. All transitions run under one lock.
type Store struct {
	mu        sync.Mutex
	state     State
	slots     Slots
	board     *lottery.PokeBoard
	listeners map[int]Listener
	nextID    int
	now       func() time.Time
}

// NewStore returns a store backed by the local database slots.
func NewStore() *Store {
	return NewStoreWithSlots(localdbSlots{})
}

func NewStoreWithSlots(slots Slots) *Store {
	return &Store{
		state:     Initial(time.Now()),
		slots:     slots,
		listeners: map[int]Listener{},
		now:       time.Now,
	}
}

func slotFor(gameType types.GameType) string {
	if gameType == types.GamePoke {
		return localdb.PokeConfigSlot
	}
	return localdb.WheelConfigSlot
}

// Load reads both slots. A missing slot keeps the defaults.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, gameType := range []types.GameType{types.GameWheel, types.GamePoke} {
		raw, err := s.slots.LoadConfigSlot(slotFor(gameType))
		if err != nil {
			return fmt.Errorf("failed to load %s config: %w", gameType, err)
		}
		if raw == nil {
			continue
		}

		var cfg types.GameConfiguration
		if err := json.Unmarshal(raw, &cfg); err != nil {
			logger.Warn("Stored config is unreadable, using defaults", zap.String("type", string(gameType)), zap.Error(err))
			continue
		}
		if cfg.Options == nil {
			cfg.Options = []types.Option{}
		}
		if !cfg.ThemeID.Valid() {
			cfg.ThemeID = types.ThemeClassic
		}
		s.state = s.state.withConfig(gameType, cfg)
	}
	s.board = nil
	return nil
}

func (s *Store) saveLocked(gameType types.GameType) error {
	cfg := s.state.Config(gameType)
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode %s config: %w", gameType, err)
	}
	if err := s.slots.SaveConfigSlot(slotFor(gameType), raw); err != nil {
		return err
	}
	return nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// commitLocked stores next and returns the listeners to notify after unlock.
func (s *Store) commitLocked(next State) []Listener {
	s.state = next
	out := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []Listener, state State) {
	for _, fn := range listeners {
		fn(state)
	}
}

// Update applies a pure transition.
func (s *Store) Update(fn func(State) (State, error)) (State, error) {
	s.mu.Lock()
	next, err := fn(s.state)
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}
	listeners := s.commitLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return next, nil
}

// ApplyShare loads a resolved share into the session without saving it.
func (s *Store) ApplyShare(res share.Resolution) State {
	s.mu.Lock()
	next := ApplyShare(s.state, res)
	if res.Status == share.StatusFound && res.GameType == types.GamePoke {
		s.board = nil
	}
	listeners := s.commitLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return next
}

// SetTheme applies theme to both modes and saves both.
func (s *Store) SetTheme(theme types.ThemeID) (State, error) {
	s.mu.Lock()
	next, err := SetTheme(s.state, theme, s.now())
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}
	listeners := s.commitLocked(next)
	saveErr := s.saveLocked(types.GameWheel)
	if err := s.saveLocked(types.GamePoke); err != nil && saveErr == nil {
		saveErr = err
	}
	s.mu.Unlock()

	notify(listeners, next)
	if saveErr != nil {
		logger.Error("Failed to save theme", zap.Error(saveErr))
		return next, saveErr
	}
	return next, nil
}

// SaveConfig replaces and persists the configuration of gameType.
func (s *Store) SaveConfig(gameType types.GameType, cfg types.GameConfiguration) (State, error) {
	s.mu.Lock()
	next, err := ReplaceConfig(s.state, gameType, cfg, s.now())
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}
	if gameType == types.GamePoke {
		next = ResetPoke(next)
		s.board = nil
	} else {
		next = SetResult(next, gameType, nil)
	}
	listeners := s.commitLocked(next)
	saveErr := s.saveLocked(gameType)
	s.mu.Unlock()

	notify(listeners, next)
	return next, saveErr
}

// AddOption appends opt. An empty option id gets a generated one.
func (s *Store) AddOption(gameType types.GameType, opt types.Option) (State, error) {
	if opt.ID == "" {
		opt.ID = NewOptionID()
	}
	return s.editOptions(gameType, func(st State) (State, error) {
		return AddOption(st, gameType, opt)
	})
}

func (s *Store) RemoveOption(gameType types.GameType, id string) (State, error) {
	return s.editOptions(gameType, func(st State) (State, error) {
		return RemoveOption(st, gameType, id)
	})
}

// UpdateOption replaces the option with opt.ID. Saving an unchanged option keeps the poke round.
func (s *Store) UpdateOption(gameType types.GameType, opt types.Option) (State, error) {
	return s.editOptions(gameType, func(st State) (State, error) {
		return UpdateOption(st, gameType, opt)
	})
}

// editOptions applies fn and starts a new poke round when the poke options changed.
func (s *Store) editOptions(gameType types.GameType, fn func(State) (State, error)) (State, error) {
	return s.Update(func(st State) (State, error) {
		next, err := fn(st)
		if err != nil || gameType != types.GamePoke || sameOptions(st.Poke.Options, next.Poke.Options) {
			return next, err
		}
		s.board = nil
		return ResetPoke(next), nil
	})
}

func sameOptions(a, b []types.Option) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].ContentEqual(b[i]) {
			return false
		}
	}
	return true
}

// Navigate moves to screen. Entering a play screen saves that mode.
func (s *Store) Navigate(screen Screen) (State, error) {
	s.mu.Lock()
	next, err := Navigate(s.state, screen)
	if err != nil {
		cur := s.state
		s.mu.Unlock()
		return cur, err
	}

	var saveErr error
	switch screen {
	case ScreenSpin:
		next.Wheel.UpdatedAt = s.now()
		s.state = next
		saveErr = s.saveLocked(types.GameWheel)
	case ScreenPokeGame:
		next.Poke.UpdatedAt = s.now()
		s.state = next
		saveErr = s.saveLocked(types.GamePoke)
	}
	listeners := s.commitLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return next, saveErr
}

// Draw spins the wheel, or pokes cell on the poke board.
func (s *Store) Draw(gameType types.GameType, cell int) (types.DrawResult, error) {
	s.mu.Lock()
	var (
		result types.DrawResult
		err    error
		next   State
	)
	switch gameType {
	case types.GameWheel:
		result, err = lottery.Spin(s.state.Wheel.Options)
		if err == nil {
			next = SetResult(s.state, gameType, &result)
		}
	case types.GamePoke:
		if s.board == nil {
			s.board, err = lottery.NewPokeBoard(s.state.Poke.Options)
		}
		if err == nil {
			result, err = s.board.Poke(cell)
		}
		if err == nil {
			next = RecordPoke(s.state, lottery.PokedCell{CellIndex: cell, Option: result.Option}, result)
		}
	default:
		err = fmt.Errorf("unknown game type %q", gameType)
	}
	if err != nil {
		s.mu.Unlock()
		return types.DrawResult{}, err
	}
	listeners := s.commitLocked(next)
	s.mu.Unlock()

	notify(listeners, next)
	return result, nil
}

// ResetPoke starts a new poke round.
func (s *Store) ResetPoke() State {
	s.mu.Lock()
	s.board = nil
	s.mu.Unlock()
	next, _ := s.Update(func(st State) (State, error) { return ResetPoke(st), nil })
	return next
}

// BeginSharing marks a share in progress, or returns ErrBusy.
func (s *Store) BeginSharing() error {
	_, err := s.Update(BeginSharing)
	return err
}

func (s *Store) EndSharing(url string) {
	_, _ = s.Update(func(st State) (State, error) { return EndSharing(st, url), nil })
}

func (s *Store) BeginLoading() {
	_, _ = s.Update(func(st State) (State, error) { return BeginLoading(st), nil })
}

func (s *Store) EndLoading() {
	_, _ = s.Update(func(st State) (State, error) { return EndLoading(st), nil })
}

// NewOptionID returns an id for an option created on this device.
func NewOptionID() string {
	return uuid.NewString()
}
