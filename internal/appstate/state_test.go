package appstate

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/types"
)

func textOption(t *testing.T, id, text string) types.Option {
	t.Helper()
	opt, err := types.NewTextOption(id, text, "")
	if err != nil {
		t.Fatalf("NewTextOption failed: %v", err)
	}
	return opt
}

func TestInitial_Defaults(t *testing.T) {
	now := time.Unix(100, 0)
	s := Initial(now)

	if s.Screen != ScreenHome {
		t.Fatalf("unexpected screen: got=%q", s.Screen)
	}
	if s.Wheel.ID != "default" || s.Wheel.Name != "LUCKY抽 • 輪盤" {
		t.Fatalf("unexpected wheel defaults: %+v", s.Wheel)
	}
	if s.Poke.ID != "default-poke" || s.Poke.Name != "LUCKY抽 • 戳戳樂" {
		t.Fatalf("unexpected poke defaults: %+v", s.Poke)
	}
	if s.Wheel.ThemeID != types.ThemeClassic || len(s.Wheel.Options) != 0 {
		t.Fatalf("unexpected wheel config: %+v", s.Wheel)
	}
}

func TestApplyShare_Wheel(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	opt := textOption(t, "a", "紅包")
	res := share.Resolution{
		Status:   share.StatusFound,
		ShareID:  "Ab3dF9",
		GameType: types.GameWheel,
		Config:   types.GameConfiguration{ID: "Ab3dF9", Name: "shared", Options: []types.Option{opt}, ThemeID: types.ThemePink},
		Result:   &types.DrawResult{Option: opt, Index: 0},
	}

	next := ApplyShare(s, res)
	if !next.SharedMode {
		t.Fatalf("shared mode should be on")
	}
	if next.Screen != ScreenSpin {
		t.Fatalf("unexpected screen: got=%q want=%q", next.Screen, ScreenSpin)
	}
	if next.Wheel.Name != "shared" || next.WheelResult == nil || next.WheelResult.Option.ID != "a" {
		t.Fatalf("share not applied: %+v", next)
	}
	if next.Poke.ID != DefaultPokeID {
		t.Fatalf("poke config must be untouched: %+v", next.Poke)
	}
	if s.Wheel.Name != DefaultWheelName {
		t.Fatalf("input state was mutated")
	}
}

func TestApplyShare_PokeResetsCells(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	s = RecordPoke(s, pokedCell(textOption(t, "x", "X")), types.DrawResult{Option: textOption(t, "x", "X")})

	next := ApplyShare(s, share.Resolution{
		Status:   share.StatusFound,
		GameType: types.GamePoke,
		Config:   types.GameConfiguration{ID: "Zz99Aa", Name: "poke", Options: []types.Option{textOption(t, "a", "A")}},
	})
	if len(next.PokedCells) != 0 || next.PokeResult != nil {
		t.Fatalf("poke round should be reset: cells=%v result=%v", next.PokedCells, next.PokeResult)
	}
	if next.Screen != ScreenPokeGame {
		t.Fatalf("unexpected screen: got=%q", next.Screen)
	}
}

func TestApplyShare_NotFoundKeepsState(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	next := ApplyShare(s, share.Resolution{Status: share.StatusNotFound, ShareID: "Nope99"})
	if next.SharedMode || next.Screen != s.Screen || next.Wheel.ID != s.Wheel.ID {
		t.Fatalf("state changed on not found: %+v", next)
	}
}

func TestSetTheme_SyncsBothModes(t *testing.T) {
	now := time.Unix(500, 0)
	s, err := SetTheme(Initial(time.Unix(0, 0)), types.ThemeFresh, now)
	if err != nil {
		t.Fatalf("SetTheme failed: %v", err)
	}
	if s.Wheel.ThemeID != types.ThemeFresh || s.Poke.ThemeID != types.ThemeFresh {
		t.Fatalf("themes not synced: wheel=%q poke=%q", s.Wheel.ThemeID, s.Poke.ThemeID)
	}
	if !s.Wheel.UpdatedAt.Equal(now) || !s.Poke.UpdatedAt.Equal(now) {
		t.Fatalf("updatedAt not stamped")
	}

	if _, err := SetTheme(s, "neon", now); !errors.Is(err, ErrUnknownTheme) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAddOption_Limits(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	var err error
	for i := 0; i < MaxWheelOptions; i++ {
		s, err = AddOption(s, types.GameWheel, textOption(t, fmt.Sprintf("w%d", i), "x"))
		if err != nil {
			t.Fatalf("AddOption %d failed: %v", i, err)
		}
	}
	if _, err := AddOption(s, types.GameWheel, textOption(t, "over", "x")); !errors.Is(err, ErrOptionLimit) {
		t.Fatalf("unexpected error: %v", err)
	}

	// 戳戳樂は50個まで
	for i := 0; i < MaxPokeOptions; i++ {
		s, err = AddOption(s, types.GamePoke, textOption(t, fmt.Sprintf("p%d", i), "x"))
		if err != nil {
			t.Fatalf("AddOption poke %d failed: %v", i, err)
		}
	}
	if _, err := AddOption(s, types.GamePoke, textOption(t, "over", "x")); !errors.Is(err, ErrOptionLimit) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOptionEdits(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	s, _ = AddOption(s, types.GameWheel, textOption(t, "a", "A"))
	s, _ = AddOption(s, types.GameWheel, textOption(t, "b", "B"))

	if _, err := AddOption(s, types.GameWheel, textOption(t, "a", "again")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("unexpected error: %v", err)
	}

	updated, err := UpdateOption(s, types.GameWheel, textOption(t, "b", "BB"))
	if err != nil {
		t.Fatalf("UpdateOption failed: %v", err)
	}
	if updated.Wheel.Options[1].Text != "BB" || s.Wheel.Options[1].Text != "B" {
		t.Fatalf("update leaked into previous state: before=%q after=%q", s.Wheel.Options[1].Text, updated.Wheel.Options[1].Text)
	}

	removed, err := RemoveOption(updated, types.GameWheel, "a")
	if err != nil {
		t.Fatalf("RemoveOption failed: %v", err)
	}
	if len(removed.Wheel.Options) != 1 || removed.Wheel.Options[0].ID != "b" {
		t.Fatalf("unexpected options: %+v", removed.Wheel.Options)
	}
	if len(updated.Wheel.Options) != 2 {
		t.Fatalf("remove leaked into previous state")
	}

	if _, err := RemoveOption(removed, types.GameWheel, "zzz"); !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReplaceConfig(t *testing.T) {
	s := Initial(time.Unix(0, 0))
	now := time.Unix(900, 0)

	next, err := ReplaceConfig(s, types.GameWheel, types.GameConfiguration{
		Name:    "新設定",
		Options: []types.Option{textOption(t, "a", "A")},
	}, now)
	if err != nil {
		t.Fatalf("ReplaceConfig failed: %v", err)
	}
	if next.Wheel.ID != DefaultWheelID || next.Wheel.ThemeID != types.ThemeClassic || !next.Wheel.UpdatedAt.Equal(now) {
		t.Fatalf("unexpected config: %+v", next.Wheel)
	}

	dup := []types.Option{textOption(t, "a", "A"), textOption(t, "a", "B")}
	if _, err := ReplaceConfig(s, types.GameWheel, types.GameConfiguration{Options: dup}, now); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBeginSharing_Busy(t *testing.T) {
	s := Initial(time.Unix(0, 0))

	sharing, err := BeginSharing(s)
	if err != nil {
		t.Fatalf("BeginSharing failed: %v", err)
	}
	if _, err := BeginSharing(sharing); !errors.Is(err, ErrBusy) {
		t.Fatalf("second share should be busy: %v", err)
	}

	if _, err := BeginSharing(BeginLoading(s)); !errors.Is(err, ErrBusy) {
		t.Fatalf("share during link resolution should be busy: %v", err)
	}

	done := EndSharing(sharing, "https://x.com/s/Ab3dF9")
	if done.Sharing || done.ShareURL != "https://x.com/s/Ab3dF9" {
		t.Fatalf("unexpected state: %+v", done)
	}
}

func TestNavigate_Unknown(t *testing.T) {
	if _, err := Navigate(Initial(time.Unix(0, 0)), "settings"); !errors.Is(err, ErrUnknownScreen) {
		t.Fatalf("unexpected error: %v", err)
	}
}
