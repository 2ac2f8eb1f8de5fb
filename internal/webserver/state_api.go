package webserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/lottery"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

type optionRequest struct {
	ID      string           `json:"id"`
	Type    types.OptionKind `json:"type"`
	Content string           `json:"content"`
	Label   string           `json:"label,omitempty"`
}

type configRequest struct {
	Name           string          `json:"name"`
	CustomGreeting string          `json:"customGreeting"`
	ThemeID        types.ThemeID   `json:"themeId"`
	Options        []optionRequest `json:"options"`
}

// toOption は画像の local / remote を保存先URLかどうかだけで判定する。
// クライアントが送る source は信用しない。
func (s *Server) toOption(req optionRequest) (types.Option, error) {
	if req.ID == "" {
		req.ID = appstate.NewOptionID()
	}
	if req.Type == "" {
		req.Type = types.OptionText
	}
	var source types.RefKind
	if req.Type == types.OptionImage {
		source = s.client.RefFor(req.Content).Kind
	}
	return types.NewOption(req.ID, req.Type, req.Content, source, req.Label)
}

func pathGameType(w http.ResponseWriter, r *http.Request) (types.GameType, bool) {
	gameType, err := types.ParseGameType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_game_type", err.Error())
		return "", false
	}
	return gameType, true
}

func writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appstate.ErrOptionLimit),
		errors.Is(err, appstate.ErrDuplicateID),
		errors.Is(err, appstate.ErrUnknownTheme),
		errors.Is(err, appstate.ErrUnknownScreen),
		errors.Is(err, types.ErrEmptyOptionID),
		errors.Is(err, types.ErrUnknownKind),
		errors.Is(err, types.ErrEmptyImageRef),
		errors.Is(err, types.ErrUnknownRefKind):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, appstate.ErrOptionNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, lottery.ErrNoOptions),
		errors.Is(err, lottery.ErrCellPoked),
		errors.Is(err, lottery.ErrCellOutOfRange),
		errors.Is(err, lottery.ErrBoardExhausted):
		writeError(w, http.StatusConflict, "draw_rejected", err.Error())
	default:
		logger.Error("State update failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal_error", "failed to update state")
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Snapshot())
}

// handleConfig はモードごとの設定の取得・保存を処理する
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	gameType, ok := pathGameType(w, r)
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.Snapshot().Config(gameType))
	case http.MethodPut:
		var req configRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}

		cfg := types.GameConfiguration{
			Name:           strings.TrimSpace(req.Name),
			CustomGreeting: req.CustomGreeting,
			ThemeID:        req.ThemeID,
			Options:        make([]types.Option, 0, len(req.Options)),
		}
		if cfg.Name == "" {
			cfg.Name = appstate.DefaultConfig(gameType, cfg.UpdatedAt).Name
		}
		for _, o := range req.Options {
			opt, err := s.toOption(o)
			if err != nil {
				writeStateError(w, err)
				return
			}
			cfg.Options = append(cfg.Options, opt)
		}

		state, err := s.store.SaveConfig(gameType, cfg)
		if err != nil {
			writeStateError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, state.Config(gameType))
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAddOption(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameType, ok := pathGameType(w, r)
	if !ok {
		return
	}

	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	opt, err := s.toOption(req)
	if err != nil {
		writeStateError(w, err)
		return
	}

	state, err := s.store.AddOption(gameType, opt)
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, state.Config(gameType))
}

// handleOption は選択肢1件の更新と削除を処理する
func (s *Server) handleOption(w http.ResponseWriter, r *http.Request) {
	gameType, ok := pathGameType(w, r)
	if !ok {
		return
	}
	optionID := r.PathValue("optionId")

	var (
		state appstate.State
		err   error
	)
	switch r.Method {
	case http.MethodPut:
		var req optionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
		req.ID = optionID
		opt, convErr := s.toOption(req)
		if convErr != nil {
			writeStateError(w, convErr)
			return
		}
		state, err = s.store.UpdateOption(gameType, opt)
	case http.MethodDelete:
		state, err = s.store.RemoveOption(gameType, optionID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state.Config(gameType))
}

type themeRequest struct {
	ThemeID types.ThemeID `json:"themeId"`
}

// handleTheme はテーマを両モードに適用して保存する
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req themeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	state, err := s.store.SetTheme(req.ThemeID)
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type screenRequest struct {
	Screen appstate.Screen `json:"screen"`
}

func (s *Server) handleScreen(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req screenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	state, err := s.store.Navigate(req.Screen)
	if err != nil {
		writeStateError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

type drawRequest struct {
	Cell int `json:"cell"`
}

type drawResponse struct {
	Result types.DrawResult `json:"result"`
	Grid   *lottery.Grid    `json:"grid,omitempty"`
}

// 画面サイズ未指定時は一般的なスマホ縦画面
const (
	defaultScreenWidth  = 390
	defaultScreenHeight = 844
)

func screenSize(r *http.Request) (float64, float64) {
	width, height := float64(defaultScreenWidth), float64(defaultScreenHeight)
	if v, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64); err == nil && v > 0 {
		width = v
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("height"), 64); err == nil && v > 0 {
		height = v
	}
	return width, height
}

// handleDraw はルーレットを回す、または戳戳樂のマスを開ける
func (s *Server) handleDraw(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	gameType, ok := pathGameType(w, r)
	if !ok {
		return
	}

	// ルーレットはボディなしで呼ばれる
	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	result, err := s.store.Draw(gameType, req.Cell)
	if err != nil {
		writeStateError(w, err)
		return
	}

	resp := drawResponse{Result: result}
	if gameType == types.GamePoke {
		width, height := screenSize(r)
		grid := lottery.CalculateGrid(len(s.store.Snapshot().Poke.Options), width, height)
		resp.Grid = &grid
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePokeReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.store.ResetPoke())
}

// handleBlob serves uploaded share images
func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/blobs/")
	data, contentType, err := s.blobs.Open(key)
	if err != nil {
		if errors.Is(err, sharestore.ErrNotFound) || errors.Is(err, sharestore.ErrInvalidBlobKey) {
			http.NotFound(w, r)
			return
		}
		logger.Error("Failed to read blob", zap.String("key", key), zap.Error(err))
		http.Error(w, "Failed to read blob", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(data)
}
