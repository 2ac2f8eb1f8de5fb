package webserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ichi0g0y/luckydraw/internal/appstate"
	"github.com/ichi0g0y/luckydraw/internal/share"
	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

// 共有操作のユーザー向け文言
const (
	msgCannotShare    = "無法分享"
	msgNeedOption     = "請先新增至少一個選項"
	msgShareFailed    = "分享失敗"
	msgShareRetryHint = "請稍後再試"
	msgNoResult       = "還沒有抽獎結果"
	msgBusy           = "正在處理中，請稍候"
)

type createShareRequest struct {
	Type string `json:"type"`
	// Preview は data: URI もしくはローカルパス
	Preview string `json:"preview,omitempty"`
}

type createShareResponse struct {
	ID      string             `json:"id"`
	URL     string             `json:"url"`
	AppURL  string             `json:"appUrl,omitempty"`
	Message string             `json:"message"`
	Record  *types.ShareRecord `json:"record"`
}

func decodeShareRequest(r *http.Request) (createShareRequest, types.GameType, error) {
	var req createShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, "", fmt.Errorf("invalid request body: %w", err)
	}
	gameType, err := types.ParseGameType(req.Type)
	return req, gameType, err
}

// handleCreateShare は現在の設定を共有する
func (s *Server) handleCreateShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, gameType, err := decodeShareRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	cfg := s.store.Snapshot().Config(gameType)
	if len(cfg.Options) == 0 {
		writeError(w, http.StatusBadRequest, msgCannotShare, msgNeedOption)
		return
	}
	if !s.beginSharing(w) {
		return
	}

	record, err := s.serializer.CreateShare(r.Context(), cfg, gameType)
	if err != nil {
		s.store.EndSharing("")
		s.writeShareFailure(w, err)
		return
	}

	url := share.URL(s.linkBase(r), record.ID)
	s.store.EndSharing(url)
	writeJSON(w, http.StatusCreated, createShareResponse{
		ID:      record.ID,
		URL:     url,
		AppURL:  share.AppLink(s.appScheme, record.ID),
		Message: share.LinkMessage(cfg.Name),
		Record:  record,
	})
}

// handleCreateResultShare は現在の抽選結果つきで共有する
func (s *Server) handleCreateResultShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, gameType, err := decodeShareRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	state := s.store.Snapshot()
	cfg := state.Config(gameType)
	if len(cfg.Options) == 0 {
		writeError(w, http.StatusBadRequest, msgCannotShare, msgNeedOption)
		return
	}
	result := state.Result(gameType)
	if result == nil {
		writeError(w, http.StatusBadRequest, msgCannotShare, msgNoResult)
		return
	}
	if !s.beginSharing(w) {
		return
	}

	rs := share.ResultShare{Result: *result}
	if req.Preview != "" {
		ref := s.client.RefFor(req.Preview)
		rs.Preview = &ref
	}

	record, err := s.serializer.CreateShareWithResult(r.Context(), cfg, gameType, rs)
	if err != nil {
		s.store.EndSharing("")
		s.writeShareFailure(w, err)
		return
	}

	url := share.URL(s.linkBase(r), record.ID)
	s.store.EndSharing(url)
	writeJSON(w, http.StatusCreated, createShareResponse{
		ID:      record.ID,
		URL:     url,
		AppURL:  share.AppLink(s.appScheme, record.ID),
		Message: share.ResultMessage(cfg.Name, result.Option),
		Record:  record,
	})
}

func (s *Server) beginSharing(w http.ResponseWriter) bool {
	err := s.store.BeginSharing()
	if err == nil {
		return true
	}
	if errors.Is(err, appstate.ErrBusy) {
		writeError(w, http.StatusConflict, "busy", msgBusy)
	} else {
		writeError(w, http.StatusInternalServerError, msgShareFailed, msgShareRetryHint)
	}
	return false
}

func (s *Server) writeShareFailure(w http.ResponseWriter, err error) {
	logger.Error("Failed to create share", zap.Error(err))

	detail := msgShareRetryHint
	if errors.Is(err, share.ErrPersistShare) {
		detail = err.Error()
	}
	writeError(w, http.StatusBadGateway, msgShareFailed, "無法建立分享連結："+detail)
}

// handleGetShare は共有を解決して返す（状態は変更しない）
func (s *Server) handleGetShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.PathValue("id")
	res, err := s.resolver.Resolve(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadGateway, "load_failed", "無法載入分享的內容")
		return
	}
	if res.Status == share.StatusNotFound {
		writeError(w, http.StatusNotFound, "not_found", "找不到分享的內容")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// linkBase は共有URLの origin。設定がなければページの origin を使う。
func (s *Server) linkBase(r *http.Request) string {
	if s.shareBaseURL != "" {
		return s.shareBaseURL
	}
	return requestOrigin(r)
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(proto)
	}
	host := r.Host
	if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}

// firstHeaderValue は "a, b" 形式のプロキシヘッダの先頭を返す
func firstHeaderValue(r *http.Request, key string) string {
	v, _, _ := strings.Cut(r.Header.Get(key), ",")
	return strings.TrimSpace(v)
}

// handleShareQR は共有URLのQRコードPNGを返す
func (s *Server) handleShareQR(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	size := 256
	if raw := r.URL.Query().Get("size"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 64 && v <= 1024 {
			size = v
		}
	}

	png, err := share.QRCode(share.URL(s.linkBase(r), r.PathValue("id")), size)
	if err != nil {
		logger.Error("Failed to render QR code", zap.Error(err))
		http.Error(w, "Failed to render QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(png)
}

type linkEventRequest struct {
	URL string `json:"url"`
}

type linkEventResponse struct {
	ShareID  string `json:"shareId,omitempty"`
	Accepted bool   `json:"accepted"`
}

// handleLinkEvent は起動中に受け取ったディープリンクを処理する
func (s *Server) handleLinkEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req linkEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "url is required")
		return
	}

	id, _, accepted := s.dispatcher.HandleURL(req.URL)
	writeJSON(w, http.StatusAccepted, linkEventResponse{ShareID: id, Accepted: accepted})
}

// redirectRewriter は replaceState の代わりに 303 でリダイレクトする
type redirectRewriter struct {
	w http.ResponseWriter
	r *http.Request
}

func (rw redirectRewriter) ReplaceURL(path string) {
	http.Redirect(rw.w, rw.r, path, http.StatusSeeOther)
}

func (s *Server) handleWebLaunch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.launchWeb(w, r)
}

func (s *Server) launchWeb(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.dispatcher.LaunchWeb(r.URL.Query(), r.URL.Path, redirectRewriter{w: w, r: r})
	if !ok && id == "" {
		http.NotFound(w, r)
		return
	}
	logger.Debug("Web launch link consumed", zap.String("share_id", id), zap.Bool("queued", ok))
}
