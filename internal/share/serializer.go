package share

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/shareid"
	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPersistShare wraps a failed write of the final share record.
	ErrPersistShare = errors.New("failed to save share")
	// ErrNoOptions rejects sharing an empty configuration.
	ErrNoOptions = errors.New("configuration has no options")
)

// Serializer turns a configuration into a persisted ShareRecord.
type Serializer struct {
	client      *sharestore.Client
	concurrency int
	now         func() time.Time
	newID       func() (string, error)
}

func NewSerializer(client *sharestore.Client, concurrency int) *Serializer {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Serializer{
		client:      client,
		concurrency: concurrency,
		now:         time.Now,
		newID:       shareid.New,
	}
}

// ResultShare carries the draw result and optional preview for CreateShareWithResult.
type ResultShare struct {
	Result  types.DrawResult
	Preview *types.ImageRef
}

// CreateShare generates an id, serializes cfg and persists it.
func (s *Serializer) CreateShare(ctx context.Context, cfg types.GameConfiguration, gameType types.GameType) (*types.ShareRecord, error) {
	return s.create(ctx, cfg, gameType, nil)
}

// CreateShareWithResult is CreateShare with an embedded result and preview image.
func (s *Serializer) CreateShareWithResult(ctx context.Context, cfg types.GameConfiguration, gameType types.GameType, rs ResultShare) (*types.ShareRecord, error) {
	return s.create(ctx, cfg, gameType, &rs)
}

func (s *Serializer) create(ctx context.Context, cfg types.GameConfiguration, gameType types.GameType, rs *ResultShare) (*types.ShareRecord, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("unknown game type %q", gameType)
	}
	if len(cfg.Options) == 0 {
		return nil, ErrNoOptions
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share id: %w", err)
	}

	record, err := s.Serialize(ctx, cfg, gameType, id)
	if err != nil {
		return nil, err
	}
	if rs != nil {
		s.attachResult(ctx, record, rs)
	}

	if err := s.client.PutShare(ctx, record); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistShare, err)
	}
	return record, nil
}

// Serialize builds the record for shareID, uploading local images first.
// A failed upload degrades that option to a text placeholder.
func (s *Serializer) Serialize(ctx context.Context, cfg types.GameConfiguration, gameType types.GameType, shareID string) (*types.ShareRecord, error) {
	options := make([]types.SharedOption, len(cfg.Options))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, opt := range cfg.Options {
		if opt.Kind == types.OptionImage && !s.client.IsDurable(opt.Image) {
			g.Go(func() error {
				// 失敗しても他のアップロードは止めない（常に nil を返す）
				options[i] = s.uploadOption(gctx, shareID, i, opt)
				return nil
			})
			continue
		}
		shared, err := types.ToSharedOption(opt)
		if err != nil {
			// IsDurable を通った画像は remote なのでここには来ない
			shared = types.SharedOption{ID: opt.ID, Type: types.OptionText, Content: PlaceholderText(opt, i)}
		}
		options[i] = shared
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &types.ShareRecord{
		ID:             shareID,
		Type:           gameType,
		Name:           cfg.Name,
		CustomGreeting: cfg.CustomGreeting,
		Options:        options,
		ThemeID:        themeOrDefault(cfg.ThemeID),
		CreatedAt:      s.now(),
	}, nil
}

func (s *Serializer) uploadOption(ctx context.Context, shareID string, index int, opt types.Option) types.SharedOption {
	url, err := s.client.UploadImage(ctx, sharestore.ImageKey(shareID, index), opt.Image)
	if err != nil {
		logger.Warn("Image upload failed, using text placeholder",
			zap.String("share_id", shareID), zap.Int("index", index), zap.String("option_id", opt.ID), zap.Error(err))
		return types.SharedOption{ID: opt.ID, Type: types.OptionText, Content: PlaceholderText(opt, index)}
	}
	return types.SharedOption{ID: opt.ID, Type: types.OptionImage, Content: url, Label: opt.Label}
}

func (s *Serializer) attachResult(ctx context.Context, record *types.ShareRecord, rs *ResultShare) {
	shared := types.NewSharedResult(rs.Result, s.now())

	// 当選した選択肢はアップロード済みの内容に揃える
	if opt, ok := findShared(record.Options, rs.Result.Option.ID); ok {
		shared.OptionContent = opt.Content
		shared.OptionType = opt.Type
		shared.OptionLabel = opt.Label
	} else if rs.Result.Option.Kind == types.OptionImage && !s.client.IsDurable(rs.Result.Option.Image) {
		shared.OptionType = types.OptionText
		shared.OptionContent = PlaceholderText(rs.Result.Option, rs.Result.Index)
		shared.OptionLabel = ""
	}
	record.SharedResult = &shared

	if rs.Preview == nil || rs.Preview.Location == "" {
		return
	}
	if s.client.IsDurable(*rs.Preview) {
		record.PreviewImageURL = rs.Preview.Location
		return
	}
	url, err := s.client.UploadImage(ctx, sharestore.PreviewKey(record.ID), *rs.Preview)
	if err != nil {
		logger.Warn("Preview upload failed, omitting preview", zap.String("share_id", record.ID), zap.Error(err))
		return
	}
	record.PreviewImageURL = url
}

func findShared(options []types.SharedOption, id string) (types.SharedOption, bool) {
	for _, opt := range options {
		if opt.ID == id {
			return opt, true
		}
	}
	return types.SharedOption{}, false
}

// PlaceholderText is the label of a degraded image option, or "Image {n}".
func PlaceholderText(opt types.Option, index int) string {
	if opt.Label != "" {
		return opt.Label
	}
	return fmt.Sprintf("Image %d", index+1)
}

func themeOrDefault(theme types.ThemeID) types.ThemeID {
	if theme.Valid() {
		return theme
	}
	return types.ThemeClassic
}
