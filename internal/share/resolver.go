package share

import (
	"context"
	"errors"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/shared/logger"
	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/ichi0g0y/luckydraw/internal/types"
	"go.uber.org/zap"
)

// Status is the outcome of a resolution.
type Status int

const (
	StatusFound Status = iota
	StatusNotFound
)

func (s Status) String() string {
	if s == StatusFound {
		return "found"
	}
	return "not_found"
}

// Resolution is a hydrated share. Result is nil when the share carried no result.
type Resolution struct {
	Status          Status                  `json:"-"`
	ShareID         string                  `json:"shareId"`
	GameType        types.GameType          `json:"type"`
	Config          types.GameConfiguration `json:"config"`
	Result          *types.DrawResult       `json:"result,omitempty"`
	PreviewImageURL string                  `json:"previewImageUrl,omitempty"`
}

// Resolver loads share records and rebuilds app-level values from them.
type Resolver struct {
	client *sharestore.Client
	now    func() time.Time
}

func NewResolver(client *sharestore.Client) *Resolver {
	return &Resolver{client: client, now: time.Now}
}

// Resolve fetches id. A missing record is StatusNotFound with a nil error;
// any other store failure is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, id string) (Resolution, error) {
	record, err := r.client.GetShare(ctx, id)
	if errors.Is(err, sharestore.ErrNotFound) {
		logger.Info("Share not found", zap.String("share_id", id))
		return Resolution{Status: StatusNotFound, ShareID: id}, nil
	}
	if err != nil {
		return Resolution{}, err
	}
	return r.Hydrate(record), nil
}

// Hydrate converts a fetched record into a configuration and optional result.
func (r *Resolver) Hydrate(record *types.ShareRecord) Resolution {
	options := make([]types.Option, 0, len(record.Options))
	for _, shared := range record.Options {
		opt, err := types.OptionFromShared(shared)
		if err != nil {
			logger.Warn("Skipping invalid shared option", zap.String("share_id", record.ID), zap.Error(err))
			continue
		}
		options = append(options, opt)
	}

	gameType := record.Type
	if !gameType.Valid() {
		gameType = types.GameWheel
	}

	res := Resolution{
		Status:   StatusFound,
		ShareID:  record.ID,
		GameType: gameType,
		Config: types.GameConfiguration{
			ID:             record.ID,
			Name:           record.Name,
			CustomGreeting: record.CustomGreeting,
			Options:        options,
			ThemeID:        themeOrDefault(record.ThemeID),
			CreatedAt:      record.CreatedAt,
			UpdatedAt:      r.now(),
		},
		PreviewImageURL: record.PreviewImageURL,
	}

	if record.SharedResult != nil {
		res.Result = reconstructResult(record.ID, options, *record.SharedResult)
	}
	return res
}

// reconstructResult prefers the option with the same id on the board, and
// otherwise synthesizes one from the embedded result fields.
func reconstructResult(shareID string, options []types.Option, shared types.SharedResult) *types.DrawResult {
	for i, opt := range options {
		if opt.ID == shared.OptionID {
			return &types.DrawResult{Option: opt, Index: i}
		}
	}

	fallback := shared.FallbackOption(MysteryPrize)
	logger.Debug("Shared result option missing from options, using embedded fields",
		zap.String("share_id", shareID), zap.String("option_id", shared.OptionID))
	return &types.DrawResult{Option: fallback, Index: types.NoIndex}
}
