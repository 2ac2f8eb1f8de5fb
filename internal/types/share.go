package types

import (
	"fmt"
	"strings"
	"time"
)

// SharedOption is the wire form of an option inside a ShareRecord.
type SharedOption struct {
	ID      string     `json:"id"`
	Type    OptionKind `json:"type"`
	Content string     `json:"content"`
	Label   string     `json:"label,omitempty"`
}

// SharedResult is an embedded draw result.
type SharedResult struct {
	OptionID      string     `json:"optionId"`
	OptionContent string     `json:"optionContent"`
	OptionType    OptionKind `json:"optionType"`
	OptionLabel   string     `json:"optionLabel,omitempty"`
	Timestamp     int64      `json:"timestamp"`
}

// ShareRecord is the immutable remote document keyed by ID.
// Optional fields are omitted, never written as null.
type ShareRecord struct {
	ID              string         `json:"id"`
	Type            GameType       `json:"type"`
	Name            string         `json:"name"`
	CustomGreeting  string         `json:"customGreeting"`
	Options         []SharedOption `json:"options"`
	ThemeID         ThemeID        `json:"themeId"`
	CreatedAt       time.Time      `json:"createdAt"`
	SharedResult    *SharedResult  `json:"sharedResult,omitempty"`
	PreviewImageURL string         `json:"previewImageUrl,omitempty"`
}

// ToSharedOption converts an option whose image (if any) is already remote.
func ToSharedOption(o Option) (SharedOption, error) {
	if o.Kind == OptionImage && !o.Image.IsRemote() {
		return SharedOption{}, fmt.Errorf("option %s: local image reference cannot be shared", o.ID)
	}
	return SharedOption{ID: o.ID, Type: o.Kind, Content: o.Content(), Label: o.Label}, nil
}

// OptionFromShared rebuilds a domain option from the wire form. Shared images are always remote.
func OptionFromShared(s SharedOption) (Option, error) {
	return NewOption(s.ID, s.Type, s.Content, RefRemote, s.Label)
}

// NewSharedResult captures a draw result for embedding in a share.
func NewSharedResult(r DrawResult, now time.Time) SharedResult {
	return SharedResult{
		OptionID:      r.Option.ID,
		OptionContent: r.Option.Content(),
		OptionType:    r.Option.Kind,
		OptionLabel:   r.Option.Label,
		Timestamp:     now.UnixMilli(),
	}
}

// fallbackResultID is used when the embedded result carries no option id.
const fallbackResultID = "shared-result"

// FallbackOption synthesizes the winning option from the embedded result fields.
// It never fails: fields that cannot form a valid option (an image without a
// URL, an unknown type, a blank id) degrade to a text option showing the label,
// or placeholder when there is no label.
func (s SharedResult) FallbackOption(placeholder string) Option {
	kind := s.OptionType
	if kind == "" {
		kind = OptionText
	}
	if opt, err := NewOption(s.OptionID, kind, s.OptionContent, RefRemote, s.OptionLabel); err == nil {
		return opt
	}

	id := strings.TrimSpace(s.OptionID)
	if id == "" {
		id = fallbackResultID
	}
	text := s.OptionLabel
	if strings.TrimSpace(text) == "" {
		text = placeholder
	}
	return Option{ID: id, Kind: OptionText, Text: text}
}
