package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// OptionKind は選択肢の種類（テキスト / 画像）
type OptionKind string

const (
	OptionText  OptionKind = "text"
	OptionImage OptionKind = "image"
)

// RefKind distinguishes a transient local image reference from a durable URL.
type RefKind string

const (
	RefLocal  RefKind = "local"
	RefRemote RefKind = "remote"
)

var (
	ErrEmptyOptionID  = errors.New("option id is empty")
	ErrUnknownKind    = errors.New("unknown option kind")
	ErrEmptyImageRef  = errors.New("image reference is empty")
	ErrUnknownRefKind = errors.New("unknown image reference kind")
)

// ImageRef is either Local(path) or Remote(url). Only remote refs may be persisted in a share.
type ImageRef struct {
	Kind     RefKind
	Location string
}

func LocalRef(path string) ImageRef { return ImageRef{Kind: RefLocal, Location: path} }
func RemoteRef(url string) ImageRef { return ImageRef{Kind: RefRemote, Location: url} }

func (r ImageRef) IsRemote() bool { return r.Kind == RefRemote }

// Option は1つの選択肢。Kind によって Text か Image のどちらかが有効になる。
type Option struct {
	ID    string
	Kind  OptionKind
	Text  string
	Image ImageRef
	Label string
}

// NewTextOption builds a text option.
func NewTextOption(id, text, label string) (Option, error) {
	return NewOption(id, OptionText, text, "", label)
}

// NewImageOption builds an image option from an explicit reference.
func NewImageOption(id string, ref ImageRef, label string) (Option, error) {
	return NewOption(id, OptionImage, ref.Location, ref.Kind, label)
}

// NewOption is the single validated constructor for options.
// refKind is ignored for text options; for image options an empty refKind means local.
func NewOption(id string, kind OptionKind, content string, refKind RefKind, label string) (Option, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Option{}, ErrEmptyOptionID
	}

	switch kind {
	case OptionText:
		return Option{ID: id, Kind: OptionText, Text: content, Label: label}, nil
	case OptionImage:
		if strings.TrimSpace(content) == "" {
			return Option{}, fmt.Errorf("option %s: %w", id, ErrEmptyImageRef)
		}
		if refKind == "" {
			refKind = RefLocal
		}
		if refKind != RefLocal && refKind != RefRemote {
			return Option{}, fmt.Errorf("option %s: %w: %q", id, ErrUnknownRefKind, refKind)
		}
		return Option{ID: id, Kind: OptionImage, Image: ImageRef{Kind: refKind, Location: content}, Label: label}, nil
	default:
		return Option{}, fmt.Errorf("option %s: %w: %q", id, ErrUnknownKind, kind)
	}
}

// Content returns the display text or the image location.
func (o Option) Content() string {
	if o.Kind == OptionImage {
		return o.Image.Location
	}
	return o.Text
}

// DisplayText is what a text-only surface shows for the option.
func (o Option) DisplayText(fallback string) string {
	if o.Kind == OptionText {
		return o.Text
	}
	if o.Label != "" {
		return o.Label
	}
	return fallback
}

// ContentEqual compares options ignoring whether an image ref is local or remote.
func (o Option) ContentEqual(other Option) bool {
	return o.ID == other.ID && o.Kind == other.Kind && o.Content() == other.Content() && o.Label == other.Label
}

type optionJSON struct {
	ID      string     `json:"id"`
	Type    OptionKind `json:"type"`
	Content string     `json:"content"`
	Label   string     `json:"label,omitempty"`
	Source  RefKind    `json:"source,omitempty"`
}

// MarshalJSON writes the local persistence form, which keeps the ref kind.
func (o Option) MarshalJSON() ([]byte, error) {
	out := optionJSON{ID: o.ID, Type: o.Kind, Content: o.Content(), Label: o.Label}
	if o.Kind == OptionImage {
		out.Source = o.Image.Kind
	}
	return json.Marshal(out)
}

func (o *Option) UnmarshalJSON(data []byte) error {
	var in optionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	parsed, err := NewOption(in.ID, in.Type, in.Content, in.Source, in.Label)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
