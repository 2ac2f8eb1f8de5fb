package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestNewOption_Validation(t *testing.T) {
	if _, err := NewOption(" ", OptionText, "a", "", ""); !errors.Is(err, ErrEmptyOptionID) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewOption("1", "video", "a", "", ""); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewOption("1", OptionImage, "", "", ""); !errors.Is(err, ErrEmptyImageRef) {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewOption("1", OptionImage, "/tmp/a.jpg", "cloud", ""); !errors.Is(err, ErrUnknownRefKind) {
		t.Fatalf("unexpected error: %v", err)
	}

	opt, err := NewOption("1", OptionImage, "/tmp/a.jpg", "", "cat")
	if err != nil {
		t.Fatalf("NewOption failed: %v", err)
	}
	if opt.Image.Kind != RefLocal {
		t.Fatalf("image ref should default to local: got=%q", opt.Image.Kind)
	}
}

func TestOption_JSONKeepsRefKind(t *testing.T) {
	opt, err := NewImageOption("img-1", RemoteRef("https://cdn.example/a.jpg"), "prize")
	if err != nil {
		t.Fatalf("NewImageOption failed: %v", err)
	}

	data, err := json.Marshal(opt)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded Option
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Image != opt.Image {
		t.Fatalf("image ref mismatch: got=%+v want=%+v", decoded.Image, opt.Image)
	}
	if decoded.Label != "prize" {
		t.Fatalf("label mismatch: got=%q", decoded.Label)
	}
}

func TestOption_TextJSONHasNoSource(t *testing.T) {
	opt, _ := NewTextOption("t-1", "紅包", "")
	data, err := json.Marshal(opt)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"id":"t-1","type":"text","content":"紅包"}` {
		t.Fatalf("unexpected json: %s", data)
	}
}

func TestToSharedOption_RejectsLocalImage(t *testing.T) {
	opt, _ := NewImageOption("img-1", LocalRef("file:///tmp/a.jpg"), "")
	if _, err := ToSharedOption(opt); err == nil {
		t.Fatalf("local image must not convert to a shared option")
	}
}

func TestSharedResult_FallbackOption(t *testing.T) {
	winner, _ := NewImageOption("img-9", RemoteRef("https://cdn.example/9.jpg"), "bike")
	shared := NewSharedResult(DrawResult{Option: winner, Index: 3}, time.UnixMilli(1700000000000))
	if shared.Timestamp != 1700000000000 {
		t.Fatalf("unexpected timestamp: got=%d", shared.Timestamp)
	}

	fallback := shared.FallbackOption("?")
	if !fallback.ContentEqual(winner) {
		t.Fatalf("fallback mismatch: got=%+v want=%+v", fallback, winner)
	}
}

func TestSharedResult_FallbackOptionDegradesToText(t *testing.T) {
	tests := []struct {
		name     string
		shared   SharedResult
		wantID   string
		wantText string
	}{
		{
			name:     "image without url uses label",
			shared:   SharedResult{OptionID: "gone", OptionType: OptionImage, OptionLabel: "頭獎"},
			wantID:   "gone",
			wantText: "頭獎",
		},
		{
			name:     "image without url or label uses placeholder",
			shared:   SharedResult{OptionID: "gone", OptionType: OptionImage},
			wantID:   "gone",
			wantText: "?",
		},
		{
			name:     "unknown type",
			shared:   SharedResult{OptionID: "x", OptionType: OptionKind("video"), OptionContent: "v.mp4"},
			wantID:   "x",
			wantText: "?",
		},
		{
			name:     "blank id",
			shared:   SharedResult{OptionContent: "紅包", OptionLabel: "紅包"},
			wantID:   fallbackResultID,
			wantText: "紅包",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.shared.FallbackOption("?")
			if got.Kind != OptionText || got.ID != tt.wantID || got.Text != tt.wantText {
				t.Fatalf("unexpected fallback: got=%+v want id=%s text=%s", got, tt.wantID, tt.wantText)
			}
		})
	}
}
