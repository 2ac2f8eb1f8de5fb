package share

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ichi0g0y/luckydraw/internal/sharestore"
	"github.com/ichi0g0y/luckydraw/internal/types"
)

type memDocuments struct {
	mu      sync.Mutex
	records map[string]types.ShareRecord
	putErr  error
	getErr  error
}

func newMemDocuments() *memDocuments {
	return &memDocuments{records: map[string]types.ShareRecord{}}
}

func (m *memDocuments) Put(_ context.Context, record *types.ShareRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.records[record.ID] = *record
	return nil
}

func (m *memDocuments) Get(_ context.Context, id string) (*types.ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	record, ok := m.records[id]
	if !ok {
		return nil, sharestore.ErrNotFound
	}
	return &record, nil
}

type fakeBlobs struct {
	mu       sync.Mutex
	uploaded []string
	fail     map[string]bool
}

func (f *fakeBlobs) Upload(_ context.Context, key string, _ []byte, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[key] {
		return "", errors.New("upload rejected")
	}
	f.uploaded = append(f.uploaded, key)
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobs) IsDurable(url string) bool {
	return strings.HasPrefix(url, "https://blobs.test/")
}

func (f *fakeBlobs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploaded)
}

type fakeReader struct{}

func (fakeReader) Read(_ context.Context, location string) ([]byte, string, error) {
	return []byte("jpeg:" + location), "image/jpeg", nil
}

type fixture struct {
	docs       *memDocuments
	blobs      *fakeBlobs
	serializer *Serializer
	resolver   *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	docs := newMemDocuments()
	blobs := &fakeBlobs{fail: map[string]bool{}}
	client := sharestore.NewClient(docs, blobs, fakeReader{}, time.Second)

	serializer := NewSerializer(client, 3)
	ids := []string{"Ab3dF9", "Zz99Aa", "Qw12Er", "Xy12Ab"}
	serializer.newID = func() (string, error) {
		id := ids[0]
		ids = append(ids[1:], id)
		return id, nil
	}
	serializer.now = func() time.Time { return time.UnixMilli(1700000000000) }

	return &fixture{docs: docs, blobs: blobs, serializer: serializer, resolver: NewResolver(client)}
}

func mustText(t *testing.T, id, text string) types.Option {
	t.Helper()
	opt, err := types.NewTextOption(id, text, "")
	if err != nil {
		t.Fatalf("NewTextOption failed: %v", err)
	}
	return opt
}

func mustImage(t *testing.T, id string, ref types.ImageRef, label string) types.Option {
	t.Helper()
	opt, err := types.NewImageOption(id, ref, label)
	if err != nil {
		t.Fatalf("NewImageOption failed: %v", err)
	}
	return opt
}

func TestSerialize_IdempotentReshare(t *testing.T) {
	f := newFixture(t)
	cfg := types.GameConfiguration{
		Name: "尾牙",
		Options: []types.Option{
			mustImage(t, "a", types.RemoteRef("https://blobs.test/shares/old/image_0.jpg"), ""),
			mustText(t, "b", "紅包"),
			mustImage(t, "c", types.RemoteRef("https://blobs.test/shares/old/image_2.jpg"), "bike"),
		},
		ThemeID: types.ThemeFresh,
	}

	record, err := f.serializer.CreateShare(context.Background(), cfg, types.GameWheel)
	if err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}
	if f.blobs.count() != 0 {
		t.Fatalf("durable images must not be uploaded again: uploads=%v", f.blobs.uploaded)
	}
	if record.Options[0].Content != "https://blobs.test/shares/old/image_0.jpg" || record.Options[2].Content != "https://blobs.test/shares/old/image_2.jpg" {
		t.Fatalf("durable urls changed: %+v", record.Options)
	}
}

func TestCreateShare_RoundTrip(t *testing.T) {
	f := newFixture(t)
	winner := mustImage(t, "c", types.LocalRef("/photos/bike.jpg"), "bike")
	cfg := types.GameConfiguration{
		Name:           "週末抽獎",
		CustomGreeting: "恭喜!",
		Options: []types.Option{
			mustText(t, "a", "紅包"),
			mustImage(t, "b", types.LocalRef("file:///photos/cat.jpg"), ""),
			winner,
			mustText(t, "d", "再來一次"),
		},
		ThemeID: types.ThemePink,
	}

	record, err := f.serializer.CreateShareWithResult(context.Background(), cfg, types.GamePoke, ResultShare{
		Result: types.DrawResult{Option: winner, Index: 2},
	})
	if err != nil {
		t.Fatalf("CreateShareWithResult failed: %v", err)
	}
	if record.ID != "Ab3dF9" {
		t.Fatalf("unexpected share id: got=%q", record.ID)
	}
	for _, opt := range record.Options {
		if opt.Type == types.OptionImage && !strings.HasPrefix(opt.Content, "https://blobs.test/") {
			t.Fatalf("persisted image is not durable: %+v", opt)
		}
	}
	if record.SharedResult.OptionContent != "https://blobs.test/shares/Ab3dF9/image_2.jpg" {
		t.Fatalf("result must reference the uploaded image: got=%q", record.SharedResult.OptionContent)
	}

	res, err := f.resolver.Resolve(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Status != StatusFound || res.GameType != types.GamePoke {
		t.Fatalf("unexpected resolution: status=%v type=%v", res.Status, res.GameType)
	}
	if len(res.Config.Options) != len(cfg.Options) {
		t.Fatalf("option count mismatch: got=%d want=%d", len(res.Config.Options), len(cfg.Options))
	}
	for i, opt := range res.Config.Options {
		want := cfg.Options[i]
		if opt.ID != want.ID || opt.Kind != want.Kind || opt.Label != want.Label {
			t.Fatalf("option %d mismatch: got=%+v want=%+v", i, opt, want)
		}
		if want.Kind == types.OptionText && opt.Text != want.Text {
			t.Fatalf("text option %d changed: got=%q want=%q", i, opt.Text, want.Text)
		}
	}
	if res.Config.Name != cfg.Name || res.Config.CustomGreeting != cfg.CustomGreeting || res.Config.ThemeID != cfg.ThemeID {
		t.Fatalf("configuration fields mismatch: %+v", res.Config)
	}
	if res.Result == nil || res.Result.Option.ID != winner.ID || res.Result.Index != 2 {
		t.Fatalf("unexpected result: %+v", res.Result)
	}

	// 読み込んだ設定を再共有してもアップロードは発生しない
	uploads := f.blobs.count()
	again, err := f.serializer.CreateShare(context.Background(), res.Config, res.GameType)
	if err != nil {
		t.Fatalf("re-share failed: %v", err)
	}
	if f.blobs.count() != uploads {
		t.Fatalf("re-share uploaded again: before=%d after=%d", uploads, f.blobs.count())
	}
	for i := range again.Options {
		if again.Options[i] != record.Options[i] {
			t.Fatalf("re-shared option %d differs: got=%+v want=%+v", i, again.Options[i], record.Options[i])
		}
	}
}

func TestSerialize_PartialUploadFailure(t *testing.T) {
	f := newFixture(t)
	f.blobs.fail["shares/Ab3dF9/image_1.jpg"] = true
	cfg := types.GameConfiguration{
		Name: "photos",
		Options: []types.Option{
			mustImage(t, "a", types.LocalRef("/p/1.jpg"), ""),
			mustImage(t, "b", types.LocalRef("/p/2.jpg"), ""),
			mustImage(t, "c", types.LocalRef("/p/3.jpg"), ""),
		},
	}

	record, err := f.serializer.CreateShare(context.Background(), cfg, types.GameWheel)
	if err != nil {
		t.Fatalf("CreateShare should succeed despite one failed upload: %v", err)
	}
	if record.Options[0].Type != types.OptionImage || record.Options[0].Content != "https://blobs.test/shares/Ab3dF9/image_0.jpg" {
		t.Fatalf("option 1 mismatch: %+v", record.Options[0])
	}
	if record.Options[1].Type != types.OptionText || record.Options[1].Content != "Image 2" {
		t.Fatalf("option 2 should degrade to placeholder: %+v", record.Options[1])
	}
	if record.Options[2].Type != types.OptionImage || record.Options[2].Content != "https://blobs.test/shares/Ab3dF9/image_2.jpg" {
		t.Fatalf("option 3 mismatch: %+v", record.Options[2])
	}
	if record.ThemeID != types.ThemeClassic {
		t.Fatalf("missing theme should default to classic: got=%q", record.ThemeID)
	}
	if _, ok := f.docs.records["Ab3dF9"]; !ok {
		t.Fatalf("record was not persisted")
	}
}

func TestSerialize_UntrustedRemoteRefIsUploaded(t *testing.T) {
	f := newFixture(t)
	cfg := types.GameConfiguration{
		Name: "photos",
		Options: []types.Option{
			mustImage(t, "a", types.RemoteRef("/home/user/DCIM/local.jpg"), ""),
			mustImage(t, "b", types.RemoteRef("https://cdn.example/b.jpg"), "bike"),
			mustImage(t, "c", types.RemoteRef("https://blobs.test/shares/old/image_2.jpg"), ""),
		},
	}

	record, err := f.serializer.CreateShare(context.Background(), cfg, types.GameWheel)
	if err != nil {
		t.Fatalf("CreateShare failed: %v", err)
	}
	if record.Options[0].Content != "https://blobs.test/shares/Ab3dF9/image_0.jpg" {
		t.Fatalf("path tagged remote must be uploaded: %+v", record.Options[0])
	}
	if record.Options[1].Content != "https://blobs.test/shares/Ab3dF9/image_1.jpg" || record.Options[1].Label != "bike" {
		t.Fatalf("foreign url must be uploaded: %+v", record.Options[1])
	}
	if record.Options[2].Content != "https://blobs.test/shares/old/image_2.jpg" {
		t.Fatalf("durable url should pass through: %+v", record.Options[2])
	}
	if f.blobs.count() != 2 {
		t.Fatalf("unexpected upload count: got=%d want=2", f.blobs.count())
	}
}

func TestPlaceholderText_UsesLabel(t *testing.T) {
	opt := mustImage(t, "a", types.LocalRef("/p/1.jpg"), "腳踏車")
	if got := PlaceholderText(opt, 4); got != "腳踏車" {
		t.Fatalf("unexpected placeholder: got=%q", got)
	}
	opt.Label = ""
	if got := PlaceholderText(opt, 4); got != "Image 5" {
		t.Fatalf("unexpected placeholder: got=%q", got)
	}
}

func TestCreateShare_Errors(t *testing.T) {
	f := newFixture(t)

	if _, err := f.serializer.CreateShare(context.Background(), types.GameConfiguration{Name: "empty"}, types.GameWheel); !errors.Is(err, ErrNoOptions) {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := types.GameConfiguration{Name: "x", Options: []types.Option{mustText(t, "a", "A")}}
	if _, err := f.serializer.CreateShare(context.Background(), cfg, "dice"); err == nil {
		t.Fatalf("unknown game type should fail")
	}

	f.docs.putErr = errors.New("quota exceeded")
	_, err := f.serializer.CreateShare(context.Background(), cfg, types.GameWheel)
	if !errors.Is(err, ErrPersistShare) {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("underlying error should be carried: %v", err)
	}
	if len(f.docs.records) != 0 {
		t.Fatalf("no record should remain: %v", f.docs.records)
	}
}

func TestCreateShareWithResult_Preview(t *testing.T) {
	f := newFixture(t)
	opt := mustText(t, "a", "紅包")
	cfg := types.GameConfiguration{Name: "x", Options: []types.Option{opt}}
	preview := types.LocalRef("/tmp/preview.jpg")

	record, err := f.serializer.CreateShareWithResult(context.Background(), cfg, types.GameWheel, ResultShare{
		Result:  types.DrawResult{Option: opt, Index: 0},
		Preview: &preview,
	})
	if err != nil {
		t.Fatalf("CreateShareWithResult failed: %v", err)
	}
	if record.PreviewImageURL != "https://blobs.test/shares/Ab3dF9/preview.jpg" {
		t.Fatalf("unexpected preview url: %q", record.PreviewImageURL)
	}
	if record.SharedResult.Timestamp != 1700000000000 {
		t.Fatalf("unexpected timestamp: %d", record.SharedResult.Timestamp)
	}

	f.blobs.fail["shares/Zz99Aa/preview.jpg"] = true
	record, err = f.serializer.CreateShareWithResult(context.Background(), cfg, types.GameWheel, ResultShare{
		Result:  types.DrawResult{Option: opt, Index: 0},
		Preview: &preview,
	})
	if err != nil {
		t.Fatalf("preview failure must not fail the share: %v", err)
	}
	if record.PreviewImageURL != "" {
		t.Fatalf("failed preview should be omitted: %q", record.PreviewImageURL)
	}
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t)

	res, err := f.resolver.Resolve(context.Background(), "Nope99")
	if err != nil {
		t.Fatalf("not found must not be an error: %v", err)
	}
	if res.Status != StatusNotFound || res.Result != nil {
		t.Fatalf("unexpected resolution: %+v", res)
	}
}

func TestResolve_StoreError(t *testing.T) {
	f := newFixture(t)
	f.docs.getErr = errors.New("connection reset")

	if _, err := f.resolver.Resolve(context.Background(), "Ab3dF9"); err == nil {
		t.Fatalf("store failures should be returned")
	}
}

func TestResolve_DesyncFallback(t *testing.T) {
	f := newFixture(t)
	f.docs.records["Qw12Er"] = types.ShareRecord{
		ID:   "Qw12Er",
		Type: types.GameWheel,
		Name: "desync",
		Options: []types.SharedOption{
			{ID: "a", Type: types.OptionText, Content: "A"},
		},
		ThemeID: types.ThemeClassic,
		SharedResult: &types.SharedResult{
			OptionID:      "gone",
			OptionContent: "https://blobs.test/shares/Qw12Er/image_5.jpg",
			OptionType:    types.OptionImage,
			OptionLabel:   "TV",
			Timestamp:     1,
		},
	}

	res, err := f.resolver.Resolve(context.Background(), "Qw12Er")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if res.Result == nil {
		t.Fatalf("desynchronized result should still resolve")
	}
	if res.Result.Index != types.NoIndex || res.Result.Option.ID != "gone" || res.Result.Option.Label != "TV" {
		t.Fatalf("unexpected fallback result: %+v", res.Result)
	}
	if !res.Result.Option.Image.IsRemote() {
		t.Fatalf("fallback image should be remote: %+v", res.Result.Option.Image)
	}
}

func TestResolve_DesyncFallbackWithoutImageURL(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  string
	}{
		{name: "label", label: "頭獎", want: "頭獎"},
		{name: "no label", label: "", want: MysteryPrize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.docs.records["Qw12Er"] = types.ShareRecord{
				ID:      "Qw12Er",
				Type:    types.GameWheel,
				Name:    "desync",
				Options: []types.SharedOption{{ID: "a", Type: types.OptionText, Content: "A"}},
				ThemeID: types.ThemeClassic,
				SharedResult: &types.SharedResult{
					OptionID:    "gone",
					OptionType:  types.OptionImage,
					OptionLabel: tt.label,
					Timestamp:   1,
				},
			}

			res, err := f.resolver.Resolve(context.Background(), "Qw12Er")
			if err != nil {
				t.Fatalf("Resolve failed: %v", err)
			}
			if res.Result == nil {
				t.Fatalf("result must always be reconstructed")
			}
			got := res.Result
			if got.Index != types.NoIndex || got.Option.Kind != types.OptionText || got.Option.Text != tt.want {
				t.Fatalf("unexpected fallback: got=%+v want text=%s", got, tt.want)
			}
		})
	}
}

func TestMessagesAndURL(t *testing.T) {
	if got := URL("https://x.com/", "Ab3dF9"); got != "https://x.com/s/Ab3dF9" {
		t.Fatalf("unexpected url: %q", got)
	}
	if got := AppLink("luckydraw", "Ab3dF9"); got != "luckydraw://s/Ab3dF9" {
		t.Fatalf("unexpected app link: %q", got)
	}
	if got := AppLink("", "Ab3dF9"); got != "" {
		t.Fatalf("empty scheme should yield no app link: %q", got)
	}
	if got := LinkMessage("尾牙"); got != "來玩玩看吧! 尾牙" {
		t.Fatalf("unexpected message: %q", got)
	}

	text := mustText(t, "a", "紅包")
	if got := ResultMessage("尾牙", text); got != "我在「尾牙」抽到了「紅包」！\n來玩玩看吧!" {
		t.Fatalf("unexpected message: %q", got)
	}
	img := mustImage(t, "b", types.RemoteRef("https://blobs.test/a.jpg"), "")
	if got := ResultMessage("尾牙", img); !strings.Contains(got, MysteryPrize) {
		t.Fatalf("unlabeled image should use the mystery prize text: %q", got)
	}
}

func TestQRCode(t *testing.T) {
	png, err := QRCode("https://x.com/s/Ab3dF9", 0)
	if err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("output is not a png")
	}
}
