package share

import (
	"fmt"
	"strings"

	"github.com/ichi0g0y/luckydraw/internal/types"
	"github.com/skip2/go-qrcode"
)

// MysteryPrize is shown for an image result without a label.
const MysteryPrize = "神秘獎品"

// URL builds <base>/s/<id>.
func URL(base, id string) string {
	return strings.TrimRight(base, "/") + "/s/" + id
}

// AppLink is the custom-scheme form of a share link. Empty scheme yields "".
func AppLink(scheme, id string) string {
	if scheme == "" {
		return ""
	}
	return scheme + "://s/" + id
}

// LinkMessage is the text sent alongside a configuration link.
func LinkMessage(name string) string {
	return fmt.Sprintf("來玩玩看吧! %s", name)
}

// ResultMessage is the text sent alongside a result link.
func ResultMessage(name string, opt types.Option) string {
	return fmt.Sprintf("我在「%s」抽到了「%s」！\n來玩玩看吧!", name, opt.DisplayText(MysteryPrize))
}

// QRCode renders url as a PNG.
func QRCode(url string, size int) ([]byte, error) {
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode qr code: %w", err)
	}
	return png, nil
}
