package lottery

import (
	"fmt"

	"github.com/ichi0g0y/luckydraw/internal/types"
)

// GenerateOptions はN個分のテスト選択肢を決定論的に生成する。
func GenerateOptions(n int) []types.Option {
	if n <= 0 {
		return []types.Option{}
	}

	options := make([]types.Option, n)
	for i := 0; i < n; i++ {
		options[i] = GenerateOption(i)
	}

	return options
}

// GenerateOption は1個分のテスト選択肢を決定論的に生成する。偶数はテキスト、奇数は画像。
func GenerateOption(index int) types.Option {
	if index < 0 {
		index = 0
	}

	id := fmt.Sprintf("opt-%03d", index+1)
	if index%2 == 1 {
		opt, _ := types.NewImageOption(id, types.RemoteRef(fmt.Sprintf("https://blobs.test/%03d.jpg", index+1)), fmt.Sprintf("prize %d", index+1))
		return opt
	}
	opt, _ := types.NewTextOption(id, fmt.Sprintf("Option %03d", index+1), "")
	return opt
}

func withRandom(fn func(max int) (int, error)) func() {
	original := drawRandomInt
	drawRandomInt = fn
	return func() {
		drawRandomInt = original
	}
}
