package model

// Categories is the fixed closed set of interest category labels.
// Profile clusters and topic derivation resolve against this set;
// anything unmatched falls back to CategoryOther.
var Categories = []string{
	"スポーツ",
	"アウトドア",
	"音楽",
	"映画",
	"読書",
	"料理",
	"旅行",
	"ゲーム",
	"アート",
	"テクノロジー",
	"ファッション",
	"ペット",
	"健康",
	"ビジネス",
	"その他",
}

// CategoryOther is the fallback label for interests that match no
// other category.
const CategoryOther = "その他"

// IsKnownCategory reports whether label belongs to the fixed set.
func IsKnownCategory(label string) bool {
	for _, c := range Categories {
		if c == label {
			return true
		}
	}
	return false
}
