package filter

// DefaultAICategory is the feed category whose items bypass scoring.
const DefaultAICategory = "AI"

// DefaultThreshold is the minimum relevance score for an item to be kept.
const DefaultThreshold = 3

// WeightedGroup is a set of keywords that all carry the same weight.
// Negative weights penalize a title.
type WeightedGroup struct {
	Weight   int      `yaml:"weight" json:"weight"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Rules is the keyword policy of a Filter.
type Rules struct {
	// HardExclude rejects a title containing any of these terms, regardless of category.
	HardExclude []string `yaml:"hard_exclude" json:"hard_exclude"`
	// AllowCategory accepts every item of this feed category.
	AllowCategory string `yaml:"allow_category" json:"allow_category"`
	// OpenCallMarker switches a title to the open-call branch.
	OpenCallMarker string `yaml:"open_call_marker" json:"open_call_marker"`
	// OpenCallContext lists the terms an open call needs to be kept.
	OpenCallContext []string        `yaml:"open_call_context" json:"open_call_context"`
	Groups          []WeightedGroup `yaml:"groups" json:"groups"`
	Threshold       int             `yaml:"threshold" json:"threshold"`
}

// DefaultRules returns the built-in policy tuned for MEXT press releases.
// A fresh value is returned on every call.
func DefaultRules() Rules {
	return Rules{
		HardExclude:     []string{"採用のお知らせ", "非常勤職員", "任期付職員", "期間業務職員"},
		AllowCategory:   DefaultAICategory,
		OpenCallMarker:  "公募",
		OpenCallContext: []string{"学校", "SSH", "教育"},
		Groups: []WeightedGroup{
			{Weight: 3, Keywords: []string{"教育課程", "学習指導要領", "総則", "評価", "部会", "ワーキンググループ", "中央教育審議会", "中教審"}},
			{Weight: 3, Keywords: []string{"学校", "児童生徒", "初等中等", "高等学校", "教員", "外国人児童生徒"}},
			{Weight: 4, Keywords: []string{"情報", "ICT", "GIGA", "DX", "情報セキュリティ", "生成AI", "AI"}},
			{Weight: 2, Keywords: []string{"フォーラム", "研修", "魅力化", "SSH"}},
			{Weight: -4, Keywords: []string{"原子力"}},
			{Weight: -3, Keywords: []string{"ライフサイエンス", "病院"}},
			{Weight: -2, Keywords: []string{"大学", "研究力", "研究開発"}},
		},
		Threshold: DefaultThreshold,
	}
}
