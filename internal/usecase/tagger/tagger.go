// Package tagger assigns display labels to kept feed items.
package tagger

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// GenerativeAITag is added to every item of the AI category.
const GenerativeAITag = "生成AI"

// Rule maps a tag to the keywords that trigger it.
type Rule struct {
	Tag      string   `yaml:"tag" json:"tag"`
	Keywords []string `yaml:"keywords" json:"keywords"`
}

// Rules configures a Tagger.
type Rules struct {
	Table []Rule `yaml:"table" json:"table"`
	// AICategory items always receive AITag.
	AICategory string `yaml:"ai_category" json:"ai_category"`
	AITag      string `yaml:"ai_tag" json:"ai_tag"`
	// ImportantKeywords mark an item for emphasis in the UI.
	ImportantKeywords []string `yaml:"important_keywords" json:"important_keywords"`
}

// DefaultRules returns the built-in tag table.
func DefaultRules() Rules {
	return Rules{
		Table: []Rule{
			{Tag: GenerativeAITag, Keywords: []string{"生成AI", "生成ＡＩ", "人工知能", "ChatGPT"}},
			{Tag: "情報教育", Keywords: []string{"情報教育", "情報活用能力", "プログラミング", "情報モラル", "情報Ⅰ"}},
			{Tag: "教育課程", Keywords: []string{"教育課程", "学習指導要領", "カリキュラム"}},
			{Tag: "中教審", Keywords: []string{"中央教育審議会", "中教審"}},
			{Tag: "教員", Keywords: []string{"教員", "教師", "教職"}},
			{Tag: "高校", Keywords: []string{"高等学校", "高校"}},
			{Tag: "特別支援", Keywords: []string{"特別支援"}},
			{Tag: "国際・外国人", Keywords: []string{"外国人", "国際", "日本語指導", "帰国"}},
			{Tag: "SSH", Keywords: []string{"SSH", "スーパーサイエンスハイスクール"}},
			{Tag: "GIGA", Keywords: []string{"GIGA", "1人1台", "一人一台"}},
		},
		AICategory:        "AI",
		AITag:             GenerativeAITag,
		ImportantKeywords: []string{"教育課程", "学習指導要領", "評価", "情報", "ICT", "生成AI", "GIGA", "DX"},
	}
}

// Tagger labels items. It is safe for concurrent use.
type Tagger struct {
	rules Rules
}

// New creates a Tagger from a copy of rules.
func New(rules Rules) *Tagger {
	r := rules
	r.Table = lo.Map(rules.Table, func(tr Rule, _ int) Rule {
		return Rule{Tag: tr.Tag, Keywords: lo.Compact(tr.Keywords)}
	})
	r.ImportantKeywords = lo.Compact(rules.ImportantKeywords)
	return &Tagger{rules: r}
}

// Tags returns the sorted, de-duplicated labels for an item. Matching is a
// case-sensitive substring test against title+source+category concatenated
// with no separator.
func (t *Tagger) Tags(title, source, category string) []string {
	text := title + source + category

	tags := make([]string, 0, len(t.rules.Table))
	for _, r := range t.rules.Table {
		if r.Tag == "" {
			continue
		}
		if lo.ContainsBy(r.Keywords, func(k string) bool { return strings.Contains(text, k) }) {
			tags = append(tags, r.Tag)
		}
	}

	if t.rules.AICategory != "" && category == t.rules.AICategory && t.rules.AITag != "" {
		tags = append(tags, t.rules.AITag)
	}

	tags = lo.Uniq(tags)
	slices.Sort(tags)
	return tags
}

// IsImportant reports whether title deserves UI emphasis.
func (t *Tagger) IsImportant(title string) bool {
	return lo.ContainsBy(t.rules.ImportantKeywords, func(k string) bool {
		return strings.Contains(title, k)
	})
}
