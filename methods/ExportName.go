package methods

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
)

var nonNameChars = regexp.MustCompile(`[^\p{Han}\p{Latin}\p{N}_-]`)

// ExportName 导出文件名：汉字转拼音首字母，去掉其它符号；结果为空时使用 fallback
func ExportName(name, fallback string) string {
	name = nonNameChars.ReplaceAllString(name, "")
	a := pinyin.NewArgs()
	a.Style = pinyin.FirstLetter
	var sb strings.Builder
	for _, r := range name {
		if unicode.Is(unicode.Han, r) {
			if initials := pinyin.SinglePinyin(r, a); len(initials) > 0 {
				sb.WriteString(initials[0])
			}
			continue
		}
		sb.WriteRune(r)
	}
	out := strings.ToLower(sb.String())
	if out == "" {
		return fallback
	}
	return out
}
