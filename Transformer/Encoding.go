package Transformer

import (
	"bytes"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

func GbkToUtf8(s string) string {
	gbkDecoder := simplifiedchinese.GBK.NewDecoder()
	utf8String, _, err := transform.String(gbkDecoder, s)
	if err != nil {
		// 解码失败时返回原始字符串
		return s
	}
	return utf8String
}

func Utf8ToGbk(input string) []byte {
	gbkEncoder := simplifiedchinese.GBK.NewEncoder()
	var output bytes.Buffer
	writer := transform.NewWriter(&output, gbkEncoder)

	if _, err := writer.Write([]byte(input)); err != nil {
		return nil
	}
	if err := writer.Close(); err != nil {
		return nil
	}
	return output.Bytes()
}

// detectEncoding 检测文本编码，失败时返回空字符串
func detectEncoding(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return ""
	}
	return result.Charset
}

// decodeText 国标编码（GBK/GB18030）的文本转为UTF-8，其它编码原样返回
func decodeText(data []byte) string {
	if strings.Contains(detectEncoding(data), "GB") {
		return GbkToUtf8(string(data))
	}
	return string(data)
}
