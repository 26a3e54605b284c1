package llm

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

const fence = "```"

// ExtractCode 返回首个反引号围栏代码块的内容（去除首尾空白）。
// 没有可用围栏，或围栏内容为空时返回整段去空白文本。
func ExtractCode(s string) string {
	code, ok := fencedBlock([]byte(s))
	if !ok {
		code, ok = inlineFence(s)
	}
	if !ok || code == "" {
		return strings.TrimSpace(s)
	}
	return code
}

// fencedBlock 按 CommonMark 取首个有内容的反引号围栏块，未闭合的块延伸到文末
func fencedBlock(src []byte) (string, bool) {
	doc := markdown.Parser().Parse(text.NewReader(src))

	var code string
	found := false
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fb, ok := n.(*ast.FencedCodeBlock)
		if !ok || fb.Lines().Len() == 0 || !backtickOpened(src, fb.Lines().At(0).Start) {
			return ast.WalkContinue, nil
		}

		var b strings.Builder
		lines := fb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		code = strings.TrimSpace(b.String())
		found = true
		return ast.WalkStop, nil
	})
	return code, found
}

// backtickOpened 检查首个内容行之前的开栏行是否以反引号开头，波浪线围栏不算
func backtickOpened(src []byte, contentStart int) bool {
	nl := bytes.LastIndexByte(src[:contentStart], '\n')
	if nl < 0 {
		return false
	}
	head := src[:nl]
	line := head[bytes.LastIndexByte(head, '\n')+1:]
	return bytes.HasPrefix(bytes.TrimLeft(line, " \t>-*+0123456789."), []byte(fence))
}

// inlineFence 处理开栏标记出现在行中的回复，例如 "Here it is: ```jsx\n...\n```"
func inlineFence(s string) (string, bool) {
	start := strings.Index(s, fence)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(fence):]
	end := strings.Index(rest, fence)
	if end < 0 {
		return "", false
	}
	body := rest[:end]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && len(strings.Fields(body[:nl])) <= 1 {
		body = body[nl+1:]
	}
	return strings.TrimSpace(body), true
}
