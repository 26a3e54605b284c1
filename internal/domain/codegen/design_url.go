package codegen

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseDesignURL 从 Figma 链接中解析文件与节点标识
// 支持 /file/{id}/... 与 /design/{id}/... 两种路径，node-id 中的 "-" 转换为 ":"
func ParseDesignURL(raw string) (DesignReference, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return DesignReference{}, fmt.Errorf("parse design url: %w", err)
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	var fileID string
	for i := 0; i+1 < len(segments); i++ {
		switch segments[i] {
		case "file", "design", "proto":
			fileID = segments[i+1]
		}
		if fileID != "" {
			break
		}
	}
	if fileID == "" {
		return DesignReference{}, fmt.Errorf("design url %q has no file id", raw)
	}

	nodeID := u.Query().Get("node-id")
	if nodeID == "" {
		return DesignReference{}, fmt.Errorf("design url %q has no node-id", raw)
	}

	return DesignReference{FileID: fileID, NodeID: strings.ReplaceAll(nodeID, "-", ":")}, nil
}

// DesignURL 根据引用生成可在浏览器打开的链接
func DesignURL(ref DesignReference) string {
	if ref.IsZero() {
		return ""
	}
	q := url.Values{}
	q.Set("node-id", strings.ReplaceAll(ref.NodeID, ":", "-"))
	return fmt.Sprintf("https://www.figma.com/file/%s/?%s", url.PathEscape(ref.FileID), q.Encode())
}
