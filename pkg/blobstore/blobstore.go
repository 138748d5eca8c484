// Package blobstore 附件对象存储。
// 对象以相对路径寻址（如 "2024.1/<uuid>_historico.pdf"），写入后通过公开 URL 访问。
package blobstore

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

var (
	ErrInvalidPath = errors.New("blobstore: 对象路径无效")
	ErrNotFound    = errors.New("blobstore: 对象不存在")
)

// Object 写入成功后的对象引用
type Object struct {
	Path string
	Size int64
	// Checksum 内容的 SHA-256（十六进制）
	Checksum string
}

// Store 附件存储契约：按路径写入、取公开 URL、按路径删除
type Store interface {
	Put(ctx context.Context, objectPath string, r io.Reader) (*Object, error)
	URL(objectPath string) string
	Delete(ctx context.Context, objectPath string) error
}

// CleanPath 规范化对象路径，拒绝绝对路径与目录穿越
func CleanPath(objectPath string) (string, error) {
	p := strings.TrimSpace(strings.ReplaceAll(objectPath, "\\", "/"))
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return "", ErrInvalidPath
		}
	}
	p = path.Clean(p)
	if p == "." {
		return "", ErrInvalidPath
	}
	return p, nil
}
