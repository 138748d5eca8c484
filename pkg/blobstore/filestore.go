package blobstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileStore 本地磁盘实现，目录由 HTTP 层以 publicBase 前缀静态暴露
type FileStore struct {
	dataDir    string
	publicBase string
}

// NewFileStore 创建 FileStore，目录不存在时自动创建
// publicBase 为对外访问前缀，如 "http://localhost:8080/files"
func NewFileStore(dataDir, publicBase string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("创建附件目录 %s 失败: %w", dataDir, err)
	}
	return &FileStore{dataDir: dataDir, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// DataDir 附件根目录
func (fs *FileStore) DataDir() string {
	return fs.dataDir
}

// Put 写入对象：临时文件 → 写入并计算 SHA-256 → fsync → 原子 rename
func (fs *FileStore) Put(ctx context.Context, objectPath string, r io.Reader) (*Object, error) {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fullPath := filepath.Join(fs.dataDir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
		return nil, fmt.Errorf("创建目录失败: %w", err)
	}

	tmpPath := fullPath + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}

	hasher := sha256.New()
	size, err := io.Copy(f, io.TeeReader(r, hasher))
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("写入数据失败: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return nil, fmt.Errorf("fsync 失败: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("关闭文件失败: %w", err)
	}

	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return nil, fmt.Errorf("原子重命名失败: %w", err)
	}

	return &Object{
		Path:     clean,
		Size:     size,
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// URL 对象的公开访问地址，逐段转义
func (fs *FileStore) URL(objectPath string) string {
	segs := strings.Split(objectPath, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return fs.publicBase + "/" + strings.Join(segs, "/")
}

// Delete 删除对象；对象不存在时返回 ErrNotFound
func (fs *FileStore) Delete(ctx context.Context, objectPath string) error {
	clean, err := CleanPath(objectPath)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	fullPath := filepath.Join(fs.dataDir, filepath.FromSlash(clean))
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("删除对象 %s 失败: %w", clean, err)
	}
	return nil
}
