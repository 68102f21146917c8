package blob

import (
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Kind 上传类别的封闭集合,每类有各自的大小上限与 MIME 前缀要求。
type Kind string

const (
	KindProfile Kind = "profile"
	KindImage   Kind = "image"
	KindVideo   Kind = "video"
	KindVoice   Kind = "voice"
)

var (
	ErrWrongType    = errors.New("wrong content type")
	ErrFileTooLarge = errors.New("file too large")
)

type rule struct {
	maxBytes   int64
	mimePrefix string
	folder     string
}

var rules = map[Kind]rule{
	KindProfile: {maxBytes: 5 << 20, mimePrefix: "image/", folder: ""},
	KindImage:   {maxBytes: 10 << 20, mimePrefix: "image/", folder: "images"},
	KindVideo:   {maxBytes: 50 << 20, mimePrefix: "video/", folder: "videos"},
	KindVoice:   {maxBytes: 10 << 20, mimePrefix: "audio/", folder: "voice"},
}

// Stored 落盘成功后返回给上传方的引用。
type Stored struct {
	URL          string
	OriginalName string
	SizeBytes    int64
}

// Store 磁盘型上传存储。目录布局与对外 URL 前缀 /uploads 保持一致:
// 头像在根目录,其余按类别分子目录。
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	for _, r := range rules {
		if err := os.MkdirAll(filepath.Join(dir, r.folder), 0o755); err != nil {
			return nil, err
		}
	}
	return &Store{dir: dir}, nil
}

// Save 校验类别规则后将内容落盘,生成不冲突的随机文件名并保留原始扩展名。
// declaredSize 来自 multipart 头,实际写入超过上限同样判为过大。
func (s *Store) Save(kind Kind, originalName string, declaredSize int64, mimeType string, r io.Reader) (Stored, error) {
	rl, ok := rules[kind]
	if !ok {
		return Stored{}, ErrWrongType
	}
	if !strings.HasPrefix(mimeType, rl.mimePrefix) {
		return Stored{}, ErrWrongType
	}
	if declaredSize > rl.maxBytes {
		return Stored{}, ErrFileTooLarge
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(originalName))
	dst := filepath.Join(s.dir, rl.folder, name)
	f, err := os.Create(dst)
	if err != nil {
		return Stored{}, err
	}
	// 上限加一字节,读满说明声明的大小撒谎了
	n, err := io.Copy(f, io.LimitReader(r, rl.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return Stored{}, err
	}
	if n > rl.maxBytes {
		_ = os.Remove(dst)
		return Stored{}, ErrFileTooLarge
	}
	return Stored{
		URL:          path.Join("/uploads", rl.folder, name),
		OriginalName: originalName,
		SizeBytes:    n,
	}, nil
}
