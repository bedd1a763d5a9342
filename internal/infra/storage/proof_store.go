// Package storage は支払い証明画像をローカルディスクに置く。
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// 公開URLは /uploads/proofs/<file>
const proofsDir = "proofs"

type LocalProofStore struct {
	root      string
	urlPrefix string
}

// root は /uploads として静的配信されるディレクトリ
func NewLocalProofStore(root string) (*LocalProofStore, error) {
	if err := os.MkdirAll(filepath.Join(root, proofsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalProofStore{root: root, urlPrefix: "/uploads/" + proofsDir + "/"}, nil
}

// ファイル名はランダム。元のファイル名は使わない
func (s *LocalProofStore) Save(ctx context.Context, ownerID int64, ext string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if ext == "" || strings.ContainsAny(ext, `/\.`) {
		ext = "bin"
	}

	name := fmt.Sprintf("%d-%s.%s", ownerID, uuid.NewString(), ext)
	path := filepath.Join(s.root, proofsDir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return s.urlPrefix + name, nil
}

// Exists は path がownerIDのSaveしたファイルを指しているときだけtrue
func (s *LocalProofStore) Exists(ctx context.Context, ownerID int64, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	name, ok := strings.CutPrefix(path, s.urlPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false, nil
	}
	if !strings.HasPrefix(name, fmt.Sprintf("%d-", ownerID)) {
		return false, nil
	}

	fi, err := os.Stat(filepath.Join(s.root, proofsDir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return fi.Mode().IsRegular(), nil
}
