package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Local écrit les fichiers dans Dir ; ils sont servis sous /uploads/<nom>.
type Local struct {
	Dir    string
	Prefix string
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("création dossier %s: %w", dir, err)
	}
	return &Local{Dir: dir, Prefix: "/uploads"}, nil
}

func (l *Local) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	path, err := l.Path(name)
	if err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return l.Prefix + "/" + name, nil
}

// Path retourne le chemin disque d'un fichier, en refusant toute sortie de Dir.
func (l *Local) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(l.Dir, name), nil
}
