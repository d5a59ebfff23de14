package storeclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionState は永続化されるセッション状態。
// シリアライズ済みIdentityと認証フラグの2キー構成。
type SessionState struct {
	User            Identity `json:"user"`
	IsAuthenticated bool     `json:"isAuthenticated"`
}

// StateStore はセッション状態の永続ストア。
// resolve/loginの成功時に書き込まれ、logout・解決失敗時に消去される。
type StateStore interface {
	// Load は保存済みのセッション状態を返す。未保存の場合は(nil, nil)。
	Load() (*SessionState, error)
	// Save はセッション状態を保存する。
	Save(state *SessionState) error
	// Clear は保存済みのセッション状態を消去する。未保存でもエラーにしない。
	Clear() error
}

// MemoryStateStore はプロセス内のみで保持するStateStore。主にテスト用。
type MemoryStateStore struct {
	mu    sync.Mutex
	state *SessionState
}

// NewMemoryStateStore はMemoryStateStoreを生成する。
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{}
}

func (s *MemoryStateStore) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		return nil, nil
	}
	copied := *s.state
	return &copied, nil
}

func (s *MemoryStateStore) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *state
	s.state = &copied
	return nil
}

func (s *MemoryStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = nil
	return nil
}

var _ StateStore = (*MemoryStateStore)(nil)

// FileStateStore はJSONファイルにセッション状態を保存するStateStore。
// プロセス再起動をまたいでセッションを引き継ぐ。
type FileStateStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStateStore はFileStateStoreを生成する。
func NewFileStateStore(path string) *FileStateStore {
	return &FileStateStore{path: path}
}

func (s *FileStateStore) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッション状態の読み込みに失敗: %w", err)
	}

	var state SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		// 壊れたファイルは未保存として扱う
		return nil, nil
	}
	return &state, nil
}

func (s *FileStateStore) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("セッション状態のエンコードに失敗: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("セッション状態ディレクトリの作成に失敗: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o600); err != nil {
		return fmt.Errorf("セッション状態の書き込みに失敗: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("セッション状態の保存に失敗: %w", err)
	}
	return nil
}

func (s *FileStateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("セッション状態の消去に失敗: %w", err)
	}
	return nil
}

var _ StateStore = (*FileStateStore)(nil)
