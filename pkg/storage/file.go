package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileKV stores all keys in a single JSON object on disk.
// The file is read once on open and rewritten on every Set.
type FileKV struct {
	Path   string
	mu     sync.RWMutex
	values map[string]string
}

func NewFileKV(path string) (*FileKV, error) {
	kv := &FileKV{
		Path:   path,
		values: make(map[string]string),
	}

	if _, err := os.Stat(path); err == nil {
		if err := kv.load(); err != nil {
			return nil, err
		}
	}
	return kv, nil
}

func (kv *FileKV) load() error {
	f, err := os.Open(kv.Path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(&kv.values); err != nil {
		return fmt.Errorf("failed to decode %s: %w", kv.Path, err)
	}
	if kv.values == nil {
		kv.values = make(map[string]string)
	}
	return nil
}

func (kv *FileKV) Get(key string) (string, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.values[key]
	return v, ok, nil
}

func (kv *FileKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	prev, existed := kv.values[key]
	kv.values[key] = value
	if err := kv.save(); err != nil {
		if existed {
			kv.values[key] = prev
		} else {
			delete(kv.values, key)
		}
		return err
	}
	return nil
}

// save writes through a temp file so a crash never leaves a truncated store.
func (kv *FileKV) save() error {
	dir := filepath.Dir(kv.Path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(kv.Path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(kv.values); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode storage: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), kv.Path)
}

func (kv *FileKV) Close() error {
	return nil
}
