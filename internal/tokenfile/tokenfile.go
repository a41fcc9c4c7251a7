// Package tokenfile handles reading and writing credential files. A
// credential file stores the API host a credential was issued by, the
// credential itself (a session auth token or an OAuth2 bearer token),
// and cached account metadata (email, user id). This is a leaf package
// imported by both config/ and the CLI commands to avoid duplication.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
)

// FilePerms restricts credential files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the credentials directory.
const DirPerms = 0o700

// File is the on-disk format for credential files. Exactly one of Auth
// and Token is set, matching how the credential was obtained. Host is
// the API base URL of the account's region; credentials are not valid
// against the other region's servers.
type File struct {
	Host  string            `json:"host"`
	Auth  string            `json:"auth,omitempty"`
	Token *oauth2.Token     `json:"token,omitempty"`
	Meta  map[string]string `json:"meta,omitempty"`
}

// HasCredential reports whether the file carries either credential
// kind.
func (f *File) HasCredential() bool {
	return f.Auth != "" || (f.Token != nil && f.Token.AccessToken != "")
}

// Load reads a saved credential file from disk. Returns (nil, nil) if
// the file does not exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var tf File
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	if tf.Host == "" {
		return nil, fmt.Errorf("tokenfile: %s missing api host (re-login required)", path)
	}

	if !tf.HasCredential() {
		return nil, fmt.Errorf("tokenfile: %s has empty credentials (re-login required)", path)
	}

	return &tf, nil
}

// ReadMeta reads just the cached metadata from a credential file
// without touching the credentials. Returns (nil, nil) if the file
// does not exist.
func ReadMeta(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var parsed struct {
		Meta map[string]string `json:"meta"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	return parsed.Meta, nil
}

// Save writes a credential file to disk atomically (write-to-temp +
// rename) with 0600 permissions. Never logs credential values.
func Save(path string, tf *File) error {
	if tf == nil || !tf.HasCredential() {
		return errors.New("tokenfile: refusing to save empty credentials")
	}

	if tf.Host == "" {
		return errors.New("tokenfile: refusing to save credentials without api host")
	}

	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenfile: encoding: %w", err)
	}

	dir := filepath.Dir(path)
	if mkErr := os.MkdirAll(dir, DirPerms); mkErr != nil {
		return fmt.Errorf("tokenfile: creating directory %s: %w", dir, mkErr)
	}

	// Atomic write: temp file in the same directory, then rename.
	// Same directory guarantees same filesystem for rename(2).
	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("tokenfile: creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	// Clean up temp file on any error path.
	success := false
	defer func() {
		if !success {
			_ = os.Remove(tmpPath)
		}
	}()

	if err := os.Chmod(tmpPath, FilePerms); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: writing: %w", err)
	}

	// Flush to stable storage before rename so a power loss between close and
	// rename cannot leave an empty or partial credential file at the final path.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("tokenfile: syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenfile: closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("tokenfile: renaming: %w", err)
	}

	success = true

	return nil
}

// Delete removes a credential file. Missing files are not an error, so
// logout is idempotent.
func Delete(path string) error {
	err := os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("tokenfile: removing %s: %w", path, err)
	}

	return nil
}

// LoadAndMergeMeta reads the current credential file, merges new
// metadata keys (new keys overwrite existing), and saves. Returns an
// error if the file does not exist.
func LoadAndMergeMeta(path string, meta map[string]string) error {
	tf, err := Load(path)
	if err != nil {
		return fmt.Errorf("reading credentials for metadata update: %w", err)
	}

	if tf == nil {
		return fmt.Errorf("no credential file at %s", path)
	}

	if tf.Meta == nil {
		tf.Meta = make(map[string]string, len(meta))
	}

	maps.Copy(tf.Meta, meta)

	return Save(path, tf)
}
