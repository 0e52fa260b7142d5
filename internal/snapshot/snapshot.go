// Package snapshot writes and reads finished solutions as JSON files,
// zstd-compressed when the file name ends in ".zst".
package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/vancomm/flattener/internal/terrain"
)

const Version = 1

type Header struct {
	Version   int       `json:"version"`
	N         int       `json:"n"`
	K         int       `json:"k"`
	Score     int64     `json:"score"`
	Seed      uint64    `json:"seed"`
	Digest    string    `json:"digest,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Snapshot struct {
	Header Header       `json:"header"`
	Ops    []terrain.Op `json:"ops"`
}

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// Write stores snap at path, writing through a temporary file so a crash
// never leaves a truncated snapshot behind.
func Write(path string, snap Snapshot) error {
	if snap.Header.Version == 0 {
		snap.Header.Version = Version
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := encode(f, path, snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

func encode(f *os.File, path string, snap Snapshot) error {
	var w io.Writer = f
	var enc *zstd.Encoder
	if compressed(path) {
		var err error
		enc, err = zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = enc
	}
	bw := bufio.NewWriter(w)
	if err := json.NewEncoder(bw).Encode(snap); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if enc != nil {
		return enc.Close()
	}
	return nil
}

func Read(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if compressed(path) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return snap, err
		}
		defer dec.Close()
		r = dec
	}
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return snap, fmt.Errorf("%s: %w", path, err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("%s: unsupported snapshot version %d", path, snap.Header.Version)
	}
	if len(snap.Ops) != snap.Header.K {
		return snap, fmt.Errorf("%s: header says %d ops, found %d", path, snap.Header.K, len(snap.Ops))
	}
	return snap, nil
}
