// Package archive snapshots engine state into a blob store and restores it.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"recitecore/internal/blob"
	"recitecore/internal/infra/persistence/memory"
)

// StateSource is the slice of a store the archiver needs. All persistence
// backends satisfy it.
type StateSource interface {
	ExportState() memory.Snapshot
	ImportState(memory.Snapshot)
}

// Manifest describes one stored archive.
type Manifest struct {
	Label     string         `json:"label"`
	Prefix    string         `json:"prefix"`
	CreatedAt time.Time      `json:"created_at"`
	Counts    map[string]int `json:"counts"`
}

const manifestName = "manifest.json"

type Archiver struct {
	source StateSource
	store  blob.Store
	root   string
	now    func() time.Time
}

type Option func(*Archiver)

// WithRoot changes the key prefix archives are written under.
func WithRoot(root string) Option {
	return func(a *Archiver) { a.root = strings.Trim(root, "/") }
}

// WithNow overrides the timestamp source.
func WithNow(now func() time.Time) Option {
	return func(a *Archiver) {
		if now != nil {
			a.now = now
		}
	}
}

func New(source StateSource, store blob.Store, opts ...Option) *Archiver {
	a := &Archiver{source: source, store: store, root: "archives", now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Archive writes every state bucket as a JSON object under a timestamped
// prefix and returns the manifest. Uploads run concurrently.
func (a *Archiver) Archive(ctx context.Context, label string) (Manifest, error) {
	label = sanitizeLabel(label)
	snapshot := a.source.ExportState()
	buckets := bucketPayloads(snapshot)

	stamp := a.now().UTC().Format("20060102T150405Z")
	prefix := path.Join(a.root, stamp+"-"+label)

	manifest := Manifest{
		Label:     label,
		Prefix:    prefix,
		CreatedAt: a.now().UTC(),
		Counts:    make(map[string]int, len(buckets)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for name, payload := range buckets {
		manifest.Counts[name] = payload.count
		name, data := name, payload.data
		g.Go(func() error {
			_, err := a.store.Put(gctx, path.Join(prefix, name+".json"), bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"})
			if err != nil {
				return fmt.Errorf("archive bucket %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Manifest{}, err
	}

	data, err := json.Marshal(manifest)
	if err != nil {
		return Manifest{}, fmt.Errorf("encode manifest: %w", err)
	}
	if _, err := a.store.Put(ctx, path.Join(prefix, manifestName), bytes.NewReader(data), blob.PutOptions{ContentType: "application/json"}); err != nil {
		return Manifest{}, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

// List returns the manifests of every stored archive, newest first.
func (a *Archiver) List(ctx context.Context) ([]Manifest, error) {
	infos, err := a.store.List(ctx, a.root+"/")
	if err != nil {
		return nil, err
	}
	var manifests []Manifest
	for _, info := range infos {
		if path.Base(info.Key) != manifestName {
			continue
		}
		m, err := a.readManifest(ctx, info.Key)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	sort.Slice(manifests, func(i, j int) bool { return manifests[i].CreatedAt.After(manifests[j].CreatedAt) })
	return manifests, nil
}

// Restore replaces the source state with the archive stored under prefix.
func (a *Archiver) Restore(ctx context.Context, prefix string) (Manifest, error) {
	manifest, err := a.readManifest(ctx, path.Join(prefix, manifestName))
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var snapshot memory.Snapshot
	targets := map[string]any{
		"rounds":       &snapshot.Rounds,
		"categories":   &snapshot.Categories,
		"judges":       &snapshot.Judges,
		"candidates":   &snapshot.Candidates,
		"scores":       &snapshot.Scores,
		"progressions": &snapshot.Progressions,
	}
	for name, target := range targets {
		data, err := a.readObject(ctx, path.Join(prefix, name+".json"))
		if err != nil {
			return Manifest{}, fmt.Errorf("restore bucket %s: %w", name, err)
		}
		if err := json.Unmarshal(data, target); err != nil {
			return Manifest{}, fmt.Errorf("decode bucket %s: %w", name, err)
		}
	}
	a.source.ImportState(snapshot)
	return manifest, nil
}

func (a *Archiver) readManifest(ctx context.Context, key string) (Manifest, error) {
	data, err := a.readObject(ctx, key)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest %s: %w", key, err)
	}
	return m, nil
}

func (a *Archiver) readObject(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

type bucketPayload struct {
	data  []byte
	count int
}

func bucketPayloads(snapshot memory.Snapshot) map[string]bucketPayload {
	encode := func(v any, n int) bucketPayload {
		data, err := json.Marshal(v)
		if err != nil {
			// maps of plain structs always marshal
			panic(err)
		}
		return bucketPayload{data: data, count: n}
	}
	return map[string]bucketPayload{
		"rounds":       encode(snapshot.Rounds, len(snapshot.Rounds)),
		"categories":   encode(snapshot.Categories, len(snapshot.Categories)),
		"judges":       encode(snapshot.Judges, len(snapshot.Judges)),
		"candidates":   encode(snapshot.Candidates, len(snapshot.Candidates)),
		"scores":       encode(snapshot.Scores, len(snapshot.Scores)),
		"progressions": encode(snapshot.Progressions, len(snapshot.Progressions)),
	}
}

func sanitizeLabel(label string) string {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return "snapshot"
	}
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		case r == ' ' || r == '_':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "snapshot"
	}
	return b.String()
}
