package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"time"
)

// BuildManifest is a record of a build's inputs and outputs.
type BuildManifest struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Inputs    Inputs    `json:"inputs"`
	Outputs   Outputs   `json:"outputs"`
	Status    string    `json:"status"`
	Duration  int64     `json:"duration_ms"`
}

// Inputs captures everything the build read.
type Inputs struct {
	Documents  []DocumentInput `json:"documents"`
	ConfigHash string          `json:"config_hash"`
	Theme      string          `json:"theme,omitempty"`
}

// DocumentInput is one published document.
type DocumentInput struct {
	Path        string `json:"path"`
	Section     string `json:"section,omitempty"`
	Fingerprint string `json:"fingerprint"`
	Output      string `json:"output,omitempty"`
}

// Outputs captures the generated files. Copied static files and bundle
// resources are listed without a hash.
type Outputs struct {
	ContentHash    string            `json:"content_hash,omitempty"`
	ArtifactHashes map[string]string `json:"artifact_hashes,omitempty"`
	Copied         []string          `json:"copied,omitempty"`
}

// HashBytes returns the hex SHA-256 of data.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashJSON returns the hex SHA-256 of v's JSON encoding. Map keys are
// sorted by encoding/json, so the hash is stable.
func HashJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal for hash: %w", err)
	}
	return HashBytes(data), nil
}

// AddArtifact records the hash of a generated output file.
func (o *Outputs) AddArtifact(path string, data []byte) {
	if o.ArtifactHashes == nil {
		o.ArtifactHashes = make(map[string]string)
	}
	o.ArtifactHashes[path] = HashBytes(data)
}

// Seal computes ContentHash over the artifact hashes in path order.
func (o *Outputs) Seal() {
	h := sha256.New()
	for _, p := range slices.Sorted(maps.Keys(o.ArtifactHashes)) {
		h.Write([]byte(p))
		h.Write([]byte{0})
		h.Write([]byte(o.ArtifactHashes[p]))
		h.Write([]byte{'\n'})
	}
	slices.Sort(o.Copied)
	o.ContentHash = hex.EncodeToString(h.Sum(nil))
}

// ToJSON serializes the manifest to JSON.
func (m *BuildManifest) ToJSON() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return data, nil
}

// FromJSON deserializes a manifest from JSON.
func FromJSON(data []byte) (*BuildManifest, error) {
	var m BuildManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return &m, nil
}

// Hash computes a deterministic hash of the manifest's inputs. Two builds
// with the same hash read the same documents with the same configuration.
func (m *BuildManifest) Hash() (string, error) {
	docs := slices.Clone(m.Inputs.Documents)
	slices.SortFunc(docs, func(a, b DocumentInput) int {
		switch {
		case a.Path < b.Path:
			return -1
		case a.Path > b.Path:
			return 1
		}
		return 0
	})
	return HashJSON(struct {
		Documents  []DocumentInput `json:"documents"`
		ConfigHash string          `json:"config_hash"`
		Theme      string          `json:"theme"`
	}{docs, m.Inputs.ConfigHash, m.Inputs.Theme})
}
