package manifest

import (
	"encoding/json"
	"testing"
	"time"
)

func sampleManifest() *BuildManifest {
	return &BuildManifest{
		ID:        "build-123",
		Timestamp: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Inputs: Inputs{
			Documents: []DocumentInput{
				{Path: "posts/a.md", Section: "posts", Fingerprint: "fp-a", Output: "posts/a/index.html"},
				{Path: "about.md", Fingerprint: "fp-about", Output: "about/index.html"},
			},
			ConfigHash: "config-hash-123",
			Theme:      "theme",
		},
		Status:   "success",
		Duration: 5000,
	}
}

func TestManifestSerialization(t *testing.T) {
	m := sampleManifest()
	m.Outputs.AddArtifact("index.html", []byte("<html></html>"))
	m.Outputs.Copied = []string{"css/site.css"}
	m.Outputs.Seal()

	jsonData, err := m.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}

	restored, err := FromJSON(jsonData)
	if err != nil {
		t.Fatalf("FromJSON failed: %v", err)
	}
	if restored.ID != m.ID {
		t.Errorf("expected ID %s, got %s", m.ID, restored.ID)
	}
	if len(restored.Inputs.Documents) != 2 {
		t.Errorf("expected 2 documents, got %d", len(restored.Inputs.Documents))
	}
	if restored.Outputs.ContentHash != m.Outputs.ContentHash {
		t.Errorf("content hash changed: %s != %s", restored.Outputs.ContentHash, m.Outputs.ContentHash)
	}
	if restored.Outputs.ArtifactHashes["index.html"] != HashBytes([]byte("<html></html>")) {
		t.Error("artifact hash not restored")
	}
}

func TestManifestHashIgnoresRunMetadata(t *testing.T) {
	m1 := sampleManifest()
	m2 := sampleManifest()
	m2.ID = "build-456"
	m2.Timestamp = m2.Timestamp.Add(time.Hour)
	m2.Status = "failed"
	m2.Inputs.Documents[0], m2.Inputs.Documents[1] = m2.Inputs.Documents[1], m2.Inputs.Documents[0]

	hash1, err := m1.Hash()
	if err != nil {
		t.Fatalf("Hash failed for m1: %v", err)
	}
	hash2, err := m2.Hash()
	if err != nil {
		t.Fatalf("Hash failed for m2: %v", err)
	}
	if hash1 != hash2 {
		t.Errorf("expected identical hashes for same inputs, got %s and %s", hash1, hash2)
	}
	if len(hash1) != 64 {
		t.Errorf("expected 64-char hex string, got %d chars: %s", len(hash1), hash1)
	}

	m3 := sampleManifest()
	m3.Inputs.Documents[0].Fingerprint = "fp-a-edited"
	hash3, _ := m3.Hash()
	if hash1 == hash3 {
		t.Error("expected different hashes for an edited document")
	}
}

func TestOutputsSealIsOrderIndependent(t *testing.T) {
	var a, b Outputs
	a.AddArtifact("a.html", []byte("a"))
	a.AddArtifact("b.html", []byte("b"))
	b.AddArtifact("b.html", []byte("b"))
	b.AddArtifact("a.html", []byte("a"))
	a.Seal()
	b.Seal()
	if a.ContentHash != b.ContentHash {
		t.Errorf("expected equal content hashes, got %s and %s", a.ContentHash, b.ContentHash)
	}

	b.AddArtifact("a.html", []byte("changed"))
	b.Seal()
	if a.ContentHash == b.ContentHash {
		t.Error("expected content hash to change with artifact content")
	}
}

func TestManifestJSONStructure(t *testing.T) {
	data, err := sampleManifest().ToJSON()
	if err != nil {
		t.Fatalf("ToJSON failed: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"id", "timestamp", "inputs", "outputs", "status", "duration_ms"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}
	inputs := raw["inputs"].(map[string]any)
	if inputs["config_hash"] != "config-hash-123" {
		t.Errorf("unexpected config_hash %v", inputs["config_hash"])
	}
}
