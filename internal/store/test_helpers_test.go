package store

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/flowvault/flowvault/internal/document"
	"github.com/flowvault/flowvault/internal/flow"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// createTestStore creates a store backed by a throwaway database file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testDocument builds a small flow document. Numeric values use
// json.Number so the document survives a marshal/unmarshal round trip
// unchanged.
func testDocument(label string) document.Document {
	return document.Document{
		"label": label,
		"nodes": []any{
			map[string]any{"id": "n1", "type": "input", "x": json.Number("100")},
		},
		"edges": []any{},
	}
}

// createTestFlow builds a draft flow with a mix of set and nil optional
// fields so NULL columns get exercised.
func createTestFlow(name string) flow.Flow {
	desc := "test flow"
	endpoint := "test-endpoint"
	return flow.Flow{
		ID: uuid.New(),
		Snapshot: flow.Snapshot{
			Name:         name,
			Description:  &desc,
			Data:         testDocument(name),
			EndpointName: &endpoint,
			Tags:         []string{"test"},
			AccessType:   flow.AccessPrivate,
		},
		VersionCount: 0,
		IsDraft:      true,
		CreatedAt:    testTime,
		UpdatedAt:    testTime,
	}
}

// createTestVersion builds a version snapshotting the given flow.
func createTestVersion(f flow.Flow, number int) flow.Version {
	publishedAt := testTime.Add(time.Duration(number) * time.Minute)
	return flow.Version{
		ID:                 uuid.New(),
		FlowID:             f.ID,
		VersionNumber:      number,
		Snapshot:           f.Snapshot.Clone(),
		PublishedBy:        uuid.New(),
		PublishedAt:        publishedAt,
		ParentFlowDataHash: document.MustHash(f.Data),
		CreatedAt:          publishedAt,
		UpdatedAt:          publishedAt,
	}
}

// createTestMetadata builds a zeroed metadata row for a version.
func createTestMetadata(v flow.Version) flow.VersionMetadata {
	return flow.VersionMetadata{
		ID:                    uuid.New(),
		VersionID:             v.ID,
		DeploymentEnvironment: flow.DefaultDeploymentEnvironment,
		CreatedAt:             v.PublishedAt,
		UpdatedAt:             v.PublishedAt,
	}
}
