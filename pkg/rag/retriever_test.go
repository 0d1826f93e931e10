// SPDX-License-Identifier: Apache-2.0

package rag

import (
	"context"
	"testing"

	"github.com/ogyreck/ai-assistent-students/pkg/memory"
)

type fakeEmbedder struct {
	calls []string
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls = append(f.calls, text)
	return []float32{float32(len(text)), 1, 0}, nil
}

type fakeStore struct {
	upserted    []memory.Point
	searchHits  []memory.SearchResult
	collections map[string]uint64
}

func (f *fakeStore) Upsert(_ context.Context, _ string, points []memory.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(_ context.Context, _ string, _ []float32, _ int, _ float32) ([]memory.SearchResult, error) {
	return f.searchHits, nil
}

func (f *fakeStore) CreateCollection(_ context.Context, name string, size uint64) error {
	if f.collections == nil {
		f.collections = map[string]uint64{}
	}
	f.collections[name] = size
	return nil
}

func TestIndexEmbedsAndUpserts(t *testing.T) {
	emb := &fakeEmbedder{}
	store := &fakeStore{}
	r := New(emb, store, "notes", 3, 0.5)

	err := r.Index(context.Background(), []Document{
		{Text: "deadline is friday", Metadata: map[string]interface{}{"course": "algo"}},
		{ID: "doc-2", Text: "room 404"},
	})
	if err != nil {
		t.Fatalf("index: %v", err)
	}

	if len(store.upserted) != 2 {
		t.Fatalf("upserted = %d, want 2", len(store.upserted))
	}
	if store.upserted[0].ID == "" {
		t.Error("expected generated ID for first doc")
	}
	if store.upserted[1].ID != "doc-2" {
		t.Errorf("second doc ID = %q, want doc-2", store.upserted[1].ID)
	}
	if store.upserted[0].Payload["text"] != "deadline is friday" || store.upserted[0].Payload["course"] != "algo" {
		t.Errorf("payload = %v", store.upserted[0].Payload)
	}
}

func TestRetrieveReturnsTexts(t *testing.T) {
	store := &fakeStore{
		searchHits: []memory.SearchResult{
			{Score: 0.9, Point: memory.Point{Payload: map[string]interface{}{"text": "first"}}},
			{Score: 0.7, Point: memory.Point{Payload: map[string]interface{}{"text": "second"}}},
			{Score: 0.6, Point: memory.Point{Payload: map[string]interface{}{"other": 1}}},
		},
	}
	r := New(&fakeEmbedder{}, store, "notes", 3, 0.5)

	texts, err := r.Retrieve(context.Background(), "when is the deadline?")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(texts) != 2 || texts[0] != "first" || texts[1] != "second" {
		t.Errorf("texts = %v", texts)
	}
}

func TestEnsureCollectionUsesEmbeddingSize(t *testing.T) {
	store := &fakeStore{}
	r := New(&fakeEmbedder{}, store, "notes", 0, 0)

	if err := r.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if store.collections["notes"] != 3 {
		t.Errorf("collection size = %d, want 3", store.collections["notes"])
	}
}

func TestFormatContext(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("empty context = %q, want empty", got)
	}
	got := FormatContext([]string{"a", "b"})
	want := "1. a\n2. b"
	if got != want {
		t.Errorf("context = %q, want %q", got, want)
	}
}
