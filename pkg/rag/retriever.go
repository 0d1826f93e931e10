// SPDX-License-Identifier: Apache-2.0

// Package rag retrieves knowledge-base context for chat turns by embedding
// the question and searching a vector store.
package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/ogyreck/ai-assistent-students/pkg/errors"
	"github.com/ogyreck/ai-assistent-students/pkg/memory"
)

// Retriever pairs an embedder with a vector store to index and recall
// documents for a single collection.
type Retriever struct {
	embedder   memory.Embedder
	store      memory.VectorStore
	collection string
	topK       int
	threshold  float32
}

// Document is a piece of text to index, with optional metadata.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]interface{}
}

// New creates a Retriever. topK <= 0 defaults to 3.
func New(embedder memory.Embedder, store memory.VectorStore, collection string, topK int, threshold float32) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	return &Retriever{
		embedder:   embedder,
		store:      store,
		collection: collection,
		topK:       topK,
		threshold:  threshold,
	}
}

// EnsureCollection creates the backing collection sized to the embedder's
// output. It probes the embedder once to learn the vector size.
func (r *Retriever) EnsureCollection(ctx context.Context) error {
	vec, err := r.embedder.Embed(ctx, "dimension probe")
	if err != nil {
		return apperrors.New(apperrors.CodeMemoryError, "failed to probe embedding size", err)
	}
	if err := r.store.CreateCollection(ctx, r.collection, uint64(len(vec))); err != nil {
		return apperrors.New(apperrors.CodeMemoryError, "failed to create collection", err)
	}
	return nil
}

// Index embeds and upserts the given documents.
func (r *Retriever) Index(ctx context.Context, docs []Document) error {
	points := make([]memory.Point, 0, len(docs))
	for _, doc := range docs {
		vec, err := r.embedder.Embed(ctx, doc.Text)
		if err != nil {
			return apperrors.New(apperrors.CodeMemoryError, "failed to embed document", err).
				WithContext("doc_id", doc.ID)
		}
		payload := map[string]interface{}{"text": doc.Text}
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		id := doc.ID
		if id == "" {
			id = uuid.New().String()
		}
		points = append(points, memory.Point{ID: id, Vector: vec, Payload: payload})
	}
	if err := r.store.Upsert(ctx, r.collection, points); err != nil {
		return apperrors.New(apperrors.CodeMemoryError, "failed to upsert documents", err)
	}
	return nil
}

// Retrieve returns the texts of the closest documents to the question,
// best match first. An empty slice means nothing relevant was found.
func (r *Retriever) Retrieve(ctx context.Context, question string) ([]string, error) {
	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeMemoryError, "failed to embed question", err)
	}

	results, err := r.store.Search(ctx, r.collection, vec, r.topK, r.threshold)
	if err != nil {
		return nil, apperrors.New(apperrors.CodeMemoryError, "vector search failed", err)
	}

	texts := make([]string, 0, len(results))
	for _, res := range results {
		text, ok := res.Point.Payload["text"].(string)
		if !ok || text == "" {
			continue
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// FormatContext joins retrieved texts into a numbered context block suitable
// for prompt injection. Returns "" when texts is empty.
func FormatContext(texts []string) string {
	if len(texts) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	return strings.TrimRight(sb.String(), "\n")
}
