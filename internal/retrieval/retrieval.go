// Package retrieval embeds a job description, fetches the nearest resume
// chunks from the vector index, and reranks them into prompt context lines.
package retrieval

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/keywords"
	"github.com/jonathan/resume-tailor/internal/types"
)

const (
	// DefaultTopK is the default number of chunks fetched from the index.
	DefaultTopK = 8
	// MaxTopK is the hard cap on chunks fetched from the index.
	MaxTopK = 20
)

// Embedder converts text into an embedding vector. Failures are hard errors
// for the current tailoring request.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the vector-index lookup contract. TopK returns the nearest chunks
// first; the exact distance metric is an implementation detail.
type Index interface {
	TopK(ctx context.Context, vector []float32, k int) ([]types.ChunkHit, error)
}

// Error represents a retrieval failure (embedding or index).
type Error struct {
	Stage string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("retrieval failed during %s: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Result holds the reranked context and the extracted target keywords for
// one tailoring request.
type Result struct {
	Lines    []types.ContextLine
	Keywords []string
}

// Retrieve embeds the job description, fetches the topK nearest chunks,
// extracts lexical keywords, and reranks the chunks into 1-based context
// lines. k <= 0 uses DefaultTopK; k > MaxTopK is clamped.
func Retrieve(ctx context.Context, embedder Embedder, index Index, jobText string, k, maxKeywords int) (*Result, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	if k > MaxTopK {
		k = MaxTopK
	}

	vector, err := embedder.Embed(ctx, jobText)
	if err != nil {
		return nil, &Error{Stage: "embedding", Cause: err}
	}

	hits, err := index.TopK(ctx, vector, k)
	if err != nil {
		return nil, &Error{Stage: "index lookup", Cause: err}
	}

	kws := keywords.Extract(jobText, maxKeywords)
	return &Result{
		Lines:    Rerank(hits, kws),
		Keywords: kws,
	}, nil
}

// Rerank orders retrieved chunks by descending keyword overlap, then moves
// bullet-like experience content ahead of everything else, and assigns fresh
// 1-based ranks. Bullet-like lines get their chunk part order as the bullet
// index. Both sorts are stable so the index's nearest-first order breaks ties.
func Rerank(hits []types.ChunkHit, kws []string) []types.ContextLine {
	ordered := make([]types.ChunkHit, len(hits))
	copy(ordered, hits)

	sort.SliceStable(ordered, func(i, j int) bool {
		return keywords.CountMatches(ordered[i].Content, kws) > keywords.CountMatches(ordered[j].Content, kws)
	})
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsBulletLike() && !ordered[j].IsBulletLike()
	})

	lines := make([]types.ContextLine, 0, len(ordered))
	for i, hit := range ordered {
		line := types.ContextLine{Chunk: hit.Chunk, Rank: i + 1}
		if hit.IsBulletLike() {
			line.BulletIndex = types.IntPtr(hit.PartOrder)
		}
		lines = append(lines, line)
	}
	return lines
}

// BuildContextString renders context lines into the prompt context block,
// one line per chunk:
//
//	rank) [section/refType id=.. idx=..] content
func BuildContextString(lines []types.ContextLine) string {
	var sb strings.Builder
	for _, line := range lines {
		sb.WriteString(fmt.Sprintf("%d) [%s/%s", line.Rank, line.Section, line.RefType))
		if line.RefID != uuid.Nil {
			sb.WriteString(" id=" + line.RefID.String())
		}
		if line.BulletIndex != nil {
			sb.WriteString(fmt.Sprintf(" idx=%d", *line.BulletIndex))
		}
		sb.WriteString("] ")
		sb.WriteString(line.Content)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
