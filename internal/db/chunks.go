package db

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/resume-tailor/internal/reconciliation"
	"github.com/jonathan/resume-tailor/internal/types"
)

// ReplaceChunks atomically swaps a resume's indexed chunks: existing rows
// are deleted and the new chunk set is inserted with its embeddings in one
// transaction. chunks and vectors must be parallel slices.
func (db *DB) ReplaceChunks(ctx context.Context, resumeID uuid.UUID, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM resume_chunks WHERE resume_id = $1`, resumeID,
	); err != nil {
		return fmt.Errorf("failed to delete chunks for resume %s: %w", resumeID, err)
	}

	for _, chunk := range chunks {
		if chunk.ResumeID != resumeID {
			return fmt.Errorf("chunk resume %s does not match %s", chunk.ResumeID, resumeID)
		}
	}

	for i, chunk := range chunks {
		if _, err := tx.Exec(ctx,
			`INSERT INTO resume_chunks (resume_id, section, ref_type, ref_id, part_order, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7::vector)`,
			chunk.ResumeID, chunk.Section, chunk.RefType, nullableUUID(chunk.RefID),
			chunk.PartOrder, chunk.Content, vectorLiteral(vectors[i]),
		); err != nil {
			return fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chunk replacement: %w", err)
	}
	return nil
}

// CountChunks returns how many chunks are indexed for a resume.
func (db *DB) CountChunks(ctx context.Context, resumeID uuid.UUID) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM resume_chunks WHERE resume_id = $1`, resumeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return count, nil
}

// TopK returns the k chunks nearest to the query vector, nearest first.
func (db *DB) TopK(ctx context.Context, vector []float32, k int) ([]types.ChunkHit, error) {
	literal := vectorLiteral(vector)
	rows, err := db.pool.Query(ctx,
		`SELECT resume_id, section, ref_type, COALESCE(ref_id, $3), part_order, content,
		        embedding <-> $1::vector AS distance
		 FROM resume_chunks
		 ORDER BY embedding <-> $1::vector
		 LIMIT $2`,
		literal, k, uuid.Nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query nearest chunks: %w", err)
	}
	defer rows.Close()

	var hits []types.ChunkHit
	for rows.Next() {
		var hit types.ChunkHit
		if err := rows.Scan(&hit.ResumeID, &hit.Section, &hit.RefType, &hit.RefID,
			&hit.PartOrder, &hit.Content, &hit.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk hit: %w", err)
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// FindBulletsForEntity returns an entity's bullet-type chunks ordered by
// part order.
func (db *DB) FindBulletsForEntity(ctx context.Context, resumeID, entityID uuid.UUID) ([]reconciliation.BulletRow, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT part_order, content
		 FROM resume_chunks
		 WHERE resume_id = $1 AND ref_id = $2 AND ref_type = $3
		 ORDER BY part_order ASC`,
		resumeID, entityID, types.RefExperienceBullet,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query bullets for entity %s: %w", entityID, err)
	}
	defer rows.Close()

	var bullets []reconciliation.BulletRow
	for rows.Next() {
		var row reconciliation.BulletRow
		if err := rows.Scan(&row.PartOrder, &row.Content); err != nil {
			return nil, fmt.Errorf("failed to scan bullet row: %w", err)
		}
		bullets = append(bullets, row)
	}
	return bullets, rows.Err()
}

// MaxBulletOrder returns the highest bullet part order for an entity, or -1
// when the entity has no bullets.
func (db *DB) MaxBulletOrder(ctx context.Context, resumeID, entityID uuid.UUID) (int, error) {
	var max int
	err := db.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(part_order), -1)
		 FROM resume_chunks
		 WHERE resume_id = $1 AND ref_id = $2 AND ref_type = $3`,
		resumeID, entityID, types.RefExperienceBullet,
	).Scan(&max)
	if err != nil {
		return -1, fmt.Errorf("failed to query max bullet order: %w", err)
	}
	return max, nil
}

// vectorLiteral renders a float32 slice as a pgvector input literal.
func vectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'f', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

// nullableUUID maps the zero UUID to SQL NULL.
func nullableUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
