package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-tailor/internal/llm"
	"github.com/jonathan/resume-tailor/internal/observability"
	"github.com/jonathan/resume-tailor/internal/plancache"
	"github.com/jonathan/resume-tailor/internal/reconciliation"
	"github.com/jonathan/resume-tailor/internal/scoring"
	"github.com/jonathan/resume-tailor/internal/types"
)

var (
	testResumeID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testExpID    = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	testProjID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
)

const testJob = `We are hiring a backend engineer to build distributed systems
with docker, kubernetes, and postgresql. Experience with terraform is a plus.`

func testResume() *types.Resume {
	return &types.Resume{
		ID:      testResumeID,
		Summary: "Backend engineer with platform experience",
		Experiences: []types.Experience{
			{
				ID:      testExpID,
				Company: "Acme Corp",
				Title:   "Senior Engineer",
				EndDate: "",
				Bullets: []string{
					"Built internal reporting dashboards",
					"Maintained deployment scripts for the platform",
					"Wrote onboarding documentation for new engineers",
				},
			},
		},
		Projects: []types.Project{
			{
				ID:       testProjID,
				Name:     "Queue Broker",
				Features: []string{"At-least-once delivery guarantees"},
			},
		},
		Skills: []types.SkillCategory{
			{Name: "Infrastructure", Skills: []string{"docker", "linux"}},
		},
	}
}

// memoryStore is an in-memory Store that records replacements and serves
// lookups from the last indexed chunk set.
type memoryStore struct {
	chunks   []types.Chunk
	vectors  [][]float32
	replaced int
	topKErr  error
}

func (m *memoryStore) ReplaceChunks(_ context.Context, resumeID uuid.UUID, chunks []types.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunk/vector mismatch")
	}
	m.chunks = chunks
	m.vectors = vectors
	m.replaced++
	return nil
}

func (m *memoryStore) TopK(_ context.Context, _ []float32, k int) ([]types.ChunkHit, error) {
	if m.topKErr != nil {
		return nil, m.topKErr
	}
	var hits []types.ChunkHit
	for i, chunk := range m.chunks {
		if len(hits) >= k {
			break
		}
		hits = append(hits, types.ChunkHit{Chunk: chunk, Distance: float64(i)})
	}
	return hits, nil
}

func (m *memoryStore) FindBulletsForEntity(_ context.Context, _, entityID uuid.UUID) ([]reconciliation.BulletRow, error) {
	var rows []reconciliation.BulletRow
	for _, chunk := range m.chunks {
		if chunk.RefID == entityID && chunk.RefType == types.RefExperienceBullet {
			rows = append(rows, reconciliation.BulletRow{PartOrder: chunk.PartOrder, Content: chunk.Content})
		}
	}
	return rows, nil
}

func (m *memoryStore) MaxBulletOrder(ctx context.Context, resumeID, entityID uuid.UUID) (int, error) {
	rows, _ := m.FindBulletsForEntity(ctx, resumeID, entityID)
	max := -1
	for _, row := range rows {
		if row.PartOrder > max {
			max = row.PartOrder
		}
	}
	return max, nil
}

// scriptedClient answers the batch plan prompt with a fixed draft and echoes
// single-patch requests. Embeddings are deterministic dummies.
type scriptedClient struct {
	batchPlan   string
	batchCalls  int
	singleCalls int
	embedCalls  int
	embedErr    error
}

func (s *scriptedClient) GenerateJSON(_ context.Context, prompt string, tier llm.ModelTier, _ string, _ llm.SamplingParams) (*llm.Generation, error) {
	if tier == llm.TierAdvanced {
		s.batchCalls++
		return &llm.Generation{Content: s.batchPlan, Provider: "gemini", Model: "batch-model", LatencyMs: 12}, nil
	}
	s.singleCalls++
	content := fmt.Sprintf(`{"bulletPatches": [{"variants": ["Delivered docker-based improvement %d across 3 services"]}]}`, s.singleCalls)
	_ = prompt
	return &llm.Generation{Content: content, Provider: "gemini", Model: "single-model"}, nil
}

func (s *scriptedClient) Embed(_ context.Context, text string) ([]float32, error) {
	s.embedCalls++
	if s.embedErr != nil {
		return nil, s.embedErr
	}
	return []float32{float32(len(text)), 1, 0}, nil
}

func (s *scriptedClient) GetModel(_ llm.ModelTier) string { return "test" }
func (s *scriptedClient) Close() error                    { return nil }

func testDeps(client llm.Client, store Store) Deps {
	scorer := scoring.NewScorer(scoring.DefaultWeights())
	scorer.Now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return Deps{
		Client:  client,
		Store:   store,
		Cache:   plancache.New(time.Minute),
		Printer: observability.NewPrinter(io.Discard),
		Scorer:  scorer,
	}
}

func batchPlanJSON(t *testing.T) string {
	t.Helper()
	plan := map[string]any{
		"atsScoreBefore": 95, // model-claimed scores are ignored
		"atsScoreAfter":  99,
		"bulletPatches": []map[string]any{
			{
				"section":       "EXPERIENCE",
				"entityId":      testExpID.String(),
				"bulletIndex":   0,
				"original":      "Built internal reporting dashboards",
				"variants":      []string{"Built kubernetes-backed reporting dashboards serving 40 teams"},
				"keywordsAdded": []string{"graphql"}, // a lie; recomputation must drop it
				"sourceRanks":   []int{1},
			},
			{
				"section":     "EXPERIENCE",
				"entityId":    testExpID.String(),
				"bulletIndex": 1,
				"original":    "Maintained deployment scripts for the platform",
				"variants":    []string{"Automated postgresql deployments with terraform, cutting rollout time 60%"},
				"sourceRanks": []int{2},
			},
			{
				"section":  "PROJECTS",
				"entityId": testProjID.String(),
				"original": "At-least-once delivery guarantees",
				"variants": []string{"Designed at-least-once delivery guarantees for a distributed queue broker"},
			},
		},
		"sectionOrder": []string{"EXPERIENCE", "PROJECTS", "BOGUS", "EXPERIENCE"},
	}
	data, err := json.Marshal(plan)
	require.NoError(t, err)
	return string(data)
}

func reindexed(t *testing.T, deps Deps) {
	t.Helper()
	n, err := Reindex(context.Background(), deps, testResume(), 0, false)
	require.NoError(t, err)
	require.Greater(t, n, 0)
}

func TestReindexEmbedsEveryChunk(t *testing.T) {
	client := &scriptedClient{}
	store := &memoryStore{}
	deps := testDeps(client, store)

	n, err := Reindex(context.Background(), deps, testResume(), 0, false)
	require.NoError(t, err)

	assert.Equal(t, n, len(store.chunks))
	assert.Equal(t, n, client.embedCalls)
	assert.Equal(t, len(store.chunks), len(store.vectors))
	assert.Equal(t, 1, store.replaced)
}

func TestReindexFailsWhenEmbeddingFails(t *testing.T) {
	client := &scriptedClient{embedErr: errors.New("quota exceeded")}
	store := &memoryStore{}
	deps := testDeps(client, store)

	_, err := Reindex(context.Background(), deps, testResume(), 0, false)
	require.Error(t, err)
	assert.Zero(t, store.replaced, "failed reindex must not touch the store")
}

func TestReindexInvalidatesCachedPlans(t *testing.T) {
	client := &scriptedClient{batchPlan: batchPlanJSON(t)}
	store := &memoryStore{}
	deps := testDeps(client, store)
	reindexed(t, deps)

	_, token, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{})
	require.NoError(t, err)
	_, ok := deps.Cache.Get(token, testResumeID)
	require.True(t, ok)

	reindexed(t, deps)
	_, ok = deps.Cache.Get(token, testResumeID)
	assert.False(t, ok, "reindexing must invalidate cached plans")
}

func TestTailorEndToEnd(t *testing.T) {
	client := &scriptedClient{batchPlan: batchPlanJSON(t)}
	store := &memoryStore{}
	deps := testDeps(client, store)
	reindexed(t, deps)

	plan, token, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{})
	require.NoError(t, err)
	require.NotNil(t, plan)

	// Patches survived reconciliation and validation
	require.NotEmpty(t, plan.Patches)
	for _, patch := range plan.Patches {
		assert.NotEqual(t, uuid.Nil, patch.EntityID)
		assert.NotEmpty(t, patch.Variants)
	}

	// Model-claimed scores were discarded for recomputed ones
	assert.NotEqual(t, 95, plan.ATSScoreBefore)
	assert.GreaterOrEqual(t, plan.ATSScoreAfter, plan.ATSScoreBefore)
	assert.LessOrEqual(t, plan.ATSScoreAfter, 100)

	// Keyword lies were dropped: graphql appears in no variant
	for _, patch := range plan.Patches {
		assert.NotContains(t, patch.KeywordsAdded, "graphql")
	}

	// Section order was sanitized
	assert.Equal(t, []string{"EXPERIENCE", "PROJECT"}, plan.SectionOrderSuggested)

	// Provenance reflects the batch call
	assert.Equal(t, "batch-model", plan.Provenance.Model)

	// The cached plan round-trips by token
	cached, ok := deps.Cache.Get(token, testResumeID)
	require.True(t, ok)
	assert.Equal(t, plan, cached)
}

func TestTailorAugmentsSparsePlans(t *testing.T) {
	// Batch plan with a single patch; augmentation should top up to three.
	sparse := `{"bulletPatches": [{"section": "EXPERIENCE", "entityId": "` + testExpID.String() + `",
		"bulletIndex": 0, "original": "Built internal reporting dashboards",
		"variants": ["Built kubernetes-backed reporting dashboards serving 40 teams"], "sourceRanks": [1]}]}`

	client := &scriptedClient{batchPlan: sparse}
	store := &memoryStore{}
	deps := testDeps(client, store)
	reindexed(t, deps)

	plan, _, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{MinPatches: 3})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(plan.Patches), 2, "augmentation should add patches")
	assert.Greater(t, client.singleCalls, 0, "single-patch calls were made")

	// Uniqueness invariants hold after augmentation and dedup
	for i := range plan.Patches {
		for j := i + 1; j < len(plan.Patches); j++ {
			assert.False(t, plan.Patches[i].SamePosition(plan.Patches[j]))
		}
	}
}

func TestTailorForwardsReconciliationThresholds(t *testing.T) {
	// A draft patch with no source ranks and no entity id can only resolve
	// through a fuzzy context match against the stored bullet text.
	loose := `{"bulletPatches": [{"section": "EXPERIENCE",
		"original": "Maintained deployment scripts",
		"variants": ["Automated postgresql deployments with terraform, cutting rollout time 60%"]}]}`

	client := &scriptedClient{batchPlan: loose}
	store := &memoryStore{}
	deps := testDeps(client, store)
	reindexed(t, deps)

	plan, _, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{})
	require.NoError(t, err)
	assert.True(t, hasOriginal(plan.Patches, "Maintained deployment scripts"),
		"default thresholds accept the near-match")

	deps = testDeps(&scriptedClient{batchPlan: loose}, store)
	plan, _, err = Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{
		FuzzyThreshold:  0.95,
		StrictThreshold: 0.95,
	})
	require.NoError(t, err)
	assert.False(t, hasOriginal(plan.Patches, "Maintained deployment scripts"),
		"a stricter fuzzy threshold drops the near-match")
}

func hasOriginal(patches []types.BulletPatch, original string) bool {
	for _, patch := range patches {
		if patch.OriginalText == original {
			return true
		}
	}
	return false
}

func TestTailorMalformedModelOutputDegrades(t *testing.T) {
	client := &scriptedClient{batchPlan: "The model ignored instructions and wrote prose."}
	store := &memoryStore{}
	deps := testDeps(client, store)
	reindexed(t, deps)

	plan, _, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{})
	require.NoError(t, err, "malformed content is not a transport failure")
	require.NotNil(t, plan)
	assert.GreaterOrEqual(t, plan.ATSScoreAfter, plan.ATSScoreBefore)
}

func TestTailorFailsWhenRetrievalFails(t *testing.T) {
	client := &scriptedClient{batchPlan: batchPlanJSON(t)}
	store := &memoryStore{topKErr: errors.New("connection refused")}
	deps := testDeps(client, store)

	_, _, err := Tailor(context.Background(), deps, testResume(), testJob, TailorOptions{})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "retrieval"))
}
