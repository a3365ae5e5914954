package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"image"
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phish_backend/internal/feature/logodetection/domain/entity"
	"phish_backend/internal/feature/logodetection/usecase"
	"phish_backend/internal/platform/workerpool"
)

// mockDetector returns a fixed region list.
type mockDetector struct {
	DetectFunc func(ctx context.Context, img image.Image) ([]entity.RegionCandidate, error)
}

func (m *mockDetector) Detect(ctx context.Context, img image.Image) ([]entity.RegionCandidate, error) {
	return m.DetectFunc(ctx, img)
}

// mockOracle scores regions by index.
type mockOracle struct {
	scores map[int]float64
	fail   map[int]bool
}

func (m *mockOracle) Score(_ context.Context, r entity.RegionCandidate) (float64, error) {
	if m.fail[r.Index] {
		return 0, errors.New("oracle failure")
	}
	return m.scores[r.Index], nil
}

// recordingEngine records the region indices it is queried with.
type recordingEngine struct {
	name    string
	mu      sync.Mutex
	queried []int
	results func(region int) ([]string, error)
}

func (e *recordingEngine) Name() string { return e.name }

func (e *recordingEngine) SearchImage(_ context.Context, img []byte) ([]string, error) {
	region := int(img[0])
	e.mu.Lock()
	e.queried = append(e.queried, region)
	e.mu.Unlock()
	if e.results != nil {
		return e.results(region)
	}
	return []string{fmt.Sprintf("https://%s.test/region-%d", e.name, region)}, nil
}

func regions(n int) []entity.RegionCandidate {
	out := make([]entity.RegionCandidate, n)
	for i := range out {
		out[i] = entity.RegionCandidate{Index: i, Crop: []byte{byte(i)}}
	}
	return out
}

func newSearch(t *testing.T, workers int, detected []entity.RegionCandidate, oracle *mockOracle, engines ...usecase.ReverseImageEngine) *usecase.RegionSearch {
	t.Helper()
	pool := workerpool.New(workerpool.WithWorkers(workers))
	t.Cleanup(pool.Close)
	det := &mockDetector{DetectFunc: func(context.Context, image.Image) ([]entity.RegionCandidate, error) {
		return detected, nil
	}}
	return usecase.NewRegionSearch(det, oracle, engines, pool, nil)
}

var blank = image.NewRGBA(image.Rect(0, 0, 4, 4))

func TestRegionSearch_Find_RanksAndLimitsRegions(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{name: "e1"}
	oracle := &mockOracle{scores: map[int]float64{0: 0.2, 1: 0.9, 2: 0.5}}
	s := newSearch(t, 1, regions(3), oracle, engine)

	got := slices.Collect(s.Find(context.Background(), blank, entity.SearchLimits{RegionLimit: 2, ResultsPerRegion: 10}))

	assert.Equal(t, []int{1, 2}, engine.queried)
	assert.Equal(t, []string{"https://e1.test/region-1", "https://e1.test/region-2"}, got)
}

func TestRegionSearch_Find_RegionMajorSubmission(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var order []string
	mk := func(name string) *recordingEngine {
		e := &recordingEngine{name: name}
		e.results = func(region int) ([]string, error) {
			mu.Lock()
			order = append(order, fmt.Sprintf("%s/%d", name, region))
			mu.Unlock()
			return nil, nil
		}
		return e
	}
	oracle := &mockOracle{scores: map[int]float64{0: 0.1, 1: 0.8}}
	s := newSearch(t, 1, regions(2), oracle, mk("a"), mk("b"))

	for range s.Find(context.Background(), blank, entity.SearchLimits{RegionLimit: 2, ResultsPerRegion: 5}) {
	}

	assert.Equal(t, []string{"a/1", "b/1", "a/0", "b/0"}, order)
}

func TestRegionSearch_Find_TruncatesTotalResults(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{name: "e1", results: func(region int) ([]string, error) {
		return []string{
			fmt.Sprintf("https://a.test/%d", region),
			fmt.Sprintf("https://b.test/%d", region),
			fmt.Sprintf("https://c.test/%d", region),
		}, nil
	}}
	oracle := &mockOracle{scores: map[int]float64{0: 0.5, 1: 0.4}}
	s := newSearch(t, 1, regions(2), oracle, engine)

	got := slices.Collect(s.Find(context.Background(), blank, entity.SearchLimits{RegionLimit: 2, ResultsPerRegion: 4}))

	assert.Equal(t, []string{"https://a.test/0", "https://b.test/0", "https://c.test/0", "https://a.test/1"}, got)
}

func TestRegionSearch_Find_IsolatesFailures(t *testing.T) {
	t.Parallel()

	failing := &recordingEngine{name: "bad", results: func(int) ([]string, error) {
		return nil, errors.New("engine down")
	}}
	good := &recordingEngine{name: "good"}
	oracle := &mockOracle{scores: map[int]float64{0: 0.9, 1: 0.8, 2: 0.7}, fail: map[int]bool{1: true}}
	s := newSearch(t, 2, regions(3), oracle, failing, good)

	got := slices.Collect(s.Find(context.Background(), blank, entity.SearchLimits{RegionLimit: 3, ResultsPerRegion: 10}))

	assert.ElementsMatch(t, []string{"https://good.test/region-0", "https://good.test/region-2"}, got)
	assert.ElementsMatch(t, []int{0, 2}, failing.queried)
}

func TestRegionSearch_Find_EarlyStop(t *testing.T) {
	t.Parallel()

	engine := &recordingEngine{name: "e1"}
	oracle := &mockOracle{scores: map[int]float64{0: 0.3, 1: 0.2, 2: 0.1}}
	s := newSearch(t, 1, regions(3), oracle, engine)

	var first string
	for u := range s.Find(context.Background(), blank, entity.SearchLimits{RegionLimit: 3, ResultsPerRegion: 10}) {
		first = u
		break
	}
	assert.Equal(t, "https://e1.test/region-0", first)
}

func TestRegionSearch_Find_NothingToDo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		limits  entity.SearchLimits
		engines []usecase.ReverseImageEngine
		detect  func(context.Context, image.Image) ([]entity.RegionCandidate, error)
	}{
		{
			name:    "no engines",
			limits:  entity.SearchLimits{RegionLimit: 3, ResultsPerRegion: 3},
			engines: nil,
		},
		{
			name:    "zero result budget",
			limits:  entity.SearchLimits{RegionLimit: 3, ResultsPerRegion: 0},
			engines: []usecase.ReverseImageEngine{&recordingEngine{name: "e"}},
		},
		{
			name:    "detector error",
			limits:  entity.SearchLimits{RegionLimit: 3, ResultsPerRegion: 3},
			engines: []usecase.ReverseImageEngine{&recordingEngine{name: "e"}},
			detect: func(context.Context, image.Image) ([]entity.RegionCandidate, error) {
				return nil, errors.New("bad image")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			pool := workerpool.New(workerpool.WithWorkers(1))
			t.Cleanup(pool.Close)
			detect := tt.detect
			if detect == nil {
				detect = func(context.Context, image.Image) ([]entity.RegionCandidate, error) { return regions(2), nil }
			}
			s := usecase.NewRegionSearch(&mockDetector{DetectFunc: detect}, &mockOracle{}, tt.engines, pool, nil)

			got := slices.Collect(s.Find(context.Background(), blank, tt.limits))
			assert.Empty(t, got)
		})
	}
}

func TestRegionSearch_Rank_StableOnTies(t *testing.T) {
	t.Parallel()

	oracle := &mockOracle{scores: map[int]float64{0: 0.5, 1: 0.7, 2: 0.5, 3: 0.5}}
	s := newSearch(t, 1, nil, oracle)

	ranked := s.Rank(context.Background(), regions(4), 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, []int{1, 0, 2}, []int{ranked[0].Index, ranked[1].Index, ranked[2].Index})
	assert.Equal(t, 0.7, ranked[0].LogoProbability)
}
