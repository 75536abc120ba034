package docsearch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results map[string][]string
	errs    map[string]error
	tops    map[string]int
}

func (f *fakeSearcher) Search(_ context.Context, index, _ string, top int) ([]string, error) {
	if f.tops == nil {
		f.tops = map[string]int{}
	}
	f.tops[index] = top

	if err := f.errs[index]; err != nil {
		return nil, err
	}

	return f.results[index], nil
}

type fakeJSONCompleter struct {
	response string
	err      error
}

func (f *fakeJSONCompleter) CompleteJSON(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

func newTestService(model jsonCompleter, index searcher) *Service {
	return &Service{
		llm:              model,
		index:            index,
		inventoriesIndex: "inventories",
		incidentsIndex:   "incidents",
	}
}

func TestFetchBothIndexes(t *testing.T) {
	index := &fakeSearcher{results: map[string][]string{
		"inventories": {"SRV042 owned by Payments"},
		"incidents":   {"INC-1", "INC-2", "INC-3"},
	}}
	model := &fakeJSONCompleter{response: `{"inventories": true, "incidents": true}`}

	evidence, err := newTestService(model, index).Fetch(context.Background(), "who owns SRV042?")
	require.NoError(t, err)

	require.Len(t, evidence, 4)
	assert.Equal(t, "Inventories", evidence[0].Title)
	assert.Equal(t, "SRV042 owned by Payments", evidence[0].Content)
	for _, e := range evidence[1:] {
		assert.Equal(t, "Incident", e.Title)
	}

	// one authoritative inventory record, several incidents
	assert.Equal(t, inventoriesTop, index.tops["inventories"])
	assert.Equal(t, incidentsTop, index.tops["incidents"])
}

func TestFetchRespectsIndexSelection(t *testing.T) {
	index := &fakeSearcher{results: map[string][]string{
		"inventories": {"record"},
		"incidents":   {"incident"},
	}}
	model := &fakeJSONCompleter{response: `{"inventories": false, "incidents": true}`}

	evidence, err := newTestService(model, index).Fetch(context.Background(), "past incidents?")
	require.NoError(t, err)

	require.Len(t, evidence, 1)
	assert.Equal(t, "Incident", evidence[0].Title)
}

func TestFetchSelectionFailureSearchesEverything(t *testing.T) {
	index := &fakeSearcher{results: map[string][]string{
		"inventories": {"record"},
		"incidents":   {"incident"},
	}}
	model := &fakeJSONCompleter{err: fmt.Errorf("rate limit exceeded")}

	evidence, err := newTestService(model, index).Fetch(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, evidence, 2)
}

func TestFetchMalformedSelectionSearchesEverything(t *testing.T) {
	index := &fakeSearcher{results: map[string][]string{
		"inventories": {"record"},
		"incidents":   {"incident"},
	}}
	model := &fakeJSONCompleter{response: "I think inventories is best"}

	evidence, err := newTestService(model, index).Fetch(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, evidence, 2)
}

func TestFetchFailingIndexDegrades(t *testing.T) {
	index := &fakeSearcher{
		results: map[string][]string{"incidents": {"incident"}},
		errs:    map[string]error{"inventories": fmt.Errorf("index offline")},
	}
	model := &fakeJSONCompleter{response: `{"inventories": true, "incidents": true}`}

	evidence, err := newTestService(model, index).Fetch(context.Background(), "anything")
	require.NoError(t, err)

	require.Len(t, evidence, 1)
	assert.Equal(t, "Incident", evidence[0].Title)
}
