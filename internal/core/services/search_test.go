package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven/mocks"
)

func newTestSearchController(debounce time.Duration, onView func(domain.DocumentSetView)) (*mocks.MockDocumentAPI, *searchController) {
	api, catalog := newTestCatalogService("tok", sampleDocuments()...)
	c := NewSearchController(SearchConfig{
		Documents:   api,
		Catalog:     catalog,
		Credentials: staticCredentials("tok"),
		Debounce:    debounce,
		OnView:      onView,
	}).(*searchController)
	return api, c
}

func TestSearchController_BranchSelection(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		filter     domain.FileType
		wantMode   domain.RetrievalMode
		wantList   int
		wantSearch int
	}{
		{"empty query lists", "", domain.FileTypeAll, domain.RetrievalList, 1, 0},
		{"whitespace lists", "   ", domain.FileTypePDF, domain.RetrievalList, 1, 0},
		{"text searches", "report", domain.FileTypeAll, domain.RetrievalSearch, 0, 1},
		{"text with filter searches", "contract", domain.FileTypeDOCX, domain.RetrievalSearch, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, c := newTestSearchController(0, nil)
			defer c.Close()

			view := c.Update(context.Background(), tt.query, tt.filter)

			assert.Equal(t, tt.wantMode, view.Mode)
			assert.Len(t, api.ListCalls(), tt.wantList)
			assert.Len(t, api.SearchCalls(), tt.wantSearch)
			assert.Nil(t, view.Err)
		})
	}
}

func TestSearchController_SearchPassesQueryAndFilter(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	view := c.Update(context.Background(), "  contract ", domain.FileTypeDOCX)

	require.Len(t, api.SearchCalls(), 1)
	call := api.SearchCalls()[0]
	assert.Equal(t, "contract", call.Text)
	assert.Equal(t, domain.FileTypeDOCX, call.FileType)
	assert.Equal(t, domain.DefaultSearchLimit, call.Limit)
	require.Len(t, view.Documents, 1)
	assert.Equal(t, int64(3), view.Documents[0].ID)
}

func TestSearchController_ListingGoesThroughCatalog(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	view := c.Update(context.Background(), "", domain.FileTypeTXT)

	assert.Equal(t, []domain.FileType{domain.FileTypeTXT}, api.ListCalls())
	require.Len(t, view.Documents, 1)
	assert.Equal(t, "Meeting notes", view.Documents[0].Title)
	assert.Len(t, c.catalog.Snapshot().Documents, 1)
}

func TestSearchController_SetQueryAndSetFilter(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	c.SetFilter(context.Background(), domain.FileTypePDF)
	view := c.SetQuery(context.Background(), "q1")

	assert.Equal(t, domain.RetrievalSearch, view.Mode)
	assert.Equal(t, domain.FileTypePDF, api.SearchCalls()[0].FileType)

	view = c.SetFilter(context.Background(), domain.FileTypeTXT)
	assert.Equal(t, "q1", view.Query.Text)
	assert.Equal(t, domain.FileTypeTXT, c.Query().FileType)
}

func TestSearchController_FailureClearsResults(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	view := c.Update(context.Background(), "report", domain.FileTypeAll)
	require.NotEmpty(t, view.Documents)

	api.SearchErr = &domain.APIError{StatusCode: 500, Detail: "search backend down"}
	view = c.Update(context.Background(), "report", domain.FileTypeAll)

	assert.Empty(t, view.Documents)
	require.NotNil(t, view.Err)
	assert.Equal(t, domain.KindRetrieval, view.Err.Kind)
	assert.Equal(t, "search backend down", view.Err.Message)
	assert.Equal(t, view, c.View())

	api.ListErr = &domain.APIError{StatusCode: 502}
	view = c.Update(context.Background(), "", domain.FileTypeAll)
	assert.Empty(t, view.Documents)
	require.NotNil(t, view.Err)
	assert.Equal(t, "could not load documents", view.Err.Message)
}

func TestSearchController_OlderResultNeverOverwrites(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	firstEntered := make(chan struct{})
	releaseFirst := make(chan struct{})
	api.SearchHook = func(call int, q domain.DocumentQuery) {
		if call == 1 {
			close(firstEntered)
			<-releaseFirst
		}
	}

	var (
		wg    sync.WaitGroup
		first domain.DocumentSetView
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		first = c.Update(context.Background(), "notes", domain.FileTypeAll)
	}()
	<-firstEntered

	second := c.Update(context.Background(), "contract", domain.FileTypeAll)
	close(releaseFirst)
	wg.Wait()

	assert.Equal(t, "contract", c.View().Query.Text)
	assert.Equal(t, second.Seq, c.View().Seq)
	assert.Equal(t, second, first, "the late caller observes the newer view")
	require.Len(t, c.View().Documents, 1)
	assert.Equal(t, int64(3), c.View().Documents[0].ID)
}

func TestSearchController_SearchThenListSupersedes(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	api.SearchHook = func(call int, q domain.DocumentQuery) {
		close(entered)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Update(context.Background(), "report", domain.FileTypeAll)
	}()
	<-entered

	listed := c.Update(context.Background(), "", domain.FileTypeAll)
	close(release)
	wg.Wait()

	assert.Equal(t, domain.RetrievalList, c.View().Mode)
	assert.Equal(t, listed.Seq, c.View().Seq)
	assert.Len(t, c.View().Documents, 3)
}

func TestSearchController_ScheduleDebounces(t *testing.T) {
	views := make(chan domain.DocumentSetView, 10)
	api, c := newTestSearchController(30*time.Millisecond, func(v domain.DocumentSetView) {
		views <- v
	})
	defer c.Close()

	c.Schedule("c", domain.FileTypeAll)
	c.Schedule("co", domain.FileTypeAll)
	c.Schedule("contract", domain.FileTypeAll)

	select {
	case v := <-views:
		assert.Equal(t, "contract", v.Query.Text)
		assert.Equal(t, domain.RetrievalSearch, v.Mode)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled retrieval never ran")
	}

	// Nothing else fires
	select {
	case v := <-views:
		t.Fatalf("unexpected extra view for %q", v.Query.Text)
	case <-time.After(100 * time.Millisecond):
	}
	require.Len(t, api.SearchCalls(), 1)
	assert.Equal(t, "contract", api.SearchCalls()[0].Text)
}

func TestSearchController_ApplyCancelsScheduled(t *testing.T) {
	api, c := newTestSearchController(50*time.Millisecond, nil)
	defer c.Close()

	c.Schedule("notes", domain.FileTypeAll)
	view := c.Update(context.Background(), "contract", domain.FileTypeAll)
	assert.Equal(t, "contract", view.Query.Text)

	time.Sleep(120 * time.Millisecond)
	assert.Len(t, api.SearchCalls(), 1)
	assert.Equal(t, "contract", c.View().Query.Text)
}

func TestSearchController_CloseStopsScheduled(t *testing.T) {
	api, c := newTestSearchController(20*time.Millisecond, nil)

	c.Schedule("notes", domain.FileTypeAll)
	c.Close()
	c.Schedule("more", domain.FileTypeAll)

	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, api.SearchCalls())
}

func TestSearchController_SharedCatalogFollowsLatestFilter(t *testing.T) {
	api, catalog := newTestCatalogService("tok", sampleDocuments()...)
	c := NewSearchController(SearchConfig{
		Documents:   api,
		Catalog:     catalog,
		Credentials: staticCredentials("tok"),
	}).(*searchController)
	defer c.Close()
	summaries := mocks.NewMockSummaryAPI(api)
	summaries.SetResult(1, "Revenue grew.", "revenue")
	w := NewSummaryWorkflow(SummaryConfig{
		Summaries:   summaries,
		Catalog:     catalog,
		Credentials: staticCredentials("tok"),
	})

	c.Update(context.Background(), "", domain.FileTypeAll)

	entered := make(chan struct{})
	release := make(chan struct{})
	api.ListHook = func(call int, filter domain.FileType) {
		if call == 2 {
			close(entered)
			<-release
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Update(context.Background(), "", domain.FileTypePDF)
	}()
	<-entered

	w.SelectDocument(1)
	_, err := w.Generate(context.Background())
	require.NoError(t, err)
	close(release)
	wg.Wait()

	assert.Equal(t, []domain.FileType{domain.FileTypeAll, domain.FileTypePDF, domain.FileTypePDF}, api.ListCalls())
	assert.Equal(t, domain.FileTypePDF, catalog.Snapshot().Filter)

	view := c.View()
	assert.Equal(t, domain.FileTypePDF, view.Query.FileType)
	assert.Nil(t, view.Err)
	require.Len(t, view.Documents, 1)
	assert.Equal(t, int64(1), view.Documents[0].ID)
	assert.True(t, view.Documents[0].HasSummary())
}

func TestSearchController_ReissuesListingOvertakenByOtherFilter(t *testing.T) {
	api, c := newTestSearchController(0, nil)
	defer c.Close()

	entered := make(chan struct{})
	release := make(chan struct{})
	api.ListHook = func(call int, filter domain.FileType) {
		if call == 1 {
			close(entered)
			<-release
		}
	}

	var (
		wg   sync.WaitGroup
		view domain.DocumentSetView
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		view = c.Update(context.Background(), "", domain.FileTypePDF)
	}()
	<-entered

	_, err := c.catalog.Refresh(context.Background(), domain.FileTypeTXT)
	require.NoError(t, err)
	close(release)
	wg.Wait()

	assert.Equal(t, []domain.FileType{domain.FileTypePDF, domain.FileTypeTXT, domain.FileTypePDF}, api.ListCalls())
	assert.Equal(t, view, c.View())
	assert.Equal(t, domain.FileTypePDF, view.Query.FileType)
	require.Len(t, view.Documents, 1)
	assert.Equal(t, domain.FileTypePDF, view.Documents[0].FileType)
	assert.Equal(t, domain.FileTypePDF, c.catalog.Snapshot().Filter)
}
