package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/cucumber/godog"

	"github.com/custodia-labs/docsum/internal/core/domain"
	"github.com/custodia-labs/docsum/internal/core/ports/driven/mocks"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

// world is the state shared by the steps of one scenario
type world struct {
	auth      *mocks.MockAuthAPI
	tokens    *mocks.MockTokenStore
	docs      *mocks.MockDocumentAPI
	summaries *mocks.MockSummaryAPI

	session *sessionService
	catalog *catalogService
	search  *searchController
	upload  *uploadService
	summary *summaryWorkflow

	candidate domain.UploadCandidate
	outcomes  []string
	lastErr   error

	release chan struct{}
	done    chan error
	state   domain.SummaryState
}

func newWorld() *world {
	w := &world{
		auth:   mocks.NewMockAuthAPI(),
		tokens: mocks.NewMockTokenStore(""),
		docs:   mocks.NewMockDocumentAPI(),
	}
	w.docs.SetClock(fixedClock)
	w.summaries = mocks.NewMockSummaryAPI(w.docs)
	w.auth.AddAccount("ayse@example.com", "secret", "tok", &domain.User{Username: "ayse"})

	w.session = NewSessionService(SessionConfig{Auth: w.auth, Tokens: w.tokens}).(*sessionService)
	w.catalog = NewCatalogService(CatalogConfig{
		Documents:   w.docs,
		Credentials: w.session,
		TTL:         time.Minute,
		Now:         fixedClock,
	}).(*catalogService)
	w.search = NewSearchController(SearchConfig{
		Documents:   w.docs,
		Catalog:     w.catalog,
		Credentials: w.session,
	}).(*searchController)
	w.upload = NewUploadService(UploadConfig{
		Documents:   w.docs,
		Catalog:     w.catalog,
		Credentials: w.session,
	}).(*uploadService)
	w.summary = NewSummaryWorkflow(SummaryConfig{
		Summaries:   w.summaries,
		Catalog:     w.catalog,
		Credentials: w.session,
	}).(*summaryWorkflow)
	return w
}

func initializeScenario(sc *godog.ScenarioContext) {
	w := newWorld()

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		w.search.Close()
		return ctx, nil
	})

	// Session
	sc.Step(`^a persisted token "([^"]*)"$`, w.aPersistedToken)
	sc.Step(`^the identity endpoint rejects "([^"]*)"$`, w.theIdentityEndpointRejects)
	sc.Step(`^the identity endpoint is unreachable$`, w.theIdentityEndpointIsUnreachable)
	sc.Step(`^the identity endpoint accepts "([^"]*)" for "([^"]*)"$`, w.theIdentityEndpointAccepts)
	sc.Step(`^the client starts$`, w.theClientStarts)
	sc.Step(`^the session has no token and no user$`, w.theSessionIsEmpty)
	sc.Step(`^no token is persisted$`, w.noTokenIsPersisted)
	sc.Step(`^the session belongs to "([^"]*)"$`, w.theSessionBelongsTo)
	sc.Step(`^I am logged in$`, w.iAmLoggedIn)

	// Catalog
	sc.Step(`^the service holds these documents:$`, w.theServiceHoldsTheseDocuments)
	sc.Step(`^the catalog is refreshed$`, w.theCatalogIsRefreshed)
	sc.Step(`^the catalog holds (\d+) documents$`, w.theCatalogHolds)
	sc.Step(`^the total size is (\d+) bytes$`, w.theTotalSizeIs)
	sc.Step(`^(\d+) documents are recent$`, w.documentsAreRecent)
	sc.Step(`^a refresh for "([^"]*)" is held open$`, w.aRefreshIsHeldOpen)
	sc.Step(`^a refresh for "([^"]*)" completes$`, w.aRefreshCompletes)
	sc.Step(`^the held refresh completes$`, w.theHeldRefreshCompletes)
	sc.Step(`^the catalog filter is "([^"]*)"$`, w.theCatalogFilterIs)

	// Search
	sc.Step(`^I search for "([^"]*)" with filter "([^"]*)"$`, w.iSearchFor)
	sc.Step(`^the list endpoint was called (\d+) times$`, w.theListEndpointWasCalled)
	sc.Step(`^the search endpoint was called (\d+) times$`, w.theSearchEndpointWasCalled)
	sc.Step(`^the view mode is "([^"]*)"$`, w.theViewModeIs)

	// Upload
	sc.Step(`^a file "([^"]*)" of (\d+) bytes titled "([^"]*)"$`, w.aFileTitled)
	sc.Step(`^the candidate is validated twice$`, w.theCandidateIsValidatedTwice)
	sc.Step(`^the outcome is "([^"]*)" both times$`, w.theOutcomeIs)
	sc.Step(`^the candidate is submitted$`, w.theCandidateIsSubmitted)
	sc.Step(`^the document "([^"]*)" has no summary$`, w.theDocumentHasNoSummary)

	// Summary
	sc.Step(`^the summary for document (\d+) is "([^"]*)" with keywords "([^"]*)"$`, w.theSummaryForDocumentIs)
	sc.Step(`^document (\d+) is selected$`, w.documentIsSelected)
	sc.Step(`^generation starts and is held open$`, w.generationIsHeldOpen)
	sc.Step(`^the held generation completes$`, w.theHeldGenerationCompletes)
	sc.Step(`^the summary state is "([^"]*)" for document (\d+)$`, w.theSummaryStateIs)
	sc.Step(`^document (\d+) is selected now$`, w.documentIsSelectedNow)
	sc.Step(`^generation is requested$`, w.generationIsRequested)
	sc.Step(`^the request fails with cause "([^"]*)"$`, w.theRequestFailsWithCause)
}

func (w *world) aPersistedToken(token string) error {
	return w.tokens.Save(context.Background(), token)
}

func (w *world) theIdentityEndpointRejects(token string) error {
	w.auth.RevokeToken(token)
	return nil
}

func (w *world) theIdentityEndpointIsUnreachable() error {
	w.auth.MeErr = errors.New("dial tcp 127.0.0.1:8000: connection refused")
	return nil
}

func (w *world) theIdentityEndpointAccepts(token, username string) error {
	w.auth.AcceptToken(token, &domain.User{ID: 9, Username: username})
	return nil
}

func (w *world) theClientStarts() error {
	w.session.Initialize(context.Background())
	if !w.session.Ready() {
		return errors.New("session not ready after start")
	}
	return nil
}

func (w *world) theSessionIsEmpty() error {
	current := w.session.Current()
	if current.Token != "" || current.User != nil {
		return fmt.Errorf("expected empty session, got token=%q user=%v", current.Token, current.User)
	}
	return nil
}

func (w *world) noTokenIsPersisted() error {
	if stored := w.tokens.Stored(); stored != "" {
		return fmt.Errorf("expected no persisted token, got %q", stored)
	}
	return nil
}

func (w *world) theSessionBelongsTo(username string) error {
	current := w.session.Current()
	if !current.Authenticated() || current.User.Username != username {
		return fmt.Errorf("expected session for %q, got %+v", username, current.User)
	}
	return nil
}

func (w *world) iAmLoggedIn() error {
	_, err := w.session.Login(context.Background(), "ayse@example.com", "secret")
	return err
}

func (w *world) theServiceHoldsTheseDocuments(table *godog.Table) error {
	var docs []*domain.Document
	for i, row := range table.Rows[1:] {
		ft, err := domain.ParseFileType(row.Cells[1].Value)
		if err != nil {
			return err
		}
		size, err := strconv.ParseInt(row.Cells[2].Value, 10, 64)
		if err != nil {
			return err
		}
		hours, err := strconv.Atoi(row.Cells[3].Value)
		if err != nil {
			return err
		}
		docs = append(docs, &domain.Document{
			ID:        int64(i + 1),
			Title:     row.Cells[0].Value,
			Filename:  fmt.Sprintf("doc%d.%s", i+1, ft),
			FileType:  ft,
			FileSize:  size,
			CreatedAt: testNow.Add(-time.Duration(hours) * time.Hour),
		})
	}
	w.docs.SetDocuments(docs...)
	return nil
}

func (w *world) theCatalogIsRefreshed() error {
	_, err := w.catalog.Refresh(context.Background(), domain.FileTypeAll)
	return err
}

func (w *world) theCatalogHolds(n int) error {
	if got := w.catalog.Snapshot().Stats.TotalCount; got != n {
		return fmt.Errorf("expected %d documents, got %d", n, got)
	}
	if got := len(w.catalog.Snapshot().Documents); got != n {
		return fmt.Errorf("expected %d listed documents, got %d", n, got)
	}
	return nil
}

func (w *world) theTotalSizeIs(n int64) error {
	if got := w.catalog.Snapshot().Stats.TotalSize; got != n {
		return fmt.Errorf("expected total size %d, got %d", n, got)
	}
	return nil
}

func (w *world) documentsAreRecent(n int) error {
	if got := w.catalog.Snapshot().Stats.RecentCount; got != n {
		return fmt.Errorf("expected %d recent documents, got %d", n, got)
	}
	return nil
}

func (w *world) aRefreshIsHeldOpen(filter string) error {
	ft, err := domain.ParseFileType(filter)
	if err != nil {
		return err
	}
	entered := make(chan struct{})
	w.release = make(chan struct{})
	w.done = make(chan error, 1)
	release := w.release
	w.docs.ListHook = func(call int, _ domain.FileType) {
		if call == 1 {
			close(entered)
			<-release
		}
	}
	go func() {
		_, err := w.catalog.Refresh(context.Background(), ft)
		w.done <- err
	}()
	<-entered
	return nil
}

func (w *world) aRefreshCompletes(filter string) error {
	ft, err := domain.ParseFileType(filter)
	if err != nil {
		return err
	}
	_, err = w.catalog.Refresh(context.Background(), ft)
	return err
}

func (w *world) theHeldRefreshCompletes() error {
	close(w.release)
	if err := <-w.done; !errors.Is(err, domain.ErrSuperseded) {
		return fmt.Errorf("expected the held refresh to be superseded, got %v", err)
	}
	return nil
}

func (w *world) theCatalogFilterIs(filter string) error {
	ft, err := domain.ParseFileType(filter)
	if err != nil {
		return err
	}
	if got := w.catalog.Snapshot().Filter; got != ft {
		return fmt.Errorf("expected filter %q, got %q", ft, got)
	}
	return nil
}

func (w *world) iSearchFor(query, filter string) error {
	ft, err := domain.ParseFileType(filter)
	if err != nil {
		return err
	}
	view := w.search.Update(context.Background(), query, ft)
	if view.Err != nil {
		return view.Err
	}
	return nil
}

func (w *world) theListEndpointWasCalled(n int) error {
	if got := len(w.docs.ListCalls()); got != n {
		return fmt.Errorf("expected %d list calls, got %d", n, got)
	}
	return nil
}

func (w *world) theSearchEndpointWasCalled(n int) error {
	if got := len(w.docs.SearchCalls()); got != n {
		return fmt.Errorf("expected %d search calls, got %d", n, got)
	}
	return nil
}

func (w *world) theViewModeIs(mode string) error {
	if got := w.search.View().Mode; string(got) != mode {
		return fmt.Errorf("expected mode %q, got %q", mode, got)
	}
	return nil
}

func (w *world) aFileTitled(name string, size int64, title string) error {
	w.candidate = domain.UploadCandidate{Title: title, File: domain.SizedSource{FileName: name, Bytes: size}}
	return nil
}

func (w *world) theCandidateIsValidatedTwice() error {
	w.outcomes = nil
	for range 2 {
		_, err := w.upload.Validate(w.candidate)
		switch ce, ok := domain.AsClientError(err); {
		case err == nil:
			w.outcomes = append(w.outcomes, "accepted")
		case ok:
			w.outcomes = append(w.outcomes, ce.Code)
		default:
			return err
		}
	}
	return nil
}

func (w *world) theOutcomeIs(outcome string) error {
	for i, got := range w.outcomes {
		if got != outcome {
			return fmt.Errorf("validation %d: expected %q, got %q", i+1, outcome, got)
		}
	}
	return nil
}

func (w *world) theCandidateIsSubmitted() error {
	w.upload.Stage(w.candidate)
	_, err := w.upload.Submit(context.Background())
	return err
}

func (w *world) theDocumentHasNoSummary(title string) error {
	for _, d := range w.catalog.Snapshot().Documents {
		if d.Title == title {
			if d.HasSummary() {
				return fmt.Errorf("document %q unexpectedly has a summary", title)
			}
			return nil
		}
	}
	return fmt.Errorf("document %q not in catalog", title)
}

func (w *world) theSummaryForDocumentIs(id int64, summary, keywords string) error {
	w.summaries.SetResult(id, summary, keywords)
	return nil
}

func (w *world) documentIsSelected(id int64) error {
	w.summary.SelectDocument(id)
	return nil
}

func (w *world) generationIsHeldOpen() error {
	entered := make(chan struct{})
	w.release = make(chan struct{})
	w.done = make(chan error, 1)
	release := w.release
	w.summaries.GenerateHook = func(int64) {
		close(entered)
		<-release
	}
	go func() {
		st, err := w.summary.Generate(context.Background())
		w.state = st
		w.done <- err
	}()
	<-entered
	if st := w.summary.State(); st.Status != domain.SummaryPending {
		return fmt.Errorf("expected pending, got %s", st.Status)
	}
	return nil
}

func (w *world) theHeldGenerationCompletes() error {
	close(w.release)
	return <-w.done
}

func (w *world) theSummaryStateIs(status string, id int64) error {
	st := w.summary.State()
	if string(st.Status) != status || st.DocumentID != id {
		return fmt.Errorf("expected %s for %d, got %s for %d", status, id, st.Status, st.DocumentID)
	}
	if w.state.DocumentID != id {
		return fmt.Errorf("caller observed document %d", w.state.DocumentID)
	}
	return nil
}

func (w *world) documentIsSelectedNow(id int64) error {
	if got := w.summary.Selected(); got != id {
		return fmt.Errorf("expected selection %d, got %d", id, got)
	}
	return nil
}

func (w *world) generationIsRequested() error {
	_, w.lastErr = w.summary.Generate(context.Background())
	return nil
}

func (w *world) theRequestFailsWithCause(cause string) error {
	ce, ok := domain.AsClientError(w.lastErr)
	if !ok {
		return fmt.Errorf("expected a client error, got %v", w.lastErr)
	}
	if string(ce.Cause) != cause {
		return fmt.Errorf("expected cause %q, got %q", cause, ce.Cause)
	}
	return nil
}
