package sheets

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/ainetwork-ai/google-sheet-mcp/internal/ratelimit"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/retry"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/store/local"
	"github.com/ainetwork-ai/google-sheet-mcp/internal/workbooks"
	"github.com/ainetwork-ai/google-sheet-mcp/pkg/sheeterr"
)

// stubStore scripts failures and records calls.
type stubStore struct {
	grid       [][]any
	readErr    error
	readFails  int // fail this many reads before succeeding
	writeErr   error
	failWrites map[string]error // per-address write failures
	writes     []store.CellWrite
	updates    []string
	reads      int
}

func (s *stubStore) ReadRange(ctx context.Context, id, rng string) (*store.ValueRange, error) {
	s.reads++
	if s.readFails > 0 {
		s.readFails--
		return nil, s.readErr
	}
	return &store.ValueRange{Range: rng, Values: s.grid}, nil
}

func (s *stubStore) UpdateRange(ctx context.Context, id, rng string, values [][]any) error {
	s.updates = append(s.updates, rng)
	return s.writeErr
}

func (s *stubStore) AppendRows(ctx context.Context, id, rng string, values [][]any) error {
	return s.writeErr
}

func (s *stubStore) ClearRange(ctx context.Context, id, rng string) error { return s.writeErr }

func (s *stubStore) WriteCell(ctx context.Context, id string, w store.CellWrite) error {
	if err, ok := s.failWrites[w.Address]; ok {
		return err
	}
	s.writes = append(s.writes, w)
	return nil
}

func (s *stubStore) ListSheets(ctx context.Context, id string) ([]store.SheetProps, error) {
	return []store.SheetProps{{Title: "Data"}}, nil
}

func (s *stubStore) AddSheet(ctx context.Context, id, title string) error    { return s.writeErr }
func (s *stubStore) DeleteSheet(ctx context.Context, id, title string) error { return s.writeErr }
func (s *stubStore) CreateSpreadsheet(ctx context.Context, title string) (string, error) {
	return "new-id", nil
}

func newTestService(st store.Store, limiter *ratelimit.Limiter) *Service {
	if limiter == nil {
		limiter = ratelimit.New(1000, time.Minute)
	}
	retrier := retry.New(retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond})
	return NewService(st, limiter, retrier, zerolog.Nop())
}

func TestReadRangeTranslatesAndReturnsGrid(t *testing.T) {
	st := &stubStore{grid: [][]any{{"a", "b"}, {"c", "d"}}}
	svc := newTestService(st, nil)

	res, err := svc.ReadRange(context.Background(), "sid", "Data", "A1:B2")
	require.NoError(t, err)
	require.Equal(t, "Data!A1:B2", res.Range)
	require.Equal(t, 2, res.Rows)
	require.Equal(t, 2, res.Cols)
	require.Equal(t, st.grid, res.Values)
}

func TestReadRangeRejectsMalformedAndReversed(t *testing.T) {
	svc := newTestService(&stubStore{}, nil)

	_, err := svc.ReadRange(context.Background(), "sid", "Data", "nope")
	require.Equal(t, sheeterr.InvalidRange, sheeterr.CodeOf(err))

	_, err = svc.ReadRange(context.Background(), "sid", "Data", "B2:A1")
	require.Equal(t, sheeterr.InvalidRange, sheeterr.CodeOf(err))
}

func TestEveryAttemptReenters_Admission(t *testing.T) {
	st := &stubStore{
		grid:      [][]any{{"x"}},
		readErr:   &googleapi.Error{Code: 503, Message: "backend error"},
		readFails: 2,
	}
	limiter := ratelimit.New(1000, time.Minute)
	svc := newTestService(st, limiter)

	_, err := svc.ReadRange(context.Background(), "sid", "Data", "A1:A1")
	require.NoError(t, err)
	// Two failed attempts plus the success: three admissions recorded.
	require.Equal(t, 3, st.reads)
	require.Equal(t, 3, limiter.Pending())
}

func TestRetryExhaustionSurfacesQuota(t *testing.T) {
	st := &stubStore{
		readErr:   &googleapi.Error{Code: 429, Message: "Too Many Requests"},
		readFails: 10,
	}
	svc := newTestService(st, nil)

	_, err := svc.ReadRange(context.Background(), "sid", "Data", "A1:A1")
	require.Error(t, err)
	require.Equal(t, sheeterr.QuotaExceeded, sheeterr.CodeOf(err))
	// MaxRetries=2 means exactly 3 attempts.
	require.Equal(t, 3, st.reads)
}

func TestNotFoundIsFatalAndNotRetried(t *testing.T) {
	st := &stubStore{
		readErr:   &googleapi.Error{Code: 404, Message: "Requested entity was not found"},
		readFails: 10,
	}
	svc := newTestService(st, nil)

	_, err := svc.ReadRange(context.Background(), "sid", "Data", "A1:A1")
	require.Error(t, err)
	require.Equal(t, sheeterr.NotFound, sheeterr.CodeOf(err))
	require.Equal(t, 1, st.reads)
}

func TestWriteRangeValidatesDimensions(t *testing.T) {
	st := &stubStore{}
	svc := newTestService(st, nil)

	err := svc.WriteRange(context.Background(), "sid", "Data", "A1:B2", [][]any{{"a"}, {"b"}, {"c"}})
	require.Equal(t, sheeterr.Validation, sheeterr.CodeOf(err))

	err = svc.WriteRange(context.Background(), "sid", "Data", "A1:B2", [][]any{{"a", "b", "c"}})
	require.Equal(t, sheeterr.Validation, sheeterr.CodeOf(err))

	err = svc.WriteRange(context.Background(), "sid", "Data", "A1:B2", [][]any{{"a", "b"}, {"c", "d"}})
	require.NoError(t, err)
	require.Equal(t, []string{"Data!A1:B2"}, st.updates)
}

func TestSearchOffsetsSubRangeAddresses(t *testing.T) {
	// Grid as read from C3:D4.
	st := &stubStore{grid: [][]any{
		{"x", "Seoul"},
		{"y", "z"},
	}}
	svc := newTestService(st, nil)

	res, err := svc.Search(context.Background(), SearchInput{
		SpreadsheetID: "sid", Sheet: "Data", Range: "C3:D4", Query: "Seoul",
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.Equal(t, 3, res.Matches[0].Row)
	require.Equal(t, 4, res.Matches[0].Col)
	require.Equal(t, "D3", res.Matches[0].Address)
}

func TestSearchColumnsRebaseOntoSubRange(t *testing.T) {
	// Grid as read from C3:D4; "Seoul" sits in sheet column D.
	st := &stubStore{grid: [][]any{
		{"x", "Seoul"},
		{"y", "z"},
	}}
	svc := newTestService(st, nil)

	res, err := svc.Search(context.Background(), SearchInput{
		SpreadsheetID: "sid", Sheet: "Data", Range: "C3:D4",
		Query: "Seoul", Columns: []string{"D"},
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.Equal(t, "D3", res.Matches[0].Address)

	// A filter on the other scanned column drops the match.
	res, err = svc.Search(context.Background(), SearchInput{
		SpreadsheetID: "sid", Sheet: "Data", Range: "C3:D4",
		Query: "Seoul", Columns: []string{"C"},
	})
	require.NoError(t, err)
	require.Empty(t, res.Matches)

	// Columns outside the scanned rectangle are rejected, not silently empty.
	_, err = svc.Search(context.Background(), SearchInput{
		SpreadsheetID: "sid", Sheet: "Data", Range: "C3:D4",
		Query: "Seoul", Columns: []string{"A"},
	})
	require.Equal(t, sheeterr.Validation, sheeterr.CodeOf(err))
}

func TestSearchWholeSheetOverLocalStore(t *testing.T) {
	mgr := workbooks.NewManager(time.Minute, time.Minute, nil, nil)
	t.Cleanup(func() { _ = mgr.Close(context.Background()) })
	lst := local.New(mgr)
	ctx := context.Background()

	id, err := lst.CreateSpreadsheet(ctx, "Data")
	require.NoError(t, err)
	require.NoError(t, lst.UpdateRange(ctx, id, "Data!A1:B2", [][]any{
		{"Name", "City"},
		{"John", "Seoul"},
	}))

	svc := newTestService(lst, nil)
	res, err := svc.Search(ctx, SearchInput{SpreadsheetID: id, Sheet: "Data", Query: "Seoul"})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.Equal(t, "B2", res.Matches[0].Address)

	// Whole-sheet replace goes through the same path.
	repl, err := svc.SmartReplace(ctx, ReplaceInput{
		SpreadsheetID: id, Sheet: "Data", FindText: "Seoul", ReplaceText: "Busan",
	})
	require.NoError(t, err)
	require.Equal(t, 1, repl.ModifiedCount)

	vr, err := lst.ReadRange(ctx, id, "Data!B2")
	require.NoError(t, err)
	require.Equal(t, [][]any{{"Busan"}}, vr.Values)
}

func TestSmartReplaceCommitsInDiscoveryOrder(t *testing.T) {
	st := &stubStore{grid: [][]any{
		{"Seoul", "x"},
		{"Contact: Seoul Office", "Seoul"},
	}}
	svc := newTestService(st, nil)

	res, err := svc.SmartReplace(context.Background(), ReplaceInput{
		SpreadsheetID: "sid", Sheet: "Data", FindText: "Seoul", ReplaceText: "Busan",
	})
	require.NoError(t, err)
	require.Equal(t, 3, res.ModifiedCount)

	addrs := make([]string, 0, len(st.writes))
	for _, w := range st.writes {
		addrs = append(addrs, w.Address)
	}
	require.Equal(t, []string{"A1", "A2", "B2"}, addrs)
	require.Equal(t, "Contact: Busan Office", st.writes[1].Value)
}

func TestSmartReplacePartialFailureIsLowerBound(t *testing.T) {
	st := &stubStore{
		grid: [][]any{{"Seoul"}, {"Seoul"}, {"Seoul"}},
		failWrites: map[string]error{
			"A2": &googleapi.Error{Code: 400, Message: "bad write"},
		},
	}
	svc := newTestService(st, nil)

	res, err := svc.SmartReplace(context.Background(), ReplaceInput{
		SpreadsheetID: "sid", Sheet: "Data", FindText: "Seoul", ReplaceText: "Busan",
	})
	require.Error(t, err)
	require.Equal(t, sheeterr.ReplaceFailed, sheeterr.CodeOf(err))
	// A1 committed before the failure; count is a lower bound of work done.
	require.Equal(t, 1, res.ModifiedCount)
	require.Len(t, st.writes, 1)
	require.Equal(t, "A1", st.writes[0].Address)
}

func TestSmartReplaceEntireCell(t *testing.T) {
	st := &stubStore{grid: [][]any{{"Contact: Seoul Office"}, {"Seoul"}}}
	svc := newTestService(st, nil)

	res, err := svc.SmartReplace(context.Background(), ReplaceInput{
		SpreadsheetID: "sid", Sheet: "Data",
		FindText: "Seoul", ReplaceText: "Seoul City", MatchEntireCell: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1, res.ModifiedCount)
	require.Equal(t, "A2", res.Replacements[0].Address)
	require.Equal(t, "Seoul City", res.Replacements[0].NewValue)
}

func TestSmartReplaceRequiresFindText(t *testing.T) {
	svc := newTestService(&stubStore{}, nil)
	_, err := svc.SmartReplace(context.Background(), ReplaceInput{SpreadsheetID: "sid", Sheet: "Data"})
	require.Equal(t, sheeterr.Validation, sheeterr.CodeOf(err))
}
