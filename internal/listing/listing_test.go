package listing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"marketadmin/internal/domain"
)

type buyer struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Email  string    `json:"email"`
	Active bool      `json:"active"`
	Spent  float64   `json:"spent"`
	Joined time.Time `json:"joined"`
}

func buyerSchema() Schema[buyer] {
	return Schema[buyer]{
		Resource: "buyers",
		ID:       func(b buyer) string { return b.ID },
		SetID:    func(b *buyer, id string) { b.ID = id },
		Search: []func(buyer) string{
			func(b buyer) string { return b.Name },
			func(b buyer) string { return b.Email },
		},
		Filters: map[string]func(buyer) string{
			"status": func(b buyer) string {
				if b.Active {
					return "Active"
				}
				return "Inactive"
			},
		},
		Numbers: map[string]func(buyer) float64{
			"spent": func(b buyer) float64 { return b.Spent },
		},
		Dates: map[string]func(buyer) time.Time{
			"joined": func(b buyer) time.Time { return b.Joined },
		},
		Sorts: map[string]func(a, b buyer) int{
			"spent":  func(a, b buyer) int { return cmp.Compare(a.Spent, b.Spent) },
			"joined": func(a, b buyer) int { return a.Joined.Compare(b.Joined) },
		},
		Validate: func(b buyer) error {
			if strings.TrimSpace(b.Name) == "" {
				return domain.ValidationError{Field: "name", Msg: "required"}
			}
			return nil
		},
	}
}

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func sampleBuyers() []buyer {
	return []buyer{
		{ID: "1", Name: "Alice Moore", Email: "alice@shop.test", Active: true, Spent: 120, Joined: day(3)},
		{ID: "2", Name: "Bob Stone", Email: "bob@shop.test", Active: false, Spent: 40, Joined: day(1)},
		{ID: "3", Name: "Carla Diaz", Email: "carla@mail.test", Active: true, Spent: 120, Joined: day(9)},
		{ID: "4", Name: "Dan Wu", Email: "dan@mail.test", Active: true, Spent: 300, Joined: day(5)},
	}
}

type fakeSource struct {
	mu    sync.Mutex
	items []buyer
	err   error
	calls int
	gate  chan struct{}
}

func (f *fakeSource) List(ctx context.Context, _ Scope) ([]buyer, error) {
	f.mu.Lock()
	f.calls++
	items, err, gate := append([]buyer(nil), f.items...), f.err, f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return items, err
}

type fakeWriter struct {
	createErr error
	updateErr error
	deleteErr error
	nextID    int
	sent      []buyer
	patches   []Patch
}

func (w *fakeWriter) Create(_ context.Context, _ Scope, b buyer) (buyer, error) {
	w.sent = append(w.sent, b)
	if w.createErr != nil {
		return buyer{}, w.createErr
	}
	w.nextID++
	b.ID = fmt.Sprintf("srv-%d", w.nextID)
	return b, nil
}

func (w *fakeWriter) Update(_ context.Context, _ Scope, _ string, p Patch) (buyer, error) {
	w.patches = append(w.patches, p)
	return buyer{}, w.updateErr
}

func (w *fakeWriter) Delete(_ context.Context, _ Scope, _ string) error {
	return w.deleteErr
}

func loaded(t *testing.T, w Writer[buyer]) *Collection[buyer] {
	t.Helper()
	col := New[buyer](buyerSchema(), &fakeSource{items: sampleBuyers()}, w, Scope{"role": "admin"}, Options{})
	if err := col.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return col
}

func sameBuyer(a, b buyer) bool {
	return a.ID == b.ID && a.Name == b.Name && a.Email == b.Email &&
		a.Active == b.Active && a.Spent == b.Spent && a.Joined.Equal(b.Joined)
}

func ids(items []buyer) string {
	out := make([]string, len(items))
	for i, b := range items {
		out[i] = b.ID
	}
	return strings.Join(out, ",")
}

func TestComputeInactiveFilter(t *testing.T) {
	rows := Compute(sampleBuyers(), buyerSchema(), Criteria{Filters: map[string]string{"status": "Inactive"}})
	if len(rows) != 1 || rows[0].ID != "2" {
		t.Fatalf("expected only buyer 2, got %s", ids(rows))
	}
}

func TestComputeAllFilterIsInactive(t *testing.T) {
	rows := Compute(sampleBuyers(), buyerSchema(), Criteria{Filters: map[string]string{"status": "All"}})
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
}

func TestComputeSearchIsCaseInsensitive(t *testing.T) {
	rows := Compute(sampleBuyers(), buyerSchema(), Criteria{Search: "  MAIL.test"})
	if got := ids(rows); got != "3,4" {
		t.Fatalf("unexpected rows %s", got)
	}
}

func TestComputeConjunction(t *testing.T) {
	items := append(sampleBuyers(),
		buyer{ID: "5", Name: "Eve Marsh", Email: "eve@mail.test", Active: false, Spent: 150, Joined: day(6)},
		buyer{ID: "6", Name: "Finn Olsen", Email: "finn@shop.test", Active: true, Spent: 100, Joined: day(2)},
	)
	floor, ceiling := 100.0, 150.0

	for _, search := range []string{"", "a", "MAIL", "zzz"} {
		for _, status := range []string{"", "all", "active", "Inactive"} {
			for _, lo := range []*float64{nil, &floor} {
				for _, hi := range []*float64{nil, &ceiling} {
					for _, dated := range []bool{false, true} {
						c := Criteria{
							Search:  search,
							Filters: map[string]string{"status": status},
							Numbers: map[string]NumberRange{"spent": {Min: lo, Max: hi}},
						}
						if dated {
							c.Dates = map[string]DateRange{"joined": {From: day(2), To: day(6)}}
						}

						keep := func(b buyer) bool {
							needle := strings.ToLower(search)
							if needle != "" && !strings.Contains(strings.ToLower(b.Name), needle) &&
								!strings.Contains(strings.ToLower(b.Email), needle) {
								return false
							}
							label := "inactive"
							if b.Active {
								label = "active"
							}
							if status != "" && status != "all" && strings.ToLower(status) != label {
								return false
							}
							if lo != nil && b.Spent < *lo {
								return false
							}
							if hi != nil && b.Spent > *hi {
								return false
							}
							if dated && (b.Joined.Before(day(2)) || b.Joined.After(day(6))) {
								return false
							}
							return true
						}
						var want []buyer
						for _, b := range items {
							if keep(b) {
								want = append(want, b)
							}
						}

						if got := ids(Compute(items, buyerSchema(), c)); got != ids(want) {
							t.Fatalf("search=%q status=%q min=%v max=%v dated=%v: got %q, want %q",
								search, status, lo != nil, hi != nil, dated, got, ids(want))
						}
					}
				}
			}
		}
	}
}

func TestComputeIsIdempotentAndPure(t *testing.T) {
	items := sampleBuyers()
	c := Criteria{Sort: "spent", Desc: true}
	first := Compute(items, buyerSchema(), c)
	second := Compute(items, buyerSchema(), c)
	if ids(first) != ids(second) {
		t.Fatalf("results differ: %s vs %s", ids(first), ids(second))
	}
	if ids(items) != "1,2,3,4" {
		t.Fatalf("input was reordered: %s", ids(items))
	}
}

func TestComputeSortStable(t *testing.T) {
	asc := Compute(sampleBuyers(), buyerSchema(), Criteria{Sort: "spent"})
	if got := ids(asc); got != "2,1,3,4" {
		t.Fatalf("ascending: %s", got)
	}
	desc := Compute(sampleBuyers(), buyerSchema(), Criteria{Sort: "spent", Desc: true})
	if got := ids(desc); got != "4,1,3,2" {
		t.Fatalf("descending: %s", got)
	}
}

func TestCheckRejectsUnknownKeys(t *testing.T) {
	s := buyerSchema()
	if err := s.Check(Criteria{Filters: map[string]string{"colour": "red"}}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if err := s.Check(Criteria{Sort: "nope"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	lo, hi := 10.0, 5.0
	if err := s.Check(Criteria{Numbers: map[string]NumberRange{"spent": {Min: &lo, Max: &hi}}}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoadStateMachine(t *testing.T) {
	src := &fakeSource{items: sampleBuyers()}
	col := New[buyer](buyerSchema(), src, nil, nil, Options{})
	if col.Status() != StatusIdle {
		t.Fatalf("expected idle, got %s", col.Status())
	}
	if err := col.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if col.Status() != StatusLoaded || col.Len() != 4 {
		t.Fatalf("expected loaded with 4 items, got %s/%d", col.Status(), col.Len())
	}

	src.err = domain.TransportError{Op: "load", Resource: "buyers"}
	if err := col.Load(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	snap := col.Snapshot()
	if snap.Status != StatusErrored || snap.Error != "failed to load buyers" {
		t.Fatalf("unexpected snapshot %s %q", snap.Status, snap.Error)
	}
	if len(snap.Entries) != 4 {
		t.Fatalf("stale items should stay available, got %d", len(snap.Entries))
	}

	src.err = nil
	if err := col.Load(context.Background()); err != nil || col.Status() != StatusLoaded {
		t.Fatalf("expected recovery, got %v %s", err, col.Status())
	}
	if col.Snapshot().Error != "" {
		t.Fatalf("error should be cleared")
	}
}

func TestLoadFailureWithoutHistoryIsEmpty(t *testing.T) {
	col := New[buyer](buyerSchema(), &fakeSource{err: errors.New("boom")}, nil, nil, Options{})
	_ = col.Load(context.Background())
	if col.Len() != 0 || col.Status() != StatusErrored {
		t.Fatalf("expected empty errored collection")
	}
}

func TestLoadDropsDuplicateIDs(t *testing.T) {
	items := append(sampleBuyers(), buyer{ID: "1", Name: "Dupe"})
	col := New[buyer](buyerSchema(), &fakeSource{items: items}, nil, nil, Options{})
	_ = col.Load(context.Background())
	if col.Len() != 4 {
		t.Fatalf("expected 4 unique items, got %d", col.Len())
	}
	if e, _ := col.Get("1"); e.Item.Name != "Alice Moore" {
		t.Fatalf("first occurrence should win, got %q", e.Item.Name)
	}
}

func TestCloseCancelsInflightLoad(t *testing.T) {
	src := &fakeSource{items: sampleBuyers(), gate: make(chan struct{})}
	col := New[buyer](buyerSchema(), src, nil, nil, Options{})

	done := make(chan error, 1)
	go func() { done <- col.Load(context.Background()) }()

	deadline := time.Now().Add(2 * time.Second)
	for col.Status() != StatusLoading && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	col.Close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("load did not observe close")
	}
	if col.Len() != 0 {
		t.Fatalf("result after close must be ignored")
	}
	if err := col.Load(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed after close, got %v", err)
	}
}

func TestOverlappingLoadsStayLoadingUntilLastFinishes(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{items: sampleBuyers(), gate: gate}
	col := New[buyer](buyerSchema(), src, nil, nil, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = col.Load(context.Background())
		}()
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		src.mu.Lock()
		calls := src.calls
		src.mu.Unlock()
		if calls == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}
	gate <- struct{}{}
	// one load is still blocked
	time.Sleep(10 * time.Millisecond)
	if col.Status() != StatusLoading {
		t.Fatalf("expected loading while a request is in flight, got %s", col.Status())
	}
	gate <- struct{}{}
	wg.Wait()
	if col.Status() != StatusLoaded {
		t.Fatalf("expected loaded, got %s", col.Status())
	}
}

func TestCreateOnEmptyCollectionWithoutWriter(t *testing.T) {
	n := 0
	col := New[buyer](buyerSchema(), &fakeSource{}, nil, nil, Options{NewID: func() string { n++; return fmt.Sprint(n) }})
	created, err := col.Create(context.Background(), buyer{Name: "X"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if col.Len() != 1 {
		t.Fatalf("expected 1 item, got %d", col.Len())
	}
	if created.ID != "tmp-1" {
		t.Fatalf("unexpected generated id %q", created.ID)
	}
	for i := 0; i < 3; i++ {
		if got := col.Items()[0].ID; got != created.ID {
			t.Fatalf("id is not stable: %q", got)
		}
	}
	if e, _ := col.Get(created.ID); e.State != StateLocal {
		t.Fatalf("expected local state, got %s", e.State)
	}

	second, _ := col.Create(context.Background(), buyer{Name: "Y"})
	if second.ID == created.ID {
		t.Fatalf("generated ids must be unique")
	}
}

func TestCreateValidationBlocksSubmission(t *testing.T) {
	w := &fakeWriter{}
	col := loaded(t, w)
	if _, err := col.Create(context.Background(), buyer{Name: " "}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(w.sent) != 0 || col.Len() != 4 {
		t.Fatalf("invalid item must not be sent or held")
	}
}

func TestCreateReconcilesWithServerID(t *testing.T) {
	w := &fakeWriter{}
	col := loaded(t, w)
	saved, err := col.Create(context.Background(), buyer{ID: "client", Name: "Eve"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if saved.ID != "srv-1" {
		t.Fatalf("expected server id, got %q", saved.ID)
	}
	if w.sent[0].ID != "" {
		t.Fatalf("temporary id leaked upstream: %q", w.sent[0].ID)
	}
	e, ok := col.Get("srv-1")
	if !ok || e.State != StateSynced {
		t.Fatalf("expected synced entry, got %+v %v", e, ok)
	}
	if col.Len() != 5 {
		t.Fatalf("expected 5 items, got %d", col.Len())
	}
}

func TestCreateRollsBackOnFailure(t *testing.T) {
	w := &fakeWriter{createErr: domain.ApplicationError{Message: "email already used"}}
	col := loaded(t, w)
	if _, err := col.Create(context.Background(), buyer{Name: "Eve"}); err == nil || err.Error() != "email already used" {
		t.Fatalf("expected upstream message, got %v", err)
	}
	if col.Len() != 4 {
		t.Fatalf("failed create must be rolled back, got %d", col.Len())
	}
}

func TestUpdateChangesOnlyPatchedFields(t *testing.T) {
	col := loaded(t, nil)
	before := col.Items()
	got, found, err := col.Update(context.Background(), "2", Patch{"active": true, "id": "99"})
	if err != nil || !found {
		t.Fatalf("update: %v found=%v", err, found)
	}
	if !got.Active || got.ID != "2" {
		t.Fatalf("unexpected result %+v", got)
	}
	after := col.Items()
	for i := range before {
		want := before[i]
		if want.ID == "2" {
			want.Active = true
		}
		if !sameBuyer(after[i], want) {
			t.Fatalf("item %d changed unexpectedly: %+v", i, after[i])
		}
	}
}

func TestUpdateMissingIDIsNoop(t *testing.T) {
	col := loaded(t, nil)
	_, found, err := col.Update(context.Background(), "404", Patch{"name": "Ghost"})
	if err != nil || found {
		t.Fatalf("expected silent no-op, got found=%v err=%v", found, err)
	}
	if ids(col.Items()) != "1,2,3,4" {
		t.Fatalf("collection changed")
	}
}

func TestUpdateRejectsBadPatch(t *testing.T) {
	col := loaded(t, nil)
	if _, _, err := col.Update(context.Background(), "1", Patch{"nickname": "x"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for unknown field, got %v", err)
	}
	if _, _, err := col.Update(context.Background(), "1", Patch{"spent": "lots"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for wrong type, got %v", err)
	}
	if _, _, err := col.Update(context.Background(), "1", Patch{"name": ""}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
}

func TestUpdateRollsBackOnFailure(t *testing.T) {
	col := loaded(t, &fakeWriter{updateErr: domain.TransportError{Op: "update", Resource: "buyers"}})
	if _, _, err := col.Update(context.Background(), "1", Patch{"name": "Changed"}); err == nil {
		t.Fatalf("expected error")
	}
	e, _ := col.Get("1")
	if e.Item.Name != "Alice Moore" || e.State != StateSynced {
		t.Fatalf("expected rollback, got %+v", e)
	}
}

func TestUpdateAcknowledgedKeepsLocalPatch(t *testing.T) {
	col := loaded(t, &fakeWriter{})
	if _, _, err := col.Update(context.Background(), "1", Patch{"spent": 7.5}); err != nil {
		t.Fatalf("update: %v", err)
	}
	e, _ := col.Get("1")
	if e.Item.Spent != 7.5 || e.State != StateSynced {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestUpdateSendsValidatedValues(t *testing.T) {
	w := &fakeWriter{}
	col := loaded(t, w)
	if _, _, err := col.Update(context.Background(), "1", Patch{"spent": nil, "name": "Alicia", "id": "9"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(w.patches) != 1 {
		t.Fatalf("expected one write, got %d", len(w.patches))
	}
	p := w.patches[0]
	if len(p) != 2 || p["spent"] != 0.0 || p["name"] != "Alicia" {
		t.Fatalf("writer got %#v", p)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	col := loaded(t, &fakeWriter{})
	found, err := col.Delete(context.Background(), "3")
	if err != nil || !found {
		t.Fatalf("delete: %v found=%v", err, found)
	}
	if col.Len() != 3 {
		t.Fatalf("expected 3 items, got %d", col.Len())
	}
	if _, ok := col.Get("3"); ok {
		t.Fatalf("deleted id still present")
	}
	found, err = col.Delete(context.Background(), "3")
	if found || err != nil {
		t.Fatalf("second delete should be a no-op, got %v %v", found, err)
	}
}

func TestDeleteRestoresPositionOnFailure(t *testing.T) {
	col := loaded(t, &fakeWriter{deleteErr: errors.New("down")})
	if _, err := col.Delete(context.Background(), "2"); err == nil {
		t.Fatalf("expected error")
	}
	if got := ids(col.Items()); got != "1,2,3,4" {
		t.Fatalf("expected original order, got %s", got)
	}
}

func TestDeleteOfVanishedItemIsNotRestored(t *testing.T) {
	col := loaded(t, &fakeWriter{deleteErr: domain.NotFoundError{Resource: "buyers", ID: "2"}})
	found, err := col.Delete(context.Background(), "2")
	if !found || !domain.IsNotFound(err) {
		t.Fatalf("expected not found from writer, got %v %v", found, err)
	}
	if got := ids(col.Items()); got != "1,3,4" {
		t.Fatalf("item gone upstream must stay removed, got %s", got)
	}
}

func TestViewReturnsEntriesWithState(t *testing.T) {
	col := loaded(t, nil)
	_, _ = col.Create(context.Background(), buyer{Name: "Zed", Active: false})
	rows, err := col.View(Criteria{Filters: map[string]string{"status": "inactive"}})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if len(rows) != 2 || rows[1].State != StateLocal {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if _, err := col.View(Criteria{Sort: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown sort")
	}
}

type countingObserver struct {
	loads, mutations, rollbacks int
}

func (o *countingObserver) LoadDone(string, time.Duration, error) { o.loads++ }

func (o *countingObserver) MutationDone(_, _ string, _ error, rolledBack bool) {
	o.mutations++
	if rolledBack {
		o.rollbacks++
	}
}

func TestObserverSeesOutcomes(t *testing.T) {
	obs := &countingObserver{}
	col := New[buyer](buyerSchema(), &fakeSource{items: sampleBuyers()}, &fakeWriter{deleteErr: errors.New("x")}, nil, Options{Observer: obs})
	_ = col.Load(context.Background())
	_, _ = col.Delete(context.Background(), "1")
	if obs.loads != 1 || obs.mutations != 1 || obs.rollbacks != 1 {
		t.Fatalf("unexpected counts %+v", obs)
	}
}
