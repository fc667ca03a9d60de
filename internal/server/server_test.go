package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/refboard/internal/workspace"
	"github.com/matzehuels/refboard/pkg/board"
	"github.com/matzehuels/refboard/pkg/boardio"
	"github.com/matzehuels/refboard/pkg/config"
	"github.com/matzehuels/refboard/pkg/engine"
	"github.com/matzehuels/refboard/pkg/errors"
	"github.com/matzehuels/refboard/pkg/observability"
)

const sample = `{
  "version": 1,
  "id": "b1",
  "name": "Moodboard",
  "sections": [
    {"id": "s1", "columns": 2, "blocks": [
      {"id": "a", "width": 10, "height": 10, "col_index": 0, "row_index": 0},
      {"id": "b", "width": 10, "height": 10, "col_index": 1, "row_index": 0}
    ]},
    {"id": "s2", "columns": 1, "blocks": [
      {"id": "c", "width": 10, "height": 10}
    ]}
  ]
}`

func newServer(t *testing.T, backend string) (*Server, *workspace.Workspace) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Persist.Backend = backend
	cfg.Persist.Delay = time.Hour
	cfg.Persist.Retry = ""
	ws, err := workspace.Open(context.Background(), cfg, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { ws.Close(context.Background()) })
	return New(ws), ws
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func columns(t *testing.T, ws *workspace.Workspace, id string) [][]string {
	t.Helper()
	s, ok := ws.Board().Section(id)
	if !ok {
		t.Fatalf("section %s missing", id)
	}
	return s.Layout().IDs()
}

func TestHealth(t *testing.T) {
	s, _ := newServer(t, config.BackendMemory)
	w := do(t, s.Handler(), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	got := decodeBody[healthResponse](t, w)
	if got.Status != "ok" || got.BoardID != "b1" || got.Dirty {
		t.Errorf("health = %+v", got)
	}
	if w.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestSectionsAndLayout(t *testing.T) {
	s, _ := newServer(t, config.BackendMemory)
	h := s.Handler()

	sections := decodeBody[[]sectionSummary](t, do(t, h, http.MethodGet, "/sections", ""))
	want := []sectionSummary{{ID: "s1", Columns: 2, Blocks: 2}, {ID: "s2", Columns: 1, Blocks: 1}}
	if !reflect.DeepEqual(sections, want) {
		t.Errorf("sections = %+v, want %+v", sections, want)
	}

	view := decodeBody[engine.SectionView](t, do(t, h, http.MethodGet, "/sections/s1/layout", ""))
	if view.SectionID != "s1" || len(view.Blocks) != 2 || view.Blocks[0].ID != "a" {
		t.Errorf("layout = %+v", view)
	}

	narrow := decodeBody[engine.SectionView](t, do(t, h, http.MethodGet, "/sections/s1/layout?width=600", ""))
	if narrow.ColumnWidth >= view.ColumnWidth {
		t.Errorf("column width at 600px = %v, want less than %v", narrow.ColumnWidth, view.ColumnWidth)
	}
	for _, q := range []string{"-1", "0", "NaN", "Inf", "-Inf", "1e400", "wide"} {
		if w := do(t, h, http.MethodGet, "/sections/s1/layout?width="+q, ""); w.Code != http.StatusBadRequest {
			t.Errorf("width=%s: status = %d", q, w.Code)
		}
	}
	// Rejected widths leave the container alone.
	after := decodeBody[engine.SectionView](t, do(t, h, http.MethodGet, "/sections/s1/layout", ""))
	if after.ColumnWidth != narrow.ColumnWidth {
		t.Errorf("column width after rejected widths = %v, want %v", after.ColumnWidth, narrow.ColumnWidth)
	}

	order := decodeBody[orderResponse](t, do(t, h, http.MethodGet, "/sections/s1/order", ""))
	if !reflect.DeepEqual(order.Order, []string{"a", "b"}) {
		t.Errorf("order = %v", order.Order)
	}

	for _, path := range []string{"/sections/nope/layout", "/sections/nope/order"} {
		w := do(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d", path, w.Code)
		}
		if got := decodeBody[errorResponse](t, w); got.Code != errors.ErrCodeNotFound {
			t.Errorf("%s: code = %s", path, got.Code)
		}
	}
}

func TestMoveUndoRedo(t *testing.T) {
	s, ws := newServer(t, config.BackendMemory)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/sections/s1/moves", `{"blocks":["c"],"col":1,"index":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("move status = %d: %s", w.Code, w.Body)
	}
	if got, want := columns(t, ws, "s1"), [][]string{{"a"}, {"b", "c"}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("s1 = %v, want %v", got, want)
	}
	if !decodeBody[healthResponse](t, do(t, h, http.MethodGet, "/healthz", "")).Dirty {
		t.Error("move should leave the board dirty")
	}

	steps := []struct {
		path    string
		applied bool
		s1      [][]string
	}{
		{"/undo", true, [][]string{{"a"}, {"b"}}},
		{"/undo", false, [][]string{{"a"}, {"b"}}},
		{"/redo", true, [][]string{{"a"}, {"b", "c"}}},
		{"/redo", false, [][]string{{"a"}, {"b", "c"}}},
	}
	for i, st := range steps {
		got := decodeBody[historyResponse](t, do(t, h, http.MethodPost, st.path, ""))
		if got.Applied != st.applied {
			t.Errorf("step %d %s: applied = %v, want %v", i, st.path, got.Applied, st.applied)
		}
		if cols := columns(t, ws, "s1"); !reflect.DeepEqual(cols, st.s1) {
			t.Errorf("step %d %s: s1 = %v, want %v", i, st.path, cols, st.s1)
		}
	}
}

func TestMoveErrors(t *testing.T) {
	s, _ := newServer(t, config.BackendMemory)
	h := s.Handler()

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   errors.Code
	}{
		{"bad json", "/sections/s1/moves", `{`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"no blocks", "/sections/s1/moves", `{"blocks":[]}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown section", "/sections/nope/moves", `{"blocks":["a"]}`, http.StatusNotFound, errors.ErrCodeNotFound},
		{"missing column", "/sections/s1/moves", `{"blocks":["a"],"col":5}`, http.StatusUnprocessableEntity, errors.ErrCodeInvalidTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if got := decodeBody[errorResponse](t, w); got.Code != tt.code {
				t.Errorf("code = %s, want %s", got.Code, tt.code)
			}
		})
	}
}

func TestColumns(t *testing.T) {
	s, ws := newServer(t, config.BackendMemory)
	h := s.Handler()

	if w := do(t, h, http.MethodPost, "/sections/s1/columns", `{"count":13}`); w.Code != http.StatusBadRequest {
		t.Errorf("13 columns: status = %d", w.Code)
	}
	w := do(t, h, http.MethodPost, "/sections/s1/columns", `{"count":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if got := decodeBody[engine.SectionView](t, w); got.Columns != 1 {
		t.Errorf("columns = %d, want 1", got.Columns)
	}
	if got, want := columns(t, ws, "s1"), [][]string{{"a", "b"}}; !reflect.DeepEqual(got, want) {
		t.Errorf("s1 = %v, want %v", got, want)
	}
}

func TestFit(t *testing.T) {
	s, _ := newServer(t, config.BackendMemory)
	h := s.Handler()

	w := do(t, h, http.MethodPost, "/sections/s1/fit", `{"width":1280,"height":800,"seed":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}
	if cam := decodeBody[board.Camera](t, w); cam.Scale <= 0 || cam.Scale > 1 {
		t.Errorf("fit camera = %+v", cam)
	}
	if w := do(t, h, http.MethodPost, "/sections/s1/fit", `{"width":0,"height":800}`); w.Code != http.StatusBadRequest {
		t.Errorf("zero width: status = %d", w.Code)
	}
	if w := do(t, h, http.MethodPost, "/sections/nope/fit", `{"width":10,"height":10}`); w.Code != http.StatusNotFound {
		t.Errorf("unknown section: status = %d", w.Code)
	}
}

func TestDeleteAndSave(t *testing.T) {
	s, ws := newServer(t, config.BackendFile)
	h := s.Handler()

	if w := do(t, h, http.MethodDelete, "/blocks/a", ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w := do(t, h, http.MethodDelete, "/blocks/a", ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d", w.Code)
	}

	w := do(t, h, http.MethodPost, "/save", "")
	if w.Code != http.StatusOK {
		t.Fatalf("save status = %d: %s", w.Code, w.Body)
	}
	if got := decodeBody[healthResponse](t, w); got.Dirty {
		t.Error("board still dirty after save")
	}
	saved, err := boardio.ImportJSON(ws.Path)
	if err != nil {
		t.Fatal(err)
	}
	if blk, ok := saved.Block("a"); !ok || !blk.Deleted {
		t.Errorf("saved block a = %+v", blk)
	}
}

func TestReload(t *testing.T) {
	s, ws := newServer(t, config.BackendFile)
	doc, err := boardio.Decode(strings.NewReader(strings.Replace(sample, `"Moodboard"`, `"Edited"`, 1)))
	if err != nil {
		t.Fatal(err)
	}

	do(t, s.Handler(), http.MethodDelete, "/blocks/b", "")
	if ok, err := s.Reload(doc); ok || err != nil {
		t.Errorf("reload with unsaved changes = %v, %v", ok, err)
	}
	do(t, s.Handler(), http.MethodPost, "/save", "")
	if ok, err := s.Reload(doc); !ok || err != nil {
		t.Fatalf("reload = %v, %v", ok, err)
	}
	if ws.Board().Name != "Edited" {
		t.Errorf("name = %q after reload", ws.Board().Name)
	}
}

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu       sync.Mutex
	statuses []int
}

func (h *recordingHooks) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.statuses = append(h.statuses, status)
}

func TestHTTPHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetHTTPHooks(hooks)
	t.Cleanup(observability.Reset)

	s, _ := newServer(t, config.BackendMemory)
	h := s.Handler()
	do(t, h, http.MethodGet, "/healthz", "")
	do(t, h, http.MethodGet, "/sections/nope/layout", "")

	if want := []int{http.StatusOK, http.StatusNotFound}; !reflect.DeepEqual(hooks.statuses, want) {
		t.Errorf("hook statuses = %v, want %v", hooks.statuses, want)
	}
}

func TestServeShutsDown(t *testing.T) {
	s, _ := newServer(t, config.BackendMemory)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	cfg := config.Default().Server

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln, cfg) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	var body bytes.Buffer
	body.ReadFrom(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || !strings.Contains(body.String(), `"b1"`) {
		t.Errorf("healthz = %d %s", resp.StatusCode, body.String())
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
