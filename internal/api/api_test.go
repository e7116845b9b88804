package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/flatrest/internal/resource"
	"github.com/starford/flatrest/internal/schema"
	"github.com/starford/flatrest/internal/storage"
	"github.com/starford/flatrest/internal/testutil"
)

// testEnv sets up a temp data dir holding the given empty collections, a
// seeded schema dir, and a router over them.
func testEnv(t *testing.T, resources ...string) (http.Handler, string) {
	t.Helper()
	dataDir, store := testutil.TestStore(t)
	for _, n := range resources {
		testutil.WriteCollection(t, dataDir, n, "[]")
	}

	schemaFS, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	registry := schema.NewFileRegistry(schemaFS)
	if _, err := registry.Seed(); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	logger := testutil.DiscardLogger()
	bindings, err := resource.Discover(store, logger)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	catalog := resource.NewCatalog(bindings, store, registry, resource.WithLogger(logger))
	return NewRouter(catalog, registry, nil), dataDir
}

func do(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Data     json.RawMessage `json:"data"`
	Metadata map[string]any  `json:"metadata"`
	Error    string          `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func record(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(env.Data, &m); err != nil {
		t.Fatalf("decode record %s: %v", env.Data, err)
	}
	return m
}

func TestDeviceLifecycle(t *testing.T) {
	router, _ := testEnv(t, "devices")

	w := do(t, router, http.MethodPost, "/devices", `{"name":"Thermostat","type":"sensor","location_id":1}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	if id := record(t, decode(t, w))["id"]; id != float64(1) {
		t.Errorf("data.id = %v, want 1", id)
	}

	w = do(t, router, http.MethodGet, "/devices", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	if total := decode(t, w).Metadata["total_items"]; total != float64(1) {
		t.Errorf("total_items = %v, want 1", total)
	}

	w = do(t, router, http.MethodDelete, "/devices/1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d", w.Code)
	}
	env := decode(t, w)
	if record(t, env)["name"] != "Thermostat" {
		t.Errorf("deleted record = %s", env.Data)
	}
	if env.Metadata["total_items"] != float64(0) {
		t.Errorf("total_items after delete = %v", env.Metadata["total_items"])
	}

	w = do(t, router, http.MethodGet, "/devices/1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}
}

func TestGetMissingMentionsResource(t *testing.T) {
	router, _ := testEnv(t, "devices")
	w := do(t, router, http.MethodGet, "/devices/999", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if msg := decode(t, w).Error; !strings.Contains(msg, "Devices") {
		t.Errorf("error = %q, should name the resource", msg)
	}
}

func TestCreateRequiresJSONContentType(t *testing.T) {
	router, _ := testEnv(t, "devices")
	req := httptest.NewRequest(http.MethodPost, "/devices", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Content-Type", "text/plain")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if msg := decode(t, w).Error; msg != "Content-Type must be application/json" {
		t.Errorf("error = %q", msg)
	}
}

func TestContentTypeWithCharset(t *testing.T) {
	router, _ := testEnv(t, "notes")
	req := httptest.NewRequest(http.MethodPost, "/notes", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestUserValidation(t *testing.T) {
	router, _ := testEnv(t, "users")

	w := do(t, router, http.MethodPost, "/users", `{"name":"Ann"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing email = %d, want 400", w.Code)
	}
	if msg := decode(t, w).Error; !strings.HasPrefix(msg, "Invalid users data") {
		t.Errorf("error = %q", msg)
	}

	w = do(t, router, http.MethodPost, "/users", `{"name":"Ann","email":"ann@example.com","nickname":"a"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("extra field = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodPost, "/users", `{"name":"Ann","email":"ann@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("valid user = %d, body = %s", w.Code, w.Body.String())
	}

	// Partial update: email may be omitted.
	w = do(t, router, http.MethodPut, "/users/1", `{"name":"X","id":50}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d, body = %s", w.Code, w.Body.String())
	}
	got := record(t, decode(t, w))
	if got["id"] != float64(1) || got["name"] != "X" {
		t.Errorf("updated = %v", got)
	}
}

func TestUpdateMissing(t *testing.T) {
	router, _ := testEnv(t, "notes")
	w := do(t, router, http.MethodPut, "/notes/4", `{"title":"x"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteMissing(t *testing.T) {
	router, _ := testEnv(t, "notes")
	w := do(t, router, http.MethodDelete, "/notes/4", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestPagination(t *testing.T) {
	router, _ := testEnv(t, "notes")
	for i := 0; i < 25; i++ {
		if w := do(t, router, http.MethodPost, "/notes", fmt.Sprintf(`{"n":%d}`, i)); w.Code != http.StatusCreated {
			t.Fatalf("create %d = %d", i, w.Code)
		}
	}

	w := do(t, router, http.MethodGet, "/notes?page=3&per_page=10", "")
	env := decode(t, w)
	var items []map[string]any
	_ = json.Unmarshal(env.Data, &items)
	if len(items) != 5 {
		t.Errorf("page 3 items = %d, want 5", len(items))
	}
	if env.Metadata["total_pages"] != float64(3) {
		t.Errorf("total_pages = %v", env.Metadata["total_pages"])
	}
	if env.Metadata["next_page"] != nil {
		t.Errorf("next_page = %v, want null", env.Metadata["next_page"])
	}
	if prev := env.Metadata["prev_page"]; prev != "http://example.com/notes?page=2&per_page=10" {
		t.Errorf("prev_page = %v", prev)
	}

	w = do(t, router, http.MethodGet, "/notes?page=oops", "")
	env = decode(t, w)
	if env.Metadata["current_page"] != float64(1) || env.Metadata["per_page"] != float64(10) {
		t.Errorf("invalid params metadata = %v", env.Metadata)
	}
	if _, ok := env.Metadata["prev_page"]; !ok {
		t.Error("prev_page key should be present as null")
	}
}

func TestRootListsResources(t *testing.T) {
	router, _ := testEnv(t, "devices", "users")
	w := do(t, router, http.MethodGet, "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp RootResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Resources) != 2 {
		t.Errorf("resources = %v", resp.Resources)
	}
	if resp.Resources["devices"].Item.Path != "/devices/{id}" {
		t.Errorf("devices routes = %+v", resp.Resources["devices"])
	}
	if resp.Events != "" {
		t.Errorf("events advertised without a feed: %q", resp.Events)
	}
}

func TestInfoPage(t *testing.T) {
	router, _ := testEnv(t)
	w := do(t, router, http.MethodGet, "/info", "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Errorf("info = %d %s", w.Code, w.Header().Get("Content-Type"))
	}
}

func TestUnboundResourceIs404(t *testing.T) {
	router, dataDir := testEnv(t, "devices")
	// Files added after the router is built are not served.
	testutil.WriteCollection(t, dataDir, "sensors", "[]")
	w := do(t, router, http.MethodGet, "/sensors", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestMalformedCollectionIs500(t *testing.T) {
	router, dataDir := testEnv(t, "notes")
	if err := os.WriteFile(filepath.Join(dataDir, "notes.json"), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := do(t, router, http.MethodPost, "/notes", `{"a":1}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if msg := decode(t, w).Error; msg != "Error creating notes" {
		t.Errorf("error = %q", msg)
	}
}

func TestSchemaEndpoints(t *testing.T) {
	router, _ := testEnv(t, "sensors")

	w := do(t, router, http.MethodGet, "/schemas", "")
	var all map[string]json.RawMessage
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Errorf("schemas = %d, want 4", len(all))
	}

	w = do(t, router, http.MethodGet, "/schemas/sensors", "")
	if w.Code != http.StatusNotFound || decode(t, w).Error != "Schema not found" {
		t.Errorf("missing schema = %d %s", w.Code, w.Body.String())
	}

	// Any object goes until a schema is stored.
	if w := do(t, router, http.MethodPost, "/sensors", `{"anything":true}`); w.Code != http.StatusCreated {
		t.Fatalf("create without schema = %d", w.Code)
	}

	doc := `{"type":"object","properties":{"label":{"type":"string"}},"required":["label"],"additionalProperties":false}`
	w = do(t, router, http.MethodPut, "/schemas/sensors", doc)
	if w.Code != http.StatusOK {
		t.Fatalf("put schema = %d, body = %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/schemas/sensors", "")
	if w.Code != http.StatusOK {
		t.Fatalf("get schema = %d", w.Code)
	}

	// The stored schema now governs the resource.
	if w := do(t, router, http.MethodPost, "/sensors", `{"anything":true}`); w.Code != http.StatusBadRequest {
		t.Errorf("create violating new schema = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/sensors", `{"label":"t1"}`); w.Code != http.StatusCreated {
		t.Errorf("create matching new schema = %d", w.Code)
	}
}

func TestPutSchemaRejectsBadDocuments(t *testing.T) {
	router, _ := testEnv(t)
	for _, body := range []string{`[1]`, `{"type":7}`, `not json`} {
		w := do(t, router, http.MethodPut, "/schemas/things", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("PUT %s = %d, want 400", body, w.Code)
		}
	}
	if w := do(t, router, http.MethodPut, "/schemas/events", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("reserved name = %d, want 400", w.Code)
	}
	req := httptest.NewRequest(http.MethodPut, "/schemas/things", bytes.NewReader([]byte(`{}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("no content type = %d, want 400", w.Code)
	}
}

func TestBuiltinRegistryIsReadOnly(t *testing.T) {
	_, store := testutil.TestStore(t)
	catalog := resource.NewCatalog(nil, store, schema.Builtin{})
	router := NewRouter(catalog, schema.Builtin{}, nil)
	w := do(t, router, http.MethodPut, "/schemas/users", `{"type":"object"}`)
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestEventsRoute(t *testing.T) {
	_, store := testutil.TestStore(t)
	catalog := resource.NewCatalog(nil, store, schema.Builtin{})
	stream := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	router := NewRouter(catalog, schema.Builtin{}, stream)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("events = %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/", "")
	var resp RootResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Events != "/events" {
		t.Errorf("events link = %q", resp.Events)
	}
}
