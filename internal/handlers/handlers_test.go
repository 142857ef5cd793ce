package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rackline/labelscan/internal/events"
	"github.com/rackline/labelscan/internal/imaging"
	"github.com/rackline/labelscan/internal/models"
	"github.com/rackline/labelscan/internal/store"
	"github.com/rackline/labelscan/internal/vision"
	"github.com/rackline/labelscan/internal/workflow"
)

type fakeExtractor struct {
	fields *vision.Fields
	err    error
}

func (f *fakeExtractor) Extract(ctx context.Context, images []vision.Image) (*vision.Fields, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.fields, nil
}

type fakeCatalog struct {
	saveErr error
	fetched *models.Product
	users   []models.AppUser
}

func (f *fakeCatalog) Save(ctx context.Context, p *models.Product, editingID *int64) (*models.Product, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	saved := *p
	saved.ID = 42
	return &saved, nil
}

func (f *fakeCatalog) CheckDuplicate(ctx context.Context, barcode string) (int64, bool, error) {
	return 0, false, nil
}

func (f *fakeCatalog) FetchForEdit(ctx context.Context, id *int64, barcode, sku string) (*models.Product, error) {
	return f.fetched, nil
}

func (f *fakeCatalog) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	if _, err := fmt.Fprintln(w, `"ID","Item Name"`); err != nil {
		return 0, err
	}
	return 0, nil
}

func (f *fakeCatalog) ExportParquet(ctx context.Context, w io.Writer) (int, error) {
	return 0, nil
}

func (f *fakeCatalog) ListAppUsers(ctx context.Context) ([]models.AppUser, error) {
	return f.users, nil
}

func (f *fakeCatalog) CreateAppUser(ctx context.Context, name string) (*models.AppUser, error) {
	return &models.AppUser{ID: 1, Name: name}, nil
}

func newTestServer(t *testing.T, ext *fakeExtractor, catalog *fakeCatalog) *httptest.Server {
	t.Helper()

	previews, err := imaging.NewPreviewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewPreviewStore() error = %v", err)
	}
	wf := workflow.NewService(ext, catalog, previews, events.New())
	handler := New(wf, catalog, t.TempDir(), previews.Dir())

	mux := http.NewServeMux()
	mux.HandleFunc("/api/capture", handler.HandleCaptureCreate)
	mux.HandleFunc("/api/capture/", handler.HandleCapture)
	mux.HandleFunc("/api/products/edit", handler.HandleProductEdit)
	mux.HandleFunc("/api/export", handler.HandleExport)
	mux.HandleFunc("/api/users", handler.HandleUsers)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func createCapture(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/capture", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/capture error = %v", err)
	}
	defer resp.Body.Close()

	var snap workflow.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode capture: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("capture id is empty")
	}
	return snap.ID
}

func TestCaptureLifecycle(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeCatalog{})
	id := createCapture(t, srv)

	resp, err := http.Get(srv.URL + "/api/capture/" + id)
	if err != nil {
		t.Fatalf("GET capture error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET capture status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/capture/does-not-exist")
	if err != nil {
		t.Fatalf("GET unknown capture error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown capture status = %d, want 404", resp.StatusCode)
	}
}

func TestImageUploadAndClear(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeCatalog{})
	id := createCapture(t, srv)

	var img bytes.Buffer
	if err := png.Encode(&img, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "label.png")
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := fw.Write(img.Bytes()); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	resp, err := http.Post(srv.URL+"/api/capture/"+id+"/images", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST images error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("POST images status = %d, body %s", resp.StatusCode, raw)
	}

	var uploaded models.CapturedImage
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode image: %v", err)
	}
	if !strings.HasPrefix(uploaded.PreviewURL, "/static/uploads/") {
		t.Errorf("preview url = %q, want /static/uploads/ prefix", uploaded.PreviewURL)
	}

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/capture/"+id+"/images", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE images error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("DELETE images status = %d, want 200", resp.StatusCode)
	}
}

func TestSaveConflictReturnsField(t *testing.T) {
	catalog := &fakeCatalog{saveErr: &store.DuplicateError{Field: store.DuplicateSKU}}
	srv := newTestServer(t, &fakeExtractor{}, catalog)
	id := createCapture(t, srv)

	field := bytes.NewBufferString(`{"field":"name","value":"Trail Shirt"}`)
	resp, err := http.Post(srv.URL+"/api/capture/"+id+"/field", "application/json", field)
	if err != nil {
		t.Fatalf("POST field error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST field status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/api/capture/"+id+"/save", "application/json", nil)
	if err != nil {
		t.Fatalf("POST save error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("save status = %d, want 409", resp.StatusCode)
	}

	var conflict struct {
		Field string `json:"field"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&conflict); err != nil {
		t.Fatalf("decode conflict: %v", err)
	}
	if conflict.Field != "SKU" {
		t.Errorf("conflict field = %q, want SKU", conflict.Field)
	}
}

func TestSaveWithoutName(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeCatalog{})
	id := createCapture(t, srv)

	resp, err := http.Post(srv.URL+"/api/capture/"+id+"/save", "application/json", nil)
	if err != nil {
		t.Fatalf("POST save error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("save status = %d, want 400", resp.StatusCode)
	}
}

func TestProductEditRequiresKey(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeCatalog{})

	resp, err := http.Get(srv.URL + "/api/products/edit")
	if err != nil {
		t.Fatalf("GET edit error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("edit status = %d, want 400", resp.StatusCode)
	}
}

func TestProductEditFound(t *testing.T) {
	catalog := &fakeCatalog{fetched: &models.Product{ID: 11, Name: "Existing"}}
	srv := newTestServer(t, &fakeExtractor{}, catalog)

	resp, err := http.Get(srv.URL + "/api/products/edit?barcode=4006381333931")
	if err != nil {
		t.Fatalf("GET edit error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit status = %d, want 200", resp.StatusCode)
	}

	var p models.Product
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatalf("decode product: %v", err)
	}
	if p.ID != 11 {
		t.Errorf("product id = %d, want 11", p.ID)
	}
}

func TestExportHeaders(t *testing.T) {
	srv := newTestServer(t, &fakeExtractor{}, &fakeCatalog{})

	resp, err := http.Get(srv.URL + "/api/export")
	if err != nil {
		t.Fatalf("GET export error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q, want text/csv", ct)
	}
	disposition := resp.Header.Get("Content-Disposition")
	if !strings.Contains(disposition, "products_") || !strings.Contains(disposition, ".csv") {
		t.Errorf("content disposition = %q, want date-stamped csv filename", disposition)
	}

	resp, err = http.Get(srv.URL + "/api/export?format=xml")
	if err != nil {
		t.Fatalf("GET export xml error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown format status = %d, want 400", resp.StatusCode)
	}
}

func TestUsers(t *testing.T) {
	catalog := &fakeCatalog{users: []models.AppUser{{ID: 1, Name: "Dana"}}}
	srv := newTestServer(t, &fakeExtractor{}, catalog)

	resp, err := http.Get(srv.URL + "/api/users")
	if err != nil {
		t.Fatalf("GET users error = %v", err)
	}
	defer resp.Body.Close()
	var users []models.AppUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		t.Fatalf("decode users: %v", err)
	}
	if len(users) != 1 || users[0].Name != "Dana" {
		t.Errorf("users = %+v, want [Dana]", users)
	}

	resp, err = http.Post(srv.URL+"/api/users", "application/json", strings.NewReader(`{"name":""}`))
	if err != nil {
		t.Fatalf("POST users error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty name status = %d, want 400", resp.StatusCode)
	}
}
