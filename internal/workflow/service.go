package workflow

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rackline/labelscan/internal/barcode"
	"github.com/rackline/labelscan/internal/events"
	"github.com/rackline/labelscan/internal/imaging"
	"github.com/rackline/labelscan/internal/models"
	"github.com/rackline/labelscan/internal/store"
	"github.com/rackline/labelscan/internal/vision"
)

var (
	// ErrCaptureNotFound reports an unknown capture session id.
	ErrCaptureNotFound = errors.New("capture session not found")

	// ErrNameRequired blocks a save locally before any network call.
	ErrNameRequired = errors.New("product name is required")

	// ErrNoImages reports an extraction attempt with nothing captured.
	ErrNoImages = errors.New("no images captured")
)

const (
	// duplicateCheckDelay is the trailing-edge debounce applied to the
	// barcode input before the duplicate lookup fires.
	duplicateCheckDelay = 400 * time.Millisecond

	duplicateCheckTimeout = 10 * time.Second

	previewURLPrefix = "/static/uploads/"
)

// Extractor merges label photos into one extracted record.
type Extractor interface {
	Extract(ctx context.Context, images []vision.Image) (*vision.Fields, error)
}

// Persister is the slice of the table-store client the workflow needs.
type Persister interface {
	Save(ctx context.Context, p *models.Product, editingID *int64) (*models.Product, error)
	CheckDuplicate(ctx context.Context, barcode string) (int64, bool, error)
	FetchForEdit(ctx context.Context, id *int64, barcode, sku string) (*models.Product, error)
}

// Service drives capture sessions from first photo to saved record.
type Service struct {
	captures  *CaptureStore
	extractor Extractor
	persister Persister
	previews  *imaging.PreviewStore
	decoder   *barcode.FrameDecoder
	bus       *events.Bus

	debounceDelay time.Duration
}

// NewService wires the workflow's collaborators together.
func NewService(extractor Extractor, persister Persister, previews *imaging.PreviewStore, bus *events.Bus) *Service {
	return &Service{
		captures:      NewCaptureStore(),
		extractor:     extractor,
		persister:     persister,
		previews:      previews,
		decoder:       barcode.NewFrameDecoder(),
		bus:           bus,
		debounceDelay: duplicateCheckDelay,
	}
}

// NewCapture starts a fresh capture session.
func (s *Service) NewCapture() Snapshot {
	c := s.captures.New(s.debounceDelay)
	return s.snapshot(c)
}

// Snapshot returns the current state of a capture session.
func (s *Service) Snapshot(id string) (Snapshot, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return Snapshot{}, ErrCaptureNotFound
	}
	return s.snapshot(c), nil
}

func (s *Service) snapshot(c *Capture) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return s.snapshotLocked(c)
}

// AddImage runs the image pipeline on one uploaded photo and appends it
// to the capture session.
func (s *Service) AddImage(id string, r io.Reader) (*models.CapturedImage, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return nil, ErrCaptureNotFound
	}

	encoded, err := imaging.Encode(r)
	if err != nil {
		return nil, err
	}

	path, err := s.previews.Save(encoded)
	if err != nil {
		return nil, err
	}

	img := models.CapturedImage{
		ID:          uuid.NewString(),
		PreviewURL:  previewURLPrefix + filepath.Base(path),
		MIME:        encoded.MIME,
		Width:       encoded.Width,
		Height:      encoded.Height,
		Data:        encoded.Data,
		PreviewPath: path,
	}

	c.mu.Lock()
	c.images = append(c.images, img)
	count := len(c.images)
	c.mu.Unlock()

	slog.Info("Image captured", "capture", id, "images", count, "size", len(img.Data), "mime", img.MIME)
	return &img, nil
}

// ClearImages drops all captured images and the pending extraction,
// freeing the preview files.
func (s *Service) ClearImages(id string) error {
	c, ok := s.captures.Get(id)
	if !ok {
		return ErrCaptureNotFound
	}

	c.mu.Lock()
	images := c.images
	c.images = nil
	c.extraction = nil
	c.mu.Unlock()

	for _, img := range images {
		if err := s.previews.Remove(img.PreviewPath); err != nil {
			slog.Warn("Failed to free preview", "path", img.PreviewPath, "error", err)
		}
	}

	s.bus.Publish(events.Event{Type: events.ImagesCleared, CaptureID: id})
	return nil
}

// Extract sends the captured images for extraction and, on success,
// populates the form. On any failure the form is left untouched.
func (s *Service) Extract(ctx context.Context, id string) (Snapshot, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return Snapshot{}, ErrCaptureNotFound
	}

	c.mu.Lock()
	payloads := make([]vision.Image, len(c.images))
	for i, img := range c.images {
		payloads[i] = vision.Image{Data: img.Data, MIME: img.MIME}
	}
	c.mu.Unlock()

	if len(payloads) == 0 {
		return Snapshot{}, ErrNoImages
	}

	fields, err := s.extractor.Extract(ctx, payloads)
	if err != nil {
		return Snapshot{}, err
	}

	c.mu.Lock()
	c.extraction = fields
	c.populate(fields)
	c.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.ExtractionCompleted, CaptureID: id, Payload: fields})
	return s.snapshot(c), nil
}

// SetField updates one editable control. Changes to the style, brand,
// color, or size fields re-derive the SKU live.
func (s *Service) SetField(id, field, value string) (Snapshot, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return Snapshot{}, ErrCaptureNotFound
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case "name":
		c.form.Name = value
	case "style_number":
		c.form.StyleNumber = value
	case "sku":
		c.form.SKU = value
	case "brand_name":
		c.form.BrandName = value
	case "product_category":
		c.form.ProductCategory = value
	case "retail_price":
		c.form.RetailPrice = value
	case "supply_price":
		c.form.SupplyPrice = value
	case "size_or_dimensions":
		c.form.SizeOrDimensions = value
	case "color":
		c.form.Color = value
	case "quantity":
		c.form.Quantity = value
	case "tags":
		c.form.Tags = value
	case "description":
		c.form.Description = value
	case "notes":
		c.form.Notes = value
	case "verified":
		c.form.Verified = value == "true"
	default:
		return Snapshot{}, fmt.Errorf("unknown field %q", field)
	}

	switch field {
	case "style_number", "brand_name", "color", "size_or_dimensions":
		c.refreshSKU()
	}

	return s.snapshotLocked(c), nil
}

// snapshotLocked is snapshot for callers already holding c.mu.
func (s *Service) snapshotLocked(c *Capture) Snapshot {
	images := make([]models.CapturedImage, len(c.images))
	copy(images, c.images)
	return Snapshot{
		ID:        c.ID,
		Form:      c.form,
		Images:    images,
		EditingID: c.editingID,
		Scanning:  c.reader.Running(),
		Warning:   c.warning,
	}
}

// BarcodeInput handles one keystroke's worth of the barcode field. A
// complete 12/13-digit value schedules a debounced duplicate lookup;
// anything else clears the warning. The lookup is skipped entirely
// while an edit is in progress.
func (s *Service) BarcodeInput(id, value string) error {
	c, ok := s.captures.Get(id)
	if !ok {
		return ErrCaptureNotFound
	}

	c.mu.Lock()
	c.form.Barcode = value
	c.barcodeSource = SourceManual
	editing := c.editingID != nil
	valid := barcode.IsValidCode(strings.TrimSpace(value))
	if !valid {
		c.warning = nil
	}
	c.mu.Unlock()

	if !valid || editing {
		c.debounce.Cancel()
		return nil
	}

	code := strings.TrimSpace(value)
	c.debounce.Trigger(func() {
		s.runDuplicateCheck(c, code)
	})
	return nil
}

// runDuplicateCheck fires on the debounce's trailing edge.
func (s *Service) runDuplicateCheck(c *Capture, code string) {
	ctx, cancel := context.WithTimeout(context.Background(), duplicateCheckTimeout)
	defer cancel()

	existingID, found, err := s.persister.CheckDuplicate(ctx, code)
	if err != nil {
		slog.Warn("Duplicate precheck failed", "capture", c.ID, "error", err)
		return
	}

	c.mu.Lock()
	// The user may have kept typing while the lookup ran.
	stale := strings.TrimSpace(c.form.Barcode) != code || c.editingID != nil
	if !stale {
		if found {
			c.warning = &DuplicateWarning{Barcode: code, ExistingID: existingID}
		} else {
			c.warning = nil
		}
	}
	c.mu.Unlock()

	if !stale && found {
		s.bus.Publish(events.Event{Type: events.DuplicateFound, CaptureID: c.ID, Payload: existingID})
	}
}

// StartScan attaches the barcode reader to the capture's frame stream.
func (s *Service) StartScan(id string) error {
	c, ok := s.captures.Get(id)
	if !ok {
		return ErrCaptureNotFound
	}
	c.reader.Start(c.stream)
	return nil
}

// StopScan detaches the reader without capturing.
func (s *Service) StopScan(id string) error {
	c, ok := s.captures.Get(id)
	if !ok {
		return ErrCaptureNotFound
	}
	c.reader.Stop()
	return nil
}

// FeedFrame decodes one camera frame and feeds any barcode text to the
// reader. Frames without a decodable barcode are not an error.
func (s *Service) FeedFrame(id string, frame image.Image) (string, bool, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return "", false, ErrCaptureNotFound
	}

	code, err := s.decoder.Decode(frame)
	if err != nil {
		return "", false, nil
	}

	c.stream.emit(code)
	return code, true, nil
}

// CaptureScan copies the buffered code into the barcode field, marks
// its source as scanned, and stops the reader.
func (s *Service) CaptureScan(id string) (string, bool, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return "", false, ErrCaptureNotFound
	}

	code, ok := c.reader.CaptureAndStop()
	if !ok {
		return "", false, nil
	}

	c.mu.Lock()
	c.form.Barcode = code
	c.barcodeSource = SourceScanned
	c.mu.Unlock()

	s.bus.Publish(events.Event{Type: events.BarcodeScanned, CaptureID: id, Payload: code})
	return code, true, nil
}

// Save collects the form and persists it. Duplicate conflicts come back
// as *store.DuplicateError with all capture state intact so the user
// can edit and retry; success clears the image and extraction state and
// resets the form.
func (s *Service) Save(ctx context.Context, id string) (*models.Product, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return nil, ErrCaptureNotFound
	}

	c.mu.Lock()
	if strings.TrimSpace(c.form.Name) == "" {
		c.mu.Unlock()
		return nil, ErrNameRequired
	}
	product := c.collect()
	editingID := c.editingID
	c.mu.Unlock()

	saved, err := s.persister.Save(ctx, product, editingID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	images := c.images
	c.images = nil
	c.extraction = nil
	c.editingID = nil
	c.warning = nil
	c.form = Form{Quantity: "1"}
	c.barcodeSource = SourceNone
	c.mu.Unlock()

	for _, img := range images {
		if err := s.previews.Remove(img.PreviewPath); err != nil {
			slog.Warn("Failed to free preview", "path", img.PreviewPath, "error", err)
		}
	}

	s.bus.Publish(events.Event{Type: events.SaveCompleted, CaptureID: id, Payload: saved})
	return saved, nil
}

// LoadForEdit pulls an existing record into the capture session. The
// supplied keys are tried concurrently with priority id > barcode >
// sku; a nil product means nothing matched.
func (s *Service) LoadForEdit(ctx context.Context, id string, productID *int64, barcodeKey, skuKey string) (*models.Product, error) {
	c, ok := s.captures.Get(id)
	if !ok {
		return nil, ErrCaptureNotFound
	}

	p, err := s.persister.FetchForEdit(ctx, productID, barcodeKey, skuKey)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, nil
	}

	c.mu.Lock()
	c.populateFromProduct(p)
	c.editingID = &p.ID
	c.mu.Unlock()

	return p, nil
}

// IsDuplicateErr reports whether err is a uniqueness conflict.
func IsDuplicateErr(err error) bool {
	var dup *store.DuplicateError
	return errors.As(err, &dup)
}
