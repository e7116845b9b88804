// Package resource implements the per-resource CRUD engine and the discovery
// pass that decides which collections get bound to routes.
package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/starford/flatrest/internal/apperr"
	"github.com/starford/flatrest/internal/models"
	"github.com/starford/flatrest/internal/schema"
	"github.com/starford/flatrest/internal/storage"
)

// Notifier is told about every persisted mutation.
// kind is one of "created", "updated", "deleted".
type Notifier func(kind, resource, id string)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithNotifier sets the mutation callback.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notify = n
	}
}

// Service loads, validates, mutates and persists the records of one resource.
//
// There is no locking between requests: two concurrent creates can read the
// same record count and assign the same id, and the later Replace wins.
type Service struct {
	name    string
	title   string
	store   storage.RecordStore
	schemas schema.Registry
	logger  *slog.Logger
	notify  Notifier
}

// NewService creates the handler for one resource.
func NewService(name string, store storage.RecordStore, schemas schema.Registry, opts ...Option) *Service {
	s := &Service{
		name:    name,
		title:   titleName(name),
		store:   store,
		schemas: schemas,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the resource name.
func (s *Service) Name() string {
	return s.name
}

// List returns one page of records. baseURL is used to build page links.
func (s *Service) List(_ context.Context, q url.Values, baseURL string) (*models.Envelope, error) {
	s.logger.Info("listing records", slog.String("resource", s.name))
	records, err := s.store.List(s.name)
	if err != nil {
		s.logger.Error("list failed", slog.String("resource", s.name), slog.String("error", err.Error()))
		return nil, apperr.WithMessage(apperr.ErrInternal, "Error listing "+s.name)
	}
	page, perPage := PageParams(q)
	start, end := pageBounds(len(records), page, perPage)
	return &models.Envelope{
		Data:     records[start:end],
		Metadata: Paginate(len(records), page, perPage, baseURL),
	}, nil
}

// Get returns the record whose id renders as id.
func (s *Service) Get(_ context.Context, id string) (*models.Envelope, error) {
	s.logger.Info("getting record", slog.String("resource", s.name), slog.String("id", id))
	records, err := s.store.List(s.name)
	if err != nil {
		s.logger.Error("get failed", slog.String("resource", s.name), slog.String("error", err.Error()))
		return nil, apperr.WithMessage(apperr.ErrInternal, "Error reading "+s.name)
	}
	i := models.IndexOf(records, id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	return envelope(records[i], len(records)), nil
}

// Create validates body with required fields enforced, assigns
// id = len(records)+1 and appends the record.
//
// The id is derived from the current count, so after a deletion it can
// repeat an id that is still in use.
func (s *Service) Create(_ context.Context, body []byte) (*models.Envelope, error) {
	s.logger.Info("creating record", slog.String("resource", s.name))
	payload, err := s.decodeAndValidate(body, true)
	if err != nil {
		return nil, s.failure("creating", err)
	}
	records, err := s.store.List(s.name)
	if err != nil {
		return nil, s.failure("creating", err)
	}
	rec := models.WithID(models.IntID(len(records)+1), payload)
	records = append(records, rec)
	if err := s.store.Replace(s.name, records); err != nil {
		return nil, s.failure("creating", err)
	}
	id, _ := models.IDString(rec)
	s.logger.Info("created record", slog.String("resource", s.name), slog.String("id", id))
	s.emit("created", id)
	return envelope(rec, len(records)), nil
}

// Update replaces the record in place with body. The stored id is kept even
// if body carries a different one. Required fields are not enforced.
func (s *Service) Update(_ context.Context, id string, body []byte) (*models.Envelope, error) {
	s.logger.Info("updating record", slog.String("resource", s.name), slog.String("id", id))
	payload, err := s.decodeAndValidate(body, false)
	if err != nil {
		return nil, s.failure("updating", err)
	}
	records, err := s.store.List(s.name)
	if err != nil {
		return nil, s.failure("updating", err)
	}
	i := models.IndexOf(records, id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	original, _ := records[i].Get(models.IDField)
	rec := models.WithID(original, payload)
	records[i] = rec
	if err := s.store.Replace(s.name, records); err != nil {
		return nil, s.failure("updating", err)
	}
	s.logger.Info("updated record", slog.String("resource", s.name), slog.String("id", id))
	s.emit("updated", id)
	return envelope(rec, len(records)), nil
}

// Delete removes the record. Sibling ids are not renumbered.
func (s *Service) Delete(_ context.Context, id string) (*models.Envelope, error) {
	s.logger.Info("deleting record", slog.String("resource", s.name), slog.String("id", id))
	records, err := s.store.List(s.name)
	if err != nil {
		return nil, s.failure("deleting", err)
	}
	i := models.IndexOf(records, id)
	if i < 0 {
		return nil, s.notFound(id)
	}
	deleted := records[i]
	records = append(records[:i], records[i+1:]...)
	if err := s.store.Replace(s.name, records); err != nil {
		return nil, s.failure("deleting", err)
	}
	s.logger.Info("deleted record", slog.String("resource", s.name), slog.String("id", id))
	s.emit("deleted", id)
	return envelope(deleted, len(records)), nil
}

// decodeAndValidate parses body as a JSON object and checks it against the
// resource schema, if any.
func (s *Service) decodeAndValidate(body []byte, requireRequired bool) (models.Record, error) {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || dec.More() {
		return nil, &apperr.ValidationError{Detail: "invalid JSON body"}
	}
	if _, ok := raw.(map[string]any); !ok {
		return nil, &apperr.ValidationError{Detail: "request body must be a JSON object"}
	}
	doc, ok, err := s.schemas.Lookup(s.name)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Warn("no schema defined", slog.String("resource", s.name))
	} else if err := schema.Validate(doc, raw, requireRequired); err != nil {
		return nil, err
	}
	rec, err := models.DecodeRecord(body)
	if err != nil {
		return nil, fmt.Errorf("resource: decode record: %w", err)
	}
	return rec, nil
}

// titleName capitalises every run of letters in name and lower-cases the
// rest of the run, so "sensor_readings" becomes "Sensor_Readings".
func titleName(name string) string {
	caser := cases.Title(language.English)
	var b strings.Builder
	start := -1
	flush := func(end int) {
		if start >= 0 {
			b.WriteString(caser.String(name[start:end]))
			start = -1
		}
	}
	for i, r := range name {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i)
		b.WriteRune(r)
	}
	flush(len(name))
	return b.String()
}

func (s *Service) notFound(id string) error {
	s.logger.Warn("record not found", slog.String("resource", s.name), slog.String("id", id))
	return apperr.WithMessage(apperr.ErrNotFound, s.title+" not found")
}

// failure logs err and converts it to the client-facing error for action.
func (s *Service) failure(action string, err error) error {
	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		s.logger.Error("validation failed", slog.String("resource", s.name), slog.String("error", ve.Detail))
		return &apperr.ValidationError{Detail: fmt.Sprintf("Invalid %s data: %s", s.name, ve.Detail)}
	}
	s.logger.Error(action+" record failed", slog.String("resource", s.name), slog.String("error", err.Error()))
	return apperr.WithMessage(apperr.ErrInternal, fmt.Sprintf("Error %s %s", action, s.name))
}

func (s *Service) emit(kind, id string) {
	if s.notify != nil {
		s.notify(kind, s.name, id)
	}
}

func envelope(rec models.Record, total int) *models.Envelope {
	return &models.Envelope{
		Data:     rec,
		Metadata: models.Counts{TotalItems: total},
	}
}
