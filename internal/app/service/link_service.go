package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sifan077/ShortURL/internal/app/model"
	"github.com/sifan077/ShortURL/internal/app/repository"
	"github.com/sifan077/ShortURL/internal/app/shortcode"
	"github.com/sifan077/ShortURL/internal/app/urlcheck"
	"go.uber.org/zap"
)

const (
	maxCustomCodeLength = 64
	maxTimeoutSeconds   = int64(math.MaxInt64 / int64(time.Second))
)

// LinkService defines behaviour-level operations on short links.
type LinkService interface {
	Create(ctx context.Context, input CreateLinkInput) (*model.ShortLink, error)
	Resolve(ctx context.Context, code string) (string, error)
	ListForUser(ctx context.Context, userID string) ([]model.ShortLink, error)
	Delete(ctx context.Context, id int64, userID string) (bool, error)
}

// CreateLinkInput captures data required to create a link.
type CreateLinkInput struct {
	LongURL        string
	CustomCode     *string
	TimeoutSeconds *int64
	UserID         string
}

// CodeGenerator returns a random code of the given length.
type CodeGenerator func(length int) string

// LinkMetrics receives counters for link operations.
type LinkMetrics interface {
	LinkCreated(custom bool)
	LinkResolved(hit bool)
	LinkDeleted()
}

// Option customises a link service.
type Option func(*linkService)

// WithLogger sets the logger used for collisions and event failures.
func WithLogger(logger *zap.Logger) Option {
	return func(s *linkService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces time.Now, mainly for expiry tests.
func WithClock(now func() time.Time) Option {
	return func(s *linkService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithCodeGenerator replaces the random code source.
func WithCodeGenerator(gen CodeGenerator) Option {
	return func(s *linkService) {
		if gen != nil {
			s.generate = gen
		}
	}
}

// WithEventPublisher sets where lifecycle events are sent.
func WithEventPublisher(p EventPublisher) Option {
	return func(s *linkService) {
		if p != nil {
			s.events = p
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m LinkMetrics) Option {
	return func(s *linkService) {
		if m != nil {
			s.metrics = m
		}
	}
}

type linkService struct {
	repo     repository.LinkRepository
	logger   *zap.Logger
	now      func() time.Time
	generate CodeGenerator
	events   EventPublisher
	metrics  LinkMetrics
}

// NewLinkService returns a service implementation backed by the given repository.
func NewLinkService(repo repository.LinkRepository, opts ...Option) LinkService {
	s := &linkService{
		repo:     repo,
		logger:   zap.NewNop(),
		now:      time.Now,
		generate: shortcode.Generate,
		events:   NopPublisher{},
		metrics:  nopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *linkService) Create(ctx context.Context, input CreateLinkInput) (*model.ShortLink, error) {
	longURL := urlcheck.Sanitize(input.LongURL)
	if !urlcheck.IsAcceptable(longURL) {
		return nil, ErrInvalidURL
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, ErrInvalidUserID
	}

	if input.TimeoutSeconds != nil {
		if t := *input.TimeoutSeconds; t <= 0 || t > maxTimeoutSeconds {
			return nil, ErrInvalidTimeout
		}
	}

	custom := input.CustomCode != nil
	if custom {
		if err := validateCustomCode(*input.CustomCode); err != nil {
			return nil, err
		}
	}

	createdAt := s.now().UTC()
	link := &model.ShortLink{
		LongURL:   urlcheck.Normalize(longURL),
		CreatedAt: createdAt,
		UserID:    userID,
	}
	if input.TimeoutSeconds != nil {
		expiresAt := createdAt.Add(time.Duration(*input.TimeoutSeconds) * time.Second)
		link.ExpiresAt = &expiresAt
	}

	var err error
	if custom {
		err = s.insertWithCustomCode(ctx, link, *input.CustomCode)
	} else {
		err = s.insertWithGeneratedCode(ctx, link)
	}
	if err != nil {
		return nil, err
	}

	s.metrics.LinkCreated(custom)
	s.publish(ctx, model.LinkCreated, link)
	return link, nil
}

// insertWithCustomCode relies on the unique index for correctness; the existence
// check only spares a failed insert in the common case.
func (s *linkService) insertWithCustomCode(ctx context.Context, link *model.ShortLink, code string) error {
	exists, err := s.repo.ExistsByCode(ctx, code)
	if err != nil {
		return storageError("check code", err)
	}
	if exists {
		return ErrCodeConflict
	}

	link.ShortCode = code
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repository.ErrDuplicateCode) {
			return ErrCodeConflict
		}
		return storageError("create link", err)
	}
	return nil
}

// insertWithGeneratedCode resamples until a free code is stored. The loop has no
// attempt limit: with 62^6 codes a collision streak ends almost surely.
func (s *linkService) insertWithGeneratedCode(ctx context.Context, link *model.ShortLink) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("generate code: %w", err)
		}

		code := s.generate(shortcode.DefaultLength)
		exists, err := s.repo.ExistsByCode(ctx, code)
		if err != nil {
			return storageError("check code", err)
		}
		if exists {
			s.logger.Debug("short code collision", zap.String("code", code), zap.Int("attempt", attempt))
			continue
		}

		link.ShortCode = code
		err = s.repo.Create(ctx, link)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicateCode) {
			return storageError("create link", err)
		}
		s.logger.Debug("short code taken concurrently", zap.String("code", code), zap.Int("attempt", attempt))
		link.ID = 0
	}
}

func (s *linkService) Resolve(ctx context.Context, code string) (string, error) {
	if code == "" {
		s.metrics.LinkResolved(false)
		return "", ErrNotFound
	}

	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			s.metrics.LinkResolved(false)
			return "", ErrNotFound
		}
		return "", storageError("get link", err)
	}

	if !link.IsLive(s.now()) {
		s.metrics.LinkResolved(false)
		return "", ErrNotFound
	}

	s.metrics.LinkResolved(true)
	return link.LongURL, nil
}

func (s *linkService) ListForUser(ctx context.Context, userID string) ([]model.ShortLink, error) {
	links, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, storageError("list links", err)
	}
	if links == nil {
		links = []model.ShortLink{}
	}
	return links, nil
}

func (s *linkService) Delete(ctx context.Context, id int64, userID string) (bool, error) {
	link, err := s.repo.DeleteByIDAndUser(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return false, nil
		}
		return false, storageError("delete link", err)
	}

	s.metrics.LinkDeleted()
	s.publish(ctx, model.LinkDeleted, link)
	return true, nil
}

func (s *linkService) publish(ctx context.Context, eventType model.LinkEventType, link *model.ShortLink) {
	event := model.LinkEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		LinkID:    link.ID,
		ShortCode: link.ShortCode,
		LongURL:   link.LongURL,
		UserID:    link.UserID,
		ExpiresAt: link.ExpiresAt,
		Timestamp: s.now().UTC(),
	}

	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish link event",
			zap.Error(err),
			zap.String("type", string(eventType)),
			zap.Int64("link_id", link.ID),
		)
	}
}

var customCodeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedCodes collide with fixed routes. Routing ignores case, so matching does too.
var reservedCodes = map[string]struct{}{
	"api":     {},
	"health":  {},
	"metrics": {},
}

func validateCustomCode(code string) error {
	if len(code) > maxCustomCodeLength || !customCodeRe.MatchString(code) {
		return ErrInvalidCode
	}
	if _, ok := reservedCodes[strings.ToLower(code)]; ok {
		return ErrInvalidCode
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) LinkCreated(bool)  {}
func (nopMetrics) LinkResolved(bool) {}
func (nopMetrics) LinkDeleted()      {}
