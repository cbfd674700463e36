package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jesses-code-adventures/tims/internal/billing"
	"github.com/jesses-code-adventures/tims/internal/cache"
	"github.com/jesses-code-adventures/tims/internal/database"
)

const maxIdentifierAttempts = 10

type TimesheetService struct {
	db     database.DB
	users  *cache.UserCache
	logger *logrus.Entry

	now           func() time.Time
	newIdentifier func() string
	newKey        func() string
}

type Option func(*TimesheetService)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TimesheetService) { s.now = now }
}

func WithIdentifierGenerator(fn func() string) Option {
	return func(s *TimesheetService) { s.newIdentifier = fn }
}

func WithKeyGenerator(fn func() string) Option {
	return func(s *TimesheetService) { s.newKey = fn }
}

// NewTimesheetService wraps db with the user cache backed by store. Every
// write the service makes goes through that wrapper.
func NewTimesheetService(db database.DB, store cache.Store, logger *logrus.Logger, opts ...Option) *TimesheetService {
	users := cache.NewUserCache(db, store, logger)
	s := &TimesheetService{
		db:            users,
		users:         users,
		logger:        logger.WithField("component", "service"),
		now:           time.Now,
		newIdentifier: billing.NewIdentifier,
		newKey:        newKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TimesheetService) unix() int64 {
	return s.now().Unix()
}
