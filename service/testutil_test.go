package application

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/trace"

	"github.com/yijiasang/glamap/domain"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// oid builds a deterministic ObjectID whose hex order follows b.
func oid(b byte) primitive.ObjectID {
	var id primitive.ObjectID
	id[11] = b
	return id
}

func f64(v float64) *float64 {
	return &v
}

type fakeProfileStore struct {
	profiles []*domain.Profile
}

func (s *fakeProfileStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProfileStore) GetByExternalID(_ context.Context, externalID string) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if p.ExternalID == externalID {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProfileStore) GetByUsername(_ context.Context, username string) (*domain.Profile, error) {
	for _, p := range s.profiles {
		if strings.EqualFold(p.Username, username) {
			return p, nil
		}
	}
	return nil, nil
}

func (s *fakeProfileStore) GetAll(_ context.Context) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

func (s *fakeProfileStore) Create(_ context.Context, profile *domain.Profile) (*domain.Profile, error) {
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	profile.CreatedAt = time.Now()
	s.profiles = append(s.profiles, profile)
	return profile, nil
}

func (s *fakeProfileStore) Update(_ context.Context, profile *domain.Profile) error {
	for i, p := range s.profiles {
		if p.ID == profile.ID {
			s.profiles[i] = profile
			return nil
		}
	}
	return nil
}

func (s *fakeProfileStore) UpdateUsername(_ context.Context, id primitive.ObjectID, username string) error {
	for _, p := range s.profiles {
		if p.ID == id {
			p.Username = username
			now := time.Now()
			p.UsernameChangedAt = &now
			return nil
		}
	}
	return nil
}

func (s *fakeProfileStore) UpdateRating(_ context.Context, id primitive.ObjectID, rating *float64, reviewCount int) error {
	for _, p := range s.profiles {
		if p.ID == id {
			p.Rating = rating
			p.ReviewCount = reviewCount
			return nil
		}
	}
	return nil
}

func (s *fakeProfileStore) Delete(_ context.Context, id primitive.ObjectID) error {
	kept := s.profiles[:0]
	for _, p := range s.profiles {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.profiles = kept
	return nil
}

func (s *fakeProfileStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.profiles)), nil
}

func (s *fakeProfileStore) CountByRole(_ context.Context, role domain.Role) (int64, error) {
	var n int64
	for _, p := range s.profiles {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *fakeProfileStore) CountProvidersByLocationType(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, p := range s.profiles {
		if p.Role == domain.Provider && p.LocationType != "" {
			out[string(p.LocationType)]++
		}
	}
	return out, nil
}

type fakeServiceStore struct {
	services []*domain.Service
}

func (s *fakeServiceStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Service, error) {
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return nil, nil
}

func (s *fakeServiceStore) GetAll(_ context.Context) ([]*domain.Service, error) {
	out := make([]*domain.Service, len(s.services))
	copy(out, s.services)
	return out, nil
}

func (s *fakeServiceStore) GetByProvider(_ context.Context, providerID primitive.ObjectID) ([]*domain.Service, error) {
	var out []*domain.Service
	for _, svc := range s.services {
		if svc.ProviderID == providerID {
			out = append(out, svc)
		}
	}
	return out, nil
}

func (s *fakeServiceStore) GetByNameAndProvider(_ context.Context, name string, providerID primitive.ObjectID) (*domain.Service, error) {
	for _, svc := range s.services {
		if svc.ProviderID == providerID && strings.EqualFold(svc.Name, name) {
			return svc, nil
		}
	}
	return nil, nil
}

func (s *fakeServiceStore) Create(_ context.Context, svc *domain.Service) (*domain.Service, error) {
	if svc.ID.IsZero() {
		svc.ID = primitive.NewObjectID()
	}
	s.services = append(s.services, svc)
	return svc, nil
}

func (s *fakeServiceStore) Delete(_ context.Context, id primitive.ObjectID) error {
	kept := s.services[:0]
	for _, svc := range s.services {
		if svc.ID != id {
			kept = append(kept, svc)
		}
	}
	s.services = kept
	return nil
}

func (s *fakeServiceStore) DeleteByProvider(_ context.Context, providerID primitive.ObjectID) error {
	kept := s.services[:0]
	for _, svc := range s.services {
		if svc.ProviderID != providerID {
			kept = append(kept, svc)
		}
	}
	s.services = kept
	return nil
}

type fakeReviewStore struct {
	reviews []*domain.Review
}

func (s *fakeReviewStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Review, error) {
	for _, r := range s.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeReviewStore) GetByProvider(_ context.Context, providerID primitive.ObjectID) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range s.reviews {
		if r.ProviderID == providerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) GetByClient(_ context.Context, clientID primitive.ObjectID) ([]*domain.Review, error) {
	var out []*domain.Review
	for _, r := range s.reviews {
		if r.ClientID == clientID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReviewStore) GetByClientAndProvider(_ context.Context, clientID, providerID primitive.ObjectID) (*domain.Review, error) {
	for _, r := range s.reviews {
		if r.ClientID == clientID && r.ProviderID == providerID {
			return r, nil
		}
	}
	return nil, nil
}

func (s *fakeReviewStore) Create(_ context.Context, review *domain.Review) (*domain.Review, error) {
	if review.ID.IsZero() {
		review.ID = primitive.NewObjectID()
	}
	review.CreatedAt = time.Now()
	s.reviews = append(s.reviews, review)
	return review, nil
}

func (s *fakeReviewStore) Delete(_ context.Context, id primitive.ObjectID) error {
	kept := s.reviews[:0]
	for _, r := range s.reviews {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	s.reviews = kept
	return nil
}

func (s *fakeReviewStore) DeleteByClient(_ context.Context, clientID primitive.ObjectID) error {
	kept := s.reviews[:0]
	for _, r := range s.reviews {
		if r.ClientID != clientID {
			kept = append(kept, r)
		}
	}
	s.reviews = kept
	return nil
}

func (s *fakeReviewStore) DeleteByProvider(_ context.Context, providerID primitive.ObjectID) error {
	kept := s.reviews[:0]
	for _, r := range s.reviews {
		if r.ProviderID != providerID {
			kept = append(kept, r)
		}
	}
	s.reviews = kept
	return nil
}

// fakeMessageStore keeps messages in insertion order, which stands in for
// creation time: GetBetween reads forward, GetByParticipant backward.
type fakeMessageStore struct {
	messages []*domain.Message
}

func pairMatch(m *domain.Message, first, second primitive.ObjectID) bool {
	return (m.SenderID == first && m.ReceiverID == second) ||
		(m.SenderID == second && m.ReceiverID == first)
}

func (s *fakeMessageStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Message, error) {
	for _, m := range s.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, nil
}

func (s *fakeMessageStore) GetBetween(_ context.Context, first, second primitive.ObjectID) ([]*domain.Message, error) {
	var out []*domain.Message
	for _, m := range s.messages {
		if pairMatch(m, first, second) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) GetByParticipant(_ context.Context, profileID primitive.ObjectID) ([]*domain.Message, error) {
	var out []*domain.Message
	for i := len(s.messages) - 1; i >= 0; i-- {
		m := s.messages[i]
		if m.SenderID == profileID || m.ReceiverID == profileID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *fakeMessageStore) Create(_ context.Context, message *domain.Message) (*domain.Message, error) {
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	message.CreatedAt = time.Now()
	s.messages = append(s.messages, message)
	return message, nil
}

func (s *fakeMessageStore) Delete(_ context.Context, id primitive.ObjectID) error {
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *fakeMessageStore) DeleteBetween(_ context.Context, first, second primitive.ObjectID) error {
	kept := s.messages[:0]
	for _, m := range s.messages {
		if !pairMatch(m, first, second) {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *fakeMessageStore) DeleteByParticipant(_ context.Context, profileID primitive.ObjectID) error {
	kept := s.messages[:0]
	for _, m := range s.messages {
		if m.SenderID != profileID && m.ReceiverID != profileID {
			kept = append(kept, m)
		}
	}
	s.messages = kept
	return nil
}

func (s *fakeMessageStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.messages)), nil
}

type fakeNotificationStore struct {
	notifications []*domain.Notification
	createErr     error
}

func (s *fakeNotificationStore) Get(_ context.Context, id primitive.ObjectID) (*domain.Notification, error) {
	for _, n := range s.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, nil
}

func (s *fakeNotificationStore) GetByProfile(_ context.Context, profileID primitive.ObjectID) ([]*domain.Notification, error) {
	var out []*domain.Notification
	for _, n := range s.notifications {
		if n.ProfileID == profileID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (s *fakeNotificationStore) Create(_ context.Context, notification *domain.Notification) (*domain.Notification, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if notification.ID.IsZero() {
		notification.ID = primitive.NewObjectID()
	}
	notification.CreatedAt = time.Now()
	s.notifications = append(s.notifications, notification)
	return notification, nil
}

func (s *fakeNotificationStore) MarkRead(_ context.Context, id primitive.ObjectID) error {
	for _, n := range s.notifications {
		if n.ID == id {
			n.Read = true
		}
	}
	return nil
}

func (s *fakeNotificationStore) Delete(_ context.Context, id primitive.ObjectID) error {
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

func (s *fakeNotificationStore) DeleteByProfile(_ context.Context, profileID primitive.ObjectID) error {
	kept := s.notifications[:0]
	for _, n := range s.notifications {
		if n.ProfileID != profileID {
			kept = append(kept, n)
		}
	}
	s.notifications = kept
	return nil
}

type fakeVisitStore struct {
	count  int64
	incErr error
}

func (s *fakeVisitStore) Increment(_ context.Context) error {
	if s.incErr != nil {
		return s.incErr
	}
	s.count++
	return nil
}

func (s *fakeVisitStore) Count(_ context.Context) (int64, error) {
	return s.count, nil
}

type fakeDirectoryCache struct {
	listings      []*domain.ProfileWithServices
	invalidations int
	posts         int
}

func (c *fakeDirectoryCache) Post(_ context.Context, listings []*domain.ProfileWithServices) error {
	c.listings = listings
	c.posts++
	return nil
}

func (c *fakeDirectoryCache) Get(_ context.Context) ([]*domain.ProfileWithServices, error) {
	return c.listings, nil
}

func (c *fakeDirectoryCache) Invalidate(_ context.Context) error {
	c.listings = nil
	c.invalidations++
	return nil
}

type fakeMailer struct {
	sent    []string
	sendErr error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, to)
	return nil
}

func newTestProfileService(
	profiles *fakeProfileStore,
	services *fakeServiceStore,
	reviews *fakeReviewStore,
	messages *fakeMessageStore,
	notifications *fakeNotificationStore,
	cache *fakeDirectoryCache,
) *ProfileService {
	var dc domain.DirectoryCache
	if cache != nil {
		dc = cache
	}
	return NewProfileService(profiles, services, reviews, messages, notifications, dc, testTracer, testLogger())
}
