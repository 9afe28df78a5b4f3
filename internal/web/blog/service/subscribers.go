package service

import (
	"context"
	"strings"
	"time"

	gutils "github.com/Laisky/go-utils/v6"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"

	"github.com/Laisky/envo-blog/internal/web/blog/dao"
	"github.com/Laisky/envo-blog/internal/web/blog/model"
	"github.com/Laisky/envo-blog/library/db/docstore"
	"github.com/Laisky/envo-blog/library/log"
)

// CSVHeader is the first line of a subscriber export.
const CSVHeader = "Email,Subscription Date"

// SubscriberService is the typed subscriber repository.
type SubscriberService struct {
	dao    *dao.Blog
	logger logSDK.Logger
	now    func() time.Time
}

// NewSubscriberService creates a subscriber repository over d.
func NewSubscriberService(logger logSDK.Logger, d *dao.Blog) *SubscriberService {
	if logger == nil {
		logger = log.Logger.Named("subscriber_service")
	}

	return &SubscriberService{
		dao:    d,
		logger: logger,
		now:    gutils.Clock.GetUTCNow,
	}
}

// Add subscribes email, trimmed of surrounding whitespace.
// It returns model.ErrDuplicateEmail when the email already has a subscription.
// The existence check and the insert are one atomic store operation.
func (s *SubscriberService) Add(ctx context.Context, email string) (*model.Subscriber, error) {
	email, err := SanitizeEmail(email)
	if err != nil {
		return nil, err
	}

	sub := &model.Subscriber{
		Subscription: model.Subscription{
			Email:        email,
			SubscribedAt: model.FormatTime(s.now()),
		},
	}
	if sub.ID, err = s.dao.InsertSubscriber(ctx, &sub.Subscription); err != nil {
		return nil, err
	}

	s.logger.Info("new subscriber", zap.String("id", sub.ID))
	return sub, nil
}

// ListAll returns every subscriber, newest first.
func (s *SubscriberService) ListAll(ctx context.Context) ([]*model.Subscriber, error) {
	return s.dao.ListSubscribers(ctx, docstore.Query{}.OrderByDesc("subscribedAt"))
}

// DeleteByID removes one subscriber without checking that it exists.
func (s *SubscriberService) DeleteByID(ctx context.Context, id string) error {
	if err := s.dao.RemoveSubscriber(ctx, id); err != nil {
		return err
	}

	s.logger.Info("delete subscriber", zap.String("id", id))
	return nil
}

// ExportCSV renders subscribers as "email,YYYY-MM-DD" rows under CSVHeader, joined with "\n".
// Values are not escaped. A subscribedAt that does not parse is written as is.
func ExportCSV(subscribers []*model.Subscriber) []byte {
	rows := make([]string, 0, len(subscribers)+1)
	rows = append(rows, CSVHeader)
	for _, sub := range subscribers {
		date := sub.SubscribedAt
		if t, err := model.ParseTime(sub.SubscribedAt); err == nil {
			date = t.Format(model.DateLayout)
		}

		rows = append(rows, sub.Email+","+date)
	}

	return []byte(strings.Join(rows, "\n"))
}

// ExportFilename names the export written on day now.
func ExportFilename(now time.Time) string {
	return "subscriptions-" + now.UTC().Format(model.DateLayout) + ".csv"
}

// Export loads every subscriber and renders them with ExportCSV.
// It returns the file name and content.
func (s *SubscriberService) Export(ctx context.Context) (string, []byte, error) {
	subs, err := s.ListAll(ctx)
	if err != nil {
		return "", nil, err
	}

	return ExportFilename(s.now()), ExportCSV(subs), nil
}
