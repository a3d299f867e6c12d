package sync

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/iter"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notification"
	"github.com/nhle/atlassify/internal/source/atlassian"
)

// Fetcher retrieves one account's notification feed.
// *atlassian.Client satisfies it.
type Fetcher interface {
	FetchNotifications(
		ctx context.Context,
		account model.Account,
		opts atlassian.FetchOptions,
	) (*atlassian.FeedResult, error)
}

// FetchAll fetches every account concurrently and returns once all of
// them have finished, in account order. Failures are recorded on the
// account's entry; FetchAll itself never fails.
func FetchAll(
	ctx context.Context,
	f Fetcher,
	accounts []model.Account,
	settings model.Settings,
	pageSize int,
) []model.AccountNotifications {
	opts := atlassian.FetchOptionsFor(settings, pageSize)

	return iter.Map(accounts, func(account *model.Account) model.AccountNotifications {
		return fetchAccount(ctx, f, *account, opts)
	})
}

func fetchAccount(
	ctx context.Context,
	f Fetcher,
	account model.Account,
	opts atlassian.FetchOptions,
) model.AccountNotifications {
	log := logging.WithAccount(account)

	result, err := f.FetchNotifications(ctx, account, opts)
	if err != nil {
		log.WithFields(logrus.Fields{
			"error_type": atlassian.Classify(err),
		}).WithError(err).Warn("fetch failed")
		return model.AccountNotifications{Account: account, Error: err}
	}

	out := notification.ToAccountNotifications(account, result, opts.UnreadOnly)
	log.WithFields(logrus.Fields{
		"notifications": len(out.Notifications),
		"has_more":      out.HasMoreNotifications,
	}).Debug("fetched notifications")
	return out
}

// GlobalError returns the shared error type when every account failed
// with the same classification, and "" otherwise.
func GlobalError(results []model.AccountNotifications) atlassian.ErrorType {
	if len(results) == 0 {
		return ""
	}

	first := atlassian.Classify(results[0].Error)
	if first == "" {
		return ""
	}
	for _, r := range results[1:] {
		if atlassian.Classify(r.Error) != first {
			return ""
		}
	}
	return first
}

// AuthFailures returns the accounts whose credentials were rejected.
func AuthFailures(results []model.AccountNotifications) []model.Account {
	var out []model.Account
	for _, r := range results {
		if atlassian.IsAuthError(r.Error) {
			out = append(out, r.Account)
		}
	}
	return out
}
