package cli

import (
	"context"
	"time"

	"github.com/nhle/atlassify/internal/auth"
	"github.com/nhle/atlassify/internal/browser"
	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/notify"
	"github.com/nhle/atlassify/internal/state"
	appsync "github.com/nhle/atlassify/internal/sync"
)

// pipeline is the fetch and reconcile machinery shared by run, watch and
// fetch.
type pipeline struct {
	container *state.Container
	poller    *appsync.Poller
	auth      *auth.Service
}

func (e *env) pipeline(ctx context.Context, bridge notify.Bridge) (*pipeline, error) {
	if err := e.remote(); err != nil {
		return nil, err
	}

	saved, err := e.store.LoadState(ctx)
	if err != nil {
		return nil, err
	}

	svc := e.authService()
	c := state.New(e.client, saved.Settings, state.WithOpener(browser.New()))

	accounts := func() []model.Account {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		list, err := svc.Accounts(ctx)
		if err != nil {
			logging.Logger().WithError(err).Error("loading accounts")
			return nil
		}
		return list
	}

	p := appsync.New(e.client, c, bridge, accounts, e.pollInterval(), e.cfg.API.PageSize)
	return &pipeline{container: c, poller: p, auth: svc}, nil
}

// watchConfig applies poll interval and log changes from the config file
// while the poller runs. A missing config file disables reloading.
func (e *env) watchConfig(p *appsync.Poller, console bool) {
	err := model.WatchConfig(e.cfgPath, func(cfg *model.AppConfig, err error) {
		if err != nil {
			logging.Logger().WithError(err).Warn("config reload failed")
			return
		}
		if err := logging.Init(cfg.Log, console); err != nil {
			logging.Logger().WithError(err).Warn("reconfiguring logging")
		}
		p.SetInterval(time.Duration(cfg.Poll.IntervalSec) * time.Second)
		e.cfg.Poll = cfg.Poll
		logging.Logger().WithField("interval_sec", cfg.Poll.IntervalSec).Info("config reloaded")
	})
	if err != nil {
		logging.Logger().WithError(err).Debug("config watching disabled")
	}
}
