// Package auth manages logged-in accounts: login, logout and refreshing
// profile details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/atlassify/internal/logging"
	"github.com/nhle/atlassify/internal/model"
	"github.com/nhle/atlassify/internal/source/atlassian"
	"github.com/nhle/atlassify/internal/store"
)

// ErrAccountNotFound is returned when an account ID is not logged in.
var ErrAccountNotFound = errors.New("account not found")

// Vault stores API tokens at rest.
type Vault interface {
	Encrypt(plain string) (string, error)
	Forget(ref string) error
}

// UserFetcher resolves the user behind an account's credentials.
type UserFetcher interface {
	Me(ctx context.Context, account model.Account) (*atlassian.MeUser, error)
}

// Service owns the persisted account list.
type Service struct {
	store store.Store
	vault Vault
	users UserFetcher
}

// NewService creates a Service.
func NewService(s store.Store, v Vault, users UserFetcher) *Service {
	return &Service{store: s, vault: v, users: users}
}

// Accounts returns the logged-in accounts.
func (s *Service) Accounts(ctx context.Context) ([]model.Account, error) {
	state, err := s.store.LoadState(ctx)
	if err != nil {
		return nil, err
	}
	return state.Auth.Accounts, nil
}

// Login validates username and token against the API and stores the
// account. Logging in again with the same Atlassian user replaces the
// earlier entry and its token.
func (s *Service) Login(ctx context.Context, username, token string) (model.Account, error) {
	username = strings.TrimSpace(username)
	token = strings.TrimSpace(token)
	if username == "" || token == "" {
		return model.Account{}, fmt.Errorf("username and token are required")
	}

	ref, err := s.vault.Encrypt(token)
	if err != nil {
		return model.Account{}, err
	}

	account := model.Account{Username: username, EncryptedToken: ref}
	me, err := s.users.Me(ctx, account)
	if err != nil {
		s.forget(account, ref)
		return model.Account{}, fmt.Errorf("validating credentials: %w", err)
	}
	account.ID = me.AccountID
	account.DisplayName = me.Name
	account.AvatarURL = me.Picture

	var replaced []string
	_, err = store.Update(ctx, s.store, func(st *store.State) error {
		accounts := make([]model.Account, 0, len(st.Auth.Accounts)+1)
		for _, a := range st.Auth.Accounts {
			if a.ID == account.ID {
				replaced = append(replaced, a.EncryptedToken)
				continue
			}
			accounts = append(accounts, a)
		}
		st.Auth.Accounts = append(accounts, account)
		return nil
	})
	if err != nil {
		s.forget(account, ref)
		return model.Account{}, fmt.Errorf("saving account: %w", err)
	}

	for _, old := range replaced {
		s.forget(account, old)
	}

	logging.WithAccount(account).Info("logged in")
	return account, nil
}

// Logout removes the account and deletes its token.
func (s *Service) Logout(ctx context.Context, accountID string) (model.Account, error) {
	var removed model.Account
	_, err := store.Update(ctx, s.store, func(st *store.State) error {
		account, ok := st.Auth.FindAccount(accountID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
		}
		removed = account

		accounts := make([]model.Account, 0, len(st.Auth.Accounts))
		for _, a := range st.Auth.Accounts {
			if a.ID != accountID {
				accounts = append(accounts, a)
			}
		}
		st.Auth.Accounts = accounts
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}

	s.forget(removed, removed.EncryptedToken)
	logging.WithAccount(removed).Info("logged out")
	return removed, nil
}

// RefreshAccounts re-reads the display name and avatar of every account.
// Accounts that fail to refresh keep their stored details.
func (s *Service) RefreshAccounts(ctx context.Context) ([]model.Account, error) {
	state, err := store.Update(ctx, s.store, func(st *store.State) error {
		for i, a := range st.Auth.Accounts {
			me, err := s.users.Me(ctx, a)
			if err != nil {
				logging.WithAccount(a).
					WithField("error_type", atlassian.Classify(err)).
					WithError(err).
					Warn("refreshing account failed")
				continue
			}
			st.Auth.Accounts[i].DisplayName = me.Name
			st.Auth.Accounts[i].AvatarURL = me.Picture
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state.Auth.Accounts, nil
}

func (s *Service) forget(account model.Account, ref string) {
	if ref == "" {
		return
	}
	if err := s.vault.Forget(ref); err != nil {
		logging.WithAccount(account).WithError(err).Warn("deleting credential failed")
	}
}
