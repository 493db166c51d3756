package access

import (
	"context"

	"cdp/core"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
)

// Service authorizer backed by the configured admin list and the stored
// owner -> delegate grants
type Service struct {
	admins      []string
	delegations core.DelegationStore
}

// New new access service
func New(admins []string, delegations core.DelegationStore) *Service {
	return &Service{
		admins:      admins,
		delegations: delegations,
	}
}

// IsAdmin check if the user is admin
func (s *Service) IsAdmin(userID string) bool {
	return userID != "" && govalidator.IsIn(userID, s.admins...)
}

// Delegate lets delegate withdraw and borrow on owner's vaults
func (s *Service) Delegate(ctx context.Context, owner, delegate string) error {
	if owner == "" || delegate == "" || owner == delegate {
		return core.ErrInvalidParameter
	}

	if err := s.delegations.Grant(ctx, owner, delegate); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("delegations.Grant")
		return err
	}

	return nil
}

// Revoke removes a grant made by Delegate
func (s *Service) Revoke(ctx context.Context, owner, delegate string) error {
	if err := s.delegations.Revoke(ctx, owner, delegate); err != nil {
		logger.FromContext(ctx).WithError(err).Errorln("delegations.Revoke")
		return err
	}

	return nil
}

// Delegates grants made by owner
func (s *Service) Delegates(ctx context.Context, owner string) ([]*core.Delegation, error) {
	return s.delegations.ListByOwner(ctx, owner)
}

// Authorize implements core.Authorizer. A failed grant lookup denies.
func (s *Service) Authorize(ctx context.Context, caller string, action core.Action, owner string) bool {
	if caller == "" {
		return false
	}

	switch action {
	case core.ActionWithdraw, core.ActionBorrow:
		if caller == owner {
			return true
		}

		granted, err := s.delegations.Granted(ctx, owner, caller)
		if err != nil {
			logger.FromContext(ctx).WithError(err).Errorln("delegations.Granted")
			return false
		}

		return granted
	case core.ActionManageCollateral, core.ActionPause, core.ActionCollectIncome:
		return s.IsAdmin(caller)
	}

	return false
}
