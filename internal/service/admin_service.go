package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/iliyamo/freefire-tournaments/internal/logger"
	"github.com/iliyamo/freefire-tournaments/internal/model"
)

// AdminService is the user management surface for admins.
type AdminService struct {
	users UserStore
	log   *zap.Logger
	clock Clock
}

func NewAdminService(users UserStore, log *zap.Logger) *AdminService {
	if users == nil {
		panic("nil user store passed to NewAdminService")
	}
	return &AdminService{users: users, log: logger.OrNop(log)}
}

// UserPage is one page of accounts.
type UserPage struct {
	Users    []model.User `json:"users"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// UserPatch changes selected fields; nil keeps the stored value.
type UserPatch struct {
	Username      *string          `json:"username"`
	FullName      *string          `json:"full_name"`
	WalletBalance *decimal.Decimal `json:"wallet_balance"`
	IsVerified    *bool            `json:"is_verified"`
	IsAdmin       *bool            `json:"is_admin"`
}

func (s *AdminService) ListUsers(ctx context.Context, page, pageSize int) (UserPage, error) {
	page, size, err := pageBounds(page, pageSize)
	if err != nil {
		return UserPage{}, err
	}
	users, total, err := s.users.List(ctx, page, size)
	if err != nil {
		return UserPage{}, err
	}
	return UserPage{Users: users, Total: total, Page: page, PageSize: size}, nil
}

// UpdateUser applies p. The wallet balance can never become negative.
func (s *AdminService) UpdateUser(ctx context.Context, id string, p UserPatch) (model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return model.User{}, fromStore(err, "user")
	}
	if p.Username != nil {
		name := strings.TrimSpace(*p.Username)
		if !usernamePattern.MatchString(name) {
			return model.User{}, invalid("username must be 3-32 letters, digits or underscores")
		}
		u.Username = name
	}
	if p.FullName != nil {
		u.FullName = strings.TrimSpace(*p.FullName)
	}
	if p.WalletBalance != nil {
		if p.WalletBalance.IsNegative() {
			return model.User{}, invalid("wallet_balance must not be negative")
		}
		u.WalletBalance = *p.WalletBalance
	}
	if p.IsVerified != nil {
		u.IsVerified = *p.IsVerified
	}
	if p.IsAdmin != nil {
		u.IsAdmin = *p.IsAdmin
	}
	u.UpdatedAt = s.clock.now()
	if err := s.users.Update(ctx, u); err != nil {
		return model.User{}, fromStore(err, "user")
	}
	s.log.Info("user updated by admin", zap.String("user_id", id))
	return u, nil
}

// DeleteUser removes a non-admin account together with its registrations,
// payments and leaderboard rows. Tournament counters are left as they are.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fromStore(err, "user")
	}
	if u.IsAdmin {
		return newError(ErrForbidden, "admin accounts cannot be deleted")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fromStore(err, "user")
	}
	s.log.Info("user deleted by admin", zap.String("user_id", id))
	return nil
}
