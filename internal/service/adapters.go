package service

import (
	"context"
	"fmt"

	"chatlobby/internal/domain"
	"chatlobby/internal/notify"
	"chatlobby/internal/repository"
	"chatlobby/internal/ws"
)

// UserDirectory answers per-user lookups the notification pipeline needs:
// permission state for the manager and FCM tokens for the worker.
type UserDirectory struct {
	users *repository.UserRepository
}

func NewUserDirectory(users *repository.UserRepository) *UserDirectory {
	return &UserDirectory{users: users}
}

func (d *UserDirectory) Permission(userID uint) string {
	u, err := d.users.GetByID(userID)
	if err != nil || u == nil {
		return domain.PermissionDefault
	}
	return u.Permission
}

func (d *UserDirectory) FCMToken(userID uint) (string, error) {
	u, err := d.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if u == nil || u.FCMToken == "" {
		return "", fmt.Errorf("no fcm token for user %d", userID)
	}
	return u.FCMToken, nil
}

// PageDisplayer is the fallback display path used while the worker is not
// ready: the page is told to raise a native platform notification. This is
// not the in-app banner path, so it must not reuse the banner frame type;
// users who turned banners off still get these.
type PageDisplayer struct {
	hub *ws.Hub
}

func NewPageDisplayer(hub *ws.Hub) *PageDisplayer {
	return &PageDisplayer{hub: hub}
}

func (p *PageDisplayer) Display(ctx context.Context, req *notify.Request, opts *notify.Options) error {
	if !p.hub.IsOnline(req.UserID) {
		return fmt.Errorf("user %d has no open page", req.UserID)
	}
	p.hub.SendToUser(req.UserID, map[string]interface{}{
		"type":         domain.MsgShowNative,
		"notification": opts,
		"title":        req.Title,
	})
	return nil
}
