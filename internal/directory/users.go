// Package directory resolves partner display info and listing titles for inbox rows.
package directory

import (
	"context"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/shinyyama/marketplace-inbox/internal/service"
)

// UnknownUserName is shown for partners whose account no longer exists.
const UnknownUserName = "Unknown user"

type userGetter interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

// FirebaseUsers looks partners up in Firebase Authentication.
type FirebaseUsers struct {
	client     userGetter
	isNotFound func(error) bool
}

func NewFirebaseUsers(client *auth.Client) *FirebaseUsers {
	return &FirebaseUsers{client: client, isNotFound: auth.IsUserNotFound}
}

// DisplayInfo returns a placeholder for deleted accounts. Other lookup errors are returned.
func (u *FirebaseUsers) DisplayInfo(ctx context.Context, uid string) (service.DisplayInfo, error) {
	rec, err := u.client.GetUser(ctx, uid)
	if err != nil {
		if u.isNotFound(err) {
			return service.DisplayInfo{Name: UnknownUserName}, nil
		}
		return service.DisplayInfo{}, err
	}
	if rec == nil || rec.UserInfo == nil {
		return service.DisplayInfo{Name: UnknownUserName}, nil
	}
	name := rec.DisplayName
	if name == "" {
		name = UnknownUserName
	}
	return service.DisplayInfo{Name: name, AvatarURL: strPtrOrNil(rec.PhotoURL)}, nil
}

// PlaceholderUsers serves local development without Firebase: the uid doubles as the name.
type PlaceholderUsers struct{}

func (PlaceholderUsers) DisplayInfo(ctx context.Context, uid string) (service.DisplayInfo, error) {
	if uid == "" {
		return service.DisplayInfo{Name: UnknownUserName}, nil
	}
	return service.DisplayInfo{Name: uid}, nil
}

// CachedUsers memoizes successful lookups for ttl. Errors are never cached.
type CachedUsers struct {
	next  service.UserDirectory
	cache *expirable.LRU[string, service.DisplayInfo]
}

func NewCachedUsers(next service.UserDirectory, size int, ttl time.Duration) *CachedUsers {
	if size < 1 {
		size = 1
	}
	return &CachedUsers{
		next:  next,
		cache: expirable.NewLRU[string, service.DisplayInfo](size, nil, ttl),
	}
}

func (c *CachedUsers) DisplayInfo(ctx context.Context, uid string) (service.DisplayInfo, error) {
	if info, ok := c.cache.Get(uid); ok {
		return info, nil
	}
	info, err := c.next.DisplayInfo(ctx, uid)
	if err != nil {
		return service.DisplayInfo{}, err
	}
	c.cache.Add(uid, info)
	return info, nil
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
