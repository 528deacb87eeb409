// Package directory resolves opaque Slack identifiers into human-readable
// names and back.
//
// Slack has no server-side name→ID query, so a miss on a name lookup
// triggers one bulk fetch of the whole directory and repopulates every
// mapping table in a single pass. Entries are never evicted.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	slackgo "github.com/slack-go/slack"

	"github.com/slackbridge/slackbridge/internal/bus"
)

var (
	// ErrNotFound means a name or ID is still unknown after a refresh.
	ErrNotFound = errors.New("not found")
	// ErrMalformedRecord means an upstream record is missing its
	// identity field and cannot be indexed.
	ErrMalformedRecord = errors.New("malformed record")
)

// IMName is the synthetic display name given to direct-message channels.
const IMName = "IM"

// Directory is the identifier cache. All lookups share one mutex so that
// the read-check-then-populate sequence on a miss is a single critical
// section: two goroutines racing the same unknown name must not both pay
// for a bulk fetch.
type Directory struct {
	client Client

	mu        sync.Mutex
	userName  map[string]string // user ID → display name
	userEmail map[string]string // user ID → email
	userID    map[string]string // display name → user ID
	chanName  map[string]string // channel ID → display name
	chanKind  map[string]bus.ChannelType
	chanID    map[string]string // display name → channel ID
}

// New creates an empty Directory backed by client.
func New(client Client) *Directory {
	return &Directory{
		client:    client,
		userName:  make(map[string]string),
		userEmail: make(map[string]string),
		userID:    make(map[string]string),
		chanName:  make(map[string]string),
		chanKind:  make(map[string]bus.ChannelType),
		chanID:    make(map[string]string),
	}
}

// ResolveUser returns the display name and email for a user ID, fetching
// the single user on a cache miss. Email may be empty.
func (d *Directory) ResolveUser(ctx context.Context, id string) (name, email string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.resolveUserLocked(ctx, id)
}

func (d *Directory) resolveUserLocked(ctx context.Context, id string) (string, string, error) {
	if name, ok := d.userName[id]; ok {
		return name, d.userEmail[id], nil
	}

	user, err := d.client.GetUserInfoContext(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("fetch user %s: %w", id, err)
	}
	d.indexUserLocked(*user)
	return d.userName[id], d.userEmail[id], nil
}

// ResolveUserID returns the user ID for a display name. On a miss it bulk
// fetches all users, repopulates the user tables, and rechecks; a name
// still absent after the refresh is ErrNotFound.
func (d *Directory) ResolveUserID(ctx context.Context, name string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.userID[name]; ok {
		return id, nil
	}

	users, err := d.client.GetUsersContext(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch users: %w", err)
	}
	for _, u := range users {
		if u.ID == "" {
			return "", fmt.Errorf("user record %q has no ID: %w", u.Name, ErrMalformedRecord)
		}
		d.indexUserLocked(u)
	}

	if id, ok := d.userID[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("user %q: %w", name, ErrNotFound)
}

// ResolveChannel returns the display name and kind for a channel ID,
// fetching the channel on a cache miss. Direct channels are named IMName
// and additionally indexed under the counterpart user's display name, so
// the DM can later be addressed by that name.
func (d *Directory) ResolveChannel(ctx context.Context, id string) (string, bus.ChannelType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if name, ok := d.chanName[id]; ok {
		return name, d.chanKind[id], nil
	}

	ch, err := d.client.GetConversationInfoContext(ctx, &slackgo.GetConversationInfoInput{
		ChannelID: id,
	})
	if err != nil {
		return "", "", fmt.Errorf("fetch channel %s: %w", id, err)
	}

	kind := classify(*ch)
	name := ch.Name
	if kind == bus.ChannelDirect {
		name = IMName
		if ch.User != "" {
			if other, _, err := d.resolveUserLocked(ctx, ch.User); err == nil {
				d.chanID[other] = id
			}
		}
	}
	d.chanName[id] = name
	d.chanKind[id] = kind
	if name != "" && name != IMName {
		d.chanID[name] = id
	}
	return name, kind, nil
}

// ResolveChannelID returns the channel ID for a display name. A tagged
// literal of the form <#C123|general> (or <#C123>) short-circuits to the
// embedded ID without any lookup. Otherwise a miss triggers one bulk
// fetch of all conversations before rechecking.
func (d *Directory) ResolveChannelID(ctx context.Context, name string) (string, error) {
	if id, ok := taggedChannelID(name); ok {
		return id, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.chanID[name]; ok {
		return id, nil
	}

	if err := d.refreshChannelsLocked(ctx); err != nil {
		return "", err
	}

	if id, ok := d.chanID[name]; ok {
		return id, nil
	}
	return "", fmt.Errorf("channel %q: %w", name, ErrNotFound)
}

// refreshChannelsLocked bulk fetches every conversation visible to the
// bot and rebuilds the channel tables, following pagination cursors.
func (d *Directory) refreshChannelsLocked(ctx context.Context) error {
	params := &slackgo.GetConversationsParameters{
		Types: []string{"public_channel", "private_channel", "mpim", "im"},
		Limit: 200,
	}
	for {
		channels, cursor, err := d.client.GetConversationsContext(ctx, params)
		if err != nil {
			return fmt.Errorf("fetch channels: %w", err)
		}
		for _, ch := range channels {
			kind := classify(ch)
			name := ch.Name
			if kind == bus.ChannelDirect {
				name = IMName
			}
			d.chanName[ch.ID] = name
			d.chanKind[ch.ID] = kind
			if name != "" && name != IMName {
				d.chanID[name] = ch.ID
			}
		}
		if cursor == "" {
			return nil
		}
		params.Cursor = cursor
	}
}

// indexUserLocked stores all directional mappings for one user record.
// Display name prefers the normalized real name and falls back to the
// raw handle.
func (d *Directory) indexUserLocked(u slackgo.User) {
	name := u.Profile.RealNameNormalized
	if name == "" {
		name = u.Name
	}
	d.userName[u.ID] = name
	d.userEmail[u.ID] = u.Profile.Email
	if name != "" {
		d.userID[name] = u.ID
	}
}

// classify maps a conversation onto the canonical channel kinds.
// Precedence: direct > private > public; the IM flag wins over the
// private flag.
func classify(ch slackgo.Channel) bus.ChannelType {
	switch {
	case ch.IsIM:
		return bus.ChannelDirect
	case ch.IsPrivate || ch.IsGroup || ch.IsMpIM:
		return bus.ChannelPrivate
	default:
		return bus.ChannelPublic
	}
}

// taggedChannelID extracts the raw ID from a <#C123|label> style literal.
func taggedChannelID(name string) (string, bool) {
	if !strings.HasPrefix(name, "<#") || !strings.HasSuffix(name, ">") {
		return "", false
	}
	inner := name[2 : len(name)-1]
	if i := strings.IndexByte(inner, '|'); i >= 0 {
		inner = inner[:i]
	}
	if inner == "" {
		return "", false
	}
	return inner, true
}
