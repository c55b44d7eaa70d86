package session

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/foomo/ophelia-mcp/storage"
	"go.uber.org/zap"
)

var (
	tokenParams  = []string{"token", "auth_token", "cms_jwt"}
	userIDParams = []string{"user_id", "tg_user_id", "telegram_user_id"}
)

// Capture persists an auth token or legacy user id found in the query string
// of rawURL and returns the URL with those parameters removed.
//
// A token switches the session to the bearer scheme and purges the legacy id
// keys. A user id is written to every legacy id key. Recognized parameters are
// stripped even when their value is unusable.
func Capture(ctx context.Context, l *zap.Logger, kv storage.KeyValue, rawURL string) (string, error) {
	if l == nil {
		l = zap.NewNop()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse landing url: %w", err)
	}
	query := u.Query()

	token := firstParam(query, tokenParams)
	userID, hasUserID := parseUserID(firstParam(query, userIDParams))

	changed := false
	for _, name := range append(append([]string{}, tokenParams...), userIDParams...) {
		if query.Has(name) {
			query.Del(name)
			changed = true
		}
	}

	switch {
	case token != "":
		if err := kv.Set(ctx, storage.KeyCMSToken, token); err != nil {
			return "", err
		}
		if err := kv.Remove(ctx, storage.UserIDKeys...); err != nil {
			return "", err
		}
		l.Info("captured auth token from landing url")
	case hasUserID:
		value := strconv.FormatInt(userID, 10)
		for _, key := range storage.UserIDKeys {
			if err := kv.Set(ctx, key, value); err != nil {
				return "", err
			}
		}
		l.Info("captured legacy user id from landing url", zap.Int64("userID", userID))
	}

	if !changed {
		return rawURL, nil
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

func firstParam(query url.Values, names []string) string {
	for _, name := range names {
		if value := strings.TrimSpace(query.Get(name)); value != "" {
			return value
		}
	}
	return ""
}
