package session

import (
	"context"
	"strconv"
	"strings"

	"github.com/foomo/ophelia-mcp/service"
	"github.com/foomo/ophelia-mcp/storage"
)

// LoadCredential resolves the credential persisted in kv. Bearer token keys are
// consulted before the legacy numeric id keys; the first usable value wins.
func LoadCredential(ctx context.Context, kv storage.KeyValue) (service.Credential, error) {
	for _, key := range storage.TokenKeys {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil {
			return service.Credential{}, err
		}
		if token := strings.TrimSpace(raw); ok && token != "" {
			return service.BearerCredential(token), nil
		}
	}
	for _, key := range storage.UserIDKeys {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil {
			return service.Credential{}, err
		}
		if !ok {
			continue
		}
		if userID, ok := parseUserID(raw); ok {
			return service.UserIDCredential(userID), nil
		}
	}
	return service.Credential{}, nil
}

// LoadAPIBase returns the stored API origin override, or fallback.
func LoadAPIBase(ctx context.Context, kv storage.KeyValue, fallback string) (string, error) {
	raw, ok, err := kv.Get(ctx, storage.KeyAPIBase)
	if err != nil {
		return "", err
	}
	if override := strings.TrimRight(strings.TrimSpace(raw), "/"); ok && override != "" {
		return override, nil
	}
	return strings.TrimRight(strings.TrimSpace(fallback), "/"), nil
}

// parseUserID accepts positive integers only.
func parseUserID(raw string) (int64, bool) {
	userID, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}
