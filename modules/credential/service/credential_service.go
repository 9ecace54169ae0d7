package service

import (
	"context"
	"strconv"
	"time"

	"leadbook/core/cache"
	"leadbook/core/constants"
	"leadbook/core/crypto"
	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/modules/credential/dto"
)

// CredentialService owns the per-visitor provider credential record: an
// opaque access token plus an expiry instant, stored under two fixed keys
// that are always written and cleared together.
type CredentialService interface {
	// GetValidToken returns the stored token only when both fields are
	// present and unexpired. An expired-but-present record yields no token
	// and relinkRequired=true; it is not deleted here. Removal happens
	// lazily via Clear once an authenticated call is actually rejected.
	GetValidToken(ctx context.Context, visitorID string) (token string, relinkRequired bool, appErr *errors.AppError)
	// StoreToken persists the token and now+ttlSeconds as its expiry.
	StoreToken(ctx context.Context, visitorID, accessToken string, ttlSeconds int) *errors.AppError
	// Clear removes both fields; explicit disconnect and forced logout
	// after a provider 401 both land here.
	Clear(ctx context.Context, visitorID string) *errors.AppError
	Status(ctx context.Context, visitorID string) (*dto.LinkStatusResponse, *errors.AppError)
}

type credentialService struct {
	cache  cache.Cache
	sealer *crypto.Sealer
	now    func() time.Time
}

func NewCredentialService(c cache.Cache, sealer *crypto.Sealer) CredentialService {
	return &credentialService{cache: c, sealer: sealer, now: time.Now}
}

func (s *credentialService) tokenKey(visitorID string) string {
	return constants.CredentialTokenKeyPrefix + visitorID
}

func (s *credentialService) expiryKey(visitorID string) string {
	return constants.CredentialExpiryKeyPrefix + visitorID
}

func (s *credentialService) GetValidToken(ctx context.Context, visitorID string) (string, bool, *errors.AppError) {
	sealed, err := s.cache.Get(ctx, s.tokenKey(visitorID))
	if err == cache.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		logger.Error("CredentialService:GetValidToken:Cache:Error", "error", err, "visitor_id", visitorID)
		return "", false, errors.NewAppError(errors.ErrInternalServer, "credential store unavailable", err)
	}

	expiryRaw, err := s.cache.Get(ctx, s.expiryKey(visitorID))
	if err == cache.ErrNotFound {
		// Half a record counts as no record.
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.NewAppError(errors.ErrInternalServer, "credential store unavailable", err)
	}

	expiresAt, convErr := strconv.ParseInt(expiryRaw, 10, 64)
	if convErr != nil {
		logger.Warn("CredentialService:GetValidToken:BadExpiry", "visitor_id", visitorID, "raw", expiryRaw)
		return "", false, nil
	}

	if s.now().UnixMilli() >= expiresAt {
		logger.Info("CredentialService:GetValidToken:Expired", "visitor_id", visitorID)
		return "", true, nil
	}

	token, openErr := s.sealer.Open(sealed)
	if openErr != nil {
		logger.Error("CredentialService:GetValidToken:Unseal:Error", "error", openErr, "visitor_id", visitorID)
		return "", false, errors.NewAppError(errors.ErrInternalServer, "failed to read credential", openErr)
	}
	return token, false, nil
}

func (s *credentialService) StoreToken(ctx context.Context, visitorID, accessToken string, ttlSeconds int) *errors.AppError {
	if ttlSeconds <= 0 {
		ttlSeconds = constants.DefaultTokenTTLSeconds
	}
	expiresAt := s.now().Add(time.Duration(ttlSeconds) * time.Second).UnixMilli()

	sealed, err := s.sealer.Seal(accessToken)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to seal credential", err)
	}

	// Keys are retained well past token expiry so expiry can be observed
	// and surfaced as relink_required instead of silently vanishing.
	if err := s.cache.Set(ctx, s.tokenKey(visitorID), sealed, constants.VisitorTokenTTL); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store credential", err)
	}
	if err := s.cache.Set(ctx, s.expiryKey(visitorID), strconv.FormatInt(expiresAt, 10), constants.VisitorTokenTTL); err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to store credential expiry", err)
	}

	logger.Info("CredentialService:StoreToken:Success", "visitor_id", visitorID, "ttl_seconds", ttlSeconds)
	return nil
}

func (s *credentialService) Clear(ctx context.Context, visitorID string) *errors.AppError {
	if err := s.cache.Del(ctx, s.tokenKey(visitorID), s.expiryKey(visitorID)); err != nil {
		logger.Error("CredentialService:Clear:Error", "error", err, "visitor_id", visitorID)
		return errors.NewAppError(errors.ErrInternalServer, "failed to clear credential", err)
	}
	logger.Info("CredentialService:Clear:Success", "visitor_id", visitorID)
	return nil
}

func (s *credentialService) Status(ctx context.Context, visitorID string) (*dto.LinkStatusResponse, *errors.AppError) {
	token, relinkRequired, appErr := s.GetValidToken(ctx, visitorID)
	if appErr != nil {
		return nil, appErr
	}
	return &dto.LinkStatusResponse{
		Linked:         token != "",
		RelinkRequired: relinkRequired,
	}, nil
}
