package service

import (
	"context"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"leadbook/core/constants"
	"leadbook/core/errors"
	"leadbook/core/logger"
	"leadbook/core/utils"
	"leadbook/modules/credential/dto"
	"leadbook/modules/credential/repository"
)

const calendarScope = "https://www.googleapis.com/auth/calendar"

// OAuthService drives the delegated consent flow as an explicit two-phase
// operation: BeginLink hands out the provider URL, CompleteLink receives
// the redirect. Nothing here assumes synchronous completion.
type OAuthService interface {
	BeginLink(ctx context.Context, visitorID string) (*dto.BeginLinkResponse, *errors.AppError)
	CompleteLink(ctx context.Context, state, code string) *errors.AppError
}

type oauthService struct {
	conf       *oauth2.Config
	states     repository.OAuthStateRepository
	credential CredentialService
	now        func() time.Time
}

type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// Endpoint overrides google.Endpoint; tests point it at httptest.
	Endpoint *oauth2.Endpoint
}

func NewOAuthService(cfg OAuthConfig, states repository.OAuthStateRepository, credential CredentialService) OAuthService {
	endpoint := google.Endpoint
	if cfg.Endpoint != nil {
		endpoint = *cfg.Endpoint
	}
	return &oauthService{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{calendarScope},
			Endpoint:     endpoint,
		},
		states:     states,
		credential: credential,
		now:        time.Now,
	}
}

func (s *oauthService) BeginLink(ctx context.Context, visitorID string) (*dto.BeginLinkResponse, *errors.AppError) {
	state := utils.GenerateStateToken()
	expiresAt := s.now().Add(constants.OAuthStateTTL)

	if err := s.states.Save(ctx, state, visitorID, expiresAt); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "failed to persist consent state", err)
	}

	url := s.conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
	logger.Info("OAuthService:BeginLink:Success", "visitor_id", visitorID)
	return &dto.BeginLinkResponse{URL: url, State: state}, nil
}

func (s *oauthService) CompleteLink(ctx context.Context, state, code string) *errors.AppError {
	record, err := s.states.Get(ctx, state)
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "failed to load consent state", err)
	}
	if record == nil {
		return errors.NewAppError(errors.ErrInvalidInput, "unknown or expired consent state", nil)
	}

	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		logger.Error("OAuthService:CompleteLink:Exchange:Error", "error", err, "visitor_id", record.VisitorID)
		return errors.NewAppError(errors.ErrUnauthorized, "provider rejected the authorization code", err)
	}

	ttlSeconds := constants.DefaultTokenTTLSeconds
	if !token.Expiry.IsZero() {
		if remaining := int(time.Until(token.Expiry).Seconds()); remaining > 0 {
			ttlSeconds = remaining
		}
	}

	if appErr := s.credential.StoreToken(ctx, record.VisitorID, token.AccessToken, ttlSeconds); appErr != nil {
		return appErr
	}

	// Single use; a replayed state must not mint another credential.
	if err := s.states.Delete(ctx, state); err != nil {
		logger.Warn("OAuthService:CompleteLink:DeleteState:Error", "error", err, "state", state)
	}

	logger.Info("OAuthService:CompleteLink:Success", "visitor_id", record.VisitorID)
	return nil
}
