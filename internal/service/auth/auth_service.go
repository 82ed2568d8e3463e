package auth

import (
	"context"
	"fmt"

	"github.com/ougirez/welfare-portal/internal/domain/dto"
	"github.com/ougirez/welfare-portal/internal/pkg/logger"
	"github.com/ougirez/welfare-portal/internal/pkg/utils"
	"github.com/ougirez/welfare-portal/internal/pkg/welfareapi"
)

// Service logs staff in against the welfare API's login endpoint.
type Service struct {
	doer     welfareapi.Doer
	loginURL string
	defaults dto.Credentials
}

func NewService(doer welfareapi.Doer, loginURL string, defaults dto.Credentials) *Service {
	return &Service{doer: doer, loginURL: loginURL, defaults: defaults}
}

// Login uses creds when they are complete and the configured defaults otherwise.
func (svc *Service) Login(ctx context.Context, creds *dto.Credentials) (*utils.AuthContext, error) {
	use := svc.defaults
	if creds != nil && creds.Username != "" && creds.Password != "" {
		use = *creds
	}

	token, err := welfareapi.Login(ctx, svc.doer, svc.loginURL, use)
	if err != nil {
		return nil, fmt.Errorf("login %s: %w", use.Username, err)
	}

	authCtx, err := utils.NewAuthContext(token)
	if err != nil {
		// Tokens that are not JWTs are still usable as bearer tokens.
		logger.Debugf(ctx, "login: token for %s has no readable claims: %s", use.Username, err.Error())
		return &utils.AuthContext{Token: token, Claims: &utils.AuthClaims{Username: use.Username}}, nil
	}

	logger.Debugf(ctx, "login: userID: [%v]", authCtx.UserID())
	return authCtx, nil
}
