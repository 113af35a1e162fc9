package integration

import (
	"fmt"

	"github.com/cucumber/godog"
	"github.com/golang-jwt/jwt/v5"

	"github.com/youcash/permission-hub/pkg/server/middleware"
)

// RegisterAuthSteps registers token-level step definitions.
func (s *StepsContext) RegisterAuthSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I should receive an access token$`, s.iShouldReceiveAnAccessToken)
	sc.Step(`^the token subject should be "([^"]*)"$`, s.theTokenSubjectShouldBe)
	sc.Step(`^I should not receive an access token$`, s.iShouldNotReceiveAnAccessToken)
}

func (s *StepsContext) iShouldReceiveAnAccessToken() error {
	if s.authToken == "" {
		return fmt.Errorf("no token was captured from the login response: %s", string(s.responseBody))
	}
	_, err := s.parseToken()
	return err
}

func (s *StepsContext) iShouldNotReceiveAnAccessToken() error {
	if s.authToken != "" {
		return fmt.Errorf("a token was issued but none was expected")
	}
	return nil
}

func (s *StepsContext) theTokenSubjectShouldBe(subject string) error {
	claims, err := s.parseToken()
	if err != nil {
		return err
	}
	if claims.Subject != subject {
		return fmt.Errorf("expected token subject %q, got %q", subject, claims.Subject)
	}
	return nil
}

// parseToken verifies the captured token against the server's signing
// secret and returns its claims.
func (s *StepsContext) parseToken() (*middleware.Claims, error) {
	claims := &middleware.Claims{}
	token, err := jwt.ParseWithClaims(s.authToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("integration-secret"), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("token did not verify")
	}
	return claims, nil
}
