package ranger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/youcash/permission-hub/pkg/config"
)

const apiBase = "/service/public/v2/api"

// Client is the capability the reconciler consumes from the authority.
// Lookup methods return (nil, nil) when the document does not exist.
type Client interface {
	GetPolicy(ctx context.Context, service, name string) (*Policy, error)
	CreatePolicy(ctx context.Context, policy *Policy) (int64, error)
	UpdatePolicy(ctx context.Context, id int64, policy *Policy) error
	DeletePolicy(ctx context.Context, id int64) error

	GetRole(ctx context.Context, service, name string) (*Role, error)
	CreateRole(ctx context.Context, service string, role *Role) (int64, error)
	UpdateRole(ctx context.Context, id int64, role *Role) error
	FindRolesForUser(ctx context.Context, user string) ([]Role, error)

	// FindPoliciesByPrincipal returns every policy in the service that
	// references the principal. Kind is one of "user", "group", "role".
	FindPoliciesByPrincipal(ctx context.Context, service, kind, value string) ([]Policy, error)
}

// StatusError is a non-2xx response from the authority.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authority returned %d: %s", e.StatusCode, e.Body)
}

// TransientError marks failures worth retrying: transport errors and
// server-side (5xx) responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// HTTPClient implements Client against the authority's REST API using
// basic authentication.
type HTTPClient struct {
	baseURL  string
	user     string
	password string
	client   *http.Client
	logger   hclog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient builds a client from the Ranger section of the config.
func NewHTTPClient(cfg config.Ranger, logger hclog.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:  cfg.URL,
		user:     cfg.User,
		password: cfg.Password,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.Named("ranger"),
	}
}

// GetPolicy looks a policy up by its deterministic name.
func (c *HTTPClient) GetPolicy(ctx context.Context, service, name string) (*Policy, error) {
	path := fmt.Sprintf("%s/service/%s/policy/%s", apiBase, url.PathEscape(service), url.PathEscape(name))
	var policy Policy
	found, err := c.getJSON(ctx, path, nil, &policy)
	if err != nil || !found {
		return nil, err
	}
	return &policy, nil
}

// CreatePolicy creates a new policy document and returns its id.
func (c *HTTPClient) CreatePolicy(ctx context.Context, policy *Policy) (int64, error) {
	var created Policy
	if err := c.send(ctx, http.MethodPost, apiBase+"/policy", policy, &created); err != nil {
		return 0, err
	}
	c.logger.Info("created policy", "service", policy.Service, "name", policy.Name, "id", created.ID)
	return created.ID, nil
}

// UpdatePolicy replaces the policy with the given id.
func (c *HTTPClient) UpdatePolicy(ctx context.Context, id int64, policy *Policy) error {
	path := fmt.Sprintf("%s/policy/%d", apiBase, id)
	if err := c.send(ctx, http.MethodPut, path, policy, nil); err != nil {
		return err
	}
	c.logger.Info("updated policy", "name", policy.Name, "id", id)
	return nil
}

// DeletePolicy removes the policy with the given id.
func (c *HTTPClient) DeletePolicy(ctx context.Context, id int64) error {
	path := fmt.Sprintf("%s/policy/%d", apiBase, id)
	if err := c.send(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	c.logger.Info("deleted policy", "id", id)
	return nil
}

// GetRole looks a role up by name within a service.
func (c *HTTPClient) GetRole(ctx context.Context, service, name string) (*Role, error) {
	path := fmt.Sprintf("%s/roles/name/%s", apiBase, url.PathEscape(name))
	query := url.Values{"serviceName": {service}, "execUser": {"admin"}}
	var role Role
	found, err := c.getJSON(ctx, path, query, &role)
	if err != nil || !found {
		return nil, err
	}
	return &role, nil
}

// CreateRole creates a new role document and returns its id.
func (c *HTTPClient) CreateRole(ctx context.Context, service string, role *Role) (int64, error) {
	path := apiBase + "/roles?serviceName=" + url.QueryEscape(service)
	var created Role
	if err := c.send(ctx, http.MethodPost, path, role, &created); err != nil {
		return 0, err
	}
	c.logger.Info("created role", "service", service, "name", role.Name, "id", created.ID)
	return created.ID, nil
}

// UpdateRole replaces the role with the given id.
func (c *HTTPClient) UpdateRole(ctx context.Context, id int64, role *Role) error {
	path := fmt.Sprintf("%s/roles/%d", apiBase, id)
	if err := c.send(ctx, http.MethodPut, path, role, nil); err != nil {
		return err
	}
	c.logger.Info("updated role", "name", role.Name, "id", id)
	return nil
}

// FindRolesForUser returns every role that lists the user as a member.
func (c *HTTPClient) FindRolesForUser(ctx context.Context, user string) ([]Role, error) {
	var roles []Role
	query := url.Values{"userName": {user}}
	if _, err := c.getJSON(ctx, apiBase+"/roles", query, &roles); err != nil {
		return nil, err
	}
	return roles, nil
}

// FindPoliciesByPrincipal returns every policy referencing the principal.
func (c *HTTPClient) FindPoliciesByPrincipal(ctx context.Context, service, kind, value string) ([]Policy, error) {
	path := fmt.Sprintf("%s/service/%s/policy", apiBase, url.PathEscape(service))
	query := url.Values{kind: {value}}
	var policies []Policy
	if _, err := c.getJSON(ctx, path, query, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// getJSON performs a GET and decodes the response. It reports found=false
// on a 404 instead of an error, so callers can treat absence as a state.
func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) (bool, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return false, err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return false, &TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if err := checkStatus(resp); err != nil {
		return false, err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, fmt.Errorf("failed to decode authority response: %w", err)
	}
	return true, nil
}

// send performs a mutating request with an optional JSON body and decodes
// the response into out when non-nil.
func (c *HTTPClient) send(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransientError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode authority response: %w", err)
		}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	statusErr := &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	if resp.StatusCode >= 500 {
		return &TransientError{Err: statusErr}
	}
	return statusErr
}

// IsTransient reports whether the error is worth retrying.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
