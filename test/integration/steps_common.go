package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cucumber/godog"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	response     *http.Response
	responseBody []byte
	authToken    string
	lastIDs      map[string]uint
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:      tc,
		lastIDs: make(map[string]uint),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	// Background steps
	sc.Step(`^the permission hub server is running$`, s.theServerIsRunning)
	sc.Step(`^I am logged in as "([^"]*)"$`, s.iAmLoggedInAs)

	// Authentication steps
	sc.Step(`^I register the user "([^"]*)" with password "([^"]*)"$`, s.iRegisterUserWithPassword)
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogInAsWithPassword)
	sc.Step(`^I request whoami$`, s.iRequestWhoami)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response should contain "([^"]*)"$`, s.theResponseShouldContain)

	// Permission steps
	sc.Step(`^I grant user "([^"]*)" select on table "([^"]*)" in database "([^"]*)"$`, s.iGrantUserSelectOnTable)
	sc.Step(`^I grant role "([^"]*)" select on table "([^"]*)" in database "([^"]*)"$`, s.iGrantRoleSelectOnTable)
	sc.Step(`^I delete that table permission$`, s.iDeleteThatTablePermission)
	sc.Step(`^I mask column "([^"]*)" of table "([^"]*)" in database "([^"]*)" with "([^"]*)" for user "([^"]*)"$`, s.iMaskColumn)
	sc.Step(`^I filter rows of table "([^"]*)" in database "([^"]*)" by "([^"]*)" for user "([^"]*)"$`, s.iFilterRows)

	// Authority assertions
	sc.Step(`^the authority should have policy "([^"]*)" in service "([^"]*)" listing user "([^"]*)"$`, s.authorityShouldHavePolicyListingUser)
	sc.Step(`^the authority should have policy "([^"]*)" in service "([^"]*)" listing role "([^"]*)"$`, s.authorityShouldHavePolicyListingRole)
	sc.Step(`^the authority should not have policy "([^"]*)" in service "([^"]*)"$`, s.authorityShouldNotHavePolicy)
	sc.Step(`^the authority policy "([^"]*)" in service "([^"]*)" should not list user "([^"]*)"$`, s.authorityPolicyShouldNotListUser)
	sc.Step(`^the authority policy "([^"]*)" in service "([^"]*)" should mask with "([^"]*)"$`, s.authorityPolicyShouldMaskWith)
	sc.Step(`^the authority policy "([^"]*)" in service "([^"]*)" should filter by "([^"]*)"$`, s.authorityPolicyShouldFilterBy)
	sc.Step(`^the authority role "([^"]*)" in service "([^"]*)" should include user "([^"]*)"$`, s.authorityRoleShouldIncludeUser)

	// Database assertions
	sc.Step(`^(\d+) table permissions? should be stored for database "([^"]*)"$`, s.tablePermissionsShouldBeStored)

	// Quota steps
	sc.Step(`^I set a quota of (\d+) GB on database "([^"]*)"$`, s.iSetQuotaOnDatabase)
	sc.Step(`^a (\d+) GB quota should have been applied to database "([^"]*)"$`, s.quotaShouldHaveBeenApplied)

	// Directory account steps
	sc.Step(`^I provision a directory account for "([^"]*)" in department "([^"]*)"$`, s.iProvisionDirectoryAccount)
	sc.Step(`^I deprovision that directory account$`, s.iDeprovisionThatDirectoryAccount)
	sc.Step(`^the directory should contain account "([^"]*)"$`, s.directoryShouldContainAccount)
	sc.Step(`^the directory should not contain account "([^"]*)"$`, s.directoryShouldNotContainAccount)
	sc.Step(`^the directory user "([^"]*)" should be stored$`, s.directoryUserShouldBeStored)
}

// Background steps

func (s *StepsContext) theServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) iAmLoggedInAs(username string) error {
	// Registration conflicts are fine, the user may exist from an
	// earlier scenario.
	if err := s.iRegisterUserWithPassword(username, "integration-pass"); err != nil {
		return err
	}
	if s.response.StatusCode != http.StatusCreated && s.response.StatusCode != http.StatusConflict {
		return fmt.Errorf("unexpected register status %d: %s", s.response.StatusCode, string(s.responseBody))
	}
	return s.iLogInAsWithPassword(username, "integration-pass")
}

// Authentication steps

func (s *StepsContext) iRegisterUserWithPassword(username, password string) error {
	return s.doJSON("POST", "/api/v1/auth/register", map[string]interface{}{
		"username": username,
		"password": password,
		"is_admin": true,
	})
}

func (s *StepsContext) iLogInAsWithPassword(username, password string) error {
	if err := s.doJSON("POST", "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}); err != nil {
		return err
	}

	if s.response.StatusCode == http.StatusOK {
		var login struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal(s.responseBody, &login); err == nil {
			s.authToken = login.Token
		}
	}
	return nil
}

func (s *StepsContext) iRequestWhoami() error {
	return s.doJSON("GET", "/api/v1/whoami", nil)
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expectedStatus int) error {
	if s.response.StatusCode != expectedStatus {
		return fmt.Errorf("expected status %d, got %d: %s", expectedStatus, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseShouldContain(expected string) error {
	if !strings.Contains(string(s.responseBody), expected) {
		return fmt.Errorf("expected body to contain %q, got %q", expected, string(s.responseBody))
	}
	return nil
}

// Permission steps

func (s *StepsContext) iGrantUserSelectOnTable(user, table, database string) error {
	return s.createResource("/api/v1/table-permissions", map[string]string{
		"db_name":    database,
		"table_name": table,
		"user_name":  user,
	})
}

func (s *StepsContext) iGrantRoleSelectOnTable(role, table, database string) error {
	return s.createResource("/api/v1/table-permissions", map[string]string{
		"db_name":    database,
		"table_name": table,
		"role_name":  role,
	})
}

func (s *StepsContext) iDeleteThatTablePermission() error {
	id, ok := s.lastIDs["/api/v1/table-permissions"]
	if !ok {
		return fmt.Errorf("no table permission was created in this scenario")
	}
	return s.doJSON("DELETE", fmt.Sprintf("/api/v1/table-permissions/%d", id), nil)
}

func (s *StepsContext) iMaskColumn(column, table, database, maskType, user string) error {
	return s.createResource("/api/v1/column-permissions", map[string]string{
		"db_name":    database,
		"table_name": table,
		"col_name":   column,
		"mask_type":  maskType,
		"user_name":  user,
	})
}

func (s *StepsContext) iFilterRows(table, database, filter, user string) error {
	return s.createResource("/api/v1/row-permissions", map[string]string{
		"db_name":    database,
		"table_name": table,
		"row_filter": filter,
		"user_name":  user,
	})
}

// Authority assertions

func (s *StepsContext) authorityShouldHavePolicyListingUser(name, service, user string) error {
	policy := s.tc.Authority.PolicyByName(service, name)
	if policy == nil {
		return fmt.Errorf("policy %s not found in service %s", name, service)
	}
	for _, item := range allPolicyItems(policy) {
		if contains(item.Users, user) {
			return nil
		}
	}
	return fmt.Errorf("policy %s does not list user %s", name, user)
}

func (s *StepsContext) authorityShouldHavePolicyListingRole(name, service, role string) error {
	policy := s.tc.Authority.PolicyByName(service, name)
	if policy == nil {
		return fmt.Errorf("policy %s not found in service %s", name, service)
	}
	for _, item := range allPolicyItems(policy) {
		if contains(item.Roles, role) {
			return nil
		}
	}
	return fmt.Errorf("policy %s does not list role %s", name, role)
}

func (s *StepsContext) authorityShouldNotHavePolicy(name, service string) error {
	if policy := s.tc.Authority.PolicyByName(service, name); policy != nil {
		return fmt.Errorf("policy %s still exists in service %s", name, service)
	}
	return nil
}

func (s *StepsContext) authorityPolicyShouldNotListUser(name, service, user string) error {
	policy := s.tc.Authority.PolicyByName(service, name)
	if policy == nil {
		return nil
	}
	for _, item := range allPolicyItems(policy) {
		if contains(item.Users, user) {
			return fmt.Errorf("policy %s still lists user %s", name, user)
		}
	}
	return nil
}

func (s *StepsContext) authorityPolicyShouldMaskWith(name, service, maskType string) error {
	policy := s.tc.Authority.PolicyByName(service, name)
	if policy == nil {
		return fmt.Errorf("policy %s not found in service %s", name, service)
	}
	for _, item := range policy.DataMaskPolicyItems {
		if item.DataMaskInfo.DataMaskType == maskType {
			return nil
		}
	}
	return fmt.Errorf("policy %s has no item masking with %s", name, maskType)
}

func (s *StepsContext) authorityPolicyShouldFilterBy(name, service, filter string) error {
	policy := s.tc.Authority.PolicyByName(service, name)
	if policy == nil {
		return fmt.Errorf("policy %s not found in service %s", name, service)
	}
	for _, item := range policy.RowFilterPolicyItems {
		if item.RowFilterInfo.FilterExpr == filter {
			return nil
		}
	}
	return fmt.Errorf("policy %s has no item filtering by %q", name, filter)
}

func (s *StepsContext) authorityRoleShouldIncludeUser(name, service, user string) error {
	role := s.tc.Authority.RoleByName(service, name)
	if role == nil {
		return fmt.Errorf("role %s not found in service %s", name, service)
	}
	if !contains(ranger.MemberNames(role.Users), user) {
		return fmt.Errorf("role %s does not include user %s", name, user)
	}
	return nil
}

// Database assertions

func (s *StepsContext) tablePermissionsShouldBeStored(expected int, database string) error {
	var count int64
	if err := s.tc.DB.Raw(`SELECT COUNT(*) FROM table_permissions WHERE db_name = ?`, database).Scan(&count).Error; err != nil {
		return err
	}
	if count != int64(expected) {
		return fmt.Errorf("expected %d stored table permissions, found %d", expected, count)
	}
	return nil
}

// Quota steps

func (s *StepsContext) iSetQuotaOnDatabase(quotaGB int, database string) error {
	return s.createResource("/api/v1/hdfs-quotas", map[string]interface{}{
		"db_name":    database,
		"hdfs_quota": quotaGB,
	})
}

func (s *StepsContext) quotaShouldHaveBeenApplied(quotaGB int, database string) error {
	for _, change := range s.tc.Quotas.Applied {
		if change.Database == database && int(change.QuotaGB) == quotaGB {
			return nil
		}
	}
	return fmt.Errorf("no %d GB quota was applied to database %s", quotaGB, database)
}

// Directory account steps

func (s *StepsContext) iProvisionDirectoryAccount(username, department string) error {
	return s.createResource("/api/v1/directory-users", map[string]string{
		"username":        username,
		"department_name": department,
	})
}

func (s *StepsContext) iDeprovisionThatDirectoryAccount() error {
	id, ok := s.lastIDs["/api/v1/directory-users"]
	if !ok {
		return fmt.Errorf("no directory account was created in this scenario")
	}
	return s.doJSON("DELETE", fmt.Sprintf("/api/v1/directory-users/%d", id), nil)
}

func (s *StepsContext) directoryShouldContainAccount(account string) error {
	exists, err := s.tc.Directory.UserExists(context.Background(), account)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("account %s not found in the directory", account)
	}
	return nil
}

func (s *StepsContext) directoryShouldNotContainAccount(account string) error {
	exists, err := s.tc.Directory.UserExists(context.Background(), account)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("account %s should not exist in the directory", account)
	}
	return nil
}

func (s *StepsContext) directoryUserShouldBeStored(username string) error {
	var count int64
	if err := s.tc.DB.Raw(`SELECT COUNT(*) FROM directory_users WHERE username = ?`, username).Scan(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("directory user %s is not stored", username)
	}
	return nil
}

// Helpers

// createResource POSTs to a collection and remembers the created id so
// later steps in the scenario can address the resource.
func (s *StepsContext) createResource(path string, payload interface{}) error {
	if err := s.doJSON("POST", path, payload); err != nil {
		return err
	}
	if s.response.StatusCode == http.StatusCreated {
		var created struct {
			ID uint `json:"id"`
		}
		if err := json.Unmarshal(s.responseBody, &created); err == nil && created.ID != 0 {
			s.lastIDs[path] = created.ID
		}
	}
	return nil
}

func (s *StepsContext) doJSON(method, path string, payload interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.tc.ServerURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}

func allPolicyItems(p *ranger.Policy) []ranger.PolicyItem {
	items := make([]ranger.PolicyItem, 0, p.ItemCount())
	items = append(items, p.PolicyItems...)
	for _, item := range p.DataMaskPolicyItems {
		items = append(items, item.PolicyItem)
	}
	for _, item := range p.RowFilterPolicyItems {
		items = append(items, item.PolicyItem)
	}
	return items
}
