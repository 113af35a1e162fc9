package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"

	"github.com/youcash/permission-hub/pkg/ranger"
)

// fakeAuthority is an in-memory policy authority exposing the REST
// surface the reconciler talks to. Documents live in maps keyed by id;
// lookups by name scan, which is fine at test sizes.
type fakeAuthority struct {
	mu       sync.Mutex
	policies map[int64]*ranger.Policy
	roles    map[int64]*ranger.Role
	roleSvc  map[int64]string
	nextID   int64

	server *httptest.Server
}

func newFakeAuthority() *fakeAuthority {
	a := &fakeAuthority{
		policies: map[int64]*ranger.Policy{},
		roles:    map[int64]*ranger.Role{},
		roleSvc:  map[int64]string{},
		nextID:   1,
	}

	router := mux.NewRouter()
	api := router.PathPrefix("/service/public/v2/api").Subrouter()
	api.HandleFunc("/service/{service}/policy/{name}", a.handleGetPolicy).Methods("GET")
	api.HandleFunc("/service/{service}/policy", a.handleFindPolicies).Methods("GET")
	api.HandleFunc("/policy", a.handleCreatePolicy).Methods("POST")
	api.HandleFunc("/policy/{id}", a.handleUpdatePolicy).Methods("PUT")
	api.HandleFunc("/policy/{id}", a.handleDeletePolicy).Methods("DELETE")
	api.HandleFunc("/roles/name/{name}", a.handleGetRole).Methods("GET")
	api.HandleFunc("/roles", a.handleCreateRole).Methods("POST")
	api.HandleFunc("/roles", a.handleFindRoles).Methods("GET")
	api.HandleFunc("/roles/{id}", a.handleUpdateRole).Methods("PUT")

	a.server = httptest.NewServer(router)
	return a
}

func (a *fakeAuthority) URL() string { return a.server.URL }

func (a *fakeAuthority) Close() { a.server.Close() }

// PolicyByName returns a copy of the named policy, or nil.
func (a *fakeAuthority) PolicyByName(service, name string) *ranger.Policy {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.policies {
		if p.Service == service && p.Name == name {
			copied := *p
			return &copied
		}
	}
	return nil
}

// RoleByName returns a copy of the named role in the service, or nil.
func (a *fakeAuthority) RoleByName(service, name string) *ranger.Role {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, role := range a.roles {
		if a.roleSvc[id] == service && role.Name == name {
			copied := *role
			return &copied
		}
	}
	return nil
}

func (a *fakeAuthority) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, p := range a.policies {
		if p.Service == vars["service"] && p.Name == vars["name"] {
			writeAuthorityJSON(w, p)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (a *fakeAuthority) handleFindPolicies(w http.ResponseWriter, r *http.Request) {
	service := mux.Vars(r)["service"]
	query := r.URL.Query()

	a.mu.Lock()
	defer a.mu.Unlock()
	matches := []ranger.Policy{}
	for _, p := range a.policies {
		if p.Service != service {
			continue
		}
		if policyReferences(p, query.Get("user"), query.Get("group"), query.Get("role")) {
			matches = append(matches, *p)
		}
	}
	writeAuthorityJSON(w, matches)
}

func (a *fakeAuthority) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var policy ranger.Policy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	policy.ID = a.nextID
	a.nextID++
	a.policies[policy.ID] = &policy
	a.mu.Unlock()
	writeAuthorityJSON(w, &policy)
}

func (a *fakeAuthority) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var policy ranger.Policy
	if err := json.NewDecoder(r.Body).Decode(&policy); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.policies[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	policy.ID = id
	a.policies[id] = &policy
	writeAuthorityJSON(w, &policy)
}

func (a *fakeAuthority) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.policies[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(a.policies, id)
	w.WriteHeader(http.StatusNoContent)
}

func (a *fakeAuthority) handleGetRole(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	service := r.URL.Query().Get("serviceName")
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, role := range a.roles {
		if role.Name == name && a.roleSvc[id] == service {
			writeAuthorityJSON(w, role)
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
}

func (a *fakeAuthority) handleCreateRole(w http.ResponseWriter, r *http.Request) {
	var role ranger.Role
	if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	role.ID = a.nextID
	a.nextID++
	a.roles[role.ID] = &role
	a.roleSvc[role.ID] = r.URL.Query().Get("serviceName")
	a.mu.Unlock()
	writeAuthorityJSON(w, &role)
}

func (a *fakeAuthority) handleFindRoles(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("userName")
	a.mu.Lock()
	defer a.mu.Unlock()
	matches := []ranger.Role{}
	for _, role := range a.roles {
		for _, member := range role.Users {
			if member.Name == user {
				matches = append(matches, *role)
				break
			}
		}
	}
	writeAuthorityJSON(w, matches)
}

func (a *fakeAuthority) handleUpdateRole(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	var role ranger.Role
	if err := json.NewDecoder(r.Body).Decode(&role); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.roles[id]; !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	role.ID = id
	a.roles[id] = &role
	writeAuthorityJSON(w, &role)
}

func policyReferences(p *ranger.Policy, user, group, role string) bool {
	items := make([]ranger.PolicyItem, 0, p.ItemCount())
	items = append(items, p.PolicyItems...)
	for _, item := range p.DataMaskPolicyItems {
		items = append(items, item.PolicyItem)
	}
	for _, item := range p.RowFilterPolicyItems {
		items = append(items, item.PolicyItem)
	}
	for _, item := range items {
		if user != "" && contains(item.Users, user) {
			return true
		}
		if group != "" && contains(item.Groups, group) {
			return true
		}
		if role != "" && contains(item.Roles, role) {
			return true
		}
	}
	return false
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func writeAuthorityJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
