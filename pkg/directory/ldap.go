package directory

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-ldap/ldap/v3"
	"github.com/hashicorp/go-hclog"

	"github.com/youcash/permission-hub/pkg/config"
)

// LDAP implements Service against an LDAP directory holding posix
// accounts. A fresh connection is dialed per operation; the directory
// servers are tried in configuration order until one answers.
type LDAP struct {
	cfg    config.Directory
	logger hclog.Logger
}

func NewLDAP(cfg config.Directory, logger hclog.Logger) *LDAP {
	return &LDAP{cfg: cfg, logger: logger.Named("directory")}
}

func (d *LDAP) dial() (*ldap.Conn, error) {
	var lastErr error
	for _, server := range d.cfg.Servers {
		conn, err := ldap.DialURL(server)
		if err != nil {
			d.logger.Warn("failed to reach directory server", "server", server, "error", err)
			lastErr = err
			continue
		}
		if err := conn.Bind(d.cfg.BindDN, d.cfg.BindPassword); err != nil {
			conn.Close()
			lastErr = err
			continue
		}
		return conn, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no directory servers configured")
	}
	return nil, fmt.Errorf("failed to connect to any directory server: %w", lastErr)
}

func (d *LDAP) userDN(username string) string {
	return fmt.Sprintf("uid=%s,%s", username, d.cfg.UserBaseDN)
}

func (d *LDAP) groupDN(group string) string {
	return fmt.Sprintf("cn=%s,%s", group, d.cfg.GroupBaseDN)
}

func (d *LDAP) CreateUser(ctx context.Context, username, userPassword string, groups []string) (Account, error) {
	conn, err := d.dial()
	if err != nil {
		return Account{}, err
	}
	defer conn.Close()

	exists, err := userExists(conn, d.cfg.UserBaseDN, username)
	if err != nil {
		return Account{}, err
	}
	if exists {
		return Account{}, fmt.Errorf("%w: %s", ErrUserExists, username)
	}

	if userPassword == "" {
		userPassword, err = generatePassword()
		if err != nil {
			return Account{}, fmt.Errorf("failed to generate password: %w", err)
		}
	}

	// The personal group comes first so its gid can go on the account.
	gid, err := nextID(conn, d.cfg.GroupBaseDN, "(objectClass=posixGroup)", "gidNumber")
	if err != nil {
		return Account{}, err
	}
	addGroup := ldap.NewAddRequest(d.groupDN(username), nil)
	addGroup.Attribute("objectClass", []string{"posixGroup", "top"})
	addGroup.Attribute("cn", []string{username})
	addGroup.Attribute("gidNumber", []string{strconv.Itoa(gid)})
	if err := conn.Add(addGroup); err != nil {
		return Account{}, fmt.Errorf("failed to create personal group for %s: %w", username, err)
	}

	uid, err := nextID(conn, d.cfg.UserBaseDN, "(objectClass=posixAccount)", "uidNumber")
	if err != nil {
		return Account{}, err
	}
	addUser := ldap.NewAddRequest(d.userDN(username), nil)
	addUser.Attribute("objectClass", []string{"inetOrgPerson", "posixAccount", "top"})
	addUser.Attribute("sn", []string{username})
	addUser.Attribute("cn", []string{username})
	addUser.Attribute("uid", []string{username})
	addUser.Attribute("uidNumber", []string{strconv.Itoa(uid)})
	addUser.Attribute("gidNumber", []string{strconv.Itoa(gid)})
	addUser.Attribute("loginShell", []string{"/bin/bash"})
	addUser.Attribute("homeDirectory", []string{"/home/" + username})
	addUser.Attribute("userPassword", []string{userPassword})
	if err := conn.Add(addUser); err != nil {
		return Account{}, fmt.Errorf("failed to create user %s: %w", username, err)
	}

	for _, group := range append(groups, username) {
		if err := addMember(conn, d.groupDN(group), username); err != nil {
			return Account{}, err
		}
	}

	d.logger.Info("provisioned directory user", "user", username, "uid", uid, "groups", len(groups))
	return Account{Username: username, Password: userPassword}, nil
}

func (d *LDAP) DeleteUser(ctx context.Context, username string) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := conn.Del(ldap.NewDelRequest(d.userDN(username), nil)); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", username, err)
	}
	if err := conn.Del(ldap.NewDelRequest(d.groupDN(username), nil)); err != nil {
		return fmt.Errorf("failed to delete personal group of %s: %w", username, err)
	}
	d.logger.Info("deprovisioned directory user", "user", username)
	return nil
}

func (d *LDAP) SetPassword(ctx context.Context, username, userPassword string) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	modify := ldap.NewModifyRequest(d.userDN(username), nil)
	modify.Replace("userPassword", []string{userPassword})
	if err := conn.Modify(modify); err != nil {
		return fmt.Errorf("failed to change password of %s: %w", username, err)
	}
	return nil
}

func (d *LDAP) EnsureGroup(ctx context.Context, group string) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	filter := fmt.Sprintf("(&(objectClass=posixGroup)(cn=%s))", ldap.EscapeFilter(group))
	found, err := search(conn, d.cfg.GroupBaseDN, filter, []string{"cn"})
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return nil
	}

	gid, err := nextID(conn, d.cfg.GroupBaseDN, "(objectClass=posixGroup)", "gidNumber")
	if err != nil {
		return err
	}
	add := ldap.NewAddRequest(d.groupDN(group), nil)
	add.Attribute("objectClass", []string{"posixGroup", "top"})
	add.Attribute("cn", []string{group})
	add.Attribute("gidNumber", []string{strconv.Itoa(gid)})
	if err := conn.Add(add); err != nil {
		return fmt.Errorf("failed to create group %s: %w", group, err)
	}
	return nil
}

func (d *LDAP) AddUserToGroup(ctx context.Context, username, group string) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()
	return addMember(conn, d.groupDN(group), username)
}

func (d *LDAP) RemoveUserFromGroup(ctx context.Context, username, group string) error {
	conn, err := d.dial()
	if err != nil {
		return err
	}
	defer conn.Close()

	modify := ldap.NewModifyRequest(d.groupDN(group), nil)
	modify.Delete("memberUid", []string{username})
	if err := conn.Modify(modify); err != nil {
		return fmt.Errorf("failed to remove %s from group %s: %w", username, group, err)
	}
	return nil
}

func (d *LDAP) UserExists(ctx context.Context, username string) (bool, error) {
	conn, err := d.dial()
	if err != nil {
		return false, err
	}
	defer conn.Close()
	return userExists(conn, d.cfg.UserBaseDN, username)
}

func userExists(conn *ldap.Conn, baseDN, username string) (bool, error) {
	filter := fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username))
	entries, err := search(conn, baseDN, filter, []string{"uid"})
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

func addMember(conn *ldap.Conn, groupDN, username string) error {
	modify := ldap.NewModifyRequest(groupDN, nil)
	modify.Add("memberUid", []string{username})
	if err := conn.Modify(modify); err != nil {
		return fmt.Errorf("failed to add %s to %s: %w", username, groupDN, err)
	}
	return nil
}

func search(conn *ldap.Conn, baseDN, filter string, attrs []string) ([]*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		baseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		filter, attrs, nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory search failed under %s: %w", baseDN, err)
	}
	return res.Entries, nil
}

// nextID scans the existing entries for the highest numeric attribute and
// returns one above it. The directory has no allocation sequence; this
// mirrors how the accounts were numbered historically.
func nextID(conn *ldap.Conn, baseDN, filter, attr string) (int, error) {
	entries, err := search(conn, baseDN, filter, []string{attr})
	if err != nil {
		return 0, err
	}
	max := 0
	for _, entry := range entries {
		value, err := strconv.Atoi(entry.GetAttributeValue(attr))
		if err != nil {
			continue
		}
		if value > max {
			max = value
		}
	}
	return max + 1, nil
}
