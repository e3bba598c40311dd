// Copyright 2025 the geOrchestra contributors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package directory

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"

	"go.georchestra.org/gateway/internal/identity"
	"go.georchestra.org/gateway/internal/plog"
	"go.georchestra.org/gateway/internal/sliceutil"
)

const ldapsScheme = "ldaps"

// Conn abstracts the LDAP communication protocol (mostly for testing).
type Conn interface {
	Bind(username, password string) error

	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)

	Add(addRequest *ldap.AddRequest) error

	Del(delRequest *ldap.DelRequest) error

	Modify(modifyRequest *ldap.ModifyRequest) error

	Close() error
}

// Our Conn type is a subset of the ldap.Client interface, which is implemented by ldap.Conn.
var _ Conn = &ldap.Conn{}

// Dialer is a factory of Conn, and the resulting Conn can then be used to interact with
// the backing directory.
type Dialer interface {
	Dial(ctx context.Context, hostAndPort string) (Conn, error)
}

// DialerFunc makes it easy to use a func as a Dialer.
type DialerFunc func(ctx context.Context, hostAndPort string) (Conn, error)

func (f DialerFunc) Dial(ctx context.Context, hostAndPort string) (Conn, error) {
	return f(ctx, hostAndPort)
}

// UserSearch configures where and how account entries are stored.
type UserSearch struct {
	// Base is the base DN for account entries, e.g. "ou=users,dc=georchestra,dc=org".
	Base string

	// PasswordWarningDays enables the password-expiry flag on looked-up identities when
	// the entry's shadowExpire is within this many days.  Zero disables the check.
	PasswordWarningDays int
}

// GroupSearch configures where organization or role entries are stored.
type GroupSearch struct {
	// Base is the base DN, e.g. "ou=orgs,dc=georchestra,dc=org" or "ou=roles,...".
	Base string
}

// LDAP implements Client against one configured LDAP directory.
type LDAP struct {
	// Tag is the unique tag of this directory, as carried by authentication tokens.
	Tag string

	// Host is the hostname or "hostname:port" of the LDAP server.  When the port is not
	// specified, the default LDAPS port is used.
	Host string

	// CABundle is a PEM-encoded CA cert bundle to trust when connecting.  Can be nil.
	CABundle []byte

	// BindUsername and BindPassword are the administrative credentials used for
	// searches and writes.
	BindUsername string
	BindPassword string

	Users UserSearch
	Orgs  GroupSearch
	Roles GroupSearch

	// Dialer exists to enable testing.  When nil, a TLS dialer appropriate for
	// production is used.
	Dialer Dialer
}

var _ Client = &LDAP{}

func (l *LDAP) dial(ctx context.Context) (Conn, error) {
	hostAndPort, err := hostAndPortWithDefaultPort(l.Host, ldap.DefaultLdapsPort)
	if err != nil {
		return nil, ldap.NewError(ldap.ErrorNetwork, err)
	}
	if l.Dialer != nil {
		return l.Dialer.Dial(ctx, hostAndPort)
	}
	return l.dialTLS(ctx, hostAndPort)
}

// dialTLS is the default implementation of the Dialer, used when Dialer is nil.
// The go-ldap library does not support dialing with a context.Context, so we dial
// ourselves, heavily inspired by ldap.DialURL.
func (l *LDAP) dialTLS(ctx context.Context, hostAndPort string) (Conn, error) {
	rootCAs := x509.NewCertPool()
	if l.CABundle != nil {
		if !rootCAs.AppendCertsFromPEM(l.CABundle) {
			return nil, ldap.NewError(ldap.ErrorNetwork, fmt.Errorf("could not parse CA bundle"))
		}
	}

	dialer := &tls.Dialer{Config: &tls.Config{
		MinVersion: tls.VersionTLS12,
		RootCAs:    rootCAs,
	}}

	c, err := dialer.DialContext(ctx, "tcp", hostAndPort)
	if err != nil {
		return nil, ldap.NewError(ldap.ErrorNetwork, err)
	}

	conn := ldap.NewConn(c, true)
	conn.Start()
	return conn, nil
}

// Adds the default port if hostAndPort did not already include a port.
func hostAndPortWithDefaultPort(hostAndPort string, defaultPort string) (string, error) {
	host, port, err := net.SplitHostPort(hostAndPort)
	if err != nil {
		if strings.HasSuffix(err.Error(), ": missing port in address") { // sad to need to do this string compare
			host = hostAndPort
			port = defaultPort
		} else {
			return "", err // hostAndPort argument was not parsable
		}
	}
	switch {
	case port != "" && strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]"):
		// don't add extra square brackets to an IPv6 address that already has them
		return host + ":" + port, nil
	case port != "":
		return net.JoinHostPort(host, port), nil
	default:
		return host, nil
	}
}

// GetTag returns the unique tag of this directory.
func (l *LDAP) GetTag() string {
	return l.Tag
}

// GetURL returns a URL which uniquely identifies this directory, e.g.
// "ldaps://ldap.example.com:636".  Used for logging, not for connecting.
func (l *LDAP) GetURL() string {
	return fmt.Sprintf("%s://%s", ldapsScheme, l.Host)
}

// withConn dials, binds with the administrative credentials and runs fn, closing the
// connection afterwards.
func (l *LDAP) withConn(ctx context.Context, fn func(conn Conn) error) error {
	conn, err := l.dial(ctx)
	if err != nil {
		return fmt.Errorf(`error dialing host %q: %w`, l.Host, err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.Bind(l.BindUsername, l.BindPassword); err != nil {
		return fmt.Errorf(`error binding as %q: %w`, l.BindUsername, err)
	}

	return fn(conn)
}

func (l *LDAP) FindByUsername(ctx context.Context, username string) (*identity.Identity, error) {
	return l.findUser(ctx, fmt.Sprintf("(uid=%s)", ldap.EscapeFilter(username)))
}

func (l *LDAP) FindByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	return l.findUser(ctx, fmt.Sprintf("(mail=%s)", ldap.EscapeFilter(email)))
}

func (l *LDAP) FindByOAuth2UID(ctx context.Context, provider, uid string) (*identity.Identity, error) {
	return l.findUser(ctx, fmt.Sprintf("(&(oauth2Provider=%s)(oauth2Uid=%s))",
		ldap.EscapeFilter(provider), ldap.EscapeFilter(uid)))
}

func (l *LDAP) findUser(ctx context.Context, filter string) (*identity.Identity, error) {
	var found *identity.Identity
	err := l.withConn(ctx, func(conn Conn) error {
		result, err := conn.Search(ldap.NewSearchRequest(
			l.Users.Base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
			filter,
			userAttributes,
			nil,
		))
		if err != nil {
			return fmt.Errorf(`error searching for user with filter %q: %w`, filter, err)
		}
		if len(result.Entries) == 0 {
			return ErrNotFound
		}
		if len(result.Entries) > 1 {
			return fmt.Errorf(`searching with filter %q resulted in %d search results, but expected at most 1`,
				filter, len(result.Entries))
		}
		found = l.entryToIdentity(result.Entries[0])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

var userAttributes = []string{
	"uid", "mail", "givenName", "sn", "o", "cn",
	"telephoneNumber", "postalAddress", "title", "description",
	"memberOf", "modifyTimestamp", "shadowExpire",
	"oauth2Provider", "oauth2Uid",
}

func (l *LDAP) entryToIdentity(entry *ldap.Entry) *identity.Identity {
	user := &identity.Identity{
		ID:             entry.GetAttributeValue("uid"),
		Username:       entry.GetAttributeValue("uid"),
		Email:          entry.GetAttributeValue("mail"),
		FirstName:      entry.GetAttributeValue("givenName"),
		LastName:       entry.GetAttributeValue("sn"),
		Organization:   entry.GetAttributeValue("o"),
		Telephone:      entry.GetAttributeValue("telephoneNumber"),
		Address:        entry.GetAttributeValue("postalAddress"),
		Title:          entry.GetAttributeValue("title"),
		Notes:          entry.GetAttributeValue("description"),
		OAuth2Provider: entry.GetAttributeValue("oauth2Provider"),
		OAuth2UID:      entry.GetAttributeValue("oauth2Uid"),
		LastUpdated:    entry.GetAttributeValue("modifyTimestamp"),
	}

	for _, groupDN := range entry.GetAttributeValues("memberOf") {
		if cn := firstRDNValue(groupDN, "cn"); cn != "" {
			user.Roles = append(user.Roles, identity.CanonicalRole(cn))
		}
	}
	user.Roles = identity.CanonicalRoles(user.Roles)

	if days, ok := l.passwordDaysRemaining(entry); ok {
		user.PasswordExpiring = true
		user.PasswordDaysToExpire = days
	}

	return user
}

// passwordDaysRemaining interprets shadowExpire (days since the Unix epoch) and reports
// the remaining days when within the configured warning window.
func (l *LDAP) passwordDaysRemaining(entry *ldap.Entry) (int, bool) {
	if l.Users.PasswordWarningDays <= 0 {
		return 0, false
	}
	raw := entry.GetAttributeValue("shadowExpire")
	if raw == "" {
		return 0, false
	}
	expireDays, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		plog.Debug("ignoring unparsable shadowExpire attribute", "directory", l.Tag, "value", raw)
		return 0, false
	}
	remaining := int(expireDays - time.Now().Unix()/86400)
	if remaining < 0 || remaining > l.Users.PasswordWarningDays {
		return 0, false
	}
	return remaining, true
}

// firstRDNValue extracts the value of the first RDN with the given attribute type from a
// DN, e.g. firstRDNValue("cn=ADMIN,ou=roles,...", "cn") == "ADMIN".
func firstRDNValue(dn, attributeType string) string {
	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return ""
	}
	for _, rdn := range parsed.RDNs {
		for _, attr := range rdn.Attributes {
			if strings.EqualFold(attr.Type, attributeType) {
				return attr.Value
			}
		}
	}
	return ""
}

func (l *LDAP) userDN(username string) string {
	return fmt.Sprintf("uid=%s,%s", username, l.Users.Base)
}

func (l *LDAP) orgDN(shortName string) string {
	return fmt.Sprintf("cn=%s,%s", shortName, l.Orgs.Base)
}

func (l *LDAP) roleDN(name string) string {
	return fmt.Sprintf("cn=%s,%s", name, l.Roles.Base)
}

func (l *LDAP) InsertAccount(ctx context.Context, user *identity.Identity) error {
	return l.withConn(ctx, func(conn Conn) error {
		add := ldap.NewAddRequest(l.userDN(user.Username), nil)
		add.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "inetOrgPerson", "georchestraUser"})
		add.Attribute("uid", []string{user.Username})
		add.Attribute("cn", []string{displayName(user)})
		add.Attribute("sn", []string{orPlaceholder(user.LastName, user.Username)})
		if user.FirstName != "" {
			add.Attribute("givenName", []string{user.FirstName})
		}
		if user.Email != "" {
			add.Attribute("mail", []string{user.Email})
		}
		if user.Organization != "" {
			add.Attribute("o", []string{user.Organization})
		}
		if user.OAuth2Provider != "" && user.OAuth2UID != "" {
			add.Attribute("oauth2Provider", []string{user.OAuth2Provider})
			add.Attribute("oauth2Uid", []string{user.OAuth2UID})
		}
		if err := conn.Add(add); err != nil {
			return wrapWriteError("inserting account", user.Username, err)
		}
		return nil
	})
}

func (l *LDAP) DeleteAccount(ctx context.Context, username string) error {
	return l.withConn(ctx, func(conn Conn) error {
		if err := conn.Del(ldap.NewDelRequest(l.userDN(username), nil)); err != nil {
			return fmt.Errorf("deleting account %q: %w", username, err)
		}
		return nil
	})
}

func (l *LDAP) FindOrgByName(ctx context.Context, shortName string) (*identity.Organization, error) {
	var found *identity.Organization
	err := l.withConn(ctx, func(conn Conn) error {
		result, err := conn.Search(ldap.NewSearchRequest(
			l.Orgs.Base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
			fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(shortName)),
			[]string{"cn", "o", "businessCategory", "description", "postalAddress", "member", "modifyTimestamp"},
			nil,
		))
		if err != nil {
			return fmt.Errorf("searching for organization %q: %w", shortName, err)
		}
		if len(result.Entries) == 0 {
			return ErrNotFound
		}
		entry := result.Entries[0]
		found = &identity.Organization{
			ID:          entry.DN,
			ShortName:   entry.GetAttributeValue("cn"),
			Name:        entry.GetAttributeValue("o"),
			Category:    entry.GetAttributeValue("businessCategory"),
			Notes:       entry.GetAttributeValue("description"),
			Address:     entry.GetAttributeValue("postalAddress"),
			LastUpdated: entry.GetAttributeValue("modifyTimestamp"),
		}
		for _, memberDN := range entry.GetAttributeValues("member") {
			if uid := firstRDNValue(memberDN, "uid"); uid != "" {
				found.Members = append(found.Members, uid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (l *LDAP) InsertOrg(ctx context.Context, org *identity.Organization) error {
	return l.withConn(ctx, func(conn Conn) error {
		add := ldap.NewAddRequest(l.orgDN(org.ShortName), nil)
		add.Attribute("objectClass", []string{"top", "groupOfMembers", "georchestraOrg"})
		add.Attribute("cn", []string{org.ShortName})
		add.Attribute("o", []string{orPlaceholder(org.Name, org.ShortName)})
		if org.Category != "" {
			add.Attribute("businessCategory", []string{org.Category})
		}
		if org.Notes != "" {
			add.Attribute("description", []string{org.Notes})
		}
		if org.Address != "" {
			add.Attribute("postalAddress", []string{org.Address})
		}
		if len(org.Members) > 0 {
			add.Attribute("member", l.memberDNs(org.Members))
		}
		if err := conn.Add(add); err != nil {
			return wrapWriteError("inserting organization", org.ShortName, err)
		}
		return nil
	})
}

func (l *LDAP) UpdateOrg(ctx context.Context, org *identity.Organization) error {
	return l.withConn(ctx, func(conn Conn) error {
		modify := ldap.NewModifyRequest(l.orgDN(org.ShortName), nil)
		modify.Replace("member", l.memberDNs(org.Members))
		if err := conn.Modify(modify); err != nil {
			return fmt.Errorf("updating organization %q: %w", org.ShortName, err)
		}
		return nil
	})
}

func (l *LDAP) FindRoleByName(ctx context.Context, name string) (bool, error) {
	exists := false
	err := l.withConn(ctx, func(conn Conn) error {
		result, err := conn.Search(ldap.NewSearchRequest(
			l.Roles.Base, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
			fmt.Sprintf("(cn=%s)", ldap.EscapeFilter(name)),
			[]string{"cn"},
			nil,
		))
		if err != nil {
			return fmt.Errorf("searching for role %q: %w", name, err)
		}
		exists = len(result.Entries) > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (l *LDAP) InsertRole(ctx context.Context, name string) error {
	return l.withConn(ctx, func(conn Conn) error {
		add := ldap.NewAddRequest(l.roleDN(name), nil)
		add.Attribute("objectClass", []string{"top", "groupOfMembers"})
		add.Attribute("cn", []string{name})
		if err := conn.Add(add); err != nil {
			return wrapWriteError("inserting role", name, err)
		}
		return nil
	})
}

func (l *LDAP) AddUserToRole(ctx context.Context, roleName, username string) error {
	return l.withConn(ctx, func(conn Conn) error {
		modify := ldap.NewModifyRequest(l.roleDN(roleName), nil)
		modify.Add("member", []string{l.userDN(username)})
		err := conn.Modify(modify)
		if ldap.IsErrorWithCode(err, ldap.LDAPResultAttributeOrValueExists) {
			return nil // already a member, nothing to do
		}
		if err != nil {
			return fmt.Errorf("adding user %q to role %q: %w", username, roleName, err)
		}
		return nil
	})
}

func (l *LDAP) memberDNs(usernames []string) []string {
	return sliceutil.Map(usernames, l.userDN)
}

func wrapWriteError(op, name string, err error) error {
	if ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
		return fmt.Errorf("%s %q: %w", op, name, ErrAlreadyExists)
	}
	return fmt.Errorf("%s %q: %w", op, name, err)
}

func displayName(user *identity.Identity) string {
	full := strings.TrimSpace(user.FirstName + " " + user.LastName)
	return orPlaceholder(full, user.Username)
}

func orPlaceholder(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}
