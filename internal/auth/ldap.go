package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/url"
	"strings"

	"github.com/go-authgate/idgate/internal/config"
	"github.com/go-authgate/idgate/internal/core"
	"github.com/go-authgate/idgate/internal/models"

	"github.com/go-ldap/ldap/v3"
)

// Ensure LDAPProvider implements core.AuthProvider at compile time
var _ core.AuthProvider = (*LDAPProvider)(nil)

// directoryAttributes are fetched for every authenticated user
var directoryAttributes = []string{
	"cn",
	"mail",
	"displayName",
	"sAMAccountName",
	"userPrincipalName",
	"memberOf",
}

// DirectoryConn is the subset of an LDAP connection the provider needs
type DirectoryConn interface {
	Bind(username, password string) error
	Search(req *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close()
}

// DirectoryDialer opens a connection to the directory server
type DirectoryDialer func(ctx context.Context, cfg *config.LDAPConfig) (DirectoryConn, error)

// DirectoryUserInfo is the identity read from the directory after a bind
type DirectoryUserInfo struct {
	AccountName string // sAMAccountName, the external id
	DisplayName string
	Email       string
	Groups      []string
	IsAdmin     bool
}

// LDAPProvider verifies credentials with a directory bind and synchronizes
// the directory entry into a canonical user
type LDAPProvider struct {
	config *config.LDAPConfig
	repo   core.UserRepository
	dial   DirectoryDialer
}

// NewLDAPProvider creates a directory provider. A nil dial uses a real
// go-ldap connection.
func NewLDAPProvider(
	cfg *config.LDAPConfig,
	repo core.UserRepository,
	dial DirectoryDialer,
) *LDAPProvider {
	if dial == nil {
		dial = dialLDAP
	}
	return &LDAPProvider{config: cfg, repo: repo, dial: dial}
}

// Name returns provider name for logging
func (p *LDAPProvider) Name() string {
	return "ldap"
}

// Authenticate binds as the user, reads the directory entry, releases the
// connection and then reconciles the entry with the store
func (p *LDAPProvider) Authenticate(
	ctx context.Context,
	username, password string,
) (*core.AuthResult, error) {
	log.Printf("[LDAP] Authentication attempt for %s against %s", username, p.config.URL)

	info, err := p.bindAndFetch(ctx, username, password)
	if err != nil {
		return nil, err
	}

	result, err := p.SyncUser(ctx, info)
	if err != nil {
		return nil, err
	}

	log.Printf("[LDAP] Authenticated %s as user %s", info.AccountName, result.User.ID)
	return result, nil
}

// bindAndFetch holds the directory connection only for the bind and the
// search; it is closed on every path
func (p *LDAPProvider) bindAndFetch(
	ctx context.Context,
	username, password string,
) (*DirectoryUserInfo, error) {
	conn, err := p.Bind(ctx, username, password)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	return p.FetchUserInfo(conn, username)
}

// BindDN builds the bind name in principal-name or DN form
func (p *LDAPProvider) BindDN(username string) string {
	if p.config.UseUPN {
		return fmt.Sprintf("%s@%s", username, p.config.Domain)
	}
	return fmt.Sprintf("CN=%s,%s", ldap.EscapeDN(username), p.config.UserBaseDN)
}

// Bind opens a connection and binds as the user. Connection and bind
// failures are logged and reported as ErrInvalidCredentials.
func (p *LDAPProvider) Bind(ctx context.Context, username, password string) (DirectoryConn, error) {
	// An empty password would be an unauthenticated bind, which many
	// directories accept
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	conn, err := p.dial(ctx, p.config)
	if err != nil {
		log.Printf("[LDAP] Connection to %s failed: %v", p.config.URL, err)
		return nil, ErrInvalidCredentials
	}

	if err := conn.Bind(p.BindDN(username), password); err != nil {
		conn.Close()
		if code, ok := ldapResultCode(err); ok {
			log.Printf("[LDAP] Bind rejected for %s: result code %d", username, code)
		} else {
			log.Printf("[LDAP] Bind failed for %s: %v", username, err)
		}
		return nil, ErrInvalidCredentials
	}

	return conn, nil
}

// FetchUserInfo searches the user base for the bound user's entry
func (p *LDAPProvider) FetchUserInfo(conn DirectoryConn, username string) (*DirectoryUserInfo, error) {
	filter := fmt.Sprintf("(%s=%s)", p.config.UsernameAttribute, ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		p.config.UserBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		1, // size limit
		int(p.config.Timeout.Seconds()),
		false,
		filter,
		directoryAttributes,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		log.Printf("[LDAP] Search for %s failed: %v", username, err)
		return nil, core.LDAP("directory search failed")
	}
	if res == nil || len(res.Entries) == 0 {
		log.Printf("[LDAP] No entry for %s under %s", username, p.config.UserBaseDN)
		return nil, core.LDAP("user not found")
	}

	return p.entryToUserInfo(res.Entries[0], username), nil
}

func (p *LDAPProvider) entryToUserInfo(entry *ldap.Entry, username string) *DirectoryUserInfo {
	displayName := firstNonEmpty(
		entryValue(entry, "displayName"),
		entryValue(entry, "cn"),
		username,
	)
	email := firstNonEmpty(
		entryValue(entry, "mail"),
		entryValue(entry, "userPrincipalName"),
		fmt.Sprintf("%s@%s", username, p.config.Domain),
	)
	account := firstNonEmpty(entryValue(entry, "sAMAccountName"), username)
	groups := entry.GetEqualFoldAttributeValues("memberOf")

	return &DirectoryUserInfo{
		AccountName: account,
		DisplayName: displayName,
		Email:       email,
		Groups:      groups,
		IsAdmin:     isAdminMember(groups, p.config.AdminGroup),
	}
}

// isAdminMember matches adminGroup as a case-insensitive substring of any
// group DN. An empty adminGroup never matches.
func isAdminMember(groups []string, adminGroup string) bool {
	if adminGroup == "" {
		return false
	}
	needle := strings.ToLower(adminGroup)
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g), needle) {
			return true
		}
	}
	return false
}

// SyncUser maps a directory identity onto a canonical user. An existing
// directory account that owns the email is reused, which covers renamed
// accounts; any other owner yields a Conflict.
func (p *LDAPProvider) SyncUser(
	ctx context.Context,
	info *DirectoryUserInfo,
) (*core.AuthResult, error) {
	role := models.RoleUser
	if info.IsAdmin {
		role = models.RoleAdmin
	}

	result, err := reconcile(ctx, p.repo, externalIdentity{
		provider:               models.AuthProviderDirectory,
		externalID:             info.AccountName,
		email:                  info.Email,
		name:                   info.DisplayName,
		role:                   role,
		adoptSameProviderEmail: true,
	})
	if err != nil {
		return nil, err
	}
	if result.IsNew {
		log.Printf(
			"[LDAP] Created user %s for %s with role %s",
			result.User.ID,
			info.AccountName,
			role,
		)
	}
	return result, nil
}

// entryValue returns the first value of an attribute, matching its name
// case-insensitively
func entryValue(entry *ldap.Entry, name string) string {
	values := entry.GetEqualFoldAttributeValues(name)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func ldapResultCode(err error) (uint16, bool) {
	var lerr *ldap.Error
	if errors.As(err, &lerr) {
		return lerr.ResultCode, true
	}
	return 0, false
}

// ldapConn adapts *ldap.Conn to DirectoryConn
type ldapConn struct {
	conn *ldap.Conn
}

func (c *ldapConn) Bind(username, password string) error {
	return c.conn.Bind(username, password)
}

func (c *ldapConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	return c.conn.Search(req)
}

func (c *ldapConn) Close() {
	c.conn.Close()
}

// dialLDAP connects with a bounded timeout and upgrades with StartTLS when
// configured
func dialLDAP(ctx context.Context, cfg *config.LDAPConfig) (DirectoryConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // operator opt-in
		MinVersion:         tls.VersionTLS12,
	}
	if u, err := url.Parse(cfg.URL); err == nil {
		tlsConfig.ServerName = u.Hostname()
	}

	conn, err := ldap.DialURL(
		cfg.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: cfg.Timeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, err
	}
	conn.SetTimeout(cfg.Timeout)

	if cfg.UseStartTLS {
		if err := conn.StartTLS(tlsConfig); err != nil {
			conn.Close()
			return nil, fmt.Errorf("starttls: %w", err)
		}
	}

	return &ldapConn{conn: conn}, nil
}
