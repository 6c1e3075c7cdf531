package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/driftlabs/driftcortex/infrastructure/cache"
	"github.com/driftlabs/driftcortex/infrastructure/logging"
	derr "github.com/driftlabs/driftcortex/internal/errors"
)

// Scheme discriminates the three namespace URI forms spec.md §4.6 names.
type Scheme string

const (
	SchemeAgent   Scheme = "agent"
	SchemeTeam    Scheme = "team"
	SchemeProject Scheme = "project"
)

// NamespaceURI is a parsed agent://, team:// or project:// identifier.
type NamespaceURI struct {
	Scheme Scheme
	ID     string
}

// String renders the URI back to its canonical form.
func (u NamespaceURI) String() string {
	return fmt.Sprintf("%s://%s", u.Scheme, u.ID)
}

// ParseNamespaceURI parses "scheme://id" into a NamespaceURI, validating
// the scheme is one of agent/team/project and id is non-empty.
func ParseNamespaceURI(raw string) (NamespaceURI, error) {
	parts := strings.SplitN(raw, "://", 2)
	if len(parts) != 2 || parts[1] == "" {
		return NamespaceURI{}, derr.InvalidConfig("namespace_uri", fmt.Sprintf("malformed namespace uri %q", raw))
	}
	scheme := Scheme(parts[0])
	switch scheme {
	case SchemeAgent, SchemeTeam, SchemeProject:
	default:
		return NamespaceURI{}, derr.InvalidConfig("namespace_uri", fmt.Sprintf("unknown namespace scheme %q", parts[0]))
	}
	return NamespaceURI{Scheme: scheme, ID: parts[1]}, nil
}

// Permission is a capability an ACL entry may grant.
type Permission string

const (
	PermRead  Permission = "Read"
	PermWrite Permission = "Write"
	PermAdmin Permission = "Admin"
)

// Namespace is an access-controlled memory scope. Owner keeps implicit
// Admin even if its explicit ACL entry is revoked, but only while the
// namespace itself still exists (spec.md §4.6 Namespaces/RBAC).
type Namespace struct {
	URI   NamespaceURI
	Owner string
	acl   map[string]map[Permission]struct{}
	log   *logging.Logger
}

// NewNamespace creates a namespace owned by owner with an empty explicit
// ACL — the owner's implicit Admin does not require an ACL entry.
func NewNamespace(uri NamespaceURI, owner string) *Namespace {
	return &Namespace{URI: uri, Owner: owner, acl: make(map[string]map[Permission]struct{})}
}

// SetLogger attaches an audit/security-event trail to Grant, Revoke and
// CheckToken denials. Unset by default, so namespaces built in tests stay
// silent.
func (n *Namespace) SetLogger(log *logging.Logger) {
	n.log = log
}

// Check reports whether agent holds perm in this namespace: true iff an
// explicit ACL grant covers it, or agent is the owner (owner always has
// every permission, regardless of ACL state).
func (n *Namespace) Check(agent string, perm Permission) bool {
	if agent == n.Owner {
		return true
	}
	grants, ok := n.acl[agent]
	if !ok {
		return false
	}
	_, granted := grants[perm]
	return granted
}

// Grant adds perm for agent, if grantor holds Admin. Returns
// derr.NamespaceDenied otherwise.
func (n *Namespace) Grant(grantor, agent string, perm Permission) error {
	if !n.Check(grantor, PermAdmin) {
		n.logDenied("grant", grantor, agent, perm)
		return derr.NamespaceDenied(n.URI.String(), grantor)
	}
	if n.acl[agent] == nil {
		n.acl[agent] = make(map[Permission]struct{})
	}
	n.acl[agent][perm] = struct{}{}
	if n.log != nil {
		n.log.LogAudit(context.Background(), "grant", "namespace:"+n.URI.String(), agent, "success")
	}
	return nil
}

// Revoke removes perm from agent, if grantor holds Admin. Revoking the
// owner's own explicit grants does not strip the owner's implicit Admin
// (Check always special-cases the owner).
func (n *Namespace) Revoke(grantor, agent string, perm Permission) error {
	if !n.Check(grantor, PermAdmin) {
		n.logDenied("revoke", grantor, agent, perm)
		return derr.NamespaceDenied(n.URI.String(), grantor)
	}
	if grants, ok := n.acl[agent]; ok {
		delete(grants, perm)
	}
	if n.log != nil {
		n.log.LogAudit(context.Background(), "revoke", "namespace:"+n.URI.String(), agent, "success")
	}
	return nil
}

func (n *Namespace) logDenied(action, grantor, agent string, perm Permission) {
	if n.log == nil {
		return
	}
	n.log.LogSecurityEvent(context.Background(), "namespace_"+action+"_denied", map[string]interface{}{
		"namespace": n.URI.String(),
		"grantor":   grantor,
		"agent":     agent,
		"permission": string(perm),
	})
}

// AgentClaims is the JWT claim set asserting an agent's identity for
// namespace RBAC (spec.md §4.6's agent-identity assertions, consumed by
// CheckToken below).
type AgentClaims struct {
	AgentID string `json:"agent_id"`
	jwt.RegisteredClaims
}

// IssueAgentToken signs an HS256 AgentClaims token for agentID, valid for
// ttl from now.
func IssueAgentToken(secret []byte, agentID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AgentClaims{
		AgentID: agentID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   agentID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", derr.Wrap(derr.KindSync, derr.CodeUntrustedPeer, "sign agent token", err).
			WithDetails("agent_id", agentID)
	}
	return token, nil
}

// ParseAgentToken verifies tokenString against secret and returns its claims.
func ParseAgentToken(tokenString string, secret []byte) (*AgentClaims, error) {
	claims := &AgentClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, derr.New(derr.KindSync, derr.CodeUntrustedPeer, "unexpected agent token signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, derr.UntrustedPeer(claims.AgentID, 0)
	}
	return claims, nil
}

// TokenChecker verifies signed agent-identity tokens against a Namespace's
// ACL, memoizing verified claims in an infrastructure/cache.TokenCache keyed
// by token hash so a repeatedly-presented token isn't re-verified on every
// call for the remainder of its validity window.
type TokenChecker struct {
	secret []byte
	cache  *cache.TokenCache
	log    *logging.Logger
}

// NewTokenChecker builds a TokenChecker that verifies tokens against secret.
func NewTokenChecker(secret []byte) *TokenChecker {
	return &TokenChecker{secret: secret, cache: cache.NewTokenCache(cache.DefaultConfig())}
}

// SetLogger attaches a security-event trail to token verification failures.
func (c *TokenChecker) SetLogger(log *logging.Logger) {
	c.log = log
}

// CheckToken verifies tokenString (caching the verified claims for the
// remainder of the token's lifetime) and delegates to n.Check for the
// agent identity it asserts.
func (c *TokenChecker) CheckToken(n *Namespace, tokenString string, perm Permission) (bool, error) {
	hash := tokenHash(tokenString)
	if cached, ok := c.cache.GetToken(hash); ok {
		if claims, ok := cached.(*AgentClaims); ok {
			return n.Check(claims.AgentID, perm), nil
		}
	}

	claims, err := ParseAgentToken(tokenString, c.secret)
	if err != nil {
		if c.log != nil {
			c.log.LogSecurityEvent(context.Background(), "agent_token_rejected", map[string]interface{}{
				"namespace": n.URI.String(),
				"reason":    err.Error(),
			})
		}
		return false, err
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return false, derr.UntrustedPeer(claims.AgentID, 0)
	}
	c.cache.SetToken(hash, claims, ttl)
	return n.Check(claims.AgentID, perm), nil
}

func tokenHash(tokenString string) string {
	sum := sha256.Sum256([]byte(tokenString))
	return hex.EncodeToString(sum[:])
}
