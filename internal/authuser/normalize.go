package authuser

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-authsync/internal/auth0"
	"github.com/ovaphlow/pitchfork/service-authsync/internal/authuser/entity"
	"github.com/ovaphlow/pitchfork/service-authsync/pkg/utilities"
)

// ErrNoIdentity is returned for a user without any identity entry; the login
// provider cannot be derived for such a user.
var ErrNoIdentity = errors.New("user has no identities")

// Matcher reports whether a rule applies. company is already trimmed and
// email is lower-cased.
type Matcher func(email, company string) bool

// CompanyRule rewrites the company field to Tag when Match succeeds.
type CompanyRule struct {
	Name  string
	Match Matcher
	Tag   string
}

// EmailDomain matches addresses ending in @domain for any of the domains.
func EmailDomain(domains ...string) Matcher {
	suffixes := make([]string, 0, len(domains))
	for _, d := range domains {
		suffixes = append(suffixes, "@"+strings.ToLower(d))
	}
	return func(email, _ string) bool {
		for _, s := range suffixes {
			if strings.HasSuffix(email, s) {
				return true
			}
		}
		return false
	}
}

// CompanyIs matches a company equal to one of names.
func CompanyIs(names ...string) Matcher {
	return func(_, company string) bool {
		for _, n := range names {
			if company == n {
				return true
			}
		}
		return false
	}
}

// Any matches when at least one of ms matches.
func Any(ms ...Matcher) Matcher {
	return func(email, company string) bool {
		for _, m := range ms {
			if m(email, company) {
				return true
			}
		}
		return false
	}
}

// DefaultCompanyRules returns the rule table in priority order. orgDomains
// are the email domains of the organization itself.
func DefaultCompanyRules(orgDomains []string) []CompanyRule {
	return []CompanyRule{
		{
			Name:  "oxide",
			Match: Any(EmailDomain(orgDomains...), CompanyIs("Oxide Computer Company")),
			Tag:   "@oxidecomputer",
		},
		{Name: "bench", Match: EmailDomain("bench.com"), Tag: "@bench"},
		{Name: "algolia", Match: CompanyIs("Algolia"), Tag: "@algolia"},
		// empty parses and placeholder values people put in the field
		{Name: "cleanup", Match: CompanyIs("", "TBD", "0xF9BA143B95FF6D82"), Tag: ""},
	}
}

// Normalizer maps provider users into AuthUser records.
type Normalizer struct {
	rules []CompanyRule
}

func NewNormalizer(rules []CompanyRule) *Normalizer {
	return &Normalizer{rules: rules}
}

// Company applies the first matching rule, or returns the trimmed company.
func (n *Normalizer) Company(email, company string) string {
	company = strings.TrimSpace(company)
	email = strings.ToLower(strings.TrimSpace(email))
	for _, r := range n.rules {
		if r.Match(email, company) {
			return r.Tag
		}
	}
	return company
}

// Normalize converts u. LastApplicationAccessed and the link fields are left
// empty for the caller to fill in.
func (n *Normalizer) Normalize(u auth0.User) (*entity.AuthUser, error) {
	if len(u.Identities) == 0 {
		return nil, fmt.Errorf("normalize %s: %w", u.UserID, ErrNoIdentity)
	}
	return &entity.AuthUser{
		UserID:               u.UserID,
		Name:                 u.Name,
		Nickname:             u.Nickname,
		Username:             u.Username,
		Email:                u.Email,
		EmailVerified:        u.EmailVerified,
		Picture:              u.Picture,
		Company:              n.Company(u.Email, u.Company),
		Blog:                 u.Blog,
		Phone:                u.PhoneNumber,
		PhoneVerified:        u.PhoneVerified,
		Locale:               u.Locale,
		LoginProvider:        u.Identities[0].Provider,
		CreatedAt:            u.CreatedAt,
		UpdatedAt:            u.UpdatedAt,
		LastLogin:            u.LastLogin,
		LastIP:               u.LastIP,
		LoginsCount:          u.LoginsCount,
		LinkToPeople:         pq.StringArray{},
		LinkToAuthUserLogins: pq.StringArray{},
		LinkToPageViews:      pq.StringArray{},
	}, nil
}

// Login converts a log event of user into a login row stamped with the user's email.
func Login(user *entity.AuthUser, l auth0.LogEntry) *entity.AuthUserLogin {
	logID := l.LogID
	if logID == "" {
		// events without an id still need a stable key
		logID = l.Date.UTC().Format("20060102T150405.000000000") + "/" + l.Type + "/" + l.ClientID
	}
	return &entity.AuthUserLogin{
		ID:           utilities.LoginID(user.UserID, logID),
		LogID:        l.LogID,
		UserID:       user.UserID,
		Email:        user.Email,
		Date:         l.Date,
		Type:         l.Type,
		Description:  l.Description,
		ClientID:     l.ClientID,
		ClientName:   l.ClientName,
		Connection:   l.Connection,
		IP:           l.IP,
		Hostname:     l.Hostname,
		UserAgent:    l.UserAgent,
		UserName:     l.UserName,
		Strategy:     l.Strategy,
		StrategyType: l.StrategyType,
		IsMobile:     l.IsMobile,
	}
}
