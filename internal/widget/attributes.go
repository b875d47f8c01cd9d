package widget

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/wolfman30/lsv-booking-widget/internal/theme"
)

// Observed host attributes.
const (
	AttrAPIURL      = "api-url"
	AttrProfileSlug = "profile-slug"
	AttrVaultSlug   = "vault-slug"
	AttrTheme       = "theme"
)

// ObservedAttributes lists the attributes whose changes an instance reacts to.
var ObservedAttributes = []string{AttrAPIURL, AttrProfileSlug, AttrVaultSlug, AttrTheme}

// Attributes are the declarative settings supplied by the host page.
type Attributes struct {
	APIURL      string
	ProfileSlug string
	VaultSlug   string
	Theme       string
}

// APIRoot is the API URL without its trailing slash.
func (a Attributes) APIRoot() string {
	return strings.TrimSuffix(a.APIURL, "/")
}

// ResourcePath is the tenant-scoped prefix every booking request is built on.
// Missing attributes produce an unusable path; the failure surfaces when a
// request is made.
func (a Attributes) ResourcePath() string {
	return fmt.Sprintf("%s/api/v1/public/vaults/%s/%s",
		a.APIRoot(), url.PathEscape(a.ProfileSlug), url.PathEscape(a.VaultSlug))
}

// ThemeValue parses the theme attribute.
func (a Attributes) ThemeValue() theme.Theme {
	return theme.Parse(a.Theme)
}

// Get returns the value of an observed attribute.
func (a Attributes) Get(name string) (string, bool) {
	switch name {
	case AttrAPIURL:
		return a.APIURL, true
	case AttrProfileSlug:
		return a.ProfileSlug, true
	case AttrVaultSlug:
		return a.VaultSlug, true
	case AttrTheme:
		return a.Theme, true
	}
	return "", false
}

// Set updates an observed attribute. It reports false for unobserved names.
func (a *Attributes) Set(name, value string) bool {
	switch name {
	case AttrAPIURL:
		a.APIURL = value
	case AttrProfileSlug:
		a.ProfileSlug = value
	case AttrVaultSlug:
		a.VaultSlug = value
	case AttrTheme:
		a.Theme = value
	default:
		return false
	}
	return true
}

// AttributeChange is the reaction an attached instance owes an attribute update.
type AttributeChange int

const (
	ChangeNone AttributeChange = iota
	ChangeRender
	ChangeReset
)

// ClassifyAttributeChange decides how an attached instance reacts when name
// goes from oldValue to newValue.
func ClassifyAttributeChange(name, oldValue, newValue string) AttributeChange {
	if oldValue == newValue {
		return ChangeNone
	}
	switch name {
	case AttrTheme:
		return ChangeRender
	case AttrAPIURL, AttrProfileSlug, AttrVaultSlug:
		return ChangeReset
	}
	return ChangeNone
}
