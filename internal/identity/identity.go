// Package identity resolves the visitor identity attached to every event.
package identity

import (
	"strconv"

	"github.com/PratikDhanave/commerce-event-relay/internal/models"
)

const (
	legacyCookiePrefix = "__eventn_id_"
	cookiePrefix       = "usermaven_id_"
)

// CookieNames returns the anonymous-id cookie names for apiKey in lookup order.
func CookieNames(apiKey string) []string {
	return []string{legacyCookiePrefix + apiKey, cookiePrefix + apiKey}
}

// AnonymousID returns the first present tracking cookie, preferring the legacy
// pixel's cookie. A present but empty cookie still wins.
func AnonymousID(apiKey string, cookies map[string]string) string {
	for _, name := range CookieNames(apiKey) {
		if v, ok := cookies[name]; ok {
			return v
		}
	}
	return ""
}

// Resolve builds the user sub-object. Registered customers add their profile.
func Resolve(apiKey string, cookies map[string]string, customer *models.Customer) models.User {
	user := models.User{
		AnonymousID: AnonymousID(apiKey, cookies),
		ID:          "",
	}
	if !customer.LoggedIn() {
		return user
	}

	role := ""
	if len(customer.Roles) > 0 {
		role = customer.Roles[0]
	}
	user.ID = strconv.FormatInt(customer.ID, 10)
	user.Email = customer.Email
	user.CreatedAt = customer.Registered
	user.FirstName = customer.FirstName
	user.LastName = customer.LastName
	user.Custom = &models.UserCustom{Role: role}
	return user
}

// CompanyResolver maps a customer to the organization reported with events.
type CompanyResolver func(customer *models.Customer) models.Company

// NoCompany is the default resolver: every event carries an empty company.
func NoCompany(*models.Customer) models.Company {
	return models.Company{}
}
