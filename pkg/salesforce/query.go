package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Contact represents a Salesforce Contact record.
type Contact struct {
	ID        string `json:"Id" salesforce:"Id"`
	Name      string `json:"Name" salesforce:"Name"`
	Email     string `json:"Email" salesforce:"Email"`
	AccountID string `json:"AccountId" salesforce:"AccountId"`
}

// contactFields are the SOQL fields selected for Contact queries.
var contactFields = []string{"Id", "Name", "Email", "AccountId"}

// maxSoqlInTerms caps the size of a single IN (...) list. Long email lists
// are split across queries to stay well clear of the SOQL length limit.
const maxSoqlInTerms = 200

// FindContactsByEmail queries Salesforce for Contacts matching any of the
// given email addresses. Emails with no matching Contact are simply absent
// from the result; the caller decides how to handle unmatched customers.
func FindContactsByEmail(ctx context.Context, c Client, emails []string) ([]Contact, error) {
	if len(emails) == 0 {
		return nil, nil
	}

	var all []Contact
	for start := 0; start < len(emails); start += maxSoqlInTerms {
		end := min(start+maxSoqlInTerms, len(emails))

		quoted := make([]string, 0, end-start)
		for _, email := range emails[start:end] {
			quoted = append(quoted, "'"+escapeSoql(email)+"'")
		}
		soql := fmt.Sprintf(
			"SELECT %s FROM Contact WHERE Email IN (%s)",
			strings.Join(contactFields, ", "),
			strings.Join(quoted, ", "),
		)

		var contacts []Contact
		if err := c.Query(ctx, soql, &contacts); err != nil {
			return nil, eris.Wrap(err, "sf: find contacts by email")
		}
		all = append(all, contacts...)
	}
	return all, nil
}

// escapeSoql escapes single quotes in SOQL string literals to prevent injection.
func escapeSoql(s string) string {
	return strings.ReplaceAll(s, "'", "\\'")
}
