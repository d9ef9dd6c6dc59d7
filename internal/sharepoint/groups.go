package sharepoint

import (
	"context"
	"fmt"
	"net/http"
)

// User is a site user as returned by the store.
type User struct {
	ID    int    `json:"Id"`
	Title string `json:"Title"`
	Email string `json:"Email"`
}

// IsGroupMember reports whether the session user belongs to the named site
// group. A missing group comes back as a store error.
func (s *Store) IsGroupMember(ctx context.Context, group string) (bool, error) {
	endpoint := "/_api/web/sitegroups/getbyname(" + odataLiteral(group) + ")/users" +
		odataQuery("$filter", fmt.Sprintf("Id eq %d", s.sess.UserID))

	var page struct {
		Results []User `json:"results"`
	}
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &page); err != nil {
		return false, fmt.Errorf("check membership of %q: %w", group, err)
	}
	return len(page.Results) > 0, nil
}

// SiteUser reads a site user by ID.
func (s *Store) SiteUser(ctx context.Context, userID int) (User, error) {
	var u User
	endpoint := fmt.Sprintf("/_api/web/getuserbyid(%d)", userID) + odataQuery("$select", "Id,Title,Email")
	if err := s.do(ctx, http.MethodGet, endpoint, nil, nil, &u); err != nil {
		return User{}, fmt.Errorf("fetch site user %d: %w", userID, err)
	}
	return u, nil
}
