package facebook

import "github.com/kagomalabs/go-identity/social"

type facebookProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	} `json:"picture"`
}

func mapIdentity(profile *facebookProfile) *social.ExternalIdentity {
	if profile == nil {
		return nil
	}

	return &social.ExternalIdentity{
		Provider:       "facebook",
		ProviderUserID: profile.ID,
		Email:          profile.Email,
		// Facebook only returns an email the account owner confirmed.
		EmailVerified: profile.Email != "",
		Name:          profile.Name,
		AvatarURL:     profile.Picture.Data.URL,
		Raw: map[string]any{
			"id":    profile.ID,
			"name":  profile.Name,
			"email": profile.Email,
		},
	}
}
