package models

// Session is the signed-in user, persisted locally after login.
type Session struct {
	UserID      string `json:"userId"`
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}

func (s *Session) Valid() bool {
	return s != nil && s.UserID != "" && s.AccessToken != ""
}
