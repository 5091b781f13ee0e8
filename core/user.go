package core

type (
	// User is the signed-in designer. Only email and display name are known;
	// credentials are checked against a fixed mock account.
	User struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}

	// AuthRecord is the persisted login state for one session.
	AuthRecord struct {
		IsLoggedIn bool  `json:"isLoggedIn"`
		User       *User `json:"user"`
	}
)
