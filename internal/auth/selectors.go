package auth

// Authorization page selectors for the OAuth PIN flow.
// X changes this page occasionally; update these when login stops finding the PIN.
const (
	PINCode      = `#oauth_pin code`
	DeniedNotice = `#oauth_deny`
)
