package dropbox

// AccountName carries the name variants Dropbox keeps for an account.
type AccountName struct {
	GivenName       string `json:"given_name"`
	Surname         string `json:"surname"`
	FamiliarName    string `json:"familiar_name"`
	DisplayName     string `json:"display_name"`
	AbbreviatedName string `json:"abbreviated_name"`
}

// RootInfo describes the namespace the account's paths are relative to.
// Team accounts with a shared team space report a "team" tag and distinct
// root and home namespaces.
type RootInfo struct {
	Tag             string `json:".tag"`
	RootNamespaceID string `json:"root_namespace_id"`
	HomeNamespaceID string `json:"home_namespace_id"`
}

// FullAccount is the authenticated user's own account detail.
type FullAccount struct {
	AccountID       string      `json:"account_id"`
	Name            AccountName `json:"name"`
	Email           string      `json:"email"`
	EmailVerified   bool        `json:"email_verified"`
	Disabled        bool        `json:"disabled"`
	Country         string      `json:"country,omitempty"`
	Locale          string      `json:"locale"`
	ReferralLink    string      `json:"referral_link"`
	IsPaired        bool        `json:"is_paired"`
	AccountType     TagRef      `json:"account_type"`
	RootInfo        *RootInfo   `json:"root_info,omitempty"`
	ProfilePhotoURL string      `json:"profile_photo_url,omitempty"`
	TeamMemberID    string      `json:"team_member_id,omitempty"`
}

// BasicAccount is the public subset visible for other users.
type BasicAccount struct {
	AccountID       string      `json:"account_id"`
	Name            AccountName `json:"name"`
	Email           string      `json:"email"`
	EmailVerified   bool        `json:"email_verified"`
	Disabled        bool        `json:"disabled"`
	IsTeammate      bool        `json:"is_teammate"`
	ProfilePhotoURL string      `json:"profile_photo_url,omitempty"`
	TeamMemberID    string      `json:"team_member_id,omitempty"`
}

// SpaceAllocation is the quota the used bytes count against. The
// "individual" and "team" variants both carry Allocated.
type SpaceAllocation struct {
	Tag       string `json:".tag"`
	Allocated uint64 `json:"allocated"`
}

// SpaceUsage reports consumed storage against the account's allocation.
type SpaceUsage struct {
	Used       uint64          `json:"used"`
	Allocation SpaceAllocation `json:"allocation"`
}

type getAccountArg struct {
	AccountID string `json:"account_id"`
}
