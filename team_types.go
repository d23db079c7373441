package dropbox

import "time"

// TeamInfo summarizes the team a team-scoped token belongs to.
type TeamInfo struct {
	Name                string `json:"name"`
	TeamID              string `json:"team_id"`
	NumLicensedUsers    uint32 `json:"num_licensed_users"`
	NumProvisionedUsers uint32 `json:"num_provisioned_users"`
}

// TeamMemberProfile is the member detail returned by team listings.
type TeamMemberProfile struct {
	TeamMemberID   string      `json:"team_member_id"`
	AccountID      string      `json:"account_id,omitempty"`
	Email          string      `json:"email"`
	EmailVerified  bool        `json:"email_verified"`
	Status         TagRef      `json:"status"`
	Name           AccountName `json:"name"`
	MembershipType TagRef      `json:"membership_type"`
	JoinedOn       *time.Time  `json:"joined_on,omitempty"`
}

// TeamMember pairs a member profile with their role on the team.
type TeamMember struct {
	Profile TeamMemberProfile `json:"profile"`
	Role    *TagRef           `json:"role,omitempty"`
}

// MembersListResult is one page of team members.
type MembersListResult struct {
	Members []*TeamMember `json:"members"`
	Cursor  string        `json:"cursor"`
	HasMore bool          `json:"has_more"`
}

type membersListArg struct {
	Limit          uint32 `json:"limit,omitempty"`
	IncludeRemoved bool   `json:"include_removed,omitempty"`
}

type membersListContinueArg struct {
	Cursor string `json:"cursor"`
}
