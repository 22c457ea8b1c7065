package cache

import "fmt"

const (
	KeyTeams       = "teams"
	KeyMembers     = "members"
	KeyCities      = "cities"
	KeyPositions   = "positions"
	KeyDepartments = "departments"
)

// TeamKey holds the team detail without its tree.
func TeamKey(teamID int64) string {
	return fmt.Sprintf("team:%d", teamID)
}

// TeamMembersKey holds the member cards of a team.
func TeamMembersKey(teamID int64) string {
	return fmt.Sprintf("members:team:%d", teamID)
}

// UserProjectsKey holds the short project list of a user.
func UserProjectsKey(userID int64) string {
	return fmt.Sprintf("my_projects:%d", userID)
}
