package teammodels

// Team represents a team entity
type Team struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	OwnerID     int64  `json:"owner"`
	Description string `json:"description"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// TeamShort is the compact team form embedded in projects.
type TeamShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TeamListItem is a team with the projects it is attached to.
type TeamListItem struct {
	ID       int64          `json:"id"`
	Name     string         `json:"name"`
	Projects []ProjectShort `json:"projects"`
}

// ProjectShort is the compact project form embedded in teams and users.
type ProjectShort struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Member is a person's position within exactly one team.
type Member struct {
	ID           int64  `json:"id"`
	TeamID       int64  `json:"team_id"`
	UserID       int64  `json:"user_id"`
	ParentID     *int64 `json:"parent_id"`
	DepartmentID *int64 `json:"department_id"`
}

// MemberCard holds the projected fields needed to render a member in a tree.
type MemberCard struct {
	ID         int64  `json:"id"`
	ParentID   *int64 `json:"-"`
	UserID     int64  `json:"user_id"`
	FullName   string `json:"full_name"`
	Image      string `json:"image"`
	Position   string `json:"position"`
	Department string `json:"department"`
}

// MemberListItem is a row of the member directory.
type MemberListItem struct {
	ID         int64  `json:"id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Position   string `json:"position"`
	City       string `json:"city"`
}

// MemberFilter narrows the member directory.
type MemberFilter struct {
	City         string
	Position     string
	DepartmentID int64
	Search       string
	Limit        int
	Offset       int
}

// Department is a classification tag for members.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
