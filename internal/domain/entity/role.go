package entity

// Role identifies a human actor interacting with the workflow
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var validRoles = map[Role]bool{
	RoleTeacher: true,
	RoleStudent: true,
	RoleAdmin:   true,
}

// IsValid returns true if the role is a known actor role
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
