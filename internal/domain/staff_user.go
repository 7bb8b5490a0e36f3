package domain

// StaffUser is an individual staff identity operating under a shared RoleAccount.
// Staff users are created and maintained by the console subsystem; this service
// only reads them.
type StaffUser struct {
	Username    string
	DisplayName string
	RoleAccount RoleAccount
}
