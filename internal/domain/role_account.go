package domain

// RoleAccount identifies one of the fixed shared staff accounts. Each account
// represents a functional role at the venue and gates its own capability surface;
// many terminals sign in under the same account with distinct usernames.
type RoleAccount string

const (
	RoleAccountEntryGate   RoleAccount = "entry-gate"
	RoleAccountTicketDesk  RoleAccount = "ticket-desk"
	RoleAccountBookingDesk RoleAccount = "booking-desk"
)

// RoleAccounts lists every known shared account.
func RoleAccounts() []RoleAccount {
	return []RoleAccount{RoleAccountEntryGate, RoleAccountTicketDesk, RoleAccountBookingDesk}
}

// Valid reports whether the account is one of the known shared accounts.
func (r RoleAccount) Valid() bool {
	switch r {
	case RoleAccountEntryGate, RoleAccountTicketDesk, RoleAccountBookingDesk:
		return true
	}
	return false
}
