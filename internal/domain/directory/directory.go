// Package directory holds the people and places of the business: users,
// branches, and outlets. These records are owned by the upstream API; the
// types here mirror its wire format.
package directory

import "time"

// Segment is the role or channel tag on a user or outlet record. The same
// field drives both access control (Admin, Admin Cabang) and sales channel
// assignment (Retail, Agent, Wholesale).
type Segment string

const (
	SegmentAdmin       Segment = "Admin"
	SegmentAdminBranch Segment = "Admin Cabang"
	SegmentSales       Segment = "Sales"
	SegmentManagement  Segment = "Management"
	SegmentRetail      Segment = "Retail"
	SegmentAgent       Segment = "Agent"
	SegmentWholesale   Segment = "Wholesale"
)

// IsAdmin reports whether the segment grants access to the back office.
func (s Segment) IsAdmin() bool {
	return s == SegmentAdmin || s == SegmentAdminBranch
}

// User is an account in the upstream system. BranchID is set only for users
// scoped to a single branch (segment Admin Cabang and branch sales staff).
type User struct {
	ID         int64   `json:"id"`
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Segment    Segment `json:"segment"`
	BranchID   *int64  `json:"branch_id"`
	BranchName string  `json:"branch_name,omitempty"`
}

// Branch is a physical company branch (cabang).
type Branch struct {
	ID         int64     `json:"id"`
	BranchCode string    `json:"branch_code"`
	BranchName string    `json:"branch_name"`
	Address    string    `json:"address"`
	CreatedAt  time.Time `json:"created_at"`
}

// Outlet is a customer store served by a branch. Segment distinguishes
// retail, agent, and wholesale outlets.
type Outlet struct {
	ID         int64     `json:"id"`
	StoreName  string    `json:"store_name"`
	OwnerName  string    `json:"owner_name"`
	BranchID   int64     `json:"branch_id"`
	BranchName string    `json:"branch_name,omitempty"`
	Segment    Segment   `json:"segment"`
	CreatedAt  time.Time `json:"created_at"`
}

// FilterOutlets returns only the outlets belonging to the given segment.
// The upstream list endpoint has no segment filter, so screens narrow
// client-side.
func FilterOutlets(outlets []Outlet, segment Segment) []Outlet {
	filtered := make([]Outlet, 0, len(outlets))
	for _, o := range outlets {
		if o.Segment == segment {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// FilterSalesUsers returns only the users whose segment is a sales channel.
// Mirrors the upstream ?salesOnly=true behaviour for lists fetched without it.
func FilterSalesUsers(users []User) []User {
	filtered := make([]User, 0, len(users))
	for _, u := range users {
		switch u.Segment {
		case SegmentRetail, SegmentAgent, SegmentWholesale, SegmentSales:
			filtered = append(filtered, u)
		}
	}
	return filtered
}
