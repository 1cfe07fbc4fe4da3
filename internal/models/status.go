package models

import "strings"

// AllowedStatuses is the closed work-order status vocabulary. Order is
// display order only; any status may move to any other.
var AllowedStatuses = []string{
	"Assigned",
	"Secured",
	"Awaiting Approval",
	"Awaiting Advice",
	"Onsite",
	"Job Done",
	"Needs Proposal",
	"Approved Scheduled",
	"Approved Pending",
	"Return Trip Needed",
	"Parts Needed",
	"Parts Ordered",
	"Billed For Incurred",
	"Ready To Invoice",
	"Invoiced",
	"Recall",
	"Paid",
	"Canceled",
}

// DefaultStatus is assigned when a work order is created without one
const DefaultStatus = "Assigned"

var statusSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AllowedStatuses))
	for _, s := range AllowedStatuses {
		set[s] = struct{}{}
	}
	return set
}()

// NormalizeStatus trims the input and defaults empty to DefaultStatus.
// It does not validate membership; callers check IsValidStatus.
func NormalizeStatus(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultStatus
	}
	return s
}

// IsValidStatus reports whether s is an exact member of the vocabulary
func IsValidStatus(s string) bool {
	_, ok := statusSet[s]
	return ok
}
