package model

import "fmt"

const (
	MessagesTable          = "Messages"
	QuoteInquiriesTable    = "QuoteInquiries"
	CustomerInquiriesTable = "CustomerInquiries"
	JobApplicationsTable   = "JobApplications"
)

// DefaultChannel is the single chat surface the storefront deployment uses.
// Messages still carry the channel explicitly so the tables can be shared by
// more than one surface later.
const DefaultChannel = "storefront"

func ChannelScopedPK(channel, entityID string) string {
	return fmt.Sprintf("%s#%s", channel, entityID)
}
