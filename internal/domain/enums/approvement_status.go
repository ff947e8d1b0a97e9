package enums

type ApprovementStatus string

const (
	ApprovementStatusNone     ApprovementStatus = "none"
	ApprovementStatusPending  ApprovementStatus = "pending"
	ApprovementStatusApproved ApprovementStatus = "approved"
	ApprovementStatusRejected ApprovementStatus = "rejected"
)

func ApprovementDecision(isApprove bool) ApprovementStatus {
	if isApprove {
		return ApprovementStatusApproved
	}
	return ApprovementStatusRejected
}
