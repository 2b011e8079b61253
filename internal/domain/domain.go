package domain

import (
	"github.com/yungbote/civicpulse-backend/internal/domain/auth"
	"github.com/yungbote/civicpulse-backend/internal/domain/complaint"
	"github.com/yungbote/civicpulse-backend/internal/domain/user"
)

const (
	RoleCitizen = user.RoleCitizen
	RoleAdmin   = user.RoleAdmin

	StatusReceived   = complaint.StatusReceived
	StatusInProgress = complaint.StatusInProgress
	StatusResolved   = complaint.StatusResolved
)

type (
	User        = user.User
	UserSummary = user.Summary
	UserBalance = user.Balance
	UserToken   = auth.UserToken

	Complaint     = complaint.Complaint
	ComplaintView = complaint.View
	StatusCounts  = complaint.StatusCounts
	Department    = complaint.Department
)

func NewComplaintView(c *Complaint) ComplaintView { return complaint.NewView(c) }
