package repos

import (
	"github.com/yungbote/civicpulse-backend/internal/data/repos/auth"
	"github.com/yungbote/civicpulse-backend/internal/data/repos/complaint"
	"github.com/yungbote/civicpulse-backend/internal/data/repos/user"
	"github.com/yungbote/civicpulse-backend/internal/platform/logger"
	"gorm.io/gorm"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo
type ComplaintRepo = complaint.ComplaintRepo

type ComplaintListFilter = complaint.ListFilter

const (
	ComplaintOrderPriority = complaint.OrderPriority
	ComplaintOrderNewest   = complaint.OrderNewest
)

func NewUserRepo(db *gorm.DB, log *logger.Logger) UserRepo { return user.NewUserRepo(db, log) }
func NewUserTokenRepo(db *gorm.DB, log *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, log)
}
func NewComplaintRepo(db *gorm.DB, log *logger.Logger) ComplaintRepo {
	return complaint.NewComplaintRepo(db, log)
}

// IsNotFound reports whether a repo error means the row does not exist.
func IsNotFound(err error) bool { return complaint.IsNotFound(err) }
