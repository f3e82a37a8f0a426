package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/fintelis/fintelis-api/internal/services"
	"github.com/fintelis/fintelis-api/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHeader names the company a request acts on
const CompanyHeader = "X-Company-ID"

// MembershipChecker decides which companies a user may act on
type MembershipChecker interface {
	IsMember(ctx context.Context, companyID, userID uuid.UUID) (bool, error)
	DefaultCompany(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)
}

// ActiveCompany resolves the company of the request from the X-Company-ID
// header, or the user's first company when the header is absent, and
// rejects users who are not members. Must run after Auth.
func ActiveCompany(checker MembershipChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		ctx := c.Request.Context()

		var companyID uuid.UUID
		if raw := c.GetHeader(CompanyHeader); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": CompanyHeader + " must be a UUID"})
				return
			}
			member, err := checker.IsMember(ctx, id, userID)
			if err != nil {
				logger.Error("Membership check failed", "company_id", id, "user_id", userID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			if !member {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not a member of this company"})
				return
			}
			companyID = id
		} else {
			id, err := checker.DefaultCompany(ctx, userID)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "user belongs to no company"})
					return
				}
				logger.Error("Default company lookup failed", "user_id", userID, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			companyID = id
		}

		c.Set("companyID", companyID)
		c.Next()
	}
}

// GetCompanyID extracts the active company from the Gin context
func GetCompanyID(c *gin.Context) uuid.UUID {
	companyID, exists := c.Get("companyID")
	if !exists {
		return uuid.Nil
	}
	return companyID.(uuid.UUID)
}
