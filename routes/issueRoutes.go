package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"civix-be/controllers"
	"civix-be/middlewares"
	"civix-be/models"
	authUtils "civix-be/utils"
)

// IssueRoutes sets up the issue routes. When redisClient is nil the
// creation rate limiter is disabled.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, tokens *authUtils.TokenService, redisClient *redis.Client, dailyLimit int) {
	requireAuth := middlewares.AuthMiddleware(tokens)
	privileged := middlewares.RequireRole(models.RoleVolunteer, models.RoleAdmin)

	issue := r.Group("/api/issues")
	{
		issue.GET("", middlewares.OptionalAuth(tokens), ic.GetAllIssues)
		issue.GET("/recent", ic.RecentIssues)
		issue.GET("/analytics", ic.GetIssueAnalytics)

		create := []gin.HandlerFunc{requireAuth}
		if redisClient != nil {
			create = append(create, middlewares.IssueRateLimiter(redisClient, dailyLimit))
		}
		issue.POST("/create", append(create, ic.CreateIssue)...)

		issue.GET("/mine", requireAuth, ic.GetMyIssues)
		issue.GET("/:id", requireAuth, ic.GetIssue)
		issue.PUT("/:id", requireAuth, ic.UpdateIssue)
		issue.DELETE("/:id", requireAuth, ic.DeleteIssue)
		issue.POST("/:id/vote", requireAuth, ic.HandleVoteOnIssue)
		issue.POST("/:id/comment", requireAuth, ic.AddComment)
		issue.PATCH("/:id/status", requireAuth, privileged, ic.SetStatus)
		issue.PUT("/:id/progress", requireAuth, privileged, ic.UpdateProgress)
	}
}
