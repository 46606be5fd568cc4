package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedreel/feedreel/global"
	"github.com/feedreel/feedreel/models"
	"github.com/feedreel/feedreel/utils"
)

func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("Authorization")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		username, err := utils.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		// Find user in database to get user ID
		var user models.User
		if err := global.DB.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
			c.Abort()
			return
		}

		c.Set("username", username)
		c.Set("user_id", user.ID)
		c.Next()
	}
}
