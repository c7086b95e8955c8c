package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/candrle20/researchtools/internal/model"
	"gorm.io/gorm"
)

// ContextUserKey gin 上下文中当前用户的键
const ContextUserKey = "current_user"

// AuthMiddleware 认证中间件
// 验证 Bearer Token 并将解析出的用户写入上下文,
// 后续控制器以显式 actor 参数传入服务层
func AuthMiddleware(tm *TokenManager, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "missing authorization header",
			})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid authorization header",
			})
			return
		}

		claims, err := tm.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid token",
				"detail":  err.Error(),
			})
			return
		}

		// 按令牌中的用户 ID 解析用户,保证角色/学院信息是最新的
		var user model.UserModel
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "user not found",
			})
			return
		}

		c.Set(ContextUserKey, &user)
		c.Next()
	}
}

// CurrentUser 从上下文获取当前用户
func CurrentUser(c *gin.Context) *model.UserModel {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil
	}
	user, ok := v.(*model.UserModel)
	if !ok {
		return nil
	}
	return user
}
