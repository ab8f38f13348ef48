package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins of the two front-end projects, plus local dev servers.
var defaultAllowedOrigins = []string{
	"https://app.pantryplan.io",
	"https://admin.pantryplan.io",
	"http://localhost:5173",
	"http://localhost:5174",
}

// Preview deployments of the two front-end projects:
// https://pantryplan-web-<hash>.vercel.app and pantryplan-admin-*.
var previewOriginPrefixes = []string{
	"https://pantryplan-web-",
	"https://pantryplan-admin-",
}

const previewOriginSuffix = ".vercel.app"

const allowedHeaders = "Content-Type, Authorization, Accept, Origin, User-Agent, Cache-Control, Keep-Alive, X-Requested-With, Pragma"

// CORS validates the request origin against the allow-list and the preview
// deployment pattern. An unrecognized origin still gets CORS headers naming
// the first allow-listed origin; the browser will refuse the response and
// the server keeps running. OPTIONS preflights short-circuit with a 200.
func CORS(extraOrigins []string) gin.HandlerFunc {
	allowed := append(append([]string{}, defaultAllowedOrigins...), extraOrigins...)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		granted := allowed[0]
		if originAllowed(origin, allowed) {
			granted = origin
		}

		c.Writer.Header().Set("Access-Control-Allow-Origin", granted)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400") // 24 hours
		c.Writer.Header().Set("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return false
	}
	for _, a := range allowed {
		if origin == a {
			return true
		}
	}
	if strings.HasSuffix(origin, previewOriginSuffix) {
		for _, prefix := range previewOriginPrefixes {
			if strings.HasPrefix(origin, prefix) {
				return true
			}
		}
	}
	return false
}

// RequireCSRFHeader rejects mutating requests that lack the custom marker
// header. A cross-site form submission cannot set it, so its absence means
// the call did not come from our front-end code.
func RequireCSRFHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if c.GetHeader("X-Requested-With") != "XMLHttpRequest" {
			c.JSON(http.StatusForbidden, gin.H{"error": "missing required header"})
			c.Abort()
			return
		}

		c.Next()
	}
}
