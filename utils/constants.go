package utils

import "time"

// AuthCachePrefix is the prefix used for Redis identity cache keys.
const AuthCachePrefix = "auth:"

// AuthCacheTTL bounds how long a verified token is trusted without re-verification.
const AuthCacheTTL = 10 * time.Minute
