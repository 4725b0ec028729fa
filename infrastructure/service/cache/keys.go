package cache

import (
	"fmt"
	"time"
)

// Key naming convention: tokonova:<resource>:<view>:<identifier>. Write
// paths that mutate a resource invalidate tokonova:<resource>:* as a group.
const keyPrefix = "tokonova"

const (
	ResourceProducts = "products"
	ResourceServices = "services"
	ResourceUsers    = "users"
)

// Per-resource TTLs. Catalog data changes rarely; user profiles are cached
// briefly as a convenience for guarded handlers.
const (
	TTLProductDetail = time.Hour
	TTLProductList   = 30 * time.Minute
	TTLServiceList   = time.Hour
	TTLUserProfile   = 5 * time.Minute
	TTLHomepage      = 15 * time.Minute
)

func ProductKey(id string) string {
	return fmt.Sprintf("%s:%s:detail:%s", keyPrefix, ResourceProducts, id)
}

func ProductListKey(page, limit int) string {
	return fmt.Sprintf("%s:%s:list:page:%d:limit:%d", keyPrefix, ResourceProducts, page, limit)
}

func ServiceListKey() string {
	return fmt.Sprintf("%s:%s:list", keyPrefix, ResourceServices)
}

func UserKey(id string) string {
	return fmt.Sprintf("%s:%s:profile:%s", keyPrefix, ResourceUsers, id)
}

// HomepageKey is a composite view embedding products and services; it is
// invalidated whenever either resource changes.
func HomepageKey() string {
	return keyPrefix + ":homepage"
}

func resourcePattern(resource string) string {
	return fmt.Sprintf("%s:%s:*", keyPrefix, resource)
}
