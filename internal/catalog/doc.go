// Package catalog serves product listings and product management.
//
// Listings are cached per filter and page in an LRU with a fixed TTL.
// A cached page is served as-is until it expires, so stock shown in a
// listing can be up to one TTL old. Product writes made through this
// package purge the cache; stock changes made by order placement do not.
//
// Concurrent misses for the same listing share a single database query.
//
// Factory generates random products for development databases.
package catalog
