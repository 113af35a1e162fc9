// Package gorm implements the store interfaces from pkg/server/store
// on top of a gorm postgres connection.
package gorm
